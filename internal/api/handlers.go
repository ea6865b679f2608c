package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"animation_panel_server/internal/debounce"
	"animation_panel_server/internal/panel"
	"animation_panel_server/internal/plugin"
	"animation_panel_server/internal/session"
	"animation_panel_server/internal/types"

	"github.com/gin-gonic/gin"
)

// CodeGenerator produces implementation files for an animation.
type CodeGenerator interface {
	GenerateAnimationCode(ctx context.Context, userQuery string, animationSpec string) ([]types.GeneratedFile, error)
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	plugin *plugin.Plugin
	coder  CodeGenerator // nil disables previews

	previewInterval time.Duration
	throttleMu      sync.Mutex
	throttles       map[string]*debounce.Throttle
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(p *plugin.Plugin, coder CodeGenerator, previewInterval time.Duration) *APIHandler {
	h := &APIHandler{
		plugin:          p,
		coder:           coder,
		previewInterval: previewInterval,
		throttles:       make(map[string]*debounce.Throttle),
	}
	if p != nil {
		// throttles live exactly as long as their session
		p.Sessions().OnClose(h.forgetThrottle)
	}
	return h
}

// --- Structs for API Requests/Responses ---

type OpenResponse struct {
	SessionID string     `json:"sessionId"`
	Panel     panel.View `json:"panel"`
}

type EditFieldRequest struct {
	Field string          `json:"field" binding:"required,oneof=type duration delay easing iterations direction fillMode"`
	Value json.RawMessage `json:"value" binding:"required"`
}

type AddPropertyRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type PropertyResponse struct {
	Added  bool       `json:"added"`
	Errors []string   `json:"errors"`
	Panel  panel.View `json:"panel"`
}

type TogglePropertyResponse struct {
	Selected bool       `json:"selected"`
	Panel    panel.View `json:"panel"`
}

type SetOptionRequest struct {
	Value types.OptionValue `json:"value"`
}

type PromptSendRequest struct {
	SessionID string                  `json:"sessionId" binding:"required"`
	Prompt    string                  `json:"prompt"`
	Elements  []types.SelectedElement `json:"elements"`
}

type PromptSendResponse struct {
	Contexts []types.ContextSnippet `json:"contexts"`
}

type PreviewRequest struct {
	Prompt   string                  `json:"prompt" binding:"required"`
	Elements []types.SelectedElement `json:"elements" binding:"required,min=1"`
}

type PreviewResponse struct {
	Files []types.GeneratedFile `json:"files"`
}

// rawValue turns a JSON form value into the raw string the sanitizer expects.
func rawValue(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(msg))
}

func (h *APIHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.plugin.Sessions().Get(c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}
	return s, true
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Panel session not found"})
	case errors.Is(err, session.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "Panel session is closed"})
	case errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrRejectedValue),
		errors.Is(err, session.ErrInvalidOption):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: panel request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// --- API Handlers ---

// GET /plugin
func (h *APIHandler) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.plugin.Manifest())
}

// POST /panel/open
func (h *APIHandler) OpenPanel(c *gin.Context) {
	view, err := h.plugin.OnOpen(c.Request.Context())
	if err != nil {
		// the host still renders the fallback view
		c.JSON(http.StatusOK, OpenResponse{Panel: view})
		return
	}
	c.JSON(http.StatusCreated, OpenResponse{SessionID: view.SessionID, Panel: view})
}

// GET /panel/:id
func (h *APIHandler) GetPanel(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// PATCH /panel/:id/fields
func (h *APIHandler) EditField(c *gin.Context) {
	var req EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ApplyEdit(req.Field, rawValue(req.Value)); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// PUT /panel/:id/config
func (h *APIHandler) ReplaceConfig(c *gin.Context) {
	var cfg types.AnimationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Replace(cfg); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// POST /panel/:id/properties
func (h *APIHandler) AddProperty(c *gin.Context) {
	var req AddPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	result, err := s.AddProperty(req.Name)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, PropertyResponse{Added: result.Valid, Errors: result.Errors, Panel: panel.Build(s)})
}

// DELETE /panel/:id/properties/:name
func (h *APIHandler) RemoveProperty(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	removed, err := s.RemoveProperty(c.Param("name"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not selected"})
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// POST /panel/:id/properties/:name/toggle
func (h *APIHandler) ToggleProperty(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	selected, err := s.ToggleProperty(c.Param("name"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, TogglePropertyResponse{Selected: selected, Panel: panel.Build(s)})
}

// PUT /panel/:id/options/:key
func (h *APIHandler) SetOption(c *gin.Context) {
	var req SetOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SetOption(c.Param("key"), req.Value); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// DELETE /panel/:id/options/:key
func (h *APIHandler) RemoveOption(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	removed, err := s.RemoveOption(c.Param("key"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Option not set"})
		return
	}
	c.JSON(http.StatusOK, panel.Build(s))
}

// POST /panel/:id/validate
func (h *APIHandler) Validate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	result, err := s.Validate()
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DELETE /panel/:id
func (h *APIHandler) ClosePanel(c *gin.Context) {
	id := c.Param("id")
	if err := h.plugin.Sessions().Close(id); err != nil {
		respondSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /prompt/send
func (h *APIHandler) SendPrompt(c *gin.Context) {
	var req PromptSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	contexts := h.plugin.OnPromptSend(c.Request.Context(), req.SessionID, req.Prompt, req.Elements)
	if contexts == nil {
		contexts = []types.ContextSnippet{}
	}
	c.JSON(http.StatusOK, PromptSendResponse{Contexts: contexts})
}

func (h *APIHandler) forgetThrottle(id string) {
	h.throttleMu.Lock()
	delete(h.throttles, id)
	h.throttleMu.Unlock()
}

func (h *APIHandler) allowPreview(id string) bool {
	h.throttleMu.Lock()
	th, ok := h.throttles[id]
	if !ok {
		th = debounce.NewThrottle(h.previewInterval, nil)
		h.throttles[id] = th
	}
	h.throttleMu.Unlock()
	return th.Call()
}

// POST /panel/:id/preview
func (h *APIHandler) Preview(c *gin.Context) {
	if h.coder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Animation code preview is not configured"})
		return
	}
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	id := c.Param("id")
	spec, ok, err := h.plugin.Render(id, req.Elements)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Nothing to preview for this configuration"})
		return
	}
	if !h.allowPreview(id) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Preview requested too often, please wait"})
		return
	}

	files, err := h.coder.GenerateAnimationCode(c.Request.Context(), req.Prompt, spec)
	if err != nil {
		log.Printf("ERROR: generating animation preview for session %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate animation code"})
		return
	}
	log.Printf("Info: animation preview for session %s produced %d files", id, len(files))
	c.JSON(http.StatusOK, PreviewResponse{Files: files})
}
