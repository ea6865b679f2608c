package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"animation_panel_server/internal/api"
	"animation_panel_server/internal/plugin"
	"animation_panel_server/internal/session"
	"animation_panel_server/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoder struct {
	calls int
	spec  string
	err   error
}

func (f *fakeCoder) GenerateAnimationCode(_ context.Context, _ string, spec string) ([]types.GeneratedFile, error) {
	f.calls++
	f.spec = spec
	if f.err != nil {
		return nil, f.err
	}
	return []types.GeneratedFile{{Filename: "src/hero.css", Type: "css", Content: ".hero{}"}}, nil
}

func newTestRouter(t *testing.T, coder api.CodeGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewStore(session.StoreConfig{QuietPeriod: time.Hour})
	t.Cleanup(store.CloseAll)
	p := plugin.New(plugin.DefaultInfo(), store, nil, nil)

	router := gin.New()
	RegisterRoutes(router, api.NewAPIHandler(p, coder, time.Hour))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func openPanel(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/panel/open", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp api.OpenResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

var hero = []types.SelectedElement{{TagName: "DIV", ID: "hero", ClassList: []string{"card"}}}

func TestHealthAndManifest(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/plugin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m plugin.Manifest
	decode(t, w, &m)
	assert.Equal(t, "animation-config", m.Name)
	assert.ElementsMatch(t, []string{plugin.HookOnOpen, plugin.HookOnPromptSend}, m.Hooks)
}

func TestOpenPanelReturnsDefaultForm(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(t, router, http.MethodPost, "/panel/open", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp api.OpenResponse
	decode(t, w, &resp)
	assert.Equal(t, "Animation Configuration", resp.Panel.Title)
	require.NotNil(t, resp.Panel.Config)
	def := types.DefaultAnimationConfig()
	assert.Equal(t, def.Type, resp.Panel.Config.Type)
	assert.Equal(t, def.Duration, resp.Panel.Config.Duration)
	assert.Equal(t, def.Iterations, resp.Panel.Config.Iterations)
	assert.Equal(t, def.Properties, resp.Panel.Config.Properties)
	assert.NotEmpty(t, resp.Panel.Fields)
}

func TestEditValidateAndSend(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPatch, "/panel/"+id+"/fields", gin.H{"field": "duration", "value": 800})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPatch, "/panel/"+id+"/fields", gin.H{"field": "type", "value": "gsap"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/panel/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"errors":[]}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/prompt/send", gin.H{"sessionId": id, "prompt": "animate it", "elements": hero})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.PromptSendResponse
	decode(t, w, &resp)
	require.Len(t, resp.Contexts, 1)
	assert.Equal(t, "animation-config", resp.Contexts[0].PromptContextName)
	assert.Contains(t, resp.Contexts[0].Content, "Duration: 800ms")
	assert.Contains(t, resp.Contexts[0].Content, "Type: GSAP")
	assert.Contains(t, resp.Contexts[0].Content, "div#hero.card")
}

func TestInvalidEditKeepsLastGoodSnapshot(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPatch, "/panel/"+id+"/fields", gin.H{"field": "duration", "value": "50000"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/panel/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	decode(t, w, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Duration must be at most 30000ms (30 seconds)"}, result.Errors)

	w = do(t, router, http.MethodPost, "/prompt/send", gin.H{"sessionId": id, "elements": hero})
	var resp api.PromptSendResponse
	decode(t, w, &resp)
	require.Len(t, resp.Contexts, 1)
	assert.Contains(t, resp.Contexts[0].Content, "Duration: 300ms")
}

func TestEditFieldErrors(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPatch, "/panel/"+id+"/fields", gin.H{"field": "colour", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPatch, "/panel/"+id+"/fields", gin.H{"field": "direction", "value": "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodPatch, "/panel/missing/fields", gin.H{"field": "duration", "value": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProperties(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPost, "/panel/"+id+"/properties", gin.H{"name": "1bad"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var rejected api.PropertyResponse
	decode(t, w, &rejected)
	assert.False(t, rejected.Added)
	assert.Contains(t, rejected.Errors, "Property name must start with a letter or hyphen and contain only letters, numbers, and hyphens")

	w = do(t, router, http.MethodPost, "/panel/"+id+"/properties", gin.H{"name": "--hero-glow"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var added api.PropertyResponse
	decode(t, w, &added)
	assert.True(t, added.Added)
	assert.Equal(t, []string{"opacity", "transform", "--hero-glow"}, added.Panel.Config.Properties)

	w = do(t, router, http.MethodPost, "/panel/"+id+"/properties", gin.H{"name": "opacity"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodDelete, "/panel/"+id+"/properties/opacity", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodDelete, "/panel/"+id+"/properties/opacity", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleProperty(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPost, "/panel/"+id+"/properties/opacity/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.TogglePropertyResponse
	decode(t, w, &resp)
	assert.False(t, resp.Selected)
	assert.Equal(t, []string{"transform"}, resp.Panel.Config.Properties)

	w = do(t, router, http.MethodPost, "/panel/"+id+"/properties/opacity/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.True(t, resp.Selected)
	assert.Equal(t, []string{"opacity", "transform"}, resp.Panel.Config.Properties)

	w = do(t, router, http.MethodPost, "/panel/"+id+"/properties/my-prop/toggle", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodPost, "/panel/missing/properties/opacity/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomOptions(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPut, "/panel/"+id+"/options/stiffness", gin.H{"value": 170})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPost, "/panel/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/prompt/send", gin.H{"sessionId": id, "elements": hero})
	var resp api.PromptSendResponse
	decode(t, w, &resp)
	require.Len(t, resp.Contexts, 1)
	assert.Contains(t, resp.Contexts[0].Content, "Custom Options: stiffness=170")

	w = do(t, router, http.MethodPut, "/panel/"+id+"/options/stiffness", gin.H{"value": gin.H{"nested": true}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodDelete, "/panel/"+id+"/options/stiffness", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodDelete, "/panel/"+id+"/options/stiffness", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReplaceConfig(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	cfg := types.DefaultAnimationConfig()
	cfg.Type = types.TypeCSSKeyframes
	cfg.Iterations = types.Infinite()
	w := do(t, router, http.MethodPut, "/panel/"+id+"/config", cfg)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/panel/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"iterations":"infinite"`)
}

func TestSendPromptNoOps(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPost, "/prompt/send", gin.H{"sessionId": id, "elements": []types.SelectedElement{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"contexts":[]}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/prompt/send", gin.H{"sessionId": "unknown", "elements": hero})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"contexts":[]}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/prompt/send", gin.H{"elements": hero})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClosePanel(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodDelete, "/panel/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, router, http.MethodGet, "/panel/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, router, http.MethodDelete, "/panel/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewDisabledWithoutGenerator(t *testing.T) {
	router := newTestRouter(t, nil)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPost, "/panel/"+id+"/preview", gin.H{"prompt": "fade", "elements": hero})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPreviewIsThrottled(t *testing.T) {
	coder := &fakeCoder{}
	router := newTestRouter(t, coder)
	id := openPanel(t, router)

	w := do(t, router, http.MethodPost, "/panel/"+id+"/preview", gin.H{"prompt": "fade", "elements": hero})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.PreviewResponse
	decode(t, w, &resp)
	require.Len(t, resp.Files, 1)
	assert.Contains(t, coder.spec, "<animation-spec>")

	w = do(t, router, http.MethodPost, "/panel/"+id+"/preview", gin.H{"prompt": "fade", "elements": hero})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, coder.calls)

	w = do(t, router, http.MethodPost, "/panel/"+id+"/preview", gin.H{"prompt": "fade"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewGeneratorFailure(t *testing.T) {
	router := newTestRouter(t, &fakeCoder{err: errors.New("upstream down")})
	id := openPanel(t, router)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	w := do(t, router, http.MethodPost, "/panel/"+id+"/preview", gin.H{"prompt": "fade", "elements": hero})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, logs.String(), "ERROR: generating animation preview for session "+id+": upstream down")
}
