package api

import (
	"net/http"

	"animation_panel_server/internal/api"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *api.APIHandler) {

	// --- Plugin Registration ---
	router.GET("/plugin", h.Manifest)

	// --- Panel Sessions ---
	// One session per open panel, addressed by the ID returned from /panel/open
	router.POST("/panel/open", h.OpenPanel)
	panelGroup := router.Group("/panel/:id")
	{
		panelGroup.GET("", h.GetPanel)
		panelGroup.DELETE("", h.ClosePanel)
		panelGroup.PATCH("/fields", h.EditField)
		panelGroup.PUT("/config", h.ReplaceConfig)
		panelGroup.POST("/properties", h.AddProperty)
		panelGroup.DELETE("/properties/:name", h.RemoveProperty)
		panelGroup.POST("/properties/:name/toggle", h.ToggleProperty)
		panelGroup.PUT("/options/:key", h.SetOption)
		panelGroup.DELETE("/options/:key", h.RemoveOption)
		panelGroup.POST("/validate", h.Validate)
		panelGroup.POST("/preview", h.Preview)
	}

	// --- Prompt Submission ---
	router.POST("/prompt/send", h.SendPrompt)

	// --- Simple Health Check ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
