package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the prompt API routes on the given group. The
// group is expected to already carry the auth middleware.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	prompts := rg.Group("/prompts")
	{
		prompts.GET("", h.ListPrompts)
		prompts.POST("", h.CreatePrompt)
		prompts.POST("/ensure", h.EnsurePrompt)
		prompts.GET("/export", h.ExportPrompts)
		prompts.POST("/import", h.ImportPrompts)
		prompts.GET("/:promptId", h.GetPrompt)
		// Updates are always partial, so PUT and PATCH behave the same.
		prompts.PATCH("/:promptId", h.UpdatePrompt)
		prompts.PUT("/:promptId", h.UpdatePrompt)
		prompts.DELETE("/:promptId", h.DeletePrompt)
	}
}
