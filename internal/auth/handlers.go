package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

// Handler contains the HTTP handlers for authentication.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// SignInAnonymously mints a fresh anonymous identity.
// POST /api/v1/auth/anonymous
func (h *Handler) SignInAnonymously(c *gin.Context) {
	identity, err := h.service.SignInAnonymously()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "INTERNAL",
			"message": "failed to sign in",
		}})
		return
	}

	c.JSON(http.StatusOK, v1.SignInResponse{
		UserID:    identity.UserID,
		Token:     identity.Token,
		ExpiresAt: identity.ExpiresAt,
	})
}

// RegisterRoutes registers the public auth routes.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.POST("/auth/anonymous", h.SignInAnonymously)
}
