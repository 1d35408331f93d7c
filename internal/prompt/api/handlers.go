// Package api contains the HTTP handlers for the prompt API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

// Handler contains HTTP handlers for the prompt API
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

// ListPrompts returns the caller's full collection, newest first
// GET /api/v1/prompts
func (h *Handler) ListPrompts(c *gin.Context) {
	userID := auth.UserID(c)

	prompts, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, promptsToList(prompts))
}

// CreatePrompt creates a new prompt
// POST /api/v1/prompts
func (h *Handler) CreatePrompt(c *gin.Context) {
	userID := auth.UserID(c)

	var req CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, errors.InvalidInput("%s", err.Error()))
		return
	}

	prompt, err := h.service.Create(c.Request.Context(), userID, service.CreatePromptParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("failed to create prompt", zap.Error(err))
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, promptToResponse(prompt))
}

// EnsurePrompt creates a prompt only if no prompt with the same title exists
// POST /api/v1/prompts/ensure
func (h *Handler) EnsurePrompt(c *gin.Context) {
	userID := auth.UserID(c)

	var req EnsurePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, errors.InvalidInput("%s", err.Error()))
		return
	}

	prompt, created, err := h.service.Ensure(c.Request.Context(), userID, service.CreatePromptParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, promptToResponse(prompt))
}

// GetPrompt retrieves a prompt by ID
// GET /api/v1/prompts/:promptId
func (h *Handler) GetPrompt(c *gin.Context) {
	userID := auth.UserID(c)
	promptID := c.Param("promptId")

	prompt, err := h.service.Get(c.Request.Context(), userID, promptID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, promptToResponse(prompt))
}

// UpdatePrompt partially updates an existing prompt
// PATCH /api/v1/prompts/:promptId
func (h *Handler) UpdatePrompt(c *gin.Context) {
	userID := auth.UserID(c)
	promptID := c.Param("promptId")

	var req UpdatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, errors.InvalidInput("%s", err.Error()))
		return
	}

	prompt, err := h.service.Update(c.Request.Context(), userID, promptID, service.UpdatePromptParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("failed to update prompt",
			zap.String("prompt_id", promptID), zap.Error(err))
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, promptToResponse(prompt))
}

// DeletePrompt deletes a prompt
// DELETE /api/v1/prompts/:promptId
func (h *Handler) DeletePrompt(c *gin.Context) {
	userID := auth.UserID(c)
	promptID := c.Param("promptId")

	if err := h.service.Delete(c.Request.Context(), userID, promptID); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportPrompts returns the collection in the transfer format
// GET /api/v1/prompts/export
func (h *Handler) ExportPrompts(c *gin.Context) {
	userID := auth.UserID(c)

	prompts, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	records := make([]v1.TransferRecord, 0, len(prompts))
	for _, p := range prompts {
		records = append(records, promptToResponse(p).ToTransferRecord())
	}

	c.JSON(http.StatusOK, records)
}

// ImportPrompts bulk-creates prompts from the transfer format. The body may
// be a single record or an array; entries missing a title or content are
// skipped rather than failing the whole import.
// POST /api/v1/prompts/import
func (h *Handler) ImportPrompts(c *gin.Context) {
	userID := auth.UserID(c)

	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.renderError(c, errors.InvalidInput("invalid JSON body"))
		return
	}

	records, err := decodeTransferRecords(raw)
	if err != nil {
		h.renderError(c, errors.InvalidInput("invalid JSON body"))
		return
	}

	imported, skipped := 0, 0
	for _, record := range records {
		if record.Title == "" || record.Content == "" {
			skipped++
			continue
		}
		_, err := h.service.Create(c.Request.Context(), userID, service.CreatePromptParams{
			Title:    record.Title,
			Content:  record.Content,
			Category: record.Category,
			Tags:     record.Tags,
		})
		if err != nil {
			skipped++
			continue
		}
		imported++
	}

	c.JSON(http.StatusOK, ImportResponse{Imported: imported, Skipped: skipped})
}

// decodeTransferRecords accepts either a single transfer record or an array.
func decodeTransferRecords(raw json.RawMessage) ([]v1.TransferRecord, error) {
	var records []v1.TransferRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var single v1.TransferRecord
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []v1.TransferRecord{single}, nil
}

func (h *Handler) renderError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr})
}

func promptToResponse(p *models.Prompt) v1.Prompt {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return v1.Prompt{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		Tags:      tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func promptsToList(prompts []*models.Prompt) v1.PromptList {
	list := v1.PromptList{Prompts: make([]v1.Prompt, 0, len(prompts))}
	for _, p := range prompts {
		list.Prompts = append(list.Prompts, promptToResponse(p))
	}
	list.Count = len(list.Prompts)
	return list
}
