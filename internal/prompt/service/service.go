// Package service implements prompt business logic: validation, defaults and
// change notification.
package service

import (
	"context"
	"strings"

	"github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
)

// Service coordinates prompt operations across the repository and event bus.
type Service struct {
	repo     repository.Repository
	eventBus bus.EventBus
	logger   *logger.Logger
}

// NewService creates a new prompt service.
func NewService(repo repository.Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log,
	}
}

// CreatePromptParams are the fields accepted when creating a prompt.
type CreatePromptParams struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

// UpdatePromptParams are the fields accepted when updating a prompt. Nil
// pointers leave the corresponding field unchanged.
type UpdatePromptParams struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
}

// Create validates and persists a new prompt, then publishes a change event.
func (s *Service) Create(ctx context.Context, userID string, params CreatePromptParams) (*models.Prompt, error) {
	title := strings.TrimSpace(params.Title)
	content := strings.TrimSpace(params.Content)
	if title == "" {
		return nil, errors.InvalidInput("title is required")
	}
	if content == "" {
		return nil, errors.InvalidInput("content is required")
	}

	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	prompt := &models.Prompt{
		UserID:   userID,
		Title:    title,
		Content:  content,
		Category: category,
		Tags:     NormalizeTags(params.Tags),
	}

	if err := s.repo.Create(ctx, prompt); err != nil {
		return nil, errors.Internal(err, "failed to create prompt")
	}

	s.publishEvent(ctx, userID, prompt.ID, "created")
	return prompt, nil
}

// Ensure creates a prompt only when the user has no prompt with the same
// title. It returns the resulting prompt and whether a new one was created,
// which makes repeated seeding of the same catalog a no-op.
func (s *Service) Ensure(ctx context.Context, userID string, params CreatePromptParams) (*models.Prompt, bool, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, false, errors.InvalidInput("title is required")
	}

	existing, err := s.repo.GetByTitle(ctx, userID, title)
	if err == nil {
		return existing, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, errors.Internal(err, "failed to look up prompt by title")
	}

	prompt, err := s.Create(ctx, userID, params)
	if err != nil {
		return nil, false, err
	}
	return prompt, true, nil
}

// Get retrieves a single prompt.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Prompt, error) {
	prompt, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Internal(err, "failed to get prompt")
	}
	return prompt, nil
}

// List returns the user's full collection, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Prompt, error) {
	prompts, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err, "failed to list prompts")
	}
	if prompts == nil {
		prompts = []*models.Prompt{}
	}
	return prompts, nil
}

// Update applies a partial update to an existing prompt and publishes a
// change event.
func (s *Service) Update(ctx context.Context, userID, id string, params UpdatePromptParams) (*models.Prompt, error) {
	prompt, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Internal(err, "failed to get prompt")
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, errors.InvalidInput("title is required")
		}
		prompt.Title = title
	}
	if params.Content != nil {
		content := strings.TrimSpace(*params.Content)
		if content == "" {
			return nil, errors.InvalidInput("content is required")
		}
		prompt.Content = content
	}
	if params.Category != nil {
		category := strings.TrimSpace(*params.Category)
		if category == "" {
			category = models.DefaultCategory
		}
		prompt.Category = category
	}
	if params.Tags != nil {
		prompt.Tags = NormalizeTags(*params.Tags)
	}

	if err := s.repo.Update(ctx, prompt); err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Internal(err, "failed to update prompt")
	}

	s.publishEvent(ctx, userID, prompt.ID, "updated")
	return prompt, nil
}

// Delete removes a prompt and publishes a change event.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.Internal(err, "failed to delete prompt")
	}

	s.publishEvent(ctx, userID, id, "deleted")
	return nil
}

// NormalizeTags trims whitespace from each tag and drops empty entries.
// Duplicates are kept; the collection mirrors exactly what the user typed.
func NormalizeTags(tags []string) []string {
	result := []string{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ParseTags splits a comma-separated tag string into normalized tags.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}
