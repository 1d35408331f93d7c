package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/events"
	"github.com/promptdeck/promptdeck/internal/events/bus"
)

// publishEvent publishes a prompt change notification to the event bus.
// Subscribers re-read the collection on receipt, so the event carries only
// identifiers, never document content.
func (s *Service) publishEvent(ctx context.Context, userID, promptID, action string) {
	if s.eventBus == nil {
		return
	}

	var eventType string
	switch action {
	case "created":
		eventType = events.PromptCreated
	case "updated":
		eventType = events.PromptUpdated
	case "deleted":
		eventType = events.PromptDeleted
	default:
		return
	}

	event := bus.NewEvent(eventType, "prompt-service", events.PromptEvent{
		Type:      eventType,
		UserID:    userID,
		PromptID:  promptID,
		Timestamp: time.Now().UTC(),
	})

	subject := events.PromptSubject(userID)
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		s.logger.Error("failed to publish prompt event",
			zap.String("event_type", eventType),
			zap.String("prompt_id", promptID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
