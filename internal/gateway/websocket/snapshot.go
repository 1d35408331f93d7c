package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

// Notifier listens for prompt change events and pushes full collection
// snapshots to subscribed clients. Every push re-reads the collection from
// the service and carries the complete, freshly sorted set; clients replace
// their view wholesale rather than patching deltas.
type Notifier struct {
	hub      *Hub
	service  *service.Service
	eventBus bus.EventBus
	logger   *logger.Logger

	subscription bus.Subscription
}

// NewNotifier creates a snapshot notifier.
func NewNotifier(hub *Hub, svc *service.Service, eventBus bus.EventBus, log *logger.Logger) *Notifier {
	return &Notifier{
		hub:      hub,
		service:  svc,
		eventBus: eventBus,
		logger:   log.WithFields(zap.String("component", "ws_notifier")),
	}
}

// Start subscribes to prompt change events for all users.
func (n *Notifier) Start() error {
	sub, err := n.eventBus.Subscribe(events.PromptsWildcard, func(ctx context.Context, event *bus.Event) error {
		userID := userIDFromEvent(event)
		if userID == "" {
			return nil
		}
		if !n.hub.HasSubscribers(userID) {
			return nil
		}
		n.pushSnapshot(ctx, userID)
		return nil
	})
	if err != nil {
		return err
	}
	n.subscription = sub
	return nil
}

// Stop unsubscribes from the event bus.
func (n *Notifier) Stop() {
	if n.subscription != nil {
		_ = n.subscription.Unsubscribe()
	}
}

// PushSnapshotTo sends the current collection snapshot to a single client.
// Used to deliver the initial state right after a subscription.
func (n *Notifier) PushSnapshotTo(ctx context.Context, client *Client) {
	msg, err := n.snapshotMessage(ctx, client.UserID)
	if err != nil {
		n.logger.Error("failed to build snapshot",
			zap.String("user_id", client.UserID), zap.Error(err))
		return
	}
	client.sendMessage(msg)
}

// pushSnapshot sends the current collection snapshot to every subscriber of
// the user's collection.
func (n *Notifier) pushSnapshot(ctx context.Context, userID string) {
	msg, err := n.snapshotMessage(ctx, userID)
	if err != nil {
		n.logger.Error("failed to build snapshot",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	n.hub.BroadcastToUser(userID, msg)
}

func (n *Notifier) snapshotMessage(ctx context.Context, userID string) (*ws.Message, error) {
	prompts, err := n.service.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := v1.PromptList{Prompts: make([]v1.Prompt, 0, len(prompts))}
	for _, p := range prompts {
		list.Prompts = append(list.Prompts, toAPIPrompt(p))
	}
	list.Count = len(list.Prompts)

	return ws.NewNotification(ws.ActionPromptsSnapshot, list)
}

// userIDFromEvent extracts the user ID carried on a prompt change event.
// The in-memory bus delivers the concrete payload struct; NATS delivers a
// JSON-decoded map.
func userIDFromEvent(event *bus.Event) string {
	switch data := event.Data.(type) {
	case events.PromptEvent:
		return data.UserID
	case map[string]interface{}:
		if id, ok := data["user_id"].(string); ok {
			return id
		}
	}
	return ""
}

func toAPIPrompt(p *models.Prompt) v1.Prompt {
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
