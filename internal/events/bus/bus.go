// Package bus provides event bus abstractions for promptdeck.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents a message on the event bus
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"` // Service that produced the event
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates a new event with a UUID and current timestamp
func NewEvent(eventType, source string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventHandler is a function that handles an event
type EventHandler func(ctx context.Context, event *Event) error

// replyKey is the data field carrying the reply subject of a request.
const replyKey = "_reply"

// attachReply records the reply subject inside the event data so the handler
// on the far side can respond.
func attachReply(event *Event, subject string) {
	switch data := event.Data.(type) {
	case map[string]interface{}:
		if data == nil {
			data = make(map[string]interface{})
		}
		data[replyKey] = subject
		event.Data = data
	case nil:
		event.Data = map[string]interface{}{replyKey: subject}
	default:
		event.Data = map[string]interface{}{"data": data, replyKey: subject}
	}
}

// ReplySubject extracts the reply subject a Request attached to the event.
// It returns "" when the event is not a request.
func ReplySubject(event *Event) string {
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	subject, _ := data[replyKey].(string)
	return subject
}

// Subscription represents an active subscription
type Subscription interface {
	Unsubscribe() error
	IsValid() bool
}

// EventBus interface for event bus operations
type EventBus interface {
	// Publish sends an event to a subject
	Publish(ctx context.Context, subject string, event *Event) error

	// Subscribe creates a subscription to a subject pattern
	Subscribe(subject string, handler EventHandler) (Subscription, error)

	// QueueSubscribe creates a queue subscription for load balancing
	QueueSubscribe(subject, queue string, handler EventHandler) (Subscription, error)

	// Request sends a request and waits for a response (with timeout)
	Request(ctx context.Context, subject string, event *Event, timeout time.Duration) (*Event, error)

	// Close closes the connection
	Close()

	// IsConnected returns connection status
	IsConnected() bool
}
