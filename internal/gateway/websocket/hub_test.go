package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return NewHub(ws.NewDispatcher(), log)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	hub := newTestHub(t)
	client := &Client{ID: "c-1", UserID: "user-1", hub: hub, send: make(chan []byte, 1)}

	assert.False(t, hub.HasSubscribers("user-1"))
	hub.SubscribeToUser(client, "user-1")
	assert.True(t, hub.HasSubscribers("user-1"))
	hub.UnsubscribeFromUser(client, "user-1")
	assert.False(t, hub.HasSubscribers("user-1"))
}

// Broadcasting to a user must be safe while other goroutines mutate that
// user's subscriber set.
func TestBroadcastToUserDuringSubscriptionChurn(t *testing.T) {
	hub := newTestHub(t)
	msg := &ws.Message{Type: ws.MessageTypeNotification, Action: ws.ActionPromptsSnapshot}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				hub.BroadcastToUser("user-1", msg)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		client := &Client{
			ID:     fmt.Sprintf("c-%d", i),
			UserID: "user-1",
			hub:    hub,
			send:   make(chan []byte, 1),
		}
		hub.SubscribeToUser(client, "user-1")
		hub.UnsubscribeFromUser(client, "user-1")
	}

	close(done)
	wg.Wait()
}
