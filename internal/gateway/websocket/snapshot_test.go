package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

type notifierFixture struct {
	hub      *Hub
	service  *service.Service
	notifier *Notifier
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	eventBus := bus.NewMemoryEventBus(log)
	t.Cleanup(eventBus.Close)

	svc := service.NewService(repository.NewMemoryRepository(), eventBus, log)
	hub := NewHub(ws.NewDispatcher(), log)

	notifier := NewNotifier(hub, svc, eventBus, log)
	require.NoError(t, notifier.Start())
	t.Cleanup(notifier.Stop)

	return &notifierFixture{hub: hub, service: svc, notifier: notifier}
}

// fakeClient builds a hub client without a network connection; pushed
// messages land in its send buffer.
func fakeClient(userID string, hub *Hub, t *testing.T) *Client {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return &Client{
		ID:     "test-" + userID,
		UserID: userID,
		hub:    hub,
		send:   make(chan []byte, 16),
		logger: log,
	}
}

func receiveSnapshot(t *testing.T, client *Client) v1.PromptList {
	t.Helper()
	select {
	case data := <-client.send:
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, ws.MessageTypeNotification, msg.Type)
		require.Equal(t, ws.ActionPromptsSnapshot, msg.Action)
		var list v1.PromptList
		require.NoError(t, msg.ParsePayload(&list))
		return list
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return v1.PromptList{}
	}
}

func TestNotifierPushesSnapshotOnMutation(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()

	client := fakeClient("user-1", f.hub, t)
	f.hub.clients[client] = true
	f.hub.SubscribeToUser(client, "user-1")

	_, err := f.service.Create(ctx, "user-1", service.CreatePromptParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	list := receiveSnapshot(t, client)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "t", list.Prompts[0].Title)
}

func TestNotifierSnapshotIsFullCollectionNewestFirst(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "user-1", service.CreatePromptParams{Title: "older", Content: "c"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	client := fakeClient("user-1", f.hub, t)
	f.hub.clients[client] = true
	f.hub.SubscribeToUser(client, "user-1")

	_, err = f.service.Create(ctx, "user-1", service.CreatePromptParams{Title: "newer", Content: "c"})
	require.NoError(t, err)

	list := receiveSnapshot(t, client)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "newer", list.Prompts[0].Title)
	assert.Equal(t, "older", list.Prompts[1].Title)
}

func TestNotifierDoesNotCrossUsers(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()

	client := fakeClient("user-1", f.hub, t)
	f.hub.clients[client] = true
	f.hub.SubscribeToUser(client, "user-1")

	_, err := f.service.Create(ctx, "user-2", service.CreatePromptParams{Title: "other", Content: "c"})
	require.NoError(t, err)

	select {
	case <-client.send:
		t.Fatal("received a snapshot for another user's mutation")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifierInitialSnapshot(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "user-1", service.CreatePromptParams{Title: "existing", Content: "c"})
	require.NoError(t, err)

	client := fakeClient("user-1", f.hub, t)
	f.notifier.PushSnapshotTo(ctx, client)

	list := receiveSnapshot(t, client)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "existing", list.Prompts[0].Title)
}

func TestNotifierEmptyCollectionSnapshot(t *testing.T) {
	f := newNotifierFixture(t)

	client := fakeClient("user-1", f.hub, t)
	f.notifier.PushSnapshotTo(context.Background(), client)

	list := receiveSnapshot(t, client)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Prompts)
}

func TestDeleteTriggersSnapshot(t *testing.T) {
	f := newNotifierFixture(t)
	ctx := context.Background()

	prompt, err := f.service.Create(ctx, "user-1", service.CreatePromptParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	client := fakeClient("user-1", f.hub, t)
	f.hub.clients[client] = true
	f.hub.SubscribeToUser(client, "user-1")

	require.NoError(t, f.service.Delete(ctx, "user-1", prompt.ID))

	list := receiveSnapshot(t, client)
	assert.Equal(t, 0, list.Count)
}

// Sanity check that events carry the identity the notifier routes on.
func TestUserIDFromEvent(t *testing.T) {
	direct := bus.NewEvent(events.PromptCreated, "prompt-service", events.PromptEvent{UserID: "u1"})
	assert.Equal(t, "u1", userIDFromEvent(direct))

	decoded := bus.NewEvent(events.PromptCreated, "prompt-service", map[string]interface{}{"user_id": "u2"})
	assert.Equal(t, "u2", userIDFromEvent(decoded))

	empty := bus.NewEvent(events.PromptCreated, "prompt-service", nil)
	assert.Equal(t, "", userIDFromEvent(empty))
}
