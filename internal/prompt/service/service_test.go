package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
)

func newTestService(t *testing.T) (*Service, *bus.MemoryEventBus) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	eventBus := bus.NewMemoryEventBus(log)
	t.Cleanup(eventBus.Close)
	return NewService(repository.NewMemoryRepository(), eventBus, log), eventBus
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prompt, err := svc.Create(ctx, "user-1", CreatePromptParams{
		Title:   "  Summarize  ",
		Content: " Summarize this text ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Summarize", prompt.Title)
	assert.Equal(t, "Summarize this text", prompt.Content)
	assert.Equal(t, "General", prompt.Category)
	assert.Equal(t, []string{}, prompt.Tags)
}

func TestCreateRejectsBlankFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", CreatePromptParams{Title: "   ", Content: "c"})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = svc.Create(ctx, "user-1", CreatePromptParams{Title: "t", Content: "\n\t"})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestCreatePublishesEvent(t *testing.T) {
	svc, eventBus := newTestService(t)
	ctx := context.Background()

	received := make(chan *bus.Event, 1)
	_, err := eventBus.Subscribe(events.PromptSubject("user-1"), func(ctx context.Context, e *bus.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "user-1", CreatePromptParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, events.PromptCreated, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published on create")
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prompt, err := svc.Create(ctx, "user-1", CreatePromptParams{
		Title:    "Original",
		Content:  "content",
		Category: "Writing",
		Tags:     []string{"a"},
	})
	require.NoError(t, err)

	newContent := "revised content"
	updated, err := svc.Update(ctx, "user-1", prompt.ID, UpdatePromptParams{Content: &newContent})
	require.NoError(t, err)

	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "revised content", updated.Content)
	assert.Equal(t, "Writing", updated.Category)
	assert.Equal(t, []string{"a"}, updated.Tags)
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prompt, err := svc.Create(ctx, "user-1", CreatePromptParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	blank := "  "
	_, err = svc.Update(ctx, "user-1", prompt.ID, UpdatePromptParams{Title: &blank})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestUpdateMissingPrompt(t *testing.T) {
	svc, _ := newTestService(t)
	title := "t"
	_, err := svc.Update(context.Background(), "user-1", "missing", UpdatePromptParams{Title: &title})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeletePublishesEvent(t *testing.T) {
	svc, eventBus := newTestService(t)
	ctx := context.Background()

	prompt, err := svc.Create(ctx, "user-1", CreatePromptParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	received := make(chan *bus.Event, 2)
	_, err = eventBus.Subscribe(events.PromptSubject("user-1"), func(ctx context.Context, e *bus.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", prompt.ID))

	select {
	case e := <-received:
		assert.Equal(t, events.PromptDeleted, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published on delete")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.Ensure(ctx, "user-1", CreatePromptParams{Title: "Seed", Content: "v1"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Ensure(ctx, "user-1", CreatePromptParams{Title: "Seed", Content: "v2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v1", second.Content)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListEmptyCollection(t *testing.T) {
	svc, _ := newTestService(t)
	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" a ", "", "b", "  "}))
	// Duplicates are preserved as typed.
	assert.Equal(t, []string{"a", "a"}, NormalizeTags([]string{"a", "a"}))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "review", "code"}, ParseTags(" go, review ,code,,  "))
	assert.Equal(t, []string{}, ParseTags("   "))
}
