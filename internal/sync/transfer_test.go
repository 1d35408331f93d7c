package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTags("a, b"))
	assert.Equal(t, []string{"one"}, ParseTags(" one ,, "))
	assert.Equal(t, []string{}, ParseTags(""))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Prompt", "my-prompt"},
		{"Code Review!", "code-review"},
		{"  spaced   out  ", "spaced-out"},
		{"already-slugged", "already-slugged"},
		{"MixedCASE123", "mixedcase123"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "prompts-export-2026-08-28.json", ExportFileName(now))
}

func TestPromptFileName(t *testing.T) {
	assert.Equal(t, "prompt-code-review.json", PromptFileName("Code Review"))
	assert.Equal(t, "prompt-untitled.json", PromptFileName("???"))
}

func TestDecodeRecords(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		records, err := DecodeRecords([]byte(`[{"title":"A","content":"a"},{"title":"B","content":"b"}]`))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "B", records[1].Title)
	})

	t.Run("single object", func(t *testing.T) {
		records, err := DecodeRecords([]byte(`{"title":"A","content":"a","createdAt":"2026-01-02T03:04:05Z"}`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2026-01-02T03:04:05Z", records[0].CreatedAt)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeRecords([]byte(`true`))
		assert.Error(t, err)
	})
}
