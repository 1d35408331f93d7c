package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

// ParseTags splits a comma-separated tag list, trimming whitespace and
// dropping empty entries.
func ParseTags(csv string) []string {
	tags := []string{}
	for _, tag := range strings.Split(csv, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Slug converts a title into a filesystem-friendly name: lowercased, with
// every run of non-alphanumeric characters collapsed to a single dash.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ExportFileName returns the default name for a full export, stamped with
// the current date.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("prompts-export-%s.json", now.Format("2006-01-02"))
}

// PromptFileName returns the default name for a single-prompt export.
func PromptFileName(title string) string {
	slug := Slug(title)
	if slug == "" {
		slug = "untitled"
	}
	return fmt.Sprintf("prompt-%s.json", slug)
}

// ExportToFile fetches all prompts and writes them to a JSON file in dir.
// It returns the written path and the number of exported records.
func ExportToFile(ctx context.Context, client *Client, dir string) (string, int, error) {
	records, err := client.Export(ctx)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, ExportFileName(time.Now()))
	if err := writeRecords(path, records); err != nil {
		return "", 0, err
	}
	return path, len(records), nil
}

// ExportPromptToFile writes a single prompt to a JSON file in dir.
func ExportPromptToFile(prompt *v1.Prompt, dir string) (string, error) {
	path := filepath.Join(dir, PromptFileName(prompt.Title))
	if err := writeRecords(path, prompt.ToTransferRecord()); err != nil {
		return "", err
	}
	return path, nil
}

// ImportFromFile reads interchange JSON, a single record or an array, and
// submits it for bulk import. Malformed files are rejected before anything
// is sent to the server.
func ImportFromFile(ctx context.Context, client *Client, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := DecodeRecords(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return client.Import(ctx, data)
}

// DecodeRecords parses interchange JSON holding either a single record or
// an array of records.
func DecodeRecords(data []byte) ([]v1.TransferRecord, error) {
	var records []v1.TransferRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var single v1.TransferRecord
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("expected a record or an array of records: %w", err)
	}
	return []v1.TransferRecord{single}, nil
}

func writeRecords(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
