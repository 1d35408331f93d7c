package sync

import (
	"context"

	"go.uber.org/zap"
)

// seedCatalog is the starter set offered to new users. Seeding goes through
// the ensure endpoint keyed on title, so running it repeatedly never
// duplicates prompts.
var seedCatalog = []CreatePrompt{
	{
		Title:    "Code Review",
		Content:  "Review the following code for bugs, readability and performance. Point out concrete problems and suggest fixes:\n\n{code}",
		Category: "Development",
		Tags:     []string{"code", "review"},
	},
	{
		Title:    "Summarize Text",
		Content:  "Summarize the following text in three bullet points, keeping the key facts and omitting filler:\n\n{text}",
		Category: "Writing",
		Tags:     []string{"summary"},
	},
	{
		Title:    "Explain Like I'm Five",
		Content:  "Explain the following concept in simple terms a child could understand, using a short everyday analogy:\n\n{concept}",
		Category: "Learning",
		Tags:     []string{"explain", "simple"},
	},
	{
		Title:    "Draft an Email",
		Content:  "Write a concise, polite email about the following. Keep it under 150 words and end with a clear call to action:\n\n{topic}",
		Category: "Writing",
		Tags:     []string{"email"},
	},
	{
		Title:    "Brainstorm Ideas",
		Content:  "Generate ten distinct ideas for the following, ranging from safe to unconventional. One line each:\n\n{topic}",
		Category: "General",
		Tags:     []string{"brainstorm", "ideas"},
	},
}

// SeedStatus splits the starter catalog by whether a prompt with the same
// title already exists in the collection.
type SeedStatus struct {
	Missing []string
	Present []string
}

// CatalogStatus compares the current collection against the starter catalog
// by title, so callers can show what seeding would create before it runs.
func CatalogStatus(ctx context.Context, client *Client) (*SeedStatus, error) {
	list, err := client.List(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(list.Prompts))
	for _, p := range list.Prompts {
		existing[p.Title] = true
	}

	status := &SeedStatus{}
	for _, params := range seedCatalog {
		if existing[params.Title] {
			status.Present = append(status.Present, params.Title)
		} else {
			status.Missing = append(status.Missing, params.Title)
		}
	}
	return status, nil
}

// Seed installs the starter catalog and returns how many prompts were newly
// created. Prompts whose titles already exist are left untouched.
func Seed(ctx context.Context, client *Client) (int, error) {
	created := 0
	for _, params := range seedCatalog {
		_, isNew, err := client.Ensure(ctx, params)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	client.logger.Info("seeded starter prompts", zap.Int("created", created))
	return created, nil
}

// SeedCatalogSize returns the number of prompts in the starter catalog.
func SeedCatalogSize() int {
	return len(seedCatalog)
}
