package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/sync"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

var (
	listFilter string

	createTitle    string
	createContent  string
	createCategory string
	createTags     string

	updateTitle    string
	updateContent  string
	updateCategory string
	updateTags     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		list, err := env.client.List(cmd.Context())
		if err != nil {
			return err
		}

		prompts := list.Prompts
		if listFilter != "" {
			view := sync.NewView()
			view.Replace(prompts)
			prompts = view.Filter(listFilter)
		}

		if jsonOutput {
			return printJSON(v1.PromptList{Prompts: prompts, Count: len(prompts)})
		}
		if len(prompts) == 0 {
			fmt.Println("no prompts")
			return nil
		}
		for _, p := range prompts {
			printPromptLine(p)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <prompt-id>",
	Short: "Show a single prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		prompt, err := env.client.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(prompt)
		}
		printPromptFull(*prompt)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		prompt, err := env.client.Create(cmd.Context(), sync.CreatePrompt{
			Title:    createTitle,
			Content:  createContent,
			Category: createCategory,
			Tags:     sync.ParseTags(createTags),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(prompt)
		}
		fmt.Printf("created %s\n", prompt.ID)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <prompt-id>",
	Short: "Update fields of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		// Only flags the user actually set are sent; everything else is
		// left unchanged on the server.
		var params sync.UpdatePrompt
		if cmd.Flags().Changed("title") {
			params.Title = &updateTitle
		}
		if cmd.Flags().Changed("content") {
			params.Content = &updateContent
		}
		if cmd.Flags().Changed("category") {
			params.Category = &updateCategory
		}
		if cmd.Flags().Changed("tags") {
			tags := sync.ParseTags(updateTags)
			params.Tags = &tags
		}

		prompt, err := env.client.Update(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(prompt)
		}
		fmt.Printf("updated %s\n", prompt.ID)
		return nil
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <prompt-id>",
	Short: "Delete a prompt",
	Long:  "Delete a prompt. Deletion is permanent; there is no undo.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		prompt, err := env.client.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleteYes {
			fmt.Printf("delete %q? [y/N] ", prompt.Title)
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" && answer != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		if err := env.client.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func printPromptLine(p v1.Prompt) {
	line := fmt.Sprintf("%s  %-30s  %s", p.ID, truncate(p.Title, 30), p.Category)
	if len(p.Tags) > 0 {
		line += "  [" + strings.Join(p.Tags, ", ") + "]"
	}
	fmt.Println(line)
}

func printPromptFull(p v1.Prompt) {
	fmt.Printf("ID:       %s\n", p.ID)
	fmt.Printf("Title:    %s\n", p.Title)
	fmt.Printf("Category: %s\n", p.Category)
	if len(p.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Printf("Updated:  %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("\n%s\n", p.Content)
}

// truncate shortens s to at most n runes, ending in an ellipsis. Counting
// runes rather than bytes keeps multi-byte titles intact at the boundary.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "case-insensitive search over title, content, category and tags")

	createCmd.Flags().StringVar(&createTitle, "title", "", "prompt title (required)")
	createCmd.Flags().StringVar(&createContent, "content", "", "prompt content (required)")
	createCmd.Flags().StringVar(&createCategory, "category", "", "category (default: General)")
	createCmd.Flags().StringVar(&createTags, "tags", "", "comma-separated tags")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("content")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateContent, "content", "", "new content")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "new category")
	updateCmd.Flags().StringVar(&updateTags, "tags", "", "new comma-separated tags (replaces existing)")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
}
