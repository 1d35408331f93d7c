package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/sync"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export [prompt-id]",
	Short: "Export prompts to a JSON file",
	Long: `Export prompts in the interchange format.

Without arguments, all prompts are written to prompts-export-<date>.json.
With a prompt ID, that prompt alone is written to prompt-<title-slug>.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			prompt, err := env.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := sync.ExportPromptToFile(prompt, exportDir)
			if err != nil {
				return err
			}
			fmt.Printf("exported %q to %s\n", prompt.Title, path)
			return nil
		}

		path, count, err := sync.ExportToFile(cmd.Context(), env.client, exportDir)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d prompts to %s\n", count, path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import prompts from a JSON file",
	Long: `Import prompts from an interchange file holding a single record or an
array of records. Records without a title or content are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		result, err := sync.ImportFromFile(cmd.Context(), env.client, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("imported %d prompts (%d skipped)\n", result.Imported, result.Skipped)
		return nil
	},
}

var seedYes bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the starter prompt catalog",
	Long: `Install the built-in starter prompts. Seeding is idempotent: prompts
whose titles already exist are left untouched, so running it twice never
creates duplicates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		status, err := sync.CatalogStatus(cmd.Context(), env.client)
		if err != nil {
			return err
		}
		if len(status.Missing) == 0 {
			fmt.Printf("all %d starter prompts already present\n", sync.SeedCatalogSize())
			return nil
		}

		if !seedYes {
			fmt.Printf("create %d starter prompts (%d already present)? [y/N] ",
				len(status.Missing), len(status.Present))
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" && answer != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		created, err := sync.Seed(cmd.Context(), env.client)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d of %d starter prompts\n", created, sync.SeedCatalogSize())
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", ".", "directory to write the export file to")
	seedCmd.Flags().BoolVarP(&seedYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportCmd, importCmd, seedCmd)
}
