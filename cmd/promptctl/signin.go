package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/common/config"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/sync"
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with a fresh anonymous identity",
	Long: `Obtain a new anonymous identity from the server, replacing any stored
token. Prompts belong to the identity that created them, so signing in
again starts you with an empty collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithPath(cfgPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Client.ServerURL = serverURL
		}
		if cfg.Client.TokenFile == "" {
			cfg.Client.TokenFile, err = defaultTokenFile()
			if err != nil {
				return err
			}
		}

		log, err := logger.NewLogger(logger.LoggingConfig{
			Level: cfg.Logging.Level, Format: cfg.Logging.Format, OutputPath: "stderr",
		})
		if err != nil {
			return err
		}

		client := sync.NewClient(cfg.Client, nil, log)
		resp, err := client.SignInAnonymously(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (token expires %s)\n",
			resp.UserID, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signinCmd)
}
