package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/sync"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live collection updates",
	Long: `Subscribe to the websocket gateway and print the collection every time
it changes. Each update is a complete snapshot, newest first. Reconnects
automatically if the connection drops. Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd.Context())
		if err != nil {
			return err
		}

		view := sync.NewView()
		sub := sync.NewSubscriber(env.client, view, env.log)
		sub.OnSnapshot(func(list v1.PromptList) {
			fmt.Printf("--- %s  %d prompt(s) ---\n", time.Now().Format("15:04:05"), list.Count)
			for _, p := range list.Prompts {
				printPromptLine(p)
			}
		})

		err = sub.Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
