// Command promptctl is the promptdeck command-line client. It signs in
// anonymously, manages prompts over the REST API, imports and exports
// interchange files, seeds the starter catalog and can watch the live
// collection over the websocket gateway. With --offline it serves reads
// through a local stale-while-revalidate cache.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
