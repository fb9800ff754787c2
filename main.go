package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"suumo-scraper/commands"
)

func main() {
	// Ctrl-C cancels the run context; the scrape command still writes
	// whatever was collected before the interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
