package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/waabox/repogen/internal/cli"
)

func main() {
	// Ctrl+C cancels any in-flight authentication or API call.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "repogen: %v\n", err)
		os.Exit(1)
	}
}
