// Package main is the entry point for the subdiv refinement tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/cmd/subdiv/commands"
	"go.trai.ch/subdiv/internal/app"
	"go.trai.ch/subdiv/internal/core/domain"
	_ "go.trai.ch/subdiv/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run(opts ...func(*app.App)) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr
		_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return 1
	}
	defer func() {
		if err := components.App.Close(); err != nil {
			components.Logger.Error(err)
		}
	}()

	// Apply options
	for _, opt := range opts {
		opt(components.App)
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrBackendUnavailable) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
