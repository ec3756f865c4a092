// Package main provides the entry point for the overlay CLI tool.
package main

import (
	"context"
	"os"

	"github.com/Nivmizz7/tarkov-data-overlay/cmd/overlay/app"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	err = application.Execute(ctx, os.Args[1:])

	// The signal context may already be cancelled, so shut down on a fresh one.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil {
		application.Logger().Error().Err(shutdownErr).Msg("Shutdown error")
	}

	if err != nil {
		cancel()
		shutdownCancel()
		app.ExitOnError(err)
	}
}
