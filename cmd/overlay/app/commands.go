package app

import (
	"github.com/spf13/cobra"

	"github.com/Nivmizz7/tarkov-data-overlay/cmd/overlay/cmd/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/cmd/overlay/cmd/check"
	"github.com/Nivmizz7/tarkov-data-overlay/cmd/overlay/cmd/fetch"
)

// registerCommands wires every subcommand to the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(check.NewCommand(a))
	rootCmd.AddCommand(fetch.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(cache.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("overlay %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
