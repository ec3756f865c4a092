// Package cache implements the cache maintenance commands.
package cache

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/appcontext"
	storecache "github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/cmd/output"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
)

// NewCommand creates the cache command with its subcommands.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		GroupID: "management",
		Short:   "Inspect or clear the fetch cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newStatsCommand(app))
	cmd.AddCommand(newClearCommand(app))
	return cmd
}

func newStatsCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entries per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.Cache()
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), app.OutputFormat(), stats)
		},
	}
}

func newClearCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:       "clear [tasks|wiki]",
		Short:     "Delete cached entries, optionally for one namespace",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{storecache.NamespaceTasks, storecache.NamespaceWiki},
		RunE: func(cmd *cobra.Command, args []string) error {
			var namespace string
			if len(args) == 1 {
				namespace = args[0]
				if namespace != storecache.NamespaceTasks && namespace != storecache.NamespaceWiki {
					return errors.NewValidationError("namespace", namespace, "must be tasks or wiki")
				}
			}
			store, err := app.Cache()
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = "all namespaces"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from %s\n", n, namespace)
			return err
		},
	}
}

func writeStats(w io.Writer, format string, stats *storecache.Stats) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(f).Format(w, stats)
	}

	if _, err := fmt.Fprintf(w, "Cache %s (ttl %s)\n", stats.Path, stats.TTL); err != nil {
		return err
	}
	rows := make([][]string, 0, len(stats.Namespaces))
	for _, ns := range stats.Namespaces {
		rows = append(rows, []string{
			ns.Namespace,
			strconv.Itoa(ns.Entries),
			strconv.FormatInt(ns.Bytes, 10),
			strconv.Itoa(ns.Stale),
			ns.Oldest.Time.Format(constants.TimeFormatHuman),
			ns.Newest.Time.Format(constants.TimeFormatHuman),
		})
	}
	return output.NewFormatter(output.FormatTable).Format(w, output.Data{
		Headers:         []string{"Namespace", "Entries", "Bytes", "Stale", "Oldest", "Newest"},
		Rows:            rows,
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignLeft, output.AlignLeft},
	})
}
