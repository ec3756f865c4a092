// Package fetch implements the fetch command, which warms the fetch cache.
package fetch

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/appcontext"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/cmd/output"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/matcher"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/wikitext"
)

// Summary counts what a fetch did.
type Summary struct {
	Tasks   int `json:"tasks" yaml:"tasks"`
	Pages   int `json:"pages" yaml:"pages"`
	Cached  int `json:"cached" yaml:"cached"`
	Fetched int `json:"fetched" yaml:"fetched"`
	Failed  int `json:"failed" yaml:"failed"`
}

// NewCommand creates the fetch command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var patterns []string
	cmd := &cobra.Command{
		Use:     "fetch",
		GroupID: "core",
		Short:   "Download structured tasks and wiki pages into the cache",
		Long: `Fetch reads the structured task list for every configured game mode and
the wiki page of each task, storing the responses in the fetch cache so a
later "check --offline" needs no network.

Pages already fresh in the cache are not requested again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := Run(cmd.Context(), app, patterns)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), app.OutputFormat(), summary)
		},
	}
	cmd.Flags().StringSliceVarP(&patterns, "task", "t", nil, "only fetch pages of matching tasks (repeatable)")
	return cmd
}

// Run fetches the task list and every selected page.
func Run(ctx context.Context, app appcontext.Interface, patterns []string) (Summary, error) {
	ctx = logging.WithOperation(logging.WithLogger(ctx, app.Logger()), "fetch")
	logger := logging.FromContext(ctx)

	selector, err := matcher.NewSelector(patterns...)
	if err != nil {
		return Summary{}, err
	}
	source, err := app.Tasks(false)
	if err != nil {
		return Summary{}, err
	}
	list, err := source.FetchAll(ctx, app.Settings().GameModes)
	if err != nil {
		return Summary{}, err
	}
	pages, err := app.Pages(false)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Tasks: len(list)}
	for _, task := range selector.Select(list) {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}
		title := task.WikiTitle()
		summary.Pages++
		page, err := pages.Page(ctx, title)
		if err == nil {
			if target, ok := wikitext.Redirect(page.Markup); ok {
				page, err = pages.Page(ctx, target)
			}
		}
		switch {
		case err != nil:
			summary.Failed++
			logger.Warn().Err(err).Str("task", task.Name).Msg("Page not fetched")
		case page.Cached:
			summary.Cached++
		default:
			summary.Fetched++
		}
	}
	logger.Info().
		Int("pages", summary.Pages).
		Int("fetched", summary.Fetched).
		Int("cached", summary.Cached).
		Int("failed", summary.Failed).
		Msg("Fetch complete")
	return summary, nil
}

func write(w io.Writer, format string, s Summary) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(f).Format(w, s)
	}
	return output.NewFormatter(output.FormatTable).Format(w, output.Data{
		Headers: []string{"Tasks", "Pages", "Fetched", "Cached", "Failed"},
		Rows: [][]string{{
			strconv.Itoa(s.Tasks), strconv.Itoa(s.Pages), strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Cached), strconv.Itoa(s.Failed),
		}},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignRight},
	})
}
