// Package check implements the check command.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/appcontext"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/cmd/output"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/matcher"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/differ"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/report"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Flags holds the check command flags.
type Flags struct {
	Tasks   []string
	Group   string
	Offline bool
	Export  string
}

// NewCommand creates the check command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:     "check",
		GroupID: "core",
		Short:   "Compare structured tasks with their wiki pages",
		Long: `Check fetches every structured task, reads its wiki page and reports
field-level discrepancies that are not already corrected by the overlay or
known to be wrong on the wiki.

Tasks whose page cannot be read are listed as unchecked; the run still
succeeds.`,
		Example: `  overlay check                              # Check every task
  overlay check --task "The Punisher*"       # Glob against names and IDs
  overlay check --group category -o wide     # Group by field category
  overlay check --offline --export report.md # Cached data only, export markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&flags.Tasks, "task", "t", nil, "only check tasks matching a glob, regex or substring (repeatable)")
	cmd.Flags().StringVarP(&flags.Group, "group", "g", string(report.ByPriority), "group discrepancies by: priority, category")
	cmd.Flags().BoolVar(&flags.Offline, "offline", false, "use cached data only")
	cmd.Flags().StringVar(&flags.Export, "export", "", "also write the report to a file (.json, .yaml or .md)")

	return cmd
}

// Run executes a reconciliation and renders the report to w.
func Run(ctx context.Context, app appcontext.Interface, flags *Flags, w io.Writer) error {
	runID := uuid.NewString()
	ctx = logging.WithRun(logging.WithLogger(ctx, app.Logger()), runID)
	logger := logging.FromContext(ctx)
	settings := app.Settings()

	grouping, err := report.ParseGrouping(flags.Group)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	selector, err := matcher.NewSelector(flags.Tasks...)
	if err != nil {
		return err
	}

	// Step 1: structured snapshot
	source, err := app.Tasks(flags.Offline)
	if err != nil {
		return err
	}
	list, err := source.FetchAll(ctx, settings.GameModes)
	if err != nil {
		return err
	}
	selected := len(selector.Select(list))
	if selected == 0 {
		return &errors.NotFoundError{Resource: "task matching", ID: fmt.Sprintf("%q", flags.Tasks)}
	}
	logger.Info().Int("tasks", len(list)).Int("selected", selected).Msg("Loaded structured tasks")

	// Step 2: page source and suppressions
	pages, err := app.Pages(flags.Offline)
	if err != nil {
		return err
	}
	set, err := app.Suppressions()
	if err != nil {
		return err
	}

	// Step 3: reconcile
	opts, err := Options(settings, pages, set, selector)
	if err != nil {
		return err
	}
	opts = append(opts, reconcile.WithProgress(func(done, total int, name string) {
		logger.Debug().Int("done", done).Int("total", total).Str("task", name).Msg("Checked task")
	}))
	r, err := reconcile.New(opts...)
	if err != nil {
		return err
	}
	res, err := r.Run(ctx, list)
	if err != nil {
		return err
	}

	// Step 4: render
	reportOpts := []report.Option{report.WithGrouping(grouping)}
	if !settings.Cutover.Time.IsZero() {
		reportOpts = append(reportOpts, report.WithCutover(settings.Cutover))
	}
	rep := res.Report(runID, reportOpts...)

	if format == "" {
		format = output.DetectFormat("")
	}
	colors := output.Colors{Enabled: !app.NoColor() && output.IsTerminal(os.Stdout)}
	if err := output.WriteReport(w, rep, format, colors); err != nil {
		return err
	}

	if flags.Export != "" {
		if err := Export(flags.Export, rep); err != nil {
			return err
		}
		logger.Info().Str("path", flags.Export).Msg("Exported report")
	}
	return nil
}

// Options translates settings into reconciler options.
func Options(settings appcontext.Settings, pages reconcile.PageSource, set *suppression.Set, selector *matcher.Selector) ([]reconcile.Option, error) {
	auth, err := authority.New(settings.Trust...)
	if err != nil {
		return nil, errors.NewValidationError("trust", settings.Trust, err.Error())
	}

	differOpts := []differ.Option{differ.WithAuthority(auth)}
	if !settings.Cutover.Time.IsZero() {
		differOpts = append(differOpts, differ.WithCutover(settings.Cutover))
	}
	if settings.LargeItemPool > 0 {
		differOpts = append(differOpts, differ.WithLargeItemPool(settings.LargeItemPool))
	}

	opts := []reconcile.Option{
		reconcile.WithPages(pages),
		reconcile.WithSuppressions(set),
		reconcile.WithDiffer(differOpts...),
	}
	if settings.SubstringMinTokens > 0 {
		opts = append(opts, reconcile.WithMinSubstringTokens(settings.SubstringMinTokens))
	}
	if settings.TextCoverRatio > 0 {
		opts = append(opts, reconcile.WithTextCoverRatio(settings.TextCoverRatio))
	}
	if selector != nil {
		opts = append(opts, reconcile.WithSelection(func(t tasks.StructuredTask) bool { return selector.Matches(t) }))
	}
	return opts, nil
}

// Export writes the report to path, choosing the format from its extension.
func Export(path string, rep *report.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := output.WriteReport(f, rep, output.FormatFromPath(path), output.Colors{}); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}
