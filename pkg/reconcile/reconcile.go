// Package reconcile runs the whole check over a batch of structured tasks:
// it fetches each task's wiki page, parses it, matches objectives, compares
// fields and filters the result through the suppression set.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/differ"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/objectives"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/report"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/wikitext"
)

// Page is a fetched wiki page.
type Page struct {
	Title    string
	Markup   string
	Revision *tasks.Revision
	// Cached is true when the page came from the fetch cache.
	Cached bool
}

// PageSource returns wiki pages by title.
type PageSource interface {
	Page(ctx context.Context, title string) (Page, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, title string) (Page, error)

// Page implements PageSource.
func (f PageSourceFunc) Page(ctx context.Context, title string) (Page, error) {
	return f(ctx, title)
}

// TaskFailure is a task that could not be checked.
type TaskFailure = report.Failure

// Reconciler checks structured tasks against their wiki pages.
type Reconciler interface {
	// Run checks every task. It fails only when there is nothing to check
	// or the context is canceled; per-task problems become failures.
	Run(ctx context.Context, list []tasks.StructuredTask) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	opts *options
}

// New creates a Reconciler. WithPages is required.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.pages == nil {
		return nil, &errors.ValidationError{
			Field:   "pages",
			Message: "a page source is required",
		}
	}
	return &reconciler{opts: options}, nil
}

// run holds the per-batch artifacts built once from the structured tasks.
type run struct {
	tables  differ.Tables
	wiki    wikitext.Options
	matcher *objectives.Matcher
	differ  differ.Differ
	next    differ.NextTaskIndex
	logger  *zerolog.Logger
}

// Run performs reconciliation with a clean step-by-step flow.
func (r *reconciler) Run(ctx context.Context, list []tasks.StructuredTask) (*Result, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no structured tasks", errors.ErrSourceUnavailable)
	}

	// Step 1: build alias tables and indexes from the snapshot
	rn, err := r.prepare(ctx, list)
	if err != nil {
		return nil, err
	}

	checked := r.selection(list)
	result := &Result{Tasks: len(checked), Started: time.Now()}

	// Step 2: compare each selected task with its page
	for i, task := range checked {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}
		r.task(ctx, rn, task, result)
		if r.opts.progress != nil {
			r.opts.progress(i+1, len(checked), task.Name)
		}
	}

	// Step 3: apply suppressions to the whole batch
	result.Filter = suppression.Filter(result.Discrepancies, r.suppressionsFor(result.PerTask, len(list)))
	result.Duration = time.Since(result.Started)

	rn.logger.Info().
		Int("tasks", result.Tasks).
		Int("checked", result.Checked).
		Int("failed", len(result.Failures)).
		Int("discrepancies", len(result.Filter.Surviving)).
		Int("suppressed", result.Filter.SuppressedCount).
		Int("stale", len(result.Filter.Stale)).
		Dur("duration", result.Duration).
		Msg("Reconciliation complete")

	return result, nil
}

// selection returns the tasks to check, in snapshot order.
func (r *reconciler) selection(list []tasks.StructuredTask) []tasks.StructuredTask {
	if r.opts.selected == nil {
		return list
	}
	var out []tasks.StructuredTask
	for _, t := range list {
		if r.opts.selected(t) {
			out = append(out, t)
		}
	}
	return out
}

// suppressionsFor narrows the suppression set to the tasks whose page was
// compared. Unselected and failed tasks were never re-evaluated, so their
// entries can be neither applied nor reported stale.
func (r *reconciler) suppressionsFor(compared []TaskResult, total int) *suppression.Set {
	if len(compared) == total {
		return r.opts.suppressions
	}
	ids := make(map[string]bool, len(compared))
	for _, t := range compared {
		ids[t.TaskID] = true
	}
	var entries []suppression.Entry
	for _, e := range r.opts.suppressions.Entries() {
		if ids[e.TaskID] {
			entries = append(entries, e)
		}
	}
	return suppression.NewSet(entries...)
}

func (r *reconciler) prepare(ctx context.Context, list []tasks.StructuredTask) (*run, error) {
	logger := r.opts.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	maps, err := aliases.BuildMapTable(list, r.opts.shorthands)
	if err != nil {
		return nil, err
	}
	traders, err := aliases.BuildTraderTable(list)
	if err != nil {
		return nil, err
	}

	n := aliases.Normalizer(normalize.New(r.opts.vocabulary), maps)
	items := aliases.NewItemMatcher(r.opts.textCoverRatio)
	differOpts := append([]differ.Option{differ.WithTextCoverRatio(r.opts.textCoverRatio)}, r.opts.differOpts...)

	logger.Debug().
		Int("tasks", len(list)).
		Int("maps", len(maps.Canonicals())).
		Int("map_aliases", maps.Len()).
		Int("traders", traders.Len()).
		Msg("Built alias tables")

	return &run{
		tables:  differ.Tables{Maps: maps, Normalizer: n},
		wiki:    wikitext.Options{Maps: maps, Traders: traders, NonItems: r.opts.nonItems},
		matcher: objectives.New(n, items, objectives.WithMinSubstringTokens(r.opts.minSubstringTokens)),
		differ:  differ.New(differOpts...),
		next:    differ.BuildNextTaskIndex(list),
		logger:  logger,
	}, nil
}

// task checks one task and records either its discrepancies or a failure.
func (r *reconciler) task(ctx context.Context, rn *run, task tasks.StructuredTask, result *Result) {
	ctx = logging.WithTask(logging.WithLogger(ctx, rn.logger), task.ID)
	ctx = logging.WithFields(ctx, map[string]any{"task": task.Name})
	logger := logging.FromContext(ctx)
	title := task.WikiTitle()

	page, err := r.page(ctx, title)
	if err != nil {
		logger.Warn().Err(err).Str("title", title).Msg("Skipping task")
		result.Failures = append(result.Failures, TaskFailure{TaskID: task.ID, Name: task.Name, Reason: err.Error()})
		return
	}

	free := wikitext.Parse(page.Title, page.Markup, page.Revision, rn.wiki)
	match := rn.matcher.Match(task.Objectives, free.Objectives, task.Name)
	found := rn.differ.Task(task, free, match, rn.tables, rn.next)

	result.Checked++
	result.Redundant += len(match.Redundant)
	result.Discrepancies = append(result.Discrepancies, found...)
	result.PerTask = append(result.PerTask, TaskResult{
		TaskID:        task.ID,
		Name:          task.Name,
		Title:         page.Title,
		Cached:        page.Cached,
		Matched:       len(match.Matched),
		Discrepancies: len(found),
	})

	logger.Debug().
		Int("matched", len(match.Matched)).
		Int("missing", len(match.UnmatchedStructured)).
		Int("extra", len(match.UnmatchedFreeText)).
		Int("discrepancies", len(found)).
		Msg("Task checked")
}

// page fetches a page and follows at most one redirect.
func (r *reconciler) page(ctx context.Context, title string) (Page, error) {
	page, err := r.opts.pages.Page(ctx, title)
	if err != nil {
		return Page{}, err
	}
	target, ok := wikitext.Redirect(page.Markup)
	if !ok {
		return withTitle(page, title), nil
	}

	logging.FromContext(ctx).Debug().Str("from", title).Str("to", target).Msg("Following redirect")
	page, err = r.opts.pages.Page(ctx, target)
	if err != nil {
		return Page{}, err
	}
	if _, again := wikitext.Redirect(page.Markup); again {
		return Page{}, errors.NewFetchError("wiki", title, fmt.Errorf("redirect %q leads to another redirect", target))
	}
	return withTitle(page, target), nil
}

func withTitle(p Page, title string) Page {
	if p.Title == "" {
		p.Title = title
	}
	return p
}

// Result is the outcome of one batch.
type Result struct {
	Tasks   int
	Checked int
	// Redundant counts wiki objective lines dropped as restatements.
	Redundant int
	// Discrepancies is the unfiltered list in task order.
	Discrepancies []discrepancy.Discrepancy
	Filter        suppression.Result
	Failures      []TaskFailure
	PerTask       []TaskResult
	Started       time.Time
	Duration      time.Duration
}

// TaskResult summarizes one checked task.
type TaskResult struct {
	TaskID        string
	Name          string
	Title         string
	Cached        bool
	Matched       int
	Discrepancies int
}

// Report builds the presentable report of the run.
func (r *Result) Report(runID string, opts ...report.Option) *report.Report {
	return report.Build(runID, r.Filter, r.Failures, opts...)
}
