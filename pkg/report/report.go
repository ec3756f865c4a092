// Package report groups and orders the discrepancies that survived
// suppression. Build is a pure function of its inputs.
package report

import (
	"fmt"
	"sort"

	"github.com/agentstation/utc"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

// Grouping selects how discrepancies are grouped.
type Grouping string

// Groupings.
const (
	ByPriority Grouping = "priority"
	ByCategory Grouping = "category"
)

// ParseGrouping parses a grouping name. The empty string means ByPriority.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(s) {
	case "", ByPriority:
		return ByPriority, nil
	case ByCategory:
		return ByCategory, nil
	}
	return "", errors.NewValidationError("group", s, "must be priority or category")
}

// Category is a coarse field family.
type Category string

// Categories, in report order.
const (
	CategoryTask       Category = "task"
	CategoryObjectives Category = "objectives"
	CategoryRewards    Category = "rewards"
	CategoryReputation Category = "reputation"
)

var categoryOrder = []Category{CategoryTask, CategoryObjectives, CategoryRewards, CategoryReputation}

// CategoryOf returns the category of a field.
func CategoryOf(f discrepancy.Field) Category {
	switch f {
	case discrepancy.FieldMinPlayerLevel, discrepancy.FieldMap,
		discrepancy.FieldTaskRequirements, discrepancy.FieldNextTasks:
		return CategoryTask
	case discrepancy.FieldExperience, discrepancy.FieldMoney:
		return CategoryRewards
	}
	if f.IsReputation() {
		return CategoryReputation
	}
	return CategoryObjectives
}

// Failure is a task that could not be reconciled.
type Failure struct {
	TaskID string `json:"taskId" yaml:"taskId"`
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// Group is one titled slice of the report.
type Group struct {
	Name          string                    `json:"name" yaml:"name"`
	Discrepancies []discrepancy.Discrepancy `json:"discrepancies" yaml:"discrepancies"`
}

// Summary counts the run's outcome.
type Summary struct {
	Total      int `json:"total" yaml:"total"`
	Tasks      int `json:"tasks" yaml:"tasks"`
	High       int `json:"high" yaml:"high"`
	Medium     int `json:"medium" yaml:"medium"`
	Low        int `json:"low" yaml:"low"`
	Suppressed int `json:"suppressed" yaml:"suppressed"`
	Stale      int `json:"stale" yaml:"stale"`
	Failed     int `json:"failed" yaml:"failed"`
}

// FreshnessSummary counts surviving discrepancies by wiki revision age.
type FreshnessSummary struct {
	WithRevision       int      `json:"withRevision" yaml:"withRevision"`
	EditedAfterCutover int      `json:"editedAfterCutover" yaml:"editedAfterCutover"`
	Cutover            utc.Time `json:"cutover" yaml:"cutover"`
}

// Report is the presentable outcome of a reconciliation run.
type Report struct {
	RunID       string              `json:"runId" yaml:"runId"`
	GeneratedAt utc.Time            `json:"generatedAt" yaml:"generatedAt"`
	Grouping    Grouping            `json:"grouping" yaml:"grouping"`
	Groups      []Group             `json:"groups" yaml:"groups"`
	Summary     Summary             `json:"summary" yaml:"summary"`
	Freshness   FreshnessSummary    `json:"freshness" yaml:"freshness"`
	Stale       []suppression.Entry `json:"stale,omitempty" yaml:"stale,omitempty"`
	Failures    []Failure           `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// All returns every discrepancy in report order.
func (r *Report) All() []discrepancy.Discrepancy {
	var out []discrepancy.Discrepancy
	for _, g := range r.Groups {
		out = append(out, g.Discrepancies...)
	}
	return out
}

// Empty reports whether nothing needs attention.
func (r *Report) Empty() bool {
	return r.Summary.Total == 0 && len(r.Stale) == 0 && len(r.Failures) == 0
}

// Option configures Build.
type Option func(*options)

type options struct {
	grouping Grouping
	cutover  utc.Time
	now      func() utc.Time
}

// WithGrouping sets the grouping.
func WithGrouping(g Grouping) Option {
	return func(o *options) {
		if g != "" {
			o.grouping = g
		}
	}
}

// WithCutover records the cutover date in the freshness summary.
func WithCutover(t utc.Time) Option {
	return func(o *options) {
		o.cutover = t
	}
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() utc.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Build assembles a report from a filtered run.
func Build(runID string, res suppression.Result, failures []Failure, opts ...Option) *Report {
	o := &options{grouping: ByPriority, now: utc.Now}
	for _, opt := range opts {
		opt(o)
	}

	sorted := make([]discrepancy.Discrepancy, len(res.Surviving))
	copy(sorted, res.Surviving)
	Sort(sorted)

	r := &Report{
		RunID:       runID,
		GeneratedAt: o.now(),
		Grouping:    o.grouping,
		Stale:       res.Stale,
		Failures:    sortedFailures(failures),
		Freshness:   FreshnessSummary{Cutover: o.cutover},
	}

	tasks := make(map[string]bool)
	for _, d := range sorted {
		tasks[d.TaskID] = true
		switch d.Priority {
		case discrepancy.PriorityHigh:
			r.Summary.High++
		case discrepancy.PriorityMedium:
			r.Summary.Medium++
		default:
			r.Summary.Low++
		}
		if d.Freshness != nil {
			r.Freshness.WithRevision++
			if d.Freshness.EditedAfterCutover {
				r.Freshness.EditedAfterCutover++
			}
		}
	}
	r.Summary.Total = len(sorted)
	r.Summary.Tasks = len(tasks)
	r.Summary.Suppressed = res.SuppressedCount
	r.Summary.Stale = len(res.Stale)
	r.Summary.Failed = len(r.Failures)

	switch o.grouping {
	case ByCategory:
		r.Groups = groupBy(sorted, func(d discrepancy.Discrepancy) string { return string(CategoryOf(d.Field)) }, categoryNames())
	default:
		r.Groups = groupBy(sorted, func(d discrepancy.Discrepancy) string { return string(d.Priority) }, priorityNames())
	}
	return r
}

// Sort orders discrepancies by priority, task name, task ID, field and
// objective ID.
func Sort(list []discrepancy.Discrepancy) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.TaskName != b.TaskName {
			return a.TaskName < b.TaskName
		}
		if a.TaskID != b.TaskID {
			return a.TaskID < b.TaskID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.ObjectiveID < b.ObjectiveID
	})
}

func groupBy(sorted []discrepancy.Discrepancy, key func(discrepancy.Discrepancy) string, order []string) []Group {
	buckets := make(map[string][]discrepancy.Discrepancy)
	for _, d := range sorted {
		k := key(d)
		buckets[k] = append(buckets[k], d)
	}
	groups := make([]Group, 0, len(buckets))
	for _, name := range order {
		if list, ok := buckets[name]; ok {
			groups = append(groups, Group{Name: name, Discrepancies: list})
		}
	}
	return groups
}

func priorityNames() []string {
	return []string{string(discrepancy.PriorityHigh), string(discrepancy.PriorityMedium), string(discrepancy.PriorityLow)}
}

func categoryNames() []string {
	names := make([]string, len(categoryOrder))
	for i, c := range categoryOrder {
		names[i] = string(c)
	}
	return names
}

func sortedFailures(in []Failure) []Failure {
	if len(in) == 0 {
		return nil
	}
	out := make([]Failure, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// String returns a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d discrepancies in %d tasks (%d high, %d medium, %d low), %d suppressed, %d stale, %d failed",
		s.Total, s.Tasks, s.High, s.Medium, s.Low, s.Suppressed, s.Stale, s.Failed)
}
