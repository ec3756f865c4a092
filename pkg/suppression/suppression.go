// Package suppression removes discrepancies a curator has already dealt with
// and finds suppressions that no longer reproduce.
package suppression

import (
	"sort"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
)

// Source says why a (task, field) pair is suppressed.
type Source string

// Sources.
const (
	// SourceCorrection means the structured value was wrong and is already
	// patched by the overlay.
	SourceCorrection Source = "correction"
	// SourceWikiWrong means the wiki is known to be wrong for this field.
	SourceWikiWrong Source = "wikiWrong"
)

// Entry is one suppression.
type Entry struct {
	TaskID string            `json:"taskId" yaml:"taskId"`
	Field  discrepancy.Field `json:"field" yaml:"field"`
	Source Source            `json:"source" yaml:"source"`
	Reason string            `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Key returns the (task, field) key of the entry.
func (e Entry) Key() discrepancy.Key {
	return discrepancy.Key{TaskID: e.TaskID, Field: e.Field}
}

// Set is an immutable lookup of suppressions by key.
type Set struct {
	entries []Entry
	byKey   map[discrepancy.Key][]Entry
}

// NewSet builds a Set. Entries with the same key and source are kept once.
func NewSet(entries ...Entry) *Set {
	s := &Set{byKey: make(map[discrepancy.Key][]Entry)}
	seen := make(map[Entry]bool)
	for _, e := range entries {
		dedup := Entry{TaskID: e.TaskID, Field: e.Field, Source: e.Source}
		if seen[dedup] {
			continue
		}
		seen[dedup] = true
		s.entries = append(s.entries, e)
		s.byKey[e.Key()] = append(s.byKey[e.Key()], e)
	}
	return s
}

// Contains reports whether the key is suppressed.
func (s *Set) Contains(k discrepancy.Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.byKey[k]
	return ok
}

// Entries returns all entries in insertion order.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Result is the outcome of filtering one run.
type Result struct {
	Surviving       []discrepancy.Discrepancy `json:"surviving" yaml:"surviving"`
	Suppressed      []discrepancy.Discrepancy `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	SuppressedCount int                       `json:"suppressedCount" yaml:"suppressedCount"`
	// Stale lists wiki-wrong entries whose disagreement did not reproduce.
	Stale []Entry `json:"stale,omitempty" yaml:"stale,omitempty"`
}

// Filter removes every discrepancy whose (task, field) is in set. Stale
// detection looks at the unfiltered list: a wiki-wrong entry is stale when
// its key does not occur there at all.
func Filter(all []discrepancy.Discrepancy, set *Set) Result {
	res := Result{Surviving: make([]discrepancy.Discrepancy, 0, len(all))}
	present := make(map[discrepancy.Key]bool, len(all))
	for _, d := range all {
		present[d.Key()] = true
		if set.Contains(d.Key()) {
			res.Suppressed = append(res.Suppressed, d)
			continue
		}
		res.Surviving = append(res.Surviving, d)
	}
	res.SuppressedCount = len(res.Suppressed)

	for _, e := range set.Entries() {
		if e.Source == SourceWikiWrong && !present[e.Key()] {
			res.Stale = append(res.Stale, e)
		}
	}
	sort.SliceStable(res.Stale, func(i, j int) bool {
		if res.Stale[i].TaskID != res.Stale[j].TaskID {
			return res.Stale[i].TaskID < res.Stale[j].TaskID
		}
		return res.Stale[i].Field < res.Stale[j].Field
	})
	return res
}
