// Package objectives pairs the structured objectives of a task with the
// objective lines of its wiki page.
//
// Matching is a fold over an immutable State: each pass takes the remaining
// candidates and returns a new State with the pairs it found removed from
// both sides. Passes run in a fixed order:
//
//  1. exact      equal normalized keys, earliest wiki line wins
//  2. substring  one key contains the other on token boundaries, both keys
//     long enough, exactly one wiki candidate
//  3. verbItem   same verb intent and at least one shared item; a found in
//     raid hand-over also pairs with a wiki "find" line
//  4. singleton  nothing matched so far and one objective left on each side
//
// A pair consumes both objectives, so the result is a partial injection in
// both directions.
package objectives

import (
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// DefaultMinSubstringTokens is the minimum key length, in tokens, for the
// substring pass.
const DefaultMinSubstringTokens = 4

// Pass names the strategy that produced a pair.
type Pass string

// Passes in execution order.
const (
	PassExactName     Pass = "exact"
	PassSubstringName Pass = "substring"
	PassVerbItemName  Pass = "verbItem"
	PassSingletonName Pass = "singleton"
)

// TextMatched reports whether the pass paired objectives by their wording.
// Only such pairs get their descriptions compared.
func (p Pass) TextMatched() bool {
	return p != PassVerbItemName
}

// StructuredEntry is a remaining structured objective.
type StructuredEntry struct {
	Index     int
	Objective tasks.StructuredObjective
	Key       string
}

// FreeTextEntry is a remaining wiki objective.
type FreeTextEntry struct {
	Index     int
	Objective tasks.FreeTextObjective
	Key       string
}

// Pair is a matched structured and wiki objective.
type Pair struct {
	Structured      tasks.StructuredObjective
	FreeText        tasks.FreeTextObjective
	StructuredIndex int
	FreeTextIndex   int
	Pass            Pass
}

// State is the immutable input and output of a pass.
type State struct {
	Matched    []Pair
	Structured []StructuredEntry
	FreeText   []FreeTextEntry
}

// Result is the outcome of matching one task.
type Result struct {
	TaskName            string
	Matched             []Pair
	UnmatchedStructured []tasks.StructuredObjective
	UnmatchedFreeText   []tasks.FreeTextObjective
	// Redundant wiki "find" lines restating a found in raid hand-over.
	Redundant []tasks.FreeTextObjective
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMinSubstringTokens sets the minimum key length for the substring pass.
func WithMinSubstringTokens(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.minSubstringTokens = n
		}
	}
}

// Matcher pairs objectives. It holds no per-task state.
type Matcher struct {
	normalizer         *normalize.Normalizer
	items              *aliases.ItemMatcher
	minSubstringTokens int
}

// New creates a Matcher. A nil normalizer or item matcher uses the defaults.
func New(n *normalize.Normalizer, items *aliases.ItemMatcher, opts ...Option) *Matcher {
	if n == nil {
		n = normalize.Default()
	}
	if items == nil {
		items = aliases.NewItemMatcher(aliases.DefaultTextCoverRatio)
	}
	m := &Matcher{
		normalizer:         n,
		items:              items,
		minSubstringTokens: DefaultMinSubstringTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match pairs the objectives of one task.
func (m *Matcher) Match(structured []tasks.StructuredObjective, freeText []tasks.FreeTextObjective, taskName string) Result {
	state := m.Start(structured, freeText)
	for _, pass := range []func(State) State{m.PassExact, m.PassSubstring, m.PassVerbItem, m.PassSingleton} {
		state = pass(state)
	}

	res := Result{TaskName: taskName, Matched: state.Matched}
	for _, e := range state.Structured {
		res.UnmatchedStructured = append(res.UnmatchedStructured, e.Objective)
	}
	for _, e := range state.FreeText {
		if m.redundant(e.Objective, structured) {
			res.Redundant = append(res.Redundant, e.Objective)
			continue
		}
		res.UnmatchedFreeText = append(res.UnmatchedFreeText, e.Objective)
	}
	return res
}

// Start builds the initial state with a comparison key per objective.
func (m *Matcher) Start(structured []tasks.StructuredObjective, freeText []tasks.FreeTextObjective) State {
	st := State{
		Structured: make([]StructuredEntry, len(structured)),
		FreeText:   make([]FreeTextEntry, len(freeText)),
	}
	for i, o := range structured {
		st.Structured[i] = StructuredEntry{Index: i, Objective: o, Key: m.normalizer.Key(o.Description)}
	}
	for i, o := range freeText {
		st.FreeText[i] = FreeTextEntry{Index: i, Objective: o, Key: m.normalizer.Key(o.Text)}
	}
	return st
}

// PassExact pairs equal non-empty keys, taking the earliest wiki line.
func (m *Matcher) PassExact(s State) State {
	return s.fold(PassExactName, func(se StructuredEntry, free []FreeTextEntry) int {
		if se.Key == "" {
			return -1
		}
		for i, fe := range free {
			if fe.Key == se.Key {
				return i
			}
		}
		return -1
	})
}

// PassSubstring pairs keys where one contains the other. Both keys need the
// minimum token count and exactly one wiki candidate may qualify.
func (m *Matcher) PassSubstring(s State) State {
	return s.fold(PassSubstringName, func(se StructuredEntry, free []FreeTextEntry) int {
		if len(normalize.Tokens(se.Key)) < m.minSubstringTokens {
			return -1
		}
		found := -1
		for i, fe := range free {
			if len(normalize.Tokens(fe.Key)) < m.minSubstringTokens {
				continue
			}
			if normalize.ContainsTokens(se.Key, fe.Key) || normalize.ContainsTokens(fe.Key, se.Key) {
				if found >= 0 {
					// ambiguous, decline
					return -1
				}
				found = i
			}
		}
		return found
	})
}

// PassVerbItem pairs objectives with the same intent and a shared item. A
// found in raid hand-over also pairs with a wiki "find" line on the same items.
func (m *Matcher) PassVerbItem(s State) State {
	return s.fold(PassVerbItemName, func(se StructuredEntry, free []FreeTextEntry) int {
		if len(se.Objective.Items) == 0 {
			return -1
		}
		intent := StructuredIntent(se.Objective)
		if intent != IntentNone {
			for i, fe := range free {
				if ClassifyIntent(fe.Objective.Text) == intent && m.sharesItem(se.Objective, fe.Objective) {
					return i
				}
			}
		}
		if se.Objective.Type == tasks.ObjectiveGiveItem && se.Objective.IsFoundInRaid() {
			for i, fe := range free {
				if ClassifyIntent(fe.Objective.Text) == IntentLocate && m.sharesItem(se.Objective, fe.Objective) {
					return i
				}
			}
		}
		return -1
	})
}

// PassSingleton force-pairs the last objective on each side when no pass has
// matched anything.
func (m *Matcher) PassSingleton(s State) State {
	if len(s.Matched) != 0 || len(s.Structured) != 1 || len(s.FreeText) != 1 {
		return s
	}
	return s.fold(PassSingletonName, func(StructuredEntry, []FreeTextEntry) int { return 0 })
}

func (m *Matcher) sharesItem(so tasks.StructuredObjective, fo tasks.FreeTextObjective) bool {
	if m.items.Overlap(so.Items, fo.Items) {
		return true
	}
	for _, ref := range so.Items {
		if m.items.MentionedIn(ref, fo.Text) {
			return true
		}
	}
	return false
}

// redundant reports whether an unmatched wiki "find" line only restates
// items already required found in raid by a structured objective.
func (m *Matcher) redundant(fo tasks.FreeTextObjective, structured []tasks.StructuredObjective) bool {
	if ClassifyIntent(fo.Text) != IntentLocate {
		return false
	}
	var fir []tasks.ItemRef
	for _, so := range structured {
		if so.IsFoundInRaid() {
			fir = append(fir, so.Items...)
		}
	}
	if len(fir) == 0 {
		return false
	}
	if len(fo.Items) == 0 {
		for _, ref := range fir {
			if m.items.MentionedIn(ref, fo.Text) {
				return true
			}
		}
		return false
	}
	for _, mention := range fo.Items {
		covered := false
		for _, ref := range fir {
			if m.items.Matches(ref, mention) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// fold walks the remaining structured entries in order. pick returns the
// index of the wiki entry to pair with, or -1. The receiver is not modified.
func (s State) fold(pass Pass, pick func(StructuredEntry, []FreeTextEntry) int) State {
	next := State{
		Matched:  append([]Pair(nil), s.Matched...),
		FreeText: append([]FreeTextEntry(nil), s.FreeText...),
	}
	for _, se := range s.Structured {
		i := pick(se, next.FreeText)
		if i < 0 {
			next.Structured = append(next.Structured, se)
			continue
		}
		fe := next.FreeText[i]
		next.Matched = append(next.Matched, Pair{
			Structured:      se.Objective,
			FreeText:        fe.Objective,
			StructuredIndex: se.Index,
			FreeTextIndex:   fe.Index,
			Pass:            pass,
		})
		remaining := make([]FreeTextEntry, 0, len(next.FreeText)-1)
		remaining = append(remaining, next.FreeText[:i]...)
		next.FreeText = append(remaining, next.FreeText[i+1:]...)
	}
	return next
}
