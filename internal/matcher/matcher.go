// Package matcher selects tasks by glob, regex or plain-text patterns.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Literal matches a case-insensitive substring.
	Literal PatternType = iota
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Literal:
		return "literal"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches strings against one pattern. Matching is always
// case-insensitive.
type Matcher struct {
	pattern     string
	patternType PatternType
	compiled    *regexp.Regexp
	lowered     string
}

// New compiles a pattern.
func New(patternType PatternType, pattern string) (*Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errors.NewValidationError("pattern", pattern, "must not be empty")
	}
	if patternType == Auto {
		patternType = Detect(pattern)
	}

	m := &Matcher{pattern: pattern, patternType: patternType, lowered: strings.ToLower(pattern)}
	switch patternType {
	case Literal:
	case Glob:
		if _, err := path.Match(m.lowered, ""); err != nil {
			return nil, errors.NewValidationError("pattern", pattern, fmt.Sprintf("invalid glob: %v", err))
		}
	case Regex:
		expr := pattern
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.NewValidationError("pattern", pattern, fmt.Sprintf("invalid regex: %v", err))
		}
		m.compiled = compiled
	default:
		return nil, errors.NewValidationError("pattern", pattern, fmt.Sprintf("unsupported pattern type %v", patternType))
	}
	return m, nil
}

// Match reports whether input matches.
func (m *Matcher) Match(input string) bool {
	switch m.patternType {
	case Literal:
		return strings.Contains(strings.ToLower(input), m.lowered)
	case Glob:
		ok, _ := path.Match(m.lowered, strings.ToLower(input))
		return ok
	case Regex:
		return m.compiled.MatchString(input)
	default:
		return false
	}
}

// MatchAny reports whether any input matches.
func (m *Matcher) MatchAny(inputs ...string) bool {
	for _, in := range inputs {
		if in != "" && m.Match(in) {
			return true
		}
	}
	return false
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the resolved pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// Detect guesses the type of a pattern. Regex metacharacters win over glob
// ones; a pattern with neither is literal.
func Detect(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\b",
		"(?:", "(?i)", ".*", ".+",
		"{", "}", "+", "|", "(", ")",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	if strings.ContainsAny(pattern, "*?[]") {
		return Glob
	}
	return Literal
}

// Selector picks tasks matching any of several patterns against their ID,
// name or normalized name.
type Selector struct {
	matchers []*Matcher
}

// NewSelector compiles the patterns with auto-detection. No patterns select
// every task.
func NewSelector(patterns ...string) (*Selector, error) {
	s := &Selector{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		m, err := New(Auto, p)
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// Matches reports whether the task is selected.
func (s *Selector) Matches(t tasks.StructuredTask) bool {
	if s == nil || len(s.matchers) == 0 {
		return true
	}
	for _, m := range s.matchers {
		if m.MatchAny(t.ID, t.Name, t.NormalizedName) {
			return true
		}
	}
	return false
}

// Select returns the selected tasks in input order.
func (s *Selector) Select(list []tasks.StructuredTask) []tasks.StructuredTask {
	if s == nil || len(s.matchers) == 0 {
		return list
	}
	out := make([]tasks.StructuredTask, 0, len(list))
	for _, t := range list {
		if s.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
