// Package authority decides which source is trusted when the structured feed
// and the wiki disagree on a field.
package authority

import (
	"fmt"
	"path/filepath"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
)

// Source names a data source.
type Source string

// Sources.
const (
	SourceStructured Source = "structured"
	SourceWiki       Source = "wiki"
)

// Authority determines which source is authoritative for each field.
type Authority interface {
	// Find returns the authority configuration for a specific field
	Find(field discrepancy.Field) *Field

	// TrustsFreeText reports whether the wiki wins for the field
	TrustsFreeText(field discrepancy.Field) bool

	// List returns all configured authorities
	List() []Field
}

// Field defines source priority for a field pattern.
type Field struct {
	Path     string `json:"path" yaml:"path" mapstructure:"path"`             // e.g. "map", "objectives.*", "reputation.*"
	Source   Source `json:"source" yaml:"source" mapstructure:"source"`       // Which source is authoritative
	Priority int    `json:"priority" yaml:"priority" mapstructure:"priority"` // Higher wins
}

type authorities struct {
	fields []Field
}

// New creates an Authority. Extra fields are layered over the defaults, which
// trust the wiki for everything.
func New(fields ...Field) (Authority, error) {
	all := Defaults()
	for _, f := range fields {
		if f.Source != SourceStructured && f.Source != SourceWiki {
			return nil, fmt.Errorf("authority %q: unknown source %q", f.Path, f.Source)
		}
		if _, err := filepath.Match(f.Path, ""); err != nil {
			return nil, fmt.Errorf("authority %q: %w", f.Path, err)
		}
		all = append(all, f)
	}
	return &authorities{fields: all}, nil
}

// Defaults returns the default policy: the wiki is the tie-break for every field.
func Defaults() []Field {
	return []Field{
		{Path: "*", Source: SourceWiki, Priority: 0},
	}
}

// Find returns the authority configuration for a specific field.
func (a *authorities) Find(field discrepancy.Field) *Field {
	return ByField(string(field), a.fields)
}

// TrustsFreeText reports whether the wiki is authoritative for the field.
func (a *authorities) TrustsFreeText(field discrepancy.Field) bool {
	f := a.Find(field)
	return f == nil || f.Source == SourceWiki
}

// List returns all configured authorities.
func (a *authorities) List() []Field {
	out := make([]Field, len(a.fields))
	copy(out, a.fields)
	return out
}

// ByField returns the highest priority authority for a given field path.
// Ties go to the longer, more specific pattern, then to the later entry.
func ByField(fieldPath string, authorities []Field) *Field {
	var bestMatch *Field
	bestPriority := 0
	bestMatchLength := -1

	for i, auth := range authorities {
		if !MatchesPattern(fieldPath, auth.Path) {
			continue
		}
		patternLength := len(auth.Path)
		if bestMatch == nil || auth.Priority > bestPriority ||
			(auth.Priority == bestPriority && patternLength >= bestMatchLength) {
			bestMatch = &authorities[i]
			bestPriority = auth.Priority
			bestMatchLength = patternLength
		}
	}

	return bestMatch
}

// MatchesPattern checks if a field path matches a pattern (supports * wildcards).
func MatchesPattern(fieldPath, pattern string) bool {
	if fieldPath == pattern || pattern == "*" {
		return true
	}

	// trailing wildcard matches across dots
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(fieldPath) >= len(prefix) && fieldPath[:len(prefix)] == prefix
	}

	matched, err := filepath.Match(pattern, fieldPath)
	if err != nil {
		return false
	}
	return matched
}

// FilterBySource returns only the authorities for a specific source.
func FilterBySource(authorities []Field, source Source) []Field {
	var filtered []Field
	for _, auth := range authorities {
		if auth.Source == source {
			filtered = append(filtered, auth)
		}
	}
	return filtered
}
