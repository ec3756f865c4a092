// Package aliases resolves shorthand and marked-up names to the canonical
// names used by the structured feed.
//
// Tables are built fresh per run from the names observed in the structured
// snapshot. Every key is produced by normalize.Name, the same function used
// for lookups, so a lookup never misses because of inconsistent
// normalization. A canonical name always resolves to itself.
package aliases

import (
	"sort"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
)

// Domain names what a table resolves.
type Domain string

// Domains.
const (
	DomainMaps    Domain = "maps"
	DomainItems   Domain = "items"
	DomainTraders Domain = "traders"
)

// Table maps normalized aliases to canonical names within one domain.
type Table struct {
	domain     Domain
	byKey      map[string]string
	raw        map[string]string
	canonicals map[string]bool
}

// NewTable returns an empty table for domain.
func NewTable(domain Domain) *Table {
	return &Table{
		domain:     domain,
		byKey:      make(map[string]string),
		raw:        make(map[string]string),
		canonicals: make(map[string]bool),
	}
}

// Domain returns the table's domain.
func (t *Table) Domain() Domain {
	return t.domain
}

// Register maps alias to canonical. The canonical name is registered as an
// alias of itself. Registering an alias that already resolves to a different
// canonical name returns an *errors.AliasConflictError.
func (t *Table) Register(alias, canonical string) error {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return errors.NewValidationError("canonical", canonical, "empty canonical name")
	}
	if err := t.put(canonical, canonical); err != nil {
		return err
	}
	t.canonicals[canonical] = true
	return t.put(alias, canonical)
}

func (t *Table) put(alias, canonical string) error {
	key := normalize.Name(alias)
	if key == "" {
		return nil
	}
	if existing, ok := t.byKey[key]; ok {
		if existing != canonical {
			return &errors.AliasConflictError{
				Domain:    string(t.domain),
				Alias:     alias,
				Existing:  existing,
				Attempted: canonical,
			}
		}
		return nil
	}
	t.byKey[key] = canonical
	t.raw[key] = strings.TrimSpace(alias)
	return nil
}

// Has reports whether alias is registered.
func (t *Table) Has(alias string) bool {
	_, ok := t.byKey[normalize.Name(alias)]
	return ok
}

// Resolve returns the canonical name for name.
func (t *Table) Resolve(name string) (string, bool) {
	canonical, ok := t.byKey[normalize.Name(name)]
	return canonical, ok
}

// Canonicalize resolves names to a sorted, de-duplicated set. Unknown names
// are kept as written so they still show up in comparisons.
func (t *Table) Canonicalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := t.Resolve(n)
		if !ok {
			c = strings.TrimSpace(normalize.StripMarkupOnly(n))
		}
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Aliases returns the registered aliases as written, longest key first.
func (t *Table) Aliases() []string {
	keys := t.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = t.raw[k]
	}
	return out
}

// Keys returns the normalized keys, longest first.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.byKey))
	for k := range t.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Canonicals returns the canonical names, sorted.
func (t *Table) Canonicals() []string {
	out := make([]string, 0, len(t.canonicals))
	for c := range t.canonicals {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered keys.
func (t *Table) Len() int {
	return len(t.byKey)
}

// FindIn returns the canonical names whose aliases occur in text on token
// boundaries, in order of first appearance. Longer aliases are consumed
// first so "streets of tarkov" is not also read as "streets".
func (t *Table) FindIn(text string) []string {
	s := " " + normalize.Name(text) + " "
	type hit struct {
		pos       int
		canonical string
	}
	var hits []hit
	for _, key := range t.Keys() {
		needle := " " + key + " "
		for {
			i := strings.Index(s, needle)
			if i < 0 {
				break
			}
			hits = append(hits, hit{pos: i, canonical: t.byKey[key]})
			// blank the match so shorter aliases do not re-read it
			s = s[:i+1] + strings.Repeat("\x00", len(key)) + s[i+1+len(key):]
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if !seen[h.canonical] {
			seen[h.canonical] = true
			out = append(out, h.canonical)
		}
	}
	return out
}
