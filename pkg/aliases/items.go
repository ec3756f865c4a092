package aliases

import (
	"sort"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// DefaultTextCoverRatio is the share of an item name's tokens that must appear
// in objective prose for the prose to count as mentioning the item.
const DefaultTextCoverRatio = 0.5

// ItemMatcher decides whether free-text item mentions refer to structured
// item references. Item aliasing is contextual, so there is no prebuilt
// table: every comparison normalizes on the fly with normalize.Name.
type ItemMatcher struct {
	ratio float64
}

// NewItemMatcher returns an ItemMatcher with the given text cover ratio.
// Non-positive ratios use DefaultTextCoverRatio.
func NewItemMatcher(ratio float64) *ItemMatcher {
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultTextCoverRatio
	}
	return &ItemMatcher{ratio: ratio}
}

// Ratio returns the configured text cover ratio.
func (m *ItemMatcher) Ratio() float64 {
	return m.ratio
}

// ItemKey returns the canonical comparison key of an item reference.
func ItemKey(ref tasks.ItemRef) string {
	return normalize.Name(ref.Name)
}

// ItemKeys returns every normalized alias of an item reference: full name,
// short name and the singular form of the full name.
func ItemKeys(ref tasks.ItemRef) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	full := normalize.Name(ref.Name)
	add(full)
	add(normalize.Name(ref.ShortName))
	add(singularTokens(full))
	return keys
}

// Matches reports whether a single mention names the item. Exact key matches
// always count; containment counts when the shorter side has at least two
// tokens, so "lion" alone does not claim "Bronze lion figurine".
func (m *ItemMatcher) Matches(ref tasks.ItemRef, mention string) bool {
	mk := normalize.Name(mention)
	if mk == "" {
		return false
	}
	mks := singularTokens(mk)
	for _, k := range ItemKeys(ref) {
		if k == mk || k == mks {
			return true
		}
		shorter, longer := k, mks
		if len(shorter) > len(longer) {
			shorter, longer = longer, shorter
		}
		if len(normalize.Tokens(shorter)) >= 2 && normalize.ContainsTokens(longer, shorter) {
			return true
		}
	}
	return false
}

// MentionedIn reports whether prose mentions the item: the short name as a
// whole token, or at least the cover ratio of the full name's tokens.
func (m *ItemMatcher) MentionedIn(ref tasks.ItemRef, prose string) bool {
	text := singularTokens(normalize.Name(prose))
	if text == "" {
		return false
	}
	if short := normalize.Name(ref.ShortName); short != "" && normalize.ContainsTokens(text, singularTokens(short)) {
		return true
	}
	nameTokens := normalize.Tokens(singularTokens(normalize.Name(ref.Name)))
	if len(nameTokens) == 0 {
		return false
	}
	present := make(map[string]bool)
	for _, tok := range normalize.Tokens(text) {
		present[tok] = true
	}
	hits := 0
	for _, tok := range nameTokens {
		if present[tok] {
			hits++
		}
	}
	return float64(hits)/float64(len(nameTokens)) >= m.ratio
}

// Covered reports whether ref is named by any mention or by any prose.
func (m *ItemMatcher) Covered(ref tasks.ItemRef, mentions []string, prose ...string) bool {
	for _, mention := range mentions {
		if m.Matches(ref, mention) {
			return true
		}
	}
	for _, p := range prose {
		if m.MentionedIn(ref, p) {
			return true
		}
	}
	return false
}

// Overlap reports whether the references and the mentions share at least
// one item.
func (m *ItemMatcher) Overlap(refs []tasks.ItemRef, mentions []string) bool {
	for _, ref := range refs {
		for _, mention := range mentions {
			if m.Matches(ref, mention) {
				return true
			}
		}
	}
	return false
}

// CanonicalItems returns the sorted canonical keys of refs.
func CanonicalItems(refs []tasks.ItemRef) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		k := ItemKey(r)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalMentions resolves mentions against refs. A mention that names a
// reference takes the reference's key; others keep their own normalized name.
func (m *ItemMatcher) CanonicalMentions(refs []tasks.ItemRef, mentions []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(mentions))
	for _, mention := range mentions {
		key := normalize.Name(mention)
		for _, r := range refs {
			if m.Matches(r, mention) {
				key = ItemKey(r)
				break
			}
		}
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func singularTokens(s string) string {
	toks := normalize.Tokens(s)
	for i, t := range toks {
		toks[i] = normalize.Singular(t)
	}
	return strings.Join(toks, " ")
}
