package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reDisambiguation = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	reDashes         = regexp.MustCompile(`\s*-+\s*`)
)

// Name normalizes a proper name (map, item, trader) for alias lookup:
// markup stripped, lowercased, letters folded, punctuation dropped and a
// leading "the " removed.
func Name(text string) string {
	s := StripMarkupOnly(text)
	for _, r := range foldRules() {
		s = r.Apply(s)
	}
	s = rePossessive.ReplaceAllString(s, "s")
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	s = squash(b.String())
	return strings.TrimPrefix(s, "the ")
}

// TaskName normalizes a task title for set comparison. Disambiguation
// suffixes such as "(quest)" are dropped and hyphenation is unified.
func TaskName(text string) string {
	s := StripMarkupOnly(text)
	s = punctuationVariants.Replace(s)
	for {
		next := reDisambiguation.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	s = reDashes.ReplaceAllString(s, " ")
	return Name(s)
}
