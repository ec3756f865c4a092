package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reComment      = regexp.MustCompile(`(?s)<!--.*?-->`)
	reRef          = regexp.MustCompile(`(?is)<ref[^>]*?(?:/>|>.*?</ref>)`)
	reBreak        = regexp.MustCompile(`(?i)<br\s*/?>`)
	reTag          = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)
	reTemplate     = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	reFileLink     = regexp.MustCompile(`(?i)\[\[(?:file|image):[^\[\]]*\]\]`)
	reWikiLink     = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
	reExternalLink = regexp.MustCompile(`\[https?://[^\s\]]+(?:\s+([^\]]*))?\]`)
	reEmphasis     = regexp.MustCompile(`'{2,}|\*{2,}`)
	reSpace        = regexp.MustCompile(`\s+`)

	reClock = regexp.MustCompile(`\b0(\d):([0-5]\d)\b`)

	reCaliber    = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?x\s?\d+(?:\.\d+)?(?:\s?mm)?\b|\b\d+(?:\.\d+)?\s?mm\b|\b\d+\s?(?:ga|gauge)\b|(?:^|\s)\.\d{2,3}(?:\s?(?:acp|bmg|lapua|magnum|cal|caliber))?\b`)
	reDistance   = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s?(?:m|meters?|metres?|km|kilometers?)\b`)
	rePercent    = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s?(?:%|percent\b)`)
	reCounted    = regexp.MustCompile(`\b\d+\s+(?:times?|kills?)\b`)
	reRange      = regexp.MustCompile(`\b\d+\s?-\s?\d+\b`)
	reLocation   = regexp.MustCompile(`\b(room|dorm|apartment|office|building|cottage|bunker|house|floor|gate|checkpoint|post|sector)\s*(?:no\.?|#|number)?\s*\d+[a-z]?\b`)
	reDecimal    = regexp.MustCompile(`\b\d+[.,]\d+\b`)
	reClockToken = regexp.MustCompile(`^\d{1,2}:\d\d$`)
	rePossessive = regexp.MustCompile(`'s\b`)
)

func squash(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

func replacer(re *regexp.Regexp, repl string) func(string) string {
	return func(s string) string { return re.ReplaceAllString(s, repl) }
}

func markupRules() []Rule {
	return []Rule{
		{Name: "comments", Stage: StageMarkup, Apply: replacer(reComment, "")},
		{Name: "references", Stage: StageMarkup, Apply: replacer(reRef, "")},
		{Name: "line-breaks", Stage: StageMarkup, Apply: replacer(reBreak, " ")},
		{Name: "tags", Stage: StageMarkup, Apply: replacer(reTag, "")},
		{Name: "templates", Stage: StageMarkup, Apply: replacer(reTemplate, "")},
		{Name: "file-links", Stage: StageMarkup, Apply: replacer(reFileLink, "")},
		{Name: "wiki-links", Stage: StageMarkup, Apply: stripWikiLinks},
		{Name: "external-links", Stage: StageMarkup, Apply: replacer(reExternalLink, "$1")},
		{Name: "emphasis", Stage: StageMarkup, Apply: replacer(reEmphasis, "")},
		{Name: "entities", Stage: StageMarkup, Apply: unescape},
		{Name: "squash", Stage: StageMarkup, Apply: squash},
	}
}

func stripWikiLinks(s string) string {
	return reWikiLink.ReplaceAllStringFunc(s, func(m string) string {
		parts := reWikiLink.FindStringSubmatch(m)
		if parts[2] != "" {
			return parts[2]
		}
		target := parts[1]
		if i := strings.IndexByte(target, '#'); i >= 0 {
			if i == 0 {
				return target[1:]
			}
			target = target[:i]
		}
		return target
	})
}

func unescape(s string) string {
	if !strings.ContainsAny(s, "&\u00a0") {
		return s
	}
	return strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
}

func foldRules() []Rule {
	return []Rule{
		{Name: "lowercase", Stage: StageFold, Apply: lower},
		{Name: "confusables", Stage: StageFold, Apply: foldLetters},
		{Name: "punctuation-variants", Stage: StageFold, Apply: punctuationVariants.Replace},
		{Name: "squash", Stage: StageFold, Apply: squash},
	}
}

func lower(s string) string {
	// casers carry state, one per call
	return cases.Lower(language.Und).String(s)
}

// confusables maps letters that render like Latin letters onto them.
var confusables = map[rune]rune{
	'а': 'a', 'в': 'b', 'е': 'e', 'ё': 'e', 'к': 'k', 'м': 'm', 'н': 'h', 'о': 'o',
	'р': 'p', 'с': 'c', 'т': 't', 'у': 'y', 'х': 'x', 'і': 'i', 'ј': 'j', 'ѕ': 's',
	'ԁ': 'd', 'ԛ': 'q', 'ԝ': 'w', 'α': 'a', 'ε': 'e', 'ι': 'i', 'κ': 'k', 'ο': 'o',
	'ρ': 'p', 'τ': 't', 'υ': 'u', 'χ': 'x', 'ν': 'v',
}

func foldLetters(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if c, ok := confusables[r]; ok {
				return c
			}
			return r
		}),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var punctuationVariants = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "−", "-",
	"×", "x", "…", "...",
)

func timeRules() []Rule {
	return []Rule{
		{Name: "clock", Stage: StageTime, Apply: replacer(reClock, "$1:$2")},
	}
}

func quantityRules() []Rule {
	return []Rule{
		{Name: "calibers", Stage: StageQuantity, Apply: replacer(reCaliber, " ")},
		{Name: "distances", Stage: StageQuantity, Apply: replacer(reDistance, " ")},
		{Name: "percentages", Stage: StageQuantity, Apply: replacer(rePercent, " ")},
		{Name: "counted", Stage: StageQuantity, Apply: replacer(reCounted, " ")},
		{Name: "ranges", Stage: StageQuantity, Apply: replacer(reRange, " ")},
		{Name: "locations", Stage: StageQuantity, Apply: replacer(reLocation, "$1")},
		{Name: "decimals", Stage: StageQuantity, Apply: replacer(reDecimal, " ")},
		{Name: "numeric-tokens", Stage: StageQuantity, Apply: dropNumericTokens},
		{Name: "punctuation", Stage: StageQuantity, Apply: stripPunctuation},
		{Name: "squash", Stage: StageQuantity, Apply: squash},
	}
}

// dropNumericTokens removes numbers and alphanumeric model codes (m4a1,
// ak-74n, 5x) but keeps clock times.
func dropNumericTokens(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, tok := range fields {
		core := strings.Trim(tok, `.,;:!?()[]"'`)
		if reClockToken.MatchString(core) || !strings.ContainsAny(core, "0123456789") {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// stripPunctuation keeps letters, digits and the colon of clock times.
func stripPunctuation(s string) string {
	s = rePossessive.ReplaceAllString(s, "")
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ':' && i > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func vocabularyRules(opts Options) []Rule {
	phrases := compilePhrases(opts.Phrases)
	fillers := make(map[string]bool, len(opts.Fillers))
	for _, f := range opts.Fillers {
		fillers[f] = true
	}
	words := opts.Words
	nouns := opts.CountNouns

	return []Rule{
		{Name: "phrases", Stage: StageVocabulary, Apply: phrases},
		{Name: "count-nouns", Stage: StageVocabulary, Apply: mapTokens(func(tok string) string {
			if singular, ok := nouns[tok]; ok {
				return singular
			}
			return tok
		})},
		{Name: "verbs", Stage: StageVocabulary, Apply: mapTokens(func(tok string) string {
			if canonical, ok := words[tok]; ok {
				return canonical
			}
			return tok
		})},
		{Name: "fillers", Stage: StageVocabulary, Apply: mapTokens(func(tok string) string {
			if fillers[tok] {
				return ""
			}
			return tok
		})},
	}
}

func mapTokens(fn func(string) string) func(string) string {
	return func(s string) string {
		fields := strings.Fields(s)
		out := fields[:0]
		for _, tok := range fields {
			if mapped := fn(tok); mapped != "" {
				out = append(out, mapped)
			}
		}
		return strings.Join(out, " ")
	}
}

// compilePhrases rewrites multi-word phrases, longest first.
func compilePhrases(phrases map[string]string) func(string) string {
	if len(phrases) == 0 {
		return func(s string) string { return s }
	}
	keys := make([]string, 0, len(phrases))
	for k := range phrases {
		keys = append(keys, k)
	}
	sortLongestFirst(keys)
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(m string) string { return phrases[m] })
	}
}
