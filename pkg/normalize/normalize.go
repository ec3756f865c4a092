// Package normalize turns free-form objective text into comparison keys.
//
// Normalization is an explicit ordered pipeline of named rules grouped in
// stages. Later stages assume earlier ones ran, so the stage order is part of
// the contract:
//
//  1. StageMarkup     strip tags, links (keeping display text), templates, emphasis
//  2. StageFold       lowercase, fold look-alike and accented letters, unify dashes
//  3. StageTime       rewrite leading-zero clock times ("09:00" -> "9:00")
//  4. StageQuantity   drop counts, calibers, distances, model codes
//  5. StageVocabulary canonical verbs, singular count nouns, no filler words
//  6. StageMaps       drop map mentions with their preposition
//
// The markup stage runs to a fixpoint, so StripMarkupOnly is idempotent and
// Key(StripMarkupOnly(t)) == Key(t) for every t.
package normalize

import (
	"regexp"
	"strings"
)

// Stage groups rules that run together.
type Stage int

// Pipeline stages in execution order.
const (
	StageMarkup Stage = iota
	StageFold
	StageTime
	StageQuantity
	StageVocabulary
	StageMaps
)

var stageNames = [...]string{"markup", "fold", "time", "quantity", "vocabulary", "maps"}

// String returns the stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Rule is a single named rewrite.
type Rule struct {
	Name  string
	Stage Stage
	Apply func(string) string
}

// Normalizer computes comparison keys. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	opts  Options
	rules []Rule
}

// New builds a Normalizer from opts.
func New(opts Options) *Normalizer {
	n := &Normalizer{opts: opts.clone()}
	n.rules = n.buildRules()
	return n
}

// Default returns a Normalizer with the default vocabulary and map names.
func Default() *Normalizer {
	return defaultNormalizer
}

var defaultNormalizer = New(DefaultOptions())

// WithMapAliases returns a copy of n that strips the given map aliases
// instead of the configured ones.
func (n *Normalizer) WithMapAliases(aliases []string) *Normalizer {
	opts := n.opts.clone()
	opts.MapAliases = append([]string(nil), aliases...)
	return New(opts)
}

// Options returns a copy of the options n was built with.
func (n *Normalizer) Options() Options {
	return n.opts.clone()
}

// Rules returns the pipeline in execution order.
func (n *Normalizer) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Key returns the fully normalized comparison key of text.
func (n *Normalizer) Key(text string) string {
	return n.through(text, StageMaps)
}

// Through runs the pipeline up to and including stage last.
func (n *Normalizer) Through(text string, last Stage) string {
	return n.through(text, last)
}

func (n *Normalizer) through(text string, last Stage) string {
	s := text
	for stage := StageMarkup; stage <= last; stage++ {
		s = n.runStage(s, stage)
	}
	return s
}

func (n *Normalizer) runStage(s string, stage Stage) string {
	apply := func(in string) string {
		for _, r := range n.rules {
			if r.Stage == stage {
				in = r.Apply(in)
			}
		}
		return in
	}
	if stage != StageMarkup {
		return apply(s)
	}
	// every markup rule shrinks or keeps its input, so this terminates
	for {
		next := apply(s)
		if next == s {
			return s
		}
		s = next
	}
}

// Normalize returns the comparison key of text using the default Normalizer.
func Normalize(text string) string {
	return defaultNormalizer.Key(text)
}

// StripMarkupOnly removes markup and collapses whitespace, keeping case,
// numbers and wording. Used for display and reward parsing.
func StripMarkupOnly(text string) string {
	return defaultNormalizer.runStage(text, StageMarkup)
}

// Tokens splits a key into tokens.
func Tokens(key string) []string {
	return strings.Fields(key)
}

// ContainsTokens reports whether needle occurs in haystack on token boundaries.
func ContainsTokens(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func (n *Normalizer) buildRules() []Rule {
	rules := markupRules()
	rules = append(rules, foldRules()...)
	rules = append(rules, timeRules()...)
	rules = append(rules, quantityRules()...)
	rules = append(rules, vocabularyRules(n.opts)...)
	rules = append(rules, n.mapRules()...)
	return rules
}

// mapRules compiles the map alias stripper. Aliases are pushed through the
// same stages as the text so "The Lab" and "the lab" both become "lab".
func (n *Normalizer) mapRules() []Rule {
	if len(n.opts.MapAliases) == 0 {
		return nil
	}
	prefix := &Normalizer{opts: n.opts}
	prefix.rules = append(markupRules(), foldRules()...)
	prefix.rules = append(prefix.rules, timeRules()...)
	prefix.rules = append(prefix.rules, quantityRules()...)
	prefix.rules = append(prefix.rules, vocabularyRules(n.opts)...)

	seen := make(map[string]bool)
	var keys []string
	for _, alias := range n.opts.MapAliases {
		k := prefix.through(alias, StageVocabulary)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sortLongestFirst(keys)
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	prepositions := strings.Join(n.opts.MapPrepositions, "|")
	pattern := `\b(?:` + strings.Join(quoted, "|") + `)\b`
	if prepositions != "" {
		pattern = `(?:\b(?:` + prepositions + `)\s+)?` + pattern
	}
	re := regexp.MustCompile(pattern)
	return []Rule{
		{Name: "map-aliases", Stage: StageMaps, Apply: func(s string) string { return re.ReplaceAllString(s, " ") }},
		{Name: "squash", Stage: StageMaps, Apply: squash},
	}
}
