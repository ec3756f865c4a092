package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousands   = regexp.MustCompile(`(\d),(\d{3})\b`)
	reCountClock  = regexp.MustCompile(`\b\d{1,2}:\d\d\b`)
	reModelCode   = regexp.MustCompile(`\b(?:[a-z]+-?\d+[a-z0-9-]*|\d+[a-z]{2,}[a-z0-9-]*|\d+-[a-z][a-z0-9-]*)\b`)
	countNounList = `scavs?|pmcs?|raiders?|rogues?|bosses|boss|guards?|followers?|snipers?|cultists?|operatives?|enemies|enemy|targets?|players?|items?|kills?|headshots?|times|shots?|markers?|raids?|hits?`
	unitNounList  = `pieces|pcs|units?|copies|bottles|packs|packages|cans|boxes|rounds|sets|pairs|stacks`
	countVerbList = `eliminate|kill|neutralize|find|obtain|locate|hand over|handover|turn in|stash|plant|place|hide|mark|use|collect|survive|extract|deliver|shoot|hit|reach|transfer|craft|build|install|deal|complete|visit|retrieve|bring`

	countPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d+)\s+(?:` + countNounList + `)\b`),
		regexp.MustCompile(`\b(?:` + countNounList + `)\s*[:x]?\s*(\d+)\b`),
		regexp.MustCompile(`\b(\d+)\s?x\b`),
		regexp.MustCompile(`\bx\s?(\d+)\b`),
		regexp.MustCompile(`\b(?:` + countVerbList + `)\b[^.;\d]*?\b(\d+)\b`),
		regexp.MustCompile(`\b(\d+)\s+(?:` + unitNounList + `)\b`),
	}
)

// ExtractCount returns the objective count stated in text, or nil. Numbers
// embedded in itemNames, distances, percentages, calibers, clock times and
// room numbers and model codes are ignored. Patterns are tried in a fixed order and the first
// hit wins:
//
//	<number> <count-noun>   "5 scavs"
//	<count-noun> <number>   "kills: 5"
//	<number>x               "5x"
//	x<number>               "x5"
//	<verb> ... <number>     "hand over the 5"
//	<number> <unit-noun>    "3 bottles"
func ExtractCount(text string, itemNames []string) *int {
	s := StripMarkupOnly(text)
	for _, r := range foldRules() {
		s = r.Apply(s)
	}

	names := make([]string, 0, len(itemNames))
	for _, n := range itemNames {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			names = append(names, n)
		}
	}
	sortLongestFirst(names)
	for _, n := range names {
		s = strings.ReplaceAll(s, n, " ")
	}

	for {
		next := reThousands.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}

	for _, re := range []*regexp.Regexp{reCaliber, reDistance, rePercent, reCountClock, reDecimal} {
		s = re.ReplaceAllString(s, " ")
	}
	s = reLocation.ReplaceAllString(s, "$1")
	s = reModelCode.ReplaceAllStringFunc(s, func(m string) string {
		// multipliers are counts, not model codes
		if reMultiplier.MatchString(m) {
			return m
		}
		return " "
	})
	s = squash(s)

	for _, re := range countPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

var reMultiplier = regexp.MustCompile(`^(?:\d+x|x\d+)$`)
