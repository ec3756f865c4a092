package normalize

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// Options holds the data-driven word sets of a Normalizer.
type Options struct {
	// Phrases rewrites multi-word phrases before single words.
	Phrases map[string]string
	// Words maps synonyms onto a canonical verb or noun.
	Words map[string]string
	// CountNouns maps plural count nouns onto their singular.
	CountNouns map[string]string
	// Fillers are dropped from keys.
	Fillers []string
	// MapAliases are stripped from keys together with a leading preposition.
	MapAliases []string
	// MapPrepositions may precede a map alias.
	MapPrepositions []string
}

func (o Options) clone() Options {
	return Options{
		Phrases:         maps.Clone(o.Phrases),
		Words:           maps.Clone(o.Words),
		CountNouns:      maps.Clone(o.CountNouns),
		Fillers:         slices.Clone(o.Fillers),
		MapAliases:      slices.Clone(o.MapAliases),
		MapPrepositions: slices.Clone(o.MapPrepositions),
	}
}

// DefaultMapNames are the map names known without a structured snapshot.
var DefaultMapNames = []string{
	"Customs", "Factory", "Woods", "Shoreline", "Interchange", "The Lab",
	"Reserve", "Lighthouse", "Streets of Tarkov", "Streets", "Ground Zero",
	"The Labyrinth", "Terminal", "Night Factory",
}

// DefaultOptions returns the built-in vocabulary.
func DefaultOptions() Options {
	return Options{
		Phrases: map[string]string{
			"locate and obtain": "locate",
			"find and obtain":   "locate",
			"find and locate":   "locate",
			"hand over":         "handover",
			"hand in":           "handover",
			"turn in":           "handover",
		},
		Words: map[string]string{
			"kill":       "eliminate",
			"neutralize": "eliminate",
			"neutralise": "eliminate",
			"eliminate":  "eliminate",
			"find":       "locate",
			"obtain":     "locate",
			"locate":     "locate",
			"give":       "handover",
		},
		CountNouns: map[string]string{
			"scavs":      "scav",
			"pmcs":       "pmc",
			"raiders":    "raider",
			"rogues":     "rogue",
			"bosses":     "boss",
			"guards":     "guard",
			"followers":  "follower",
			"snipers":    "sniper",
			"cultists":   "cultist",
			"operatives": "operative",
			"enemies":    "enemy",
			"targets":    "target",
			"players":    "player",
			"items":      "item",
			"kills":      "kill",
			"headshots":  "headshot",
			"times":      "time",
			"shots":      "shot",
			"markers":    "marker",
			"keys":       "key",
			"weapons":    "weapon",
			"raids":      "raid",
		},
		Fillers: []string{
			"the", "a", "an", "any", "that", "this", "these", "those",
			"is", "are", "was", "were", "be", "all", "some", "each", "every",
			"your", "their", "its",
		},
		MapAliases: slices.Clone(DefaultMapNames),
		MapPrepositions: []string{
			"on", "at", "in", "from", "to", "across", "around", "inside", "within",
		},
	}
}

// sortLongestFirst orders strings by descending length, then lexically.
func sortLongestFirst(ss []string) {
	sort.Slice(ss, func(i, j int) bool {
		if len(ss[i]) != len(ss[j]) {
			return len(ss[i]) > len(ss[j])
		}
		return ss[i] < ss[j]
	})
}

var irregularPlurals = map[string]string{
	"knives":   "knife",
	"wolves":   "wolf",
	"shelves":  "shelf",
	"men":      "man",
	"women":    "woman",
	"children": "child",
	"mice":     "mouse",
	"dice":     "die",
}

// Singular returns a best-effort singular form of an English noun.
func Singular(word string) string {
	if s, ok := irregularPlurals[word]; ok {
		return s
	}
	if len(word) <= 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "zes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"),
		strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}
