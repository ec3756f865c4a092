package objectives

import (
	"regexp"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Intent is the verb class of an objective.
type Intent string

// Intents. IntentNone means no keyword matched.
const (
	IntentNone      Intent = ""
	IntentMark      Intent = "mark"
	IntentHandover  Intent = "handover"
	IntentEliminate Intent = "eliminate"
	IntentUse       Intent = "use"
	IntentExtract   Intent = "extract"
	IntentLocate    Intent = "locate"
)

type intentRule struct {
	intent Intent
	re     *regexp.Regexp
}

// intentRules are checked in order; the first hit wins. Mark comes first
// because "locate and mark" objectives are mark objectives.
var intentRules = []intentRule{
	{IntentMark, regexp.MustCompile(`\bmark\b`)},
	{IntentHandover, regexp.MustCompile(`\b(?:hand\s*over|hand\s+in|turn\s+in|give)\b`)},
	{IntentEliminate, regexp.MustCompile(`\b(?:kill|eliminate|neutrali[sz]e|shoot)\b`)},
	{IntentUse, regexp.MustCompile(`\b(?:stash|plant|place|hide|install|use)\b`)},
	{IntentExtract, regexp.MustCompile(`\b(?:extract|survive|escape)\b`)},
	{IntentLocate, regexp.MustCompile(`\b(?:find|locate|obtain|search|retrieve|collect|pick\s+up)\b`)},
}

// ClassifyIntent returns the intent of raw objective text by keyword lookup.
func ClassifyIntent(text string) Intent {
	s := strings.ToLower(normalize.StripMarkupOnly(text))
	for _, r := range intentRules {
		if r.re.MatchString(s) {
			return r.intent
		}
	}
	return IntentNone
}

// StructuredIntent classifies a structured objective by its description,
// falling back to its type tag and raw kind.
func StructuredIntent(o tasks.StructuredObjective) Intent {
	if i := ClassifyIntent(o.Description); i != IntentNone {
		return i
	}
	switch o.Type {
	case tasks.ObjectiveMark:
		return IntentMark
	case tasks.ObjectiveGiveItem:
		return IntentHandover
	case tasks.ObjectiveShoot:
		return IntentEliminate
	case tasks.ObjectiveUseItem:
		return IntentUse
	case tasks.ObjectiveExtract:
		return IntentExtract
	case tasks.ObjectiveQuestItem:
		return IntentLocate
	}
	switch o.Kind {
	case "findItem", "findQuestItem":
		return IntentLocate
	case "plantItem", "plantQuestItem":
		return IntentUse
	}
	return IntentNone
}
