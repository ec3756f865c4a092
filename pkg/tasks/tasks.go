// Package tasks defines the task records consumed by the reconciliation engine.
//
// StructuredTask and StructuredObjective mirror the machine-generated feed:
// stable IDs and typed fields. FreeTextTask and FreeTextObjective hold what
// was parsed out of a human-edited wiki page. Absent values are nil pointers
// or empty slices and always mean "unknown", never "zero".
package tasks

import (
	"net/url"
	"path"
	"strings"

	"github.com/agentstation/utc"
)

// GameMode selects a variant of the structured feed.
type GameMode string

// Game modes served by the structured feed.
const (
	GameModeRegular GameMode = "regular"
	GameModePvE     GameMode = "pve"
)

// String returns the string representation of a game mode.
func (m GameMode) String() string {
	return string(m)
}

// ObjectiveType is the closed set of structured objective type tags.
type ObjectiveType string

// Objective types.
const (
	ObjectiveBasic     ObjectiveType = "basic"
	ObjectiveMark      ObjectiveType = "mark"
	ObjectiveExtract   ObjectiveType = "extract"
	ObjectiveShoot     ObjectiveType = "shoot"
	ObjectiveGiveItem  ObjectiveType = "giveItem"
	ObjectiveQuestItem ObjectiveType = "questItem"
	ObjectiveUseItem   ObjectiveType = "useItem"
	ObjectiveBuildItem ObjectiveType = "buildItem"
)

// ParseObjectiveType maps a raw feed type onto the closed set.
// Unknown types fall back to basic.
func ParseObjectiveType(raw string) ObjectiveType {
	switch strings.TrimPrefix(raw, "TaskObjective") {
	case "mark", "Mark":
		return ObjectiveMark
	case "extract", "Extract":
		return ObjectiveExtract
	case "shoot", "Shoot":
		return ObjectiveShoot
	case "giveItem", "ItemHandover", "giveQuestItem":
		return ObjectiveGiveItem
	case "findQuestItem", "QuestItem", "questItem":
		return ObjectiveQuestItem
	case "useItem", "UseItem", "plantItem", "plantQuestItem":
		return ObjectiveUseItem
	case "buildWeapon", "BuildItem", "buildItem":
		return ObjectiveBuildItem
	default:
		return ObjectiveBasic
	}
}

// ItemRef references an item by name with optional short name and ID.
type ItemRef struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string `json:"name" yaml:"name"`
	ShortName string `json:"shortName,omitempty" yaml:"shortName,omitempty"`
}

// MapRef references a map.
type MapRef struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// TaskRef references another task.
type TaskRef struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// StructuredObjective is a single objective from the structured feed.
type StructuredObjective struct {
	ID          string        `json:"id" yaml:"id"`
	Description string        `json:"description" yaml:"description"`
	Type        ObjectiveType `json:"type" yaml:"type"`
	// Kind is the raw feed type (findItem, plantItem, skill, visit, ...).
	Kind         string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Count        *int        `json:"count,omitempty" yaml:"count,omitempty"`
	Maps         []MapRef    `json:"maps,omitempty" yaml:"maps,omitempty"`
	Items        []ItemRef   `json:"items,omitempty" yaml:"items,omitempty"`
	FoundInRaid  *bool       `json:"foundInRaid,omitempty" yaml:"foundInRaid,omitempty"`
	RequiredKeys [][]ItemRef `json:"requiredKeys,omitempty" yaml:"requiredKeys,omitempty"`
	SkillName    string      `json:"skillName,omitempty" yaml:"skillName,omitempty"`
}

// IsFoundInRaid reports whether the objective requires found-in-raid items.
func (o StructuredObjective) IsFoundInRaid() bool {
	return o.FoundInRaid != nil && *o.FoundInRaid
}

// IsSkill reports whether the objective is a skill-level requirement.
func (o StructuredObjective) IsSkill() bool {
	return o.Kind == "skill" || o.SkillName != ""
}

// TraderStanding is a reputation delta with one trader.
type TraderStanding struct {
	Trader string  `json:"trader" yaml:"trader"`
	Delta  float64 `json:"delta" yaml:"delta"`
}

// ItemReward is an item granted on completion.
type ItemReward struct {
	Item  ItemRef `json:"item" yaml:"item"`
	Count int     `json:"count" yaml:"count"`
}

// MoneyReward is a currency amount. Currency is the short code (RUB, USD, EUR).
type MoneyReward struct {
	Currency string `json:"currency" yaml:"currency"`
	Amount   int    `json:"amount" yaml:"amount"`
}

// Reward holds the finish rewards of a structured task.
type Reward struct {
	Experience int              `json:"experience,omitempty" yaml:"experience,omitempty"`
	Reputation []TraderStanding `json:"reputation,omitempty" yaml:"reputation,omitempty"`
	Items      []ItemReward     `json:"items,omitempty" yaml:"items,omitempty"`
	Money      []MoneyReward    `json:"money,omitempty" yaml:"money,omitempty"`
}

// StructuredTask is a task from the structured feed. ID is the identity.
type StructuredTask struct {
	ID             string                `json:"id" yaml:"id"`
	Name           string                `json:"name" yaml:"name"`
	NormalizedName string                `json:"normalizedName,omitempty" yaml:"normalizedName,omitempty"`
	WikiLink       string                `json:"wikiLink,omitempty" yaml:"wikiLink,omitempty"`
	Trader         string                `json:"trader,omitempty" yaml:"trader,omitempty"`
	MinPlayerLevel *int                  `json:"minPlayerLevel,omitempty" yaml:"minPlayerLevel,omitempty"`
	Map            *MapRef               `json:"map,omitempty" yaml:"map,omitempty"`
	Objectives     []StructuredObjective `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Requirements   []TaskRef             `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Rewards        Reward                `json:"rewards" yaml:"rewards"`
	GameModes      []GameMode            `json:"gameModes,omitempty" yaml:"gameModes,omitempty"`
}

// WikiTitle returns the wiki page title for the task, derived from the wiki
// link when present and from the name otherwise.
func (t StructuredTask) WikiTitle() string {
	if t.WikiLink != "" {
		if u, err := url.Parse(t.WikiLink); err == nil && u.Path != "" {
			base := path.Base(u.Path)
			if title, err := url.PathUnescape(base); err == nil && title != "" && title != "/" && title != "." {
				return strings.ReplaceAll(title, "_", " ")
			}
		}
	}
	return t.Name
}

// HasMode reports whether the task is served in the given game mode.
func (t StructuredTask) HasMode(mode GameMode) bool {
	for _, m := range t.GameModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Link is an outbound wiki link with optional display text.
type Link struct {
	Target  string `json:"target" yaml:"target"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// Text returns the display text, falling back to the target.
func (l Link) Text() string {
	if l.Display != "" {
		return l.Display
	}
	return l.Target
}

// FreeTextObjective is one objective line from a wiki page.
type FreeTextObjective struct {
	Text string `json:"text" yaml:"text"`
	// Raw is the line with markup intact.
	Raw      string   `json:"raw,omitempty" yaml:"raw,omitempty"`
	Count    *int     `json:"count,omitempty" yaml:"count,omitempty"`
	AltCount *int     `json:"altCount,omitempty" yaml:"altCount,omitempty"`
	Maps     []string `json:"maps,omitempty" yaml:"maps,omitempty"`
	Items    []string `json:"items,omitempty" yaml:"items,omitempty"`
	Links    []Link   `json:"links,omitempty" yaml:"links,omitempty"`
}

// FreeTextRewards is the parsed reward block. Present is false when the page
// has no rewards section.
type FreeTextRewards struct {
	Present    bool               `json:"present" yaml:"present"`
	Experience *int               `json:"experience,omitempty" yaml:"experience,omitempty"`
	Reputation map[string]float64 `json:"reputation,omitempty" yaml:"reputation,omitempty"`
	Money      []MoneyReward      `json:"money,omitempty" yaml:"money,omitempty"`
	Raw        []string           `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Revision is the last-edit metadata of a wiki page.
type Revision struct {
	Timestamp utc.Time `json:"timestamp" yaml:"timestamp"`
	Editor    string   `json:"editor,omitempty" yaml:"editor,omitempty"`
	Comment   string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// FreeTextTask is a task as described on a wiki page.
type FreeTextTask struct {
	Title        string              `json:"title" yaml:"title"`
	Requirements []string            `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	MinLevel     *int                `json:"minLevel,omitempty" yaml:"minLevel,omitempty"`
	Objectives   []FreeTextObjective `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Rewards      FreeTextRewards     `json:"rewards" yaml:"rewards"`
	Previous     []string            `json:"previous,omitempty" yaml:"previous,omitempty"`
	Next         []string            `json:"next,omitempty" yaml:"next,omitempty"`
	Maps         []string            `json:"maps,omitempty" yaml:"maps,omitempty"`
	Revision     *Revision           `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// AllMaps returns the union of task-level and objective-level map mentions in
// first-seen order.
func (t FreeTextTask) AllMaps() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(t.Maps)
	for _, o := range t.Objectives {
		add(o.Maps)
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
