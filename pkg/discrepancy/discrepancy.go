// Package discrepancy defines the field-scoped disagreement records produced
// by comparing a structured task against its wiki page.
package discrepancy

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"
)

// Field identifies the compared field. It is drawn from the closed set below
// or from the reputation.<trader> family.
type Field string

// Compared fields.
const (
	FieldMinPlayerLevel       Field = "minPlayerLevel"
	FieldMap                  Field = "map"
	FieldTaskRequirements     Field = "taskRequirements"
	FieldNextTasks            Field = "nextTasks"
	FieldObjectiveDescription Field = "objectives.description"
	FieldObjectiveCount       Field = "objectives.count"
	FieldObjectiveMaps        Field = "objectives.maps"
	FieldObjectiveItems       Field = "objectives.items"
	FieldObjectiveMissing     Field = "objectives.missing"
	FieldObjectiveExtra       Field = "objectives.extra"
	FieldExperience           Field = "experience"
	FieldMoney                Field = "money"
)

const reputationPrefix = "reputation."

// Fields lists the closed set of field keys in reporting order.
var Fields = []Field{
	FieldMinPlayerLevel,
	FieldMap,
	FieldTaskRequirements,
	FieldNextTasks,
	FieldObjectiveDescription,
	FieldObjectiveCount,
	FieldObjectiveMaps,
	FieldObjectiveItems,
	FieldObjectiveMissing,
	FieldObjectiveExtra,
	FieldExperience,
	FieldMoney,
}

// Reputation returns the field key for a trader's reputation reward.
func Reputation(trader string) Field {
	return Field(reputationPrefix + trader)
}

// IsReputation reports whether f belongs to the reputation family.
func (f Field) IsReputation() bool {
	return strings.HasPrefix(string(f), reputationPrefix) && len(f) > len(reputationPrefix)
}

// Trader returns the trader of a reputation field, or "".
func (f Field) Trader() string {
	if !f.IsReputation() {
		return ""
	}
	return strings.TrimPrefix(string(f), reputationPrefix)
}

// Valid reports whether f is in the closed set or the reputation family.
func (f Field) Valid() bool {
	if f.IsReputation() {
		return true
	}
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// String returns the string representation of a field.
func (f Field) String() string {
	return string(f)
}

// Priority is the triage tier of a discrepancy.
type Priority string

// Priorities from most to least important.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, lower is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// String returns the string representation of a priority.
func (p Priority) String() string {
	return string(p)
}

// PriorityOf returns the priority of a field. It depends on the key only.
func PriorityOf(f Field) Priority {
	switch f {
	case FieldObjectiveDescription, FieldMinPlayerLevel, FieldTaskRequirements, FieldNextTasks:
		return PriorityHigh
	case FieldMoney, FieldExperience:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Freshness describes how recently the wiki page was edited.
type Freshness struct {
	EditDate           utc.Time `json:"editDate" yaml:"editDate"`
	DaysSinceEdit      int      `json:"daysSinceEdit" yaml:"daysSinceEdit"`
	EditedAfterCutover bool     `json:"editedAfterCutover" yaml:"editedAfterCutover"`
}

// NewFreshness computes freshness of an edit at now against cutover.
func NewFreshness(edited, cutover, now utc.Time) *Freshness {
	days := int(now.Time.Sub(edited.Time) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return &Freshness{
		EditDate:           edited,
		DaysSinceEdit:      days,
		EditedAfterCutover: edited.Time.After(cutover.Time),
	}
}

// Key identifies a discrepancy for suppression.
type Key struct {
	TaskID string `json:"taskId" yaml:"taskId"`
	Field  Field  `json:"field" yaml:"field"`
}

// String returns "taskId/field".
func (k Key) String() string {
	return k.TaskID + "/" + string(k.Field)
}

// Discrepancy is a single field-level disagreement for one task.
type Discrepancy struct {
	TaskID          string     `json:"taskId" yaml:"taskId"`
	TaskName        string     `json:"taskName" yaml:"taskName"`
	Field           Field      `json:"field" yaml:"field"`
	ObjectiveID     string     `json:"objectiveId,omitempty" yaml:"objectiveId,omitempty"`
	StructuredValue any        `json:"structuredValue" yaml:"structuredValue"`
	FreeTextValue   any        `json:"freeTextValue" yaml:"freeTextValue"`
	Priority        Priority   `json:"priority" yaml:"priority"`
	TrustsFreeText  bool       `json:"trustsFreeText" yaml:"trustsFreeText"`
	Freshness       *Freshness `json:"freshness,omitempty" yaml:"freshness,omitempty"`
}

// Key returns the suppression key of the discrepancy.
func (d Discrepancy) Key() Key {
	return Key{TaskID: d.TaskID, Field: d.Field}
}

// String returns a one-line description.
func (d Discrepancy) String() string {
	return fmt.Sprintf("%s [%s] %s: structured=%v wiki=%v", d.TaskName, d.Priority, d.Field, d.StructuredValue, d.FreeTextValue)
}
