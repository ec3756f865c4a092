// Package differ compares a structured task against its wiki page and
// reports field-level discrepancies.
package differ

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/agentstation/utc"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/objectives"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Defaults.
const (
	DefaultLargeItemPool       = 10
	DefaultReputationTolerance = 0.001
)

// DefaultCutover is the date wiki edits are compared against.
var DefaultCutover = utc.New(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))

// Differ handles discrepancy detection for one task at a time.
type Differ interface {
	// Task compares one structured task with its wiki page.
	Task(structured tasks.StructuredTask, freeText tasks.FreeTextTask, match objectives.Result, tables Tables, next NextTaskIndex) []discrepancy.Discrepancy
}

// Tables carries the per-run alias artifacts a comparison needs.
type Tables struct {
	Maps *aliases.Table
	// Normalizer strips the run's map aliases from objective text.
	Normalizer *normalize.Normalizer
}

// differ is the default implementation of Differ.
type differ struct {
	ignorePatterns []string
	authority      authority.Authority
	cutover        utc.Time
	now            func() utc.Time
	items          *aliases.ItemMatcher
	largeItemPool  int
	repTolerance   float64
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	trust, _ := authority.New()
	d := &differ{
		authority:     trust,
		cutover:       DefaultCutover,
		now:           utc.Now,
		items:         aliases.NewItemMatcher(aliases.DefaultTextCoverRatio),
		largeItemPool: DefaultLargeItemPool,
		repTolerance:  DefaultReputationTolerance,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// comparison accumulates the discrepancies of one task.
type comparison struct {
	d         *differ
	task      tasks.StructuredTask
	freshness *discrepancy.Freshness
	out       []discrepancy.Discrepancy
}

func (c *comparison) add(field discrepancy.Field, objectiveID string, structured, freeText any) {
	for _, p := range c.d.ignorePatterns {
		if authority.MatchesPattern(string(field), p) {
			return
		}
	}
	c.out = append(c.out, discrepancy.Discrepancy{
		TaskID:          c.task.ID,
		TaskName:        c.task.Name,
		Field:           field,
		ObjectiveID:     objectiveID,
		StructuredValue: structured,
		FreeTextValue:   freeText,
		Priority:        discrepancy.PriorityOf(field),
		TrustsFreeText:  c.d.authority.TrustsFreeText(field),
		Freshness:       c.freshness,
	})
}

// Task compares one structured task with its wiki page.
func (diff *differ) Task(s tasks.StructuredTask, f tasks.FreeTextTask, match objectives.Result, tables Tables, next NextTaskIndex) []discrepancy.Discrepancy {
	if tables.Maps == nil {
		tables.Maps = aliases.NewTable(aliases.DomainMaps)
	}
	if tables.Normalizer == nil {
		tables.Normalizer = aliases.Normalizer(normalize.Default(), tables.Maps)
	}

	c := &comparison{d: diff, task: s}
	if f.Revision != nil {
		c.freshness = discrepancy.NewFreshness(f.Revision.Timestamp, diff.cutover, diff.now())
	}

	diff.level(c, s, f)
	diff.taskMap(c, s, f, tables.Maps)
	diff.taskNames(c, discrepancy.FieldTaskRequirements, requirementNames(s), f.Previous)
	diff.taskNames(c, discrepancy.FieldNextTasks, next.Next(s), f.Next)

	for _, pair := range match.Matched {
		diff.objective(c, pair, tables)
	}
	for _, o := range match.UnmatchedStructured {
		c.add(discrepancy.FieldObjectiveMissing, o.ID, o.Description, nil)
	}
	for _, o := range match.UnmatchedFreeText {
		c.add(discrepancy.FieldObjectiveExtra, "", nil, o.Text)
	}

	if f.Rewards.Present {
		diff.rewards(c, s.Rewards, f.Rewards)
	}
	return c.out
}

func (diff *differ) level(c *comparison, s tasks.StructuredTask, f tasks.FreeTextTask) {
	if f.MinLevel == nil || s.MinPlayerLevel == nil {
		return
	}
	if *s.MinPlayerLevel != *f.MinLevel {
		c.add(discrepancy.FieldMinPlayerLevel, "", *s.MinPlayerLevel, *f.MinLevel)
	}
}

// taskMap compares the task's map with every map the page mentions. Sets
// must match exactly; one empty side is a mismatch, two are not.
func (diff *differ) taskMap(c *comparison, s tasks.StructuredTask, f tasks.FreeTextTask, maps *aliases.Table) {
	var structured []string
	if s.Map != nil && s.Map.Name != "" {
		structured = maps.Canonicalize([]string{s.Map.Name})
	}
	free := maps.Canonicalize(f.AllMaps())
	if len(structured) == 0 && len(free) == 0 {
		return
	}
	if !equalSets(structured, free) {
		c.add(discrepancy.FieldMap, "", structured, free)
	}
}

func requirementNames(s tasks.StructuredTask) []string {
	names := make([]string, 0, len(s.Requirements))
	for _, r := range s.Requirements {
		names = append(names, r.Name)
	}
	return names
}

// taskNames compares task name sets after task-name normalization.
func (diff *differ) taskNames(c *comparison, field discrepancy.Field, structured, free []string) {
	if len(structured) == 0 && len(free) == 0 {
		return
	}
	if !equalSets(taskNameSet(structured), taskNameSet(free)) {
		c.add(field, "", sortedCopy(structured), sortedCopy(free))
	}
}

var reTransit = regexp.MustCompile(`(?i)\b(?:transit|transits|passage)\b`)
var reCategory = regexp.MustCompile(`(?i)\bany\b`)

func (diff *differ) objective(c *comparison, pair objectives.Pair, tables Tables) {
	so, fo := pair.Structured, pair.FreeText

	itemsAgree := diff.objectiveItems(c, so, fo)

	if pair.Pass.TextMatched() && !itemsAgree {
		n := tables.Normalizer
		if n.Key(so.Description) != n.Key(fo.Text) {
			c.add(discrepancy.FieldObjectiveDescription, so.ID, so.Description, fo.Text)
		}
	}

	if so.Count != nil && fo.Count != nil && *so.Count != *fo.Count {
		if fo.AltCount == nil || *fo.AltCount != *so.Count {
			c.add(discrepancy.FieldObjectiveCount, so.ID, *so.Count, *fo.Count)
		}
	}

	structuredMaps := make([]string, 0, len(so.Maps))
	for _, m := range so.Maps {
		structuredMaps = append(structuredMaps, m.Name)
	}
	sm := tables.Maps.Canonicalize(structuredMaps)
	fm := tables.Maps.Canonicalize(fo.Maps)
	if len(sm) > 0 && len(fm) > 0 && !equalSets(sm, fm) {
		transit := reTransit.MatchString(so.Description) || reTransit.MatchString(fo.Text)
		if !transit || !subset(sm, fm) {
			c.add(discrepancy.FieldObjectiveMaps, so.ID, sm, fm)
		}
	}
}

// objectiveItems compares item sets and reports whether they agree. Skill
// objectives, category requirements and large pools the wiki does not list
// are exempt and never agree.
func (diff *differ) objectiveItems(c *comparison, so tasks.StructuredObjective, fo tasks.FreeTextObjective) bool {
	if len(so.Items) == 0 || so.IsSkill() {
		return false
	}
	if reCategory.MatchString(so.Description) || reCategory.MatchString(fo.Text) {
		return false
	}
	if len(so.Items) >= diff.largeItemPool && len(fo.Items) == 0 {
		return false
	}

	mismatch := false
	for _, ref := range so.Items {
		if !diff.items.Covered(ref, fo.Items, fo.Text, so.Description) {
			mismatch = true
			break
		}
	}
	if !mismatch {
		for _, mention := range fo.Items {
			named := false
			for _, ref := range so.Items {
				if diff.items.Matches(ref, mention) {
					named = true
					break
				}
			}
			if !named && !diff.items.MentionedIn(tasks.ItemRef{Name: mention}, so.Description) {
				mismatch = true
				break
			}
		}
	}

	if mismatch {
		c.add(discrepancy.FieldObjectiveItems, so.ID,
			aliases.CanonicalItems(so.Items),
			diff.items.CanonicalMentions(so.Items, fo.Items))
		return false
	}
	return true
}

func (diff *differ) rewards(c *comparison, s tasks.Reward, f tasks.FreeTextRewards) {
	if f.Experience != nil && *f.Experience != s.Experience {
		c.add(discrepancy.FieldExperience, "", s.Experience, *f.Experience)
	}

	if len(f.Money) > 0 {
		wiki := f.Money[0]
		if len(s.Money) == 0 {
			c.add(discrepancy.FieldMoney, "", nil, formatMoney(wiki))
		} else if s.Money[0].Amount != wiki.Amount ||
			(s.Money[0].Currency != "" && wiki.Currency != "" && s.Money[0].Currency != wiki.Currency) {
			c.add(discrepancy.FieldMoney, "", formatMoney(s.Money[0]), formatMoney(wiki))
		}
	}

	structured := make(map[string]float64, len(s.Reputation))
	for _, r := range s.Reputation {
		structured[r.Trader] += r.Delta
	}
	// A rewards section without any standing line says nothing about
	// reputation. Once it lists one trader, an omitted trader reads as zero.
	traders := make(map[string]bool)
	if len(f.Reputation) > 0 {
		for t := range structured {
			traders[t] = true
		}
	}
	for t := range f.Reputation {
		traders[t] = true
	}
	names := make([]string, 0, len(traders))
	for t := range traders {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		sv, fv := structured[t], f.Reputation[t]
		if math.Abs(sv-fv) > diff.repTolerance {
			c.add(discrepancy.Reputation(t), "", sv, fv)
		}
	}
}

func formatMoney(m tasks.MoneyReward) string {
	if m.Currency == "" {
		return fmt.Sprintf("%d", m.Amount)
	}
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

func taskNameSet(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		k := normalize.TaskName(n)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// equalSets compares two sorted, de-duplicated slices.
func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func subset(small, big []string) bool {
	in := make(map[string]bool, len(big))
	for _, b := range big {
		in[b] = true
	}
	for _, s := range small {
		if !in[s] {
			return false
		}
	}
	return true
}
