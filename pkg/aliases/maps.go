package aliases

import (
	"regexp"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Shorthand is a hand-maintained alias that is registered only when its
// canonical name was observed in the structured snapshot.
type Shorthand struct {
	Alias     string `yaml:"alias" json:"alias"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

// DefaultMapShorthands lists the community shorthands for map names.
var DefaultMapShorthands = []Shorthand{
	{Alias: "the lab", Canonical: "The Lab"},
	{Alias: "labs", Canonical: "The Lab"},
	{Alias: "lab", Canonical: "The Lab"},
	{Alias: "streets", Canonical: "Streets of Tarkov"},
	{Alias: "gz", Canonical: "Ground Zero"},
	{Alias: "night factory", Canonical: "Factory"},
	{Alias: "labyrinth", Canonical: "The Labyrinth"},
	{Alias: "lh", Canonical: "Lighthouse"},
	{Alias: "shore", Canonical: "Shoreline"},
	{Alias: "ic", Canonical: "Interchange"},
}

var (
	reLeadingThe = regexp.MustCompile(`(?i)^the\s+`)
	reOfTarkov   = regexp.MustCompile(`(?i)\s+of\s+tarkov$`)
)

// MapNames collects every map name referenced by the tasks, task-level and
// objective-level, in first-seen order.
func MapNames(list []tasks.StructuredTask) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(m tasks.MapRef) {
		if m.Name != "" && !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	for _, t := range list {
		if t.Map != nil {
			add(*t.Map)
		}
		for _, o := range t.Objectives {
			for _, m := range o.Maps {
				add(m)
			}
		}
	}
	return names
}

// BuildMapTable builds the map alias table from the structured tasks. Each
// observed name is registered with its "The "-stripped and "of Tarkov"-stripped
// variants. Shorthands follow, skipped when their canonical name was not
// observed or when the alias is already an observed name.
func BuildMapTable(list []tasks.StructuredTask, shorthands []Shorthand) (*Table, error) {
	table := NewTable(DomainMaps)
	names := MapNames(list)
	for _, name := range names {
		if err := table.Register(name, name); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		for _, variant := range []string{
			reLeadingThe.ReplaceAllString(name, ""),
			reOfTarkov.ReplaceAllString(name, ""),
		} {
			if variant == name || table.Has(variant) {
				continue
			}
			if err := table.Register(variant, name); err != nil {
				return nil, err
			}
		}
	}
	for _, sh := range shorthands {
		if !table.canonicals[sh.Canonical] || table.Has(sh.Alias) {
			continue
		}
		if err := table.Register(sh.Alias, sh.Canonical); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// MustBuildMapTable is BuildMapTable that panics on an alias conflict.
func MustBuildMapTable(list []tasks.StructuredTask, shorthands []Shorthand) *Table {
	table, err := BuildMapTable(list, shorthands)
	if err != nil {
		panic(err)
	}
	return table
}

// Normalizer returns n configured to strip every alias in the map table.
func Normalizer(n *normalize.Normalizer, maps *Table) *normalize.Normalizer {
	if maps == nil || maps.Len() == 0 {
		return n
	}
	return n.WithMapAliases(maps.Aliases())
}
