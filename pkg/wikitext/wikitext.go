// Package wikitext reads the parts of a wiki task page that reconciliation
// needs: infobox links, requirements, top-level objectives and rewards.
package wikitext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Options carries the lookup tables the parser classifies links with.
type Options struct {
	// Maps resolves map mentions. Nil means no map is recognised.
	Maps *aliases.Table
	// Traders keeps trader links out of item mentions and canonicalizes
	// reputation lines.
	Traders *aliases.Table
	// NonItems lists link targets that are never items.
	NonItems []string
}

// DefaultNonItems are link targets that show up in objective lines but are
// not items.
func DefaultNonItems() []string {
	return []string{
		"Scav", "Scavs", "PMC", "PMCs", "USEC", "BEAR", "Raiders", "Rogues",
		"Found in raid", "FIR", "Quests", "Quest", "Stash",
		"Boss", "Bosses", "Cultists", "Sniper Scavs", "Flea Market",
		"Hideout", "Experience", "EXP", "Loyalty", "Character skills",
	}
}

// DefaultOptions returns options without lookup tables.
func DefaultOptions() Options {
	return Options{NonItems: DefaultNonItems()}
}

var (
	reLevel   = regexp.MustCompile(`(?i)\blevel\s*:?\s*(\d+)\b`)
	reAltNote = regexp.MustCompile(`(?i)\(\s*pve(?:\s+mode)?\s*:?\s*([\d,]+)\s*\)|\bpve(?:\s+mode)?\s*:\s*([\d,]+)|\{\{\s*pve\s*\|\s*([\d,]+)\s*\}\}`)
	reNone    = regexp.MustCompile(`(?i)^(?:none|n/a|-|—)?$`)
)

// Parse reads a task page. Sections the page lacks leave the matching
// fields empty; nothing here fails.
func Parse(title, markup string, rev *tasks.Revision, opts Options) tasks.FreeTextTask {
	p := parser{opts: opts, nonItems: make(map[string]bool, len(opts.NonItems))}
	for _, n := range opts.NonItems {
		p.nonItems[normalize.Name(n)] = true
	}

	sections := Sections(markup)
	box := Infobox(markup)

	task := tasks.FreeTextTask{Title: title, Revision: rev}
	task.Previous = p.taskLinks(box["previous"])
	task.Next = p.taskLinks(firstNonEmpty(box["leads to"], box["next"]))
	if loc, ok := box["location"]; ok {
		task.Maps = p.maps(normalize.StripMarkupOnly(loc))
	}

	if lines, ok := sections["requirements"]; ok {
		p.requirements(&task, Bullets(lines))
	}
	if task.MinLevel == nil {
		task.MinLevel = p.level(box["requirement"], box["requirements"], box["level"])
	}

	if lines, ok := sections["objectives"]; ok {
		for _, raw := range Bullets(lines) {
			task.Objectives = append(task.Objectives, p.objective(raw))
		}
	}

	if lines, ok := sections["rewards"]; ok {
		task.Rewards = p.rewards(Bullets(lines))
	}
	return task
}

type parser struct {
	opts     Options
	nonItems map[string]bool
}

func (p parser) requirements(task *tasks.FreeTextTask, bullets []string) {
	for _, raw := range bullets {
		text := normalize.StripMarkupOnly(raw)
		task.Requirements = append(task.Requirements, text)
		if task.MinLevel == nil {
			task.MinLevel = p.level(text)
		}
		if len(task.Previous) == 0 && strings.Contains(strings.ToLower(text), "complete") {
			for _, l := range Links(raw) {
				if !p.isMap(l.Target) && !p.isTrader(l.Target) {
					task.Previous = append(task.Previous, l.Target)
				}
			}
		}
	}
}

func (p parser) objective(raw string) tasks.FreeTextObjective {
	o := tasks.FreeTextObjective{Raw: raw, Links: Links(raw)}

	body := raw
	if m := reAltNote.FindStringSubmatch(raw); m != nil {
		o.AltCount = atoi(firstNonEmpty(m[1], m[2], m[3]))
		body = strings.Replace(raw, m[0], "", 1)
	}
	o.Text = normalize.StripMarkupOnly(body)

	o.Maps = p.maps(o.Text)
	for _, l := range o.Links {
		if p.isItem(l.Target) {
			o.Items = appendUnique(o.Items, l.Target)
		}
	}

	var names []string
	for _, l := range o.Links {
		if p.isItem(l.Target) {
			names = append(names, l.Target, l.Text())
		}
	}
	o.Count = normalize.ExtractCount(o.Text, names)
	return o
}

func (p parser) maps(text string) []string {
	if p.opts.Maps == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return p.opts.Maps.FindIn(text)
}

func (p parser) isMap(target string) bool {
	return p.opts.Maps != nil && p.opts.Maps.Has(target)
}

func (p parser) isTrader(target string) bool {
	return p.opts.Traders != nil && p.opts.Traders.Has(target)
}

func (p parser) isItem(target string) bool {
	if p.isMap(target) || p.isTrader(target) {
		return false
	}
	return !p.nonItems[normalize.Name(target)]
}

// taskLinks reads an infobox task list. Links win; plain values are split
// on line breaks and commas.
func (p parser) taskLinks(value string) []string {
	if reNone.MatchString(strings.TrimSpace(normalize.StripMarkupOnly(value))) {
		return nil
	}
	var out []string
	if links := Links(value); len(links) > 0 {
		for _, l := range links {
			out = appendUnique(out, l.Target)
		}
		return out
	}
	value = strings.NewReplacer("<br>", ",", "<br/>", ",", "<br />", ",", "\n", ",").Replace(value)
	for _, part := range strings.Split(value, ",") {
		name := normalize.StripMarkupOnly(part)
		if !reNone.MatchString(name) {
			out = appendUnique(out, name)
		}
	}
	return out
}

// notPlayerLevel holds words that make a following "level N" describe
// something other than the player.
var notPlayerLevel = map[string]bool{
	"loyalty": true, "ll": true, "trader": true, "skill": true,
	"module": true, "station": true, "hideout": true,
}

// level returns the first player level stated in texts. Loyalty, skill and
// hideout levels are skipped.
func (p parser) level(texts ...string) *int {
	for _, t := range texts {
		text := normalize.StripMarkupOnly(t)
		for _, m := range reLevel.FindAllStringSubmatchIndex(text, -1) {
			if p.qualified(text[:m[0]]) {
				continue
			}
			return atoi(text[m[2]:m[3]])
		}
	}
	return nil
}

// qualified reports whether the word before a "level" names a trader or
// another non-player level.
func (p parser) qualified(prefix string) bool {
	words := strings.Fields(strings.ToLower(prefix))
	if len(words) == 0 {
		return false
	}
	last := strings.Trim(words[len(words)-1], "'’s:,;()")
	return notPlayerLevel[last] || p.isTrader(last)
}

func atoi(s string) *int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
