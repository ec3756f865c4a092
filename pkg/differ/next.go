package differ

import (
	"sort"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// NextTaskIndex maps a task to the tasks that list it as a prerequisite.
// It is built once per run and never mutated afterwards.
type NextTaskIndex struct {
	byID   map[string][]string
	byName map[string][]string
}

// BuildNextTaskIndex inverts every task's prerequisite list.
func BuildNextTaskIndex(list []tasks.StructuredTask) NextTaskIndex {
	idx := NextTaskIndex{
		byID:   make(map[string][]string),
		byName: make(map[string][]string),
	}
	for _, t := range list {
		for _, req := range t.Requirements {
			if req.ID != "" {
				idx.byID[req.ID] = appendUnique(idx.byID[req.ID], t.Name)
			} else if req.Name != "" {
				key := normalize.TaskName(req.Name)
				idx.byName[key] = appendUnique(idx.byName[key], t.Name)
			}
		}
	}
	for _, m := range []map[string][]string{idx.byID, idx.byName} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return idx
}

// Next returns the names of the tasks unlocked by t, sorted.
func (idx NextTaskIndex) Next(t tasks.StructuredTask) []string {
	var out []string
	out = append(out, idx.byID[t.ID]...)
	for _, n := range idx.byName[normalize.TaskName(t.Name)] {
		out = appendUnique(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of tasks that unlock at least one other task.
func (idx NextTaskIndex) Len() int {
	return len(idx.byID) + len(idx.byName)
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
