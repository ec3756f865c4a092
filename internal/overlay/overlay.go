// Package overlay loads the curator's suppression data: the correction
// overlay and the list of fields where the wiki is known to be wrong.
package overlay

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

//go:embed wikiwrong.schema.json
var wikiWrongSchema []byte

const schemaURL = "wikiwrong.schema.json"

// objectiveFields are suppressed by a correction that replaces the whole
// objective list.
var objectiveFields = []discrepancy.Field{
	discrepancy.FieldObjectiveDescription,
	discrepancy.FieldObjectiveCount,
	discrepancy.FieldObjectiveMaps,
	discrepancy.FieldObjectiveItems,
	discrepancy.FieldObjectiveMissing,
	discrepancy.FieldObjectiveExtra,
}

// taskKeys maps overlay task keys onto comparison fields.
var taskKeys = map[string]discrepancy.Field{
	"minPlayerLevel":   discrepancy.FieldMinPlayerLevel,
	"map":              discrepancy.FieldMap,
	"taskRequirements": discrepancy.FieldTaskRequirements,
	"requirements":     discrepancy.FieldTaskRequirements,
	"nextTasks":        discrepancy.FieldNextTasks,
	"experience":       discrepancy.FieldExperience,
	"money":            discrepancy.FieldMoney,
}

// correctionFile is the overlay layout. Only the keys matter here; values
// are the corrected data and are not interpreted.
type correctionFile struct {
	Tasks map[string]map[string]any `yaml:"tasks" json:"tasks"`
}

// LoadCorrections reads the overlay and returns one correction entry per
// corrected field. A missing file yields no entries. Keys that are not
// compared fields are ignored.
func LoadCorrections(path string) ([]suppression.Entry, error) {
	data, ok, err := read(path)
	if err != nil || !ok {
		return nil, err
	}

	var file correctionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return Corrections(file.Tasks), nil
}

// Corrections flattens overlay task entries into suppression entries,
// ordered by task ID then field.
func Corrections(tasks map[string]map[string]any) []suppression.Entry {
	var out []suppression.Entry
	for id, fields := range tasks {
		seen := make(map[discrepancy.Field]bool)
		add := func(f discrepancy.Field) {
			if seen[f] {
				return
			}
			seen[f] = true
			out = append(out, suppression.Entry{TaskID: id, Field: f, Source: suppression.SourceCorrection})
		}
		for key, value := range fields {
			switch key {
			case "objectives":
				for _, f := range objectiveCorrections(value) {
					add(f)
				}
			case "rewards", "finishRewards":
				for _, f := range rewardCorrections(value) {
					add(f)
				}
			case "reputation", "traderStanding":
				for _, trader := range traders(value) {
					add(discrepancy.Reputation(trader))
				}
			default:
				if f, ok := taskKeys[key]; ok {
					add(f)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// objectiveCorrections handles both a per-objective map of patches and a
// full replacement list.
func objectiveCorrections(value any) []discrepancy.Field {
	patches, ok := value.(map[string]any)
	if !ok {
		return objectiveFields
	}
	var out []discrepancy.Field
	for _, patch := range patches {
		sub, ok := patch.(map[string]any)
		if !ok {
			return objectiveFields
		}
		for key := range sub {
			f := discrepancy.Field("objectives." + key)
			if f.Valid() {
				out = append(out, f)
			}
		}
	}
	return out
}

func rewardCorrections(value any) []discrepancy.Field {
	sub, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	var out []discrepancy.Field
	for key, v := range sub {
		switch key {
		case "experience":
			out = append(out, discrepancy.FieldExperience)
		case "money", "items":
			out = append(out, discrepancy.FieldMoney)
		case "reputation", "traderStanding":
			for _, trader := range traders(v) {
				out = append(out, discrepancy.Reputation(trader))
			}
		}
	}
	return out
}

// traders accepts either {trader: delta} or [{trader: name|{name}, standing}].
func traders(value any) []string {
	var out []string
	switch v := value.(type) {
	case map[string]any:
		for name := range v {
			out = append(out, name)
		}
	case []any:
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			switch t := m["trader"].(type) {
			case string:
				out = append(out, t)
			case map[string]any:
				if name, ok := t["name"].(string); ok {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// LoadWikiWrong reads the wiki-wrong list, validates it against the embedded
// schema and returns one wikiWrong entry per item. A missing file yields no
// entries.
func LoadWikiWrong(path string) ([]suppression.Entry, error) {
	data, ok, err := read(path)
	if err != nil || !ok {
		return nil, err
	}
	return ParseWikiWrong(path, data)
}

// ParseWikiWrong validates and decodes wiki-wrong list content. Name is used
// in error messages.
func ParseWikiWrong(name string, data []byte) ([]suppression.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}

	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(generic); err != nil {
		return nil, &errors.ValidationError{
			Field:   "wikiWrong",
			Value:   name,
			Message: err.Error(),
		}
	}

	var items []struct {
		TaskID string `json:"taskId"`
		Field  string `json:"field"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	out := make([]suppression.Entry, 0, len(items))
	for _, it := range items {
		out = append(out, suppression.Entry{
			TaskID: it.TaskID,
			Field:  discrepancy.Field(it.Field),
			Source: suppression.SourceWikiWrong,
			Reason: it.Reason,
		})
	}
	return out, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(wikiWrongSchema)); err != nil {
		return nil, fmt.Errorf("loading wiki-wrong schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling wiki-wrong schema: %w", err)
	}
	return schema, nil
}

// Load reads both files and returns the combined suppression set.
func Load(correctionsPath, wikiWrongPath string) (*suppression.Set, error) {
	corrections, err := LoadCorrections(correctionsPath)
	if err != nil {
		return nil, err
	}
	wrong, err := LoadWikiWrong(wikiWrongPath)
	if err != nil {
		return nil, err
	}
	return suppression.NewSet(append(corrections, wrong...)...), nil
}

func read(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WrapIO("read", path, err)
	}
	return data, true, nil
}
