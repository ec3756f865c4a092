package tasks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

func TestWikiTitle(t *testing.T) {
	tests := []struct {
		name string
		task tasks.StructuredTask
		want string
	}{
		{"from link", tasks.StructuredTask{Name: "Debut", WikiLink: "https://escapefromtarkov.fandom.com/wiki/Debut"}, "Debut"},
		{"underscores", tasks.StructuredTask{Name: "x", WikiLink: "https://escapefromtarkov.fandom.com/wiki/The_Punisher_-_Part_1"}, "The Punisher - Part 1"},
		{"escaped", tasks.StructuredTask{Name: "x", WikiLink: "https://escapefromtarkov.fandom.com/wiki/Chemical_-_Part_4%3F"}, "Chemical - Part 4?"},
		{"no link", tasks.StructuredTask{Name: "Shootout Picnic"}, "Shootout Picnic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.WikiTitle())
		})
	}
}

func TestParseObjectiveType(t *testing.T) {
	assert.Equal(t, tasks.ObjectiveGiveItem, tasks.ParseObjectiveType("giveItem"))
	assert.Equal(t, tasks.ObjectiveUseItem, tasks.ParseObjectiveType("plantItem"))
	assert.Equal(t, tasks.ObjectiveBuildItem, tasks.ParseObjectiveType("buildWeapon"))
	assert.Equal(t, tasks.ObjectiveBasic, tasks.ParseObjectiveType("skill"))
}

func TestAllMaps(t *testing.T) {
	task := tasks.FreeTextTask{
		Maps: []string{"Customs"},
		Objectives: []tasks.FreeTextObjective{
			{Maps: []string{"Customs", "Woods"}},
			{Maps: []string{"Shoreline"}},
		},
	}
	assert.Equal(t, []string{"Customs", "Woods", "Shoreline"}, task.AllMaps())
}

func TestObjectiveFlags(t *testing.T) {
	obj := tasks.StructuredObjective{FoundInRaid: tasks.Ptr(true), Kind: "skill"}
	assert.True(t, obj.IsFoundInRaid())
	assert.True(t, obj.IsSkill())
	assert.False(t, tasks.StructuredObjective{}.IsFoundInRaid())
}
