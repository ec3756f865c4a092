package wikitext_test

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/wikitext"
)

const checkingPage = `{{Infobox quest
|image = [[File:Checking.png|250px]]
|given by = [[Prapor]]
|location = [[Customs]]
|previous = [[Debut]]
|leads to = [[Shootout picnic]]<br>[[The Punisher - Part 1|Punisher 1]]
}}
'''Checking''' is a quest.

==Requirements==
* Must be level 4 to start this quest.
* Must complete [[Debut]]

==Objectives==
* Eliminate 5 [[Scavs]] on [[Woods]] (PvE: 3)
** Kills count anywhere on the map
* Find 2 [[Bronze lion figurine|Bronze lion figurines]] in raid
* Hand over the items to [[Prapor]]

==Rewards==
* +1,700 EXP
* [[Prapor]] Rep +0.02
* 15,000 [[Roubles]]
* 2 x [[Salewa first aid kit]]

==Guide==
* Go to Woods.
`

func options(t *testing.T) wikitext.Options {
	t.Helper()
	snapshot := []tasks.StructuredTask{
		{ID: "1", Name: "Checking", Trader: "Prapor", Map: &tasks.MapRef{Name: "Customs"}},
		{ID: "2", Name: "Shortage", Trader: "Therapist", Map: &tasks.MapRef{Name: "Woods"},
			Rewards: tasks.Reward{Reputation: []tasks.TraderStanding{{Trader: "Skier", Delta: 0.01}}}},
	}
	traders, err := aliases.BuildTraderTable(snapshot)
	require.NoError(t, err)
	opts := wikitext.DefaultOptions()
	opts.Maps = aliases.MustBuildMapTable(snapshot, aliases.DefaultMapShorthands)
	opts.Traders = traders
	return opts
}

func TestParseTaskPage(t *testing.T) {
	rev := &tasks.Revision{Timestamp: utc.New(time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)), Editor: "Tuna"}
	task := wikitext.Parse("Checking", checkingPage, rev, options(t))

	assert.Equal(t, "Checking", task.Title)
	assert.Same(t, rev, task.Revision)
	assert.Equal(t, []string{"Debut"}, task.Previous)
	assert.Equal(t, []string{"Shootout picnic", "The Punisher - Part 1"}, task.Next)
	assert.Equal(t, []string{"Customs"}, task.Maps)
	assert.Equal(t, []string{"Must be level 4 to start this quest.", "Must complete Debut"}, task.Requirements)
	require.NotNil(t, task.MinLevel)
	assert.Equal(t, 4, *task.MinLevel)

	require.Len(t, task.Objectives, 3, "nested bullets are not objectives")

	kill := task.Objectives[0]
	assert.Equal(t, "Eliminate 5 Scavs on Woods", kill.Text)
	assert.Equal(t, []string{"Woods"}, kill.Maps)
	assert.Empty(t, kill.Items)
	require.NotNil(t, kill.Count)
	assert.Equal(t, 5, *kill.Count)
	require.NotNil(t, kill.AltCount)
	assert.Equal(t, 3, *kill.AltCount)

	find := task.Objectives[1]
	assert.Equal(t, "Find 2 Bronze lion figurines in raid", find.Text)
	assert.Equal(t, []string{"Bronze lion figurine"}, find.Items)
	assert.Empty(t, find.Maps)
	require.NotNil(t, find.Count)
	assert.Equal(t, 2, *find.Count)
	assert.Nil(t, find.AltCount)

	hand := task.Objectives[2]
	assert.Empty(t, hand.Items, "trader links are not items")
	assert.Nil(t, hand.Count)
	assert.Equal(t, []tasks.Link{{Target: "Prapor"}}, hand.Links)

	r := task.Rewards
	assert.True(t, r.Present)
	require.NotNil(t, r.Experience)
	assert.Equal(t, 1700, *r.Experience)
	assert.Equal(t, map[string]float64{"Prapor": 0.02}, r.Reputation)
	assert.Equal(t, []tasks.MoneyReward{{Currency: "RUB", Amount: 15000}}, r.Money)
	assert.Equal(t, []string{"+1,700 EXP", "Prapor Rep +0.02", "15,000 Roubles", "2 x Salewa first aid kit"}, r.Raw)
}

func TestParseMissingSections(t *testing.T) {
	task := wikitext.Parse("Stub", "'''Stub''' is a quest given by Prapor.", nil, options(t))

	assert.Nil(t, task.MinLevel)
	assert.Empty(t, task.Objectives)
	assert.Empty(t, task.Previous)
	assert.Empty(t, task.Next)
	assert.Empty(t, task.Maps)
	assert.False(t, task.Rewards.Present)
	assert.Nil(t, task.Revision)
}

func TestParseIgnoresNonPlayerLevels(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *int
	}{
		{"loyalty", "* Must have [[Prapor]] loyalty level 2", nil},
		{"abbreviated loyalty", "* Skier LL 3 required", nil},
		{"trader name", "* Requires Skier level 2", nil},
		{"skill", "* Strength skill level 5", nil},
		{"hideout", "* Hideout module level 2 built", nil},
		{"player after loyalty", "* Prapor loyalty level 2 and must be level 15", intPtr(15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := "==Requirements==\n" + tt.line + "\n* Must complete [[Debut]]\n"
			task := wikitext.Parse("X", page, nil, options(t))
			assert.Equal(t, tt.want, task.MinLevel)
		})
	}
}

func intPtr(n int) *int { return &n }

func TestParseFallbacks(t *testing.T) {
	page := `{{Infobox quest
|previous = None
|requirement = Level 10
}}
==Requirements==
* Must complete [[Debut]] and [[Checking]]
`
	task := wikitext.Parse("Fallback", page, nil, options(t))

	require.NotNil(t, task.MinLevel)
	assert.Equal(t, 10, *task.MinLevel)
	assert.Equal(t, []string{"Debut", "Checking"}, task.Previous)
}

func TestAlternateModeCounts(t *testing.T) {
	tests := []struct {
		line  string
		text  string
		count int
		alt   int
	}{
		{"Eliminate 15 [[Scavs]] {{PvE|10}}", "Eliminate 15 Scavs", 15, 10},
		{"Eliminate 8 [[PMCs]] (PvE mode: 4)", "Eliminate 8 PMCs", 8, 4},
		{"Eliminate 8 [[PMCs]]. PvE mode: 6", "Eliminate 8 PMCs.", 8, 6},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			task := wikitext.Parse("T", "==Objectives==\n* "+tt.line+"\n", nil, options(t))
			require.Len(t, task.Objectives, 1)
			o := task.Objectives[0]
			assert.Equal(t, tt.text, o.Text)
			require.NotNil(t, o.Count)
			assert.Equal(t, tt.count, *o.Count)
			require.NotNil(t, o.AltCount)
			assert.Equal(t, tt.alt, *o.AltCount)
		})
	}
}

func TestRewardVariants(t *testing.T) {
	page := "==Rewards==\n* [[Skier]] Rep −0.05\n* $2,500\n* 1,000 Euros\n* Unlocks purchase of [[Salewa first aid kit]]\n"
	r := wikitext.Parse("T", page, nil, options(t)).Rewards

	assert.True(t, r.Present)
	assert.Nil(t, r.Experience)
	assert.InDelta(t, -0.05, r.Reputation["Skier"], 1e-9)
	assert.Equal(t, []tasks.MoneyReward{{Currency: "USD", Amount: 2500}, {Currency: "EUR", Amount: 1000}}, r.Money)
	assert.Len(t, r.Raw, 4)
}

func TestRedirect(t *testing.T) {
	target, ok := wikitext.Redirect("#REDIRECT [[Shootout Picnic]]")
	assert.True(t, ok)
	assert.Equal(t, "Shootout Picnic", target)

	target, ok = wikitext.Redirect("#redirect: [[Gunsmith - Part 1#Objectives]]")
	assert.True(t, ok)
	assert.Equal(t, "Gunsmith - Part 1", target)

	_, ok = wikitext.Redirect(checkingPage)
	assert.False(t, ok)
}

func TestSectionsAndBullets(t *testing.T) {
	sections := wikitext.Sections("intro\n== Objectives ==\n* one\n** nested\n===Notes===\n* two\n==Rewards==\n")
	assert.Equal(t, []string{"intro"}, sections[""])
	assert.Equal(t, []string{"one", "two"}, wikitext.Bullets(sections["objectives"]))
	assert.Contains(t, sections, "rewards")
	assert.Empty(t, wikitext.Bullets(sections["rewards"]))
}

func TestInfoboxAndLinks(t *testing.T) {
	box := wikitext.Infobox(checkingPage)
	assert.Equal(t, "[[Prapor]]", box["given by"])
	assert.Equal(t, "[[File:Checking.png|250px]]", box["image"])
	assert.Nil(t, wikitext.Infobox("no box here"))

	links := wikitext.Links("[[File:x.png]] [[Prapor]] [[Bronze lion figurine|lions]] [[Category:Quests]] [[Customs#Extracts|exits]]")
	assert.Equal(t, []tasks.Link{
		{Target: "Prapor"},
		{Target: "Bronze lion figurine", Display: "lions"},
		{Target: "Customs", Display: "exits"},
	}, links)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "RUB", wikitext.Currency("Roubles"))
	assert.Equal(t, "USD", wikitext.Currency("$"))
	assert.Equal(t, "EUR", wikitext.Currency("€"))
	assert.Equal(t, "", wikitext.Currency("bitcoin"))
}
