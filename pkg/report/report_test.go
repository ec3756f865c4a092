package report_test

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/report"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

var (
	cutover = utc.New(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))
	now     = utc.New(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
)

func d(id, name string, field discrepancy.Field, objective string, fresh *discrepancy.Freshness) discrepancy.Discrepancy {
	return discrepancy.Discrepancy{
		TaskID:         id,
		TaskName:       name,
		Field:          field,
		ObjectiveID:    objective,
		Priority:       discrepancy.PriorityOf(field),
		TrustsFreeText: true,
		Freshness:      fresh,
	}
}

func fixture() suppression.Result {
	after := discrepancy.NewFreshness(utc.New(time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)), cutover, now)
	before := discrepancy.NewFreshness(utc.New(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), cutover, now)
	return suppression.Result{
		Surviving: []discrepancy.Discrepancy{
			d("b", "Shortage", discrepancy.FieldExperience, "", after),
			d("a", "Debut", discrepancy.FieldObjectiveCount, "o2", before),
			d("a", "Debut", discrepancy.FieldObjectiveCount, "o1", before),
			d("b", "Shortage", discrepancy.FieldMinPlayerLevel, "", after),
			d("a", "Debut", discrepancy.Reputation("Prapor"), "", nil),
			d("a", "Debut", discrepancy.FieldMap, "", before),
		},
		SuppressedCount: 2,
		Stale:           []suppression.Entry{{TaskID: "c", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong}},
	}
}

func keys(list []discrepancy.Discrepancy) []string {
	out := make([]string, len(list))
	for i, x := range list {
		out[i] = x.Key().String() + "#" + x.ObjectiveID
	}
	return out
}

func TestBuildByPriority(t *testing.T) {
	r := report.Build("run-1", fixture(), []report.Failure{{TaskID: "z", Name: "Zebra", Reason: "page missing"}},
		report.WithCutover(cutover), report.WithClock(func() utc.Time { return now }))

	require.Len(t, r.Groups, 3)
	assert.Equal(t, "high", r.Groups[0].Name)
	assert.Equal(t, "medium", r.Groups[1].Name)
	assert.Equal(t, "low", r.Groups[2].Name)

	want := []string{
		"b/minPlayerLevel#",
		"a/map#",
		"a/objectives.count#o1",
		"a/objectives.count#o2",
		"a/reputation.Prapor#",
		"b/experience#",
	}
	if diff := cmp.Diff(want, keys(r.All())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, report.Summary{Total: 6, Tasks: 2, High: 1, Medium: 4, Low: 1, Suppressed: 2, Stale: 1, Failed: 1}, r.Summary)
	assert.Equal(t, report.FreshnessSummary{WithRevision: 5, EditedAfterCutover: 2, Cutover: cutover}, r.Freshness)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, now, r.GeneratedAt)
	assert.False(t, r.Empty())
}

func TestBuildByCategory(t *testing.T) {
	r := report.Build("run-2", fixture(), nil, report.WithGrouping(report.ByCategory))

	var names []string
	for _, g := range r.Groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"task", "objectives", "rewards", "reputation"}, names)
	assert.Equal(t, []string{"b/minPlayerLevel#", "a/map#"}, keys(r.Groups[0].Discrepancies))
	assert.Len(t, r.All(), 6)
}

func TestBuildIsDeterministic(t *testing.T) {
	in := fixture()
	reversed := fixture()
	for i, j := 0, len(reversed.Surviving)-1; i < j; i, j = i+1, j-1 {
		reversed.Surviving[i], reversed.Surviving[j] = reversed.Surviving[j], reversed.Surviving[i]
	}
	clock := report.WithClock(func() utc.Time { return now })
	a := report.Build("r", in, nil, clock)
	b := report.Build("r", reversed, nil, clock)
	assert.Equal(t, a, b)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	in := fixture()
	first := in.Surviving[0]
	report.Build("r", in, nil)
	assert.Equal(t, first, in.Surviving[0])
}

func TestEmptyReport(t *testing.T) {
	r := report.Build("r", suppression.Result{}, nil)
	assert.True(t, r.Empty())
	assert.Empty(t, r.Groups)
	assert.Equal(t, report.ByPriority, r.Grouping)
}

func TestCategoryOf(t *testing.T) {
	tests := map[discrepancy.Field]report.Category{
		discrepancy.FieldMinPlayerLevel:   report.CategoryTask,
		discrepancy.FieldNextTasks:        report.CategoryTask,
		discrepancy.FieldObjectiveMissing: report.CategoryObjectives,
		discrepancy.FieldObjectiveItems:   report.CategoryObjectives,
		discrepancy.FieldMoney:            report.CategoryRewards,
		discrepancy.Reputation("Fence"):   report.CategoryReputation,
	}
	for field, want := range tests {
		assert.Equal(t, want, report.CategoryOf(field), field.String())
	}
}

func TestParseGrouping(t *testing.T) {
	g, err := report.ParseGrouping("")
	require.NoError(t, err)
	assert.Equal(t, report.ByPriority, g)

	g, err = report.ParseGrouping("category")
	require.NoError(t, err)
	assert.Equal(t, report.ByCategory, g)

	_, err = report.ParseGrouping("field")
	assert.Error(t, err)
}

func TestSummaryString(t *testing.T) {
	s := report.Summary{Total: 3, Tasks: 2, High: 1, Medium: 1, Low: 1}
	assert.Equal(t, "3 discrepancies in 2 tasks (1 high, 1 medium, 1 low), 0 suppressed, 0 stale, 0 failed", s.String())
}
