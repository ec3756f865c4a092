package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

const checkingPage = `{{Infobox quest
|location = [[Customs]]
|leads to = [[Shootout picnic]]
}}
==Requirements==
* Must be level 5 to start this quest.

==Objectives==
* Eliminate 5 [[Scavs]] on [[Customs]]

==Rewards==
* +1,700 EXP
`

const picnicPage = `{{Infobox quest
|previous = [[Checking]]
}}
==Rewards==
* +2,000 EXP
`

func snapshot() []tasks.StructuredTask {
	return []tasks.StructuredTask{
		{
			ID: "a", Name: "Checking", Trader: "Prapor",
			MinPlayerLevel: tasks.Ptr(4),
			Map:            &tasks.MapRef{Name: "Customs"},
			Objectives: []tasks.StructuredObjective{{
				ID: "a1", Description: "Eliminate 5 Scavs on Customs", Type: tasks.ObjectiveShoot,
				Count: tasks.Ptr(5), Maps: []tasks.MapRef{{Name: "Customs"}},
			}},
			Rewards: tasks.Reward{Experience: 1700},
		},
		{ID: "b", Name: "Gone"},
		{
			ID: "c", Name: "Shootout picnic",
			WikiLink:     "https://escapefromtarkov.fandom.com/wiki/Shootout_picnic_(old)",
			Requirements: []tasks.TaskRef{{ID: "a", Name: "Checking"}},
			Rewards:      tasks.Reward{Experience: 1800},
		},
	}
}

func pages(markup map[string]string) reconcile.PageSource {
	return reconcile.PageSourceFunc(func(_ context.Context, title string) (reconcile.Page, error) {
		m, ok := markup[title]
		if !ok {
			return reconcile.Page{}, errors.NewFetchError("wiki", title, errors.NewNotFoundError("page", title))
		}
		return reconcile.Page{Markup: m}, nil
	})
}

func wiki() reconcile.PageSource {
	return pages(map[string]string{
		"Checking":              checkingPage,
		"Shootout picnic (old)": "#REDIRECT [[Shootout picnic]]",
		"Shootout picnic":       picnicPage,
	})
}

func TestRun(t *testing.T) {
	tl := logging.NewTestLogger(t)
	set := suppression.NewSet(
		suppression.Entry{TaskID: "c", Field: discrepancy.FieldExperience, Source: suppression.SourceCorrection},
		suppression.Entry{TaskID: "a", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong},
	)
	var progress []string
	r, err := reconcile.New(
		reconcile.WithPages(wiki()),
		reconcile.WithSuppressions(set),
		reconcile.WithLogger(tl.Logger),
		reconcile.WithProgress(func(done, total int, name string) { progress = append(progress, name) }),
	)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), snapshot())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Tasks)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, []string{"Checking", "Gone", "Shootout picnic"}, progress)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "b", res.Failures[0].TaskID)
	assert.Contains(t, res.Failures[0].Reason, "Gone")

	var keys []string
	for _, d := range res.Discrepancies {
		keys = append(keys, d.Key().String())
	}
	assert.Equal(t, []string{"a/minPlayerLevel", "c/experience"}, keys)

	require.Len(t, res.Filter.Surviving, 1)
	assert.Equal(t, discrepancy.FieldMinPlayerLevel, res.Filter.Surviving[0].Field)
	assert.Equal(t, 1, res.Filter.SuppressedCount)
	require.Len(t, res.Filter.Stale, 1)
	assert.Equal(t, "a", res.Filter.Stale[0].TaskID)

	require.Len(t, res.PerTask, 2)
	assert.Equal(t, "Shootout picnic", res.PerTask[1].Title, "redirect target is recorded")
	assert.Equal(t, 1, res.PerTask[0].Matched)

	rep := res.Report("run-1")
	assert.Equal(t, 1, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, 1, rep.Summary.Stale)

	tl.AssertContains(t, "Skipping task")
	tl.AssertContains(t, `"task_id":"b"`)
	tl.AssertContains(t, "Reconciliation complete")
}

func TestRunSelection(t *testing.T) {
	set := suppression.NewSet(
		suppression.Entry{TaskID: "c", Field: discrepancy.FieldExperience, Source: suppression.SourceCorrection},
		suppression.Entry{TaskID: "a", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong},
	)
	r, err := reconcile.New(
		reconcile.WithPages(wiki()),
		reconcile.WithSuppressions(set),
		reconcile.WithSelection(func(t tasks.StructuredTask) bool { return t.ID == "c" }),
	)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tasks)
	assert.Equal(t, 1, res.Checked)
	assert.Empty(t, res.Failures)
	assert.Empty(t, res.Filter.Surviving)
	assert.Equal(t, 1, res.Filter.SuppressedCount)
	assert.Empty(t, res.Filter.Stale, "suppressions of unchecked tasks are not stale")
}

func TestRunFailedTasksKeepTheirSuppressions(t *testing.T) {
	set := suppression.NewSet(
		suppression.Entry{TaskID: "b", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong},
		suppression.Entry{TaskID: "a", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong},
	)
	r, err := reconcile.New(
		reconcile.WithPages(wiki()),
		reconcile.WithSuppressions(set),
	)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), snapshot())
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "b", res.Failures[0].TaskID)

	require.Len(t, res.Filter.Stale, 1, "the page of b was never read")
	assert.Equal(t, "a", res.Filter.Stale[0].TaskID)
}

func TestRunEmptySnapshot(t *testing.T) {
	r, err := reconcile.New(reconcile.WithPages(wiki()))
	require.NoError(t, err)

	_, err = r.Run(context.Background(), nil)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestRunFollowsOneRedirectOnly(t *testing.T) {
	src := pages(map[string]string{
		"Shootout picnic (old)": "#REDIRECT [[Picnic]]",
		"Picnic":                "#REDIRECT [[Shootout picnic]]",
		"Shootout picnic":       picnicPage,
	})
	r, err := reconcile.New(reconcile.WithPages(src), reconcile.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	res, err := r.Run(context.Background(), snapshot()[2:])
	require.NoError(t, err)
	assert.Zero(t, res.Checked)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Reason, "another redirect")
}

func TestRunCanceled(t *testing.T) {
	r, err := reconcile.New(reconcile.WithPages(wiki()), reconcile.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, snapshot())
	assert.True(t, errors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewValidation(t *testing.T) {
	_, err := reconcile.New()
	assert.True(t, errors.IsValidationError(err))

	_, err = reconcile.New(reconcile.WithPages(wiki()), reconcile.WithMinSubstringTokens(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconcile.New(reconcile.WithPages(wiki()), reconcile.WithTextCoverRatio(1.5))
	assert.True(t, errors.IsValidationError(err))
}

func TestRunConflictingMapNames(t *testing.T) {
	list := []tasks.StructuredTask{
		{ID: "x", Name: "X", Map: &tasks.MapRef{Name: "The Lab"}},
		{ID: "y", Name: "Y", Map: &tasks.MapRef{Name: "Lab"}},
	}
	r, err := reconcile.New(reconcile.WithPages(wiki()), reconcile.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	_, err = r.Run(context.Background(), list)
	assert.ErrorIs(t, err, errors.ErrAliasConflict)
}
