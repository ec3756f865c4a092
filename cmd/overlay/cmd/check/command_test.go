package check

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/appcontext"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

type fakeTasks []tasks.StructuredTask

func (f fakeTasks) FetchAll(context.Context, []tasks.GameMode) ([]tasks.StructuredTask, error) {
	return f, nil
}

const debutPage = `==Requirements==
* Must be level 2 to start this quest.

==Objectives==
* Eliminate 5 [[Scavs]] on [[Customs]]

==Rewards==
* +1,700 EXP
`

func mockApp(format string) *appcontext.Mock {
	snapshot := fakeTasks{
		{
			ID: "t1", Name: "Debut", Trader: "Prapor", MinPlayerLevel: tasks.Ptr(1),
			Map: &tasks.MapRef{Name: "Customs"},
			Objectives: []tasks.StructuredObjective{{
				ID: "o1", Description: "Eliminate 5 Scavs on Customs", Type: tasks.ObjectiveShoot,
				Count: tasks.Ptr(5), Maps: []tasks.MapRef{{Name: "Customs"}},
			}},
			Rewards: tasks.Reward{Experience: 1700},
		},
		{ID: "t2", Name: "Checking"},
	}
	return &appcontext.Mock{
		OutputFormatFunc: func() string { return format },
		TasksFunc:        func(bool) (appcontext.TaskSource, error) { return snapshot, nil },
		PagesFunc: func(bool) (reconcile.PageSource, error) {
			return reconcile.PageSourceFunc(func(_ context.Context, title string) (reconcile.Page, error) {
				if title == "Debut" {
					return reconcile.Page{Title: title, Markup: debutPage}, nil
				}
				return reconcile.Page{}, errors.NewFetchError("wiki", title, errors.NewNotFoundError("page", title))
			}), nil
		},
	}
}

func TestRunTable(t *testing.T) {
	var buf bytes.Buffer
	err := Run(context.Background(), mockApp("table"), &Flags{Group: "priority"}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "High (1)")
	assert.Contains(t, out, "minPlayerLevel")
	assert.Contains(t, out, "Unchecked tasks (1)")
	assert.Contains(t, out, "1 discrepancies in 1 tasks (1 high, 0 medium, 0 low), 0 suppressed, 0 stale, 1 failed")
}

func TestRunJSONWithSelection(t *testing.T) {
	var buf bytes.Buffer
	err := Run(context.Background(), mockApp("json"), &Flags{Group: "category", Tasks: []string{"debut"}}, &buf)
	require.NoError(t, err)

	var decoded struct {
		RunID    string `json:"runId"`
		Grouping string `json:"grouping"`
		Summary  struct {
			Total  int `json:"total"`
			Failed int `json:"failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotEmpty(t, decoded.RunID)
	assert.Equal(t, "category", decoded.Grouping)
	assert.Equal(t, 1, decoded.Summary.Total)
	assert.Zero(t, decoded.Summary.Failed, "unselected tasks are not fetched")
}

func TestRunNoMatchingTask(t *testing.T) {
	err := Run(context.Background(), mockApp("table"), &Flags{Group: "priority", Tasks: []string{"nothing-like-this"}}, &bytes.Buffer{})
	assert.True(t, errors.IsNotFound(err))
}

func TestRunInvalidGroup(t *testing.T) {
	err := Run(context.Background(), mockApp("table"), &Flags{Group: "trader"}, &bytes.Buffer{})
	assert.True(t, errors.IsValidationError(err))
}

func TestRunExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.md")
	err := Run(context.Background(), mockApp("json"), &Flags{Group: "priority", Export: path}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Wiki reconciliation report")
}

func TestOptionsRejectsBadTrust(t *testing.T) {
	settings := appcontext.Settings{Trust: []authority.Field{{Path: "map", Source: "forum"}}}
	_, err := Options(settings, reconcile.PageSourceFunc(nil), nil, nil)
	assert.True(t, errors.IsValidationError(err))
}
