package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/report"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

func sampleReport() *report.Report {
	now := utc.New(time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC))
	edited := utc.New(time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC))
	cutover := utc.New(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))

	res := suppression.Result{
		Surviving: []discrepancy.Discrepancy{
			{
				TaskID: "t1", TaskName: "Debut", Field: discrepancy.FieldObjectiveCount, ObjectiveID: "o1",
				StructuredValue: 5, FreeTextValue: 8, Priority: discrepancy.PriorityMedium,
				TrustsFreeText: true, Freshness: discrepancy.NewFreshness(edited, cutover, now),
			},
			{
				TaskID: "t2", TaskName: "Checking", Field: discrepancy.FieldMinPlayerLevel,
				StructuredValue: tasks.Ptr(4), FreeTextValue: tasks.Ptr(5), Priority: discrepancy.PriorityHigh,
			},
			{
				TaskID: "t2", TaskName: "Checking", Field: discrepancy.FieldMoney,
				StructuredValue: "RUB 15000", FreeTextValue: "RUB 12000", Priority: discrepancy.PriorityLow,
			},
		},
		SuppressedCount: 2,
		Stale:           []suppression.Entry{{TaskID: "t9", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong, Reason: "old"}},
	}
	failures := []report.Failure{{TaskID: "t3", Name: "Shootout picnic", Reason: "page not found"}}
	return report.Build("run-1", res, failures, report.WithCutover(cutover), report.WithClock(func() utc.Time { return now }))
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "WIDE", "json", "yaml", "markdown", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("out/report.yml"))
	assert.Equal(t, FormatMarkdown, FormatFromPath("REPORT.md"))
	assert.Equal(t, FormatJSON, FormatFromPath("report.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("report"))
}

func TestValue(t *testing.T) {
	assert.Equal(t, "-", Value(nil))
	assert.Equal(t, "-", Value(""))
	assert.Equal(t, "-", Value((*int)(nil)))
	assert.Equal(t, "7", Value(tasks.Ptr(7)))
	assert.Equal(t, "Customs, Woods", Value([]string{"Customs", "Woods"}))
	assert.Equal(t, "0.02", Value(0.02))
	assert.Equal(t, "Prapor 0.02, Skier -0.05", Value(map[string]float64{"Skier": -0.05, "Prapor": 0.02}))
	assert.Equal(t, "12", Value(12))
}

func TestReportTable(t *testing.T) {
	r := sampleReport()
	require.Len(t, r.Groups, 3)

	narrow := ReportTable(r.Groups[1], false)
	assert.Equal(t, []string{"Task", "Field", "Structured", "Wiki", "Priority"}, narrow.Headers)
	assert.Equal(t, [][]string{{"Debut", "objectives.count", "5", "8", "medium"}}, narrow.Rows)

	wide := ReportTable(r.Groups[1], true)
	require.Len(t, wide.Rows, 1)
	assert.Equal(t, []string{"Debut", "objectives.count", "5", "8", "medium", "t1", "o1", "wiki", "2025-11-20", "11"}, wide.Rows[0])

	high := ReportTable(r.Groups[0], true)
	assert.Equal(t, []string{"Checking", "minPlayerLevel", "4", "5", "high", "t2", "-", "structured", "-", "-"}, high.Rows[0])
}

func TestWriteReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatTable, Colors{}))

	out := buf.String()
	assert.Contains(t, out, "High (1)")
	assert.Contains(t, out, "Medium (1)")
	assert.Contains(t, out, "Low (1)")
	assert.Contains(t, out, "Stale suppressions (1)")
	assert.Contains(t, out, "Unchecked tasks (1)")
	assert.Contains(t, out, "page not found")
	assert.Contains(t, out, "3 discrepancies in 2 tasks (1 high, 1 medium, 1 low), 2 suppressed, 1 stale, 1 failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteSummaryColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, report.Summary{Total: 1, Tasks: 1, High: 1}, Colors{Enabled: true}))
	assert.Contains(t, buf.String(), "\x1b[31m1 high")
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatJSON, Colors{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, "priority", decoded["grouping"])
}

func TestWriteReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatYAML, Colors{}))
	assert.Contains(t, buf.String(), "runId: run-1")
}

func TestWriteReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatMarkdown, Colors{}))

	out := buf.String()
	assert.Contains(t, out, "# Wiki reconciliation report")
	assert.Contains(t, out, "## High (1)")
	assert.Contains(t, out, "| Debut")
	assert.Contains(t, out, "`t9/map` old")
	assert.Contains(t, out, "**Shootout picnic**: page not found")
	assert.Contains(t, out, "1 of 1 wiki pages")
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"entries": 3}))
	assert.JSONEq(t, `{"entries":3}`, buf.String())
}
