package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	md "github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/report"
)

const emptyCell = "-"

var title = cases.Title(language.English)

// GroupTitle returns the display heading of a report group.
func GroupTitle(name string) string {
	return title.String(strings.ReplaceAll(name, "_", " "))
}

// ReportTable flattens a group into table rows. Wide adds the task ID,
// trust and wiki edit columns.
func ReportTable(g report.Group, wide bool) Data {
	headers := []string{"Task", "Field", "Structured", "Wiki", "Priority"}
	if wide {
		headers = append(headers, "Task ID", "Objective", "Trust", "Wiki Edited", "Days")
	}
	rows := make([][]string, 0, len(g.Discrepancies))
	for _, d := range g.Discrepancies {
		row := []string{d.TaskName, string(d.Field), Value(d.StructuredValue), Value(d.FreeTextValue), string(d.Priority)}
		if wide {
			trust := "structured"
			if d.TrustsFreeText {
				trust = "wiki"
			}
			edited, days := emptyCell, emptyCell
			if d.Freshness != nil {
				edited = d.Freshness.EditDate.Time.Format(constants.DateLayout)
				days = strconv.Itoa(d.Freshness.DaysSinceEdit)
			}
			row = append(row, d.TaskID, orDash(d.ObjectiveID), trust, edited, days)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// Value renders a compared value for a table cell.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return emptyCell
	case string:
		return orDash(x)
	case []string:
		if len(x) == 0 {
			return emptyCell
		}
		return strings.Join(x, ", ")
	case *int:
		if x == nil {
			return emptyCell
		}
		return strconv.Itoa(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]float64:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+" "+strconv.FormatFloat(x[k], 'f', -1, 64))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func orDash(s string) string {
	if s == "" {
		return emptyCell
	}
	return s
}

// Colors selects summary coloring.
type Colors struct {
	Enabled bool
}

func (c Colors) paint(attr color.Attribute, s string) string {
	if !c.Enabled {
		return s
	}
	col := color.New(attr)
	col.EnableColor()
	return col.Sprint(s)
}

// WriteSummary prints the one-line run summary, coloring priority counts.
func WriteSummary(w io.Writer, s report.Summary, c Colors) error {
	_, err := fmt.Fprintf(w, "%d discrepancies in %d tasks (%s, %s, %s), %d suppressed, %s, %s\n",
		s.Total, s.Tasks,
		c.paint(color.FgRed, fmt.Sprintf("%d high", s.High)),
		c.paint(color.FgYellow, fmt.Sprintf("%d medium", s.Medium)),
		c.paint(color.FgCyan, fmt.Sprintf("%d low", s.Low)),
		s.Suppressed,
		c.paint(color.FgHiMagenta, fmt.Sprintf("%d stale", s.Stale)),
		c.paint(color.FgHiBlack, fmt.Sprintf("%d failed", s.Failed)),
	)
	return err
}

// WriteReport renders a report in the given format. Table formats print one
// table per group followed by stale suppressions, failures and the summary.
func WriteReport(w io.Writer, r *report.Report, format Format, c Colors) error {
	switch format {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return NewFormatter(format).Format(w, r)
	}

	wide := format == FormatWide
	for _, g := range r.Groups {
		if _, err := fmt.Fprintf(w, "\n%s (%d)\n", c.paint(color.Bold, GroupTitle(g.Name)), len(g.Discrepancies)); err != nil {
			return err
		}
		if err := writeTable(w, ReportTable(g, wide)); err != nil {
			return err
		}
	}
	if len(r.Stale) > 0 {
		if _, err := fmt.Fprintf(w, "\nStale suppressions (%d)\n", len(r.Stale)); err != nil {
			return err
		}
		if err := writeTable(w, staleTable(r)); err != nil {
			return err
		}
	}
	if len(r.Failures) > 0 {
		if _, err := fmt.Fprintf(w, "\nUnchecked tasks (%d)\n", len(r.Failures)); err != nil {
			return err
		}
		if err := writeTable(w, failureTable(r)); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintln(w)
	return WriteSummary(w, r.Summary, c)
}

func staleTable(r *report.Report) Data {
	rows := make([][]string, 0, len(r.Stale))
	for _, e := range r.Stale {
		rows = append(rows, []string{e.TaskID, string(e.Field), orDash(e.Reason)})
	}
	return Data{Headers: []string{"Task ID", "Field", "Reason"}, Rows: rows}
}

func failureTable(r *report.Report) Data {
	rows := make([][]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		rows = append(rows, []string{f.Name, f.TaskID, f.Reason})
	}
	return Data{Headers: []string{"Task", "Task ID", "Reason"}, Rows: rows}
}

// MarkdownFormatter renders reports and tables as markdown.
type MarkdownFormatter struct{}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case *report.Report:
		return writeMarkdownReport(w, v)
	case Data:
		doc := md.NewMarkdown(w)
		doc.Table(md.TableSet{Header: v.Headers, Rows: v.Rows})
		return doc.Build()
	default:
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
}

func writeMarkdownReport(w io.Writer, r *report.Report) error {
	doc := md.NewMarkdown(w)
	doc.H1("Wiki reconciliation report")
	doc.PlainTextf("Run %s, generated %s.", md.Code(r.RunID), r.GeneratedAt.Time.Format(constants.TimeFormatHuman))
	doc.LF()
	doc.PlainText(r.Summary.String())
	doc.LF()
	if r.Freshness.WithRevision > 0 {
		doc.PlainTextf("%d of %d wiki pages behind these discrepancies were edited after %s.",
			r.Freshness.EditedAfterCutover, r.Freshness.WithRevision, r.Freshness.Cutover.Time.Format(constants.DateLayout))
		doc.LF()
	}

	for _, g := range r.Groups {
		doc.H2(fmt.Sprintf("%s (%d)", GroupTitle(g.Name), len(g.Discrepancies)))
		t := ReportTable(g, false)
		doc.Table(md.TableSet{Header: t.Headers, Rows: escapeRows(t.Rows)})
	}
	if len(r.Stale) > 0 {
		doc.H2("Stale suppressions")
		items := make([]string, 0, len(r.Stale))
		for _, e := range r.Stale {
			items = append(items, fmt.Sprintf("%s %s", md.Code(e.Key().String()), e.Reason))
		}
		doc.BulletList(items...)
	}
	if len(r.Failures) > 0 {
		doc.H2("Unchecked tasks")
		items := make([]string, 0, len(r.Failures))
		for _, f := range r.Failures {
			items = append(items, fmt.Sprintf("%s: %s", md.Bold(f.Name), f.Reason))
		}
		doc.BulletList(items...)
	}
	return doc.Build()
}

func escapeRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = strings.ReplaceAll(cell, "|", `\|`)
		}
	}
	return out
}

