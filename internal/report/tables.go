package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

// DefaultManualLimit caps the manual rows printed to a terminal.
const DefaultManualLimit = 50

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	cfg := tablewriter.Config{}
	cfg.Header.Alignment = tw.CellAlignment{Global: tw.AlignLeft}
	cfg.Row.Alignment = tw.CellAlignment{Global: tw.AlignLeft}
	t := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))

	h := make([]any, len(headers))
	for i, s := range headers {
		h[i] = s
	}
	t.Header(h...)
	return t
}

func appendRow(t *tablewriter.Table, cells ...string) error {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return t.Append(row...)
}

// WriteSummary prints the headline numbers and the errors-by-column table.
func WriteSummary(w io.Writer, s core.Summary) error {
	t := newTable(w, "Metric", "Value")
	rows := [][]string{
		{"Rows", fmt.Sprint(s.TotalRows)},
		{"Rows with issues", fmt.Sprintf("%d (%.1f%%)", s.RowsWithIssues, s.PercentWithIssue)},
		{"Auto-correctable issues", fmt.Sprint(s.AutoCorrectable)},
		{"Manual issues", fmt.Sprint(s.ManualIssues)},
		{"Rows needing manual fix", fmt.Sprint(s.ManualRows)},
	}
	for _, k := range kindOrder(s.ByKind) {
		rows = append(rows, []string{string(k), fmt.Sprint(s.ByKind[k])})
	}
	for _, r := range rows {
		if err := appendRow(t, r...); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}

	if len(s.ByColumn) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	byCol := newTable(w, "Column", "Kind", "Count")
	for _, c := range s.ByColumn {
		if err := appendRow(byCol, c.Column, string(c.Kind), fmt.Sprint(c.Count)); err != nil {
			return err
		}
	}
	return byCol.Render()
}

// WriteManualRows prints up to limit manual rows with their current values
// in the required columns. A limit of zero prints all of them.
func WriteManualRows(w io.Writer, live *core.Table, manual []core.RowIssues, limit int) error {
	headers := append([]string{"Row"}, core.RequiredColumns()...)
	headers = append(headers, "Issues")
	t := newTable(w, headers...)

	shown := manual
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, ri := range shown {
		cells := []string{fmt.Sprint(int(ri.Row))}
		row, ok := live.Row(ri.Row)
		for _, c := range core.RequiredColumns() {
			if ok {
				cells = append(cells, row.Get(c).String())
			} else {
				cells = append(cells, "")
			}
		}
		cells = append(cells, ri.Detail)
		if err := appendRow(t, cells...); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}
	if len(shown) < len(manual) {
		_, err := fmt.Fprintf(w, "... %d more rows not shown\n", len(manual)-len(shown))
		return err
	}
	return nil
}

// WriteColumns prints a column report with the suggested renames.
func WriteColumns(w io.Writer, r core.ColumnReport, suggested core.Mapping) error {
	t := newTable(w, "Status", "Columns")
	rows := [][]string{
		{"Known", strings.Join(r.Known, ", ")},
		{"Missing required", strings.Join(r.MissingRequired, ", ")},
		{"Missing optional", strings.Join(r.MissingOptional, ", ")},
		{"Tagged", strings.Join(r.Tagged, ", ")},
		{"Unmapped", strings.Join(r.Unmapped, ", ")},
	}
	for _, row := range rows {
		if err := appendRow(t, row...); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}
	if len(suggested.Rename) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	m := newTable(w, "Source column", "Suggested name")
	for _, src := range r.Unmapped {
		if dst, ok := suggested.Rename[src]; ok {
			if err := appendRow(m, src, dst); err != nil {
				return err
			}
		}
	}
	return m.Render()
}

// WriteHistory prints the operations applied in a session.
func WriteHistory(w io.Writer, entries []core.HistoryEntry) error {
	t := newTable(w, "#", "Action", "Severity", "Column", "Rows", "Detail")
	for i, e := range entries {
		detail := e.Reason
		if e.NewValue != "" {
			detail = fmt.Sprintf("-> %q", e.NewValue)
		}
		if err := appendRow(t, fmt.Sprint(i+1), string(e.Action), string(e.Severity), e.Column, fmt.Sprint(e.RowsAffected), detail); err != nil {
			return err
		}
	}
	return t.Render()
}
