package core

// export.go writes tables back out as delimited text or spreadsheets.
//
// Exports are meant to be ingested again: the header row is the table's
// column list, null cells are written empty and date columns carry
// YYYY-MM-DD wherever the value can be read as a date.

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ExportOptions configures export.
type ExportOptions struct {
	Delimiter      rune   // Default ','
	CanonicalDates bool   // Rewrite readable dates in date columns as YYYY-MM-DD
	RowIDColumn    string // If set, a leading column holding each row's identity
	Sheet          string // Sheet name for spreadsheet output (default "devices")
}

// DefaultExportOptions returns comma-delimited output with canonical dates.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Delimiter: ',', CanonicalDates: true}
}

func (o ExportOptions) header(t *Table) []string {
	if o.RowIDColumn == "" {
		return slices.Clone(t.Columns)
	}
	return append([]string{o.RowIDColumn}, t.Columns...)
}

func (o ExportOptions) record(t *Table, r *Row) []string {
	rec := make([]string, 0, len(t.Columns)+1)
	if o.RowIDColumn != "" {
		rec = append(rec, fmt.Sprint(int(r.ID)))
	}
	for _, c := range t.Columns {
		rec = append(rec, o.cellText(c, r.Get(c)))
	}
	return rec
}

func (o ExportOptions) cellText(column string, c Cell) string {
	v := c.String()
	if !o.CanonicalDates || v == "" {
		return v
	}
	if spec, ok := LookupField(column); ok && spec.Type == FieldDate {
		if d := NormalizeDate(v); d != "" {
			return d
		}
	}
	return v
}

// WriteDelimited writes t as delimited text.
func WriteDelimited(w io.Writer, t *Table, opts ExportOptions) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	if err := cw.Write(opts.header(t)); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := cw.Write(opts.record(t, r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSpreadsheet writes t as a single-sheet xlsx workbook.
func WriteSpreadsheet(w io.Writer, t *Table, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = "devices"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	write := func(line int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, opts.header(t)); err != nil {
		return err
	}
	for i, r := range t.Rows {
		if err := write(i+2, opts.record(t, r)); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteTable writes t in the given format.
func WriteTable(w io.Writer, t *Table, format SourceFormat, opts ExportOptions) error {
	if format == FormatXLSX {
		return WriteSpreadsheet(w, t, opts)
	}
	return WriteDelimited(w, t, opts)
}

// ExportLive writes the working table.
func (s *Session) ExportLive(w io.Writer, format SourceFormat, opts ExportOptions) error {
	return WriteTable(w, s.live, format, opts)
}

// ExportIgnored writes the ignored rows.
func (s *Session) ExportIgnored(w io.Writer, format SourceFormat, opts ExportOptions) error {
	return WriteTable(w, s.ignored, format, opts)
}

// ProblemsColumn is the extra column carrying the issue detail in a
// problem-rows export.
const ProblemsColumn = "issues"

// ProblemRows returns the live rows that still need manual attention, with
// the joined issue detail in an extra column.
func ProblemRows(t *Table, report *IssueReport) *Table {
	ids := make([]RowID, len(report.Manual))
	detail := make(map[RowID]string, len(report.Manual))
	for i, ri := range report.Manual {
		ids[i] = ri.Row
		detail[ri.Row] = ri.Detail
	}
	out := t.Select(ids)
	out.AddColumn(ProblemsColumn)
	for _, r := range out.Rows {
		r.Values[ProblemsColumn] = StringCell(detail[r.ID])
	}
	return out
}
