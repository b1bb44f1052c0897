package core

// resolve.go implements the operations that fix or remove problem cells.
//
// Every operation edits the live table in place, keyed by row identity. A
// row that is no longer live is reported as *UnknownRowError while the rest
// of the batch still applies; the errors are combined with errors.Join.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/deviceclean/internal/logging"
)

// ApplySuggestions writes each issue's suggestion into its cell. Issues
// without a suggestion are skipped. Applying the same issues twice leaves
// the table unchanged the second time.
func (s *Session) ApplySuggestions(ctx context.Context, issues []Issue) (int, error) {
	var errs []error
	var rows []RowID
	changed := 0
	for _, is := range issues {
		if !is.AutoCorrectable() {
			continue
		}
		r, ok := s.live.Row(is.Row)
		if !ok {
			errs = append(errs, &UnknownRowError{Row: is.Row, Op: string(ActionApplySuggestions)})
			continue
		}
		if !s.live.HasColumn(is.Column) {
			errs = append(errs, &UnknownColumnError{Column: is.Column})
			continue
		}
		if r.Get(is.Column).String() == is.Suggestion {
			continue
		}
		r.Values[is.Column] = StringCell(is.Suggestion)
		s.markDirty(r.ID)
		rows = append(rows, r.ID)
		changed++
	}

	if changed > 0 {
		s.history.Record(ctx, HistoryEntry{
			Action:       ActionApplySuggestions,
			Rows:         rows,
			RowsAffected: changed,
		})
	}
	logging.WithFields(ctx, "op", ActionApplySuggestions).Debug("suggestions applied", "cells", changed, "failed", len(errs))
	return changed, errors.Join(errs...)
}

// ReplaceAll sets column to value on every listed row.
func (s *Session) ReplaceAll(ctx context.Context, rows []RowID, column, value string) (int, error) {
	if !s.live.HasColumn(column) {
		return 0, &UnknownColumnError{Column: column}
	}

	var errs []error
	var applied []RowID
	for _, id := range rows {
		r, ok := s.live.Row(id)
		if !ok {
			errs = append(errs, &UnknownRowError{Row: id, Op: string(ActionReplaceAll)})
			continue
		}
		r.Values[column] = StringCell(value)
		s.markDirty(id)
		applied = append(applied, id)
	}

	s.history.Record(ctx, HistoryEntry{
		Action:       ActionReplaceAll,
		Column:       column,
		Rows:         applied,
		RowsAffected: len(applied),
		NewValue:     value,
	})
	logging.WithFields(ctx, "op", ActionReplaceAll, "column", column).Debug("replaced values", "rows", len(applied))
	return len(applied), errors.Join(errs...)
}

// ReplaceBulkByValue rewrites column on every live row whose current value
// is a key of replacements. Each cell is looked up once, so chained
// replacements (a->b, b->c) do not cascade. The key "" matches empty cells.
func (s *Session) ReplaceBulkByValue(ctx context.Context, column string, replacements map[string]string) (int, error) {
	if !s.live.HasColumn(column) {
		return 0, &UnknownColumnError{Column: column}
	}
	if len(replacements) == 0 {
		return 0, nil
	}

	var rows []RowID
	for _, r := range s.live.Rows {
		next, ok := replacements[r.Get(column).String()]
		if !ok {
			continue
		}
		r.Values[column] = StringCell(next)
		s.markDirty(r.ID)
		rows = append(rows, r.ID)
	}

	pairs := make([]string, 0, len(replacements))
	for from, to := range replacements {
		pairs = append(pairs, fmt.Sprintf("%q->%q", from, to))
	}
	slices.Sort(pairs)
	s.history.Record(ctx, HistoryEntry{
		Action:       ActionReplaceBulk,
		Column:       column,
		Rows:         rows,
		RowsAffected: len(rows),
		Reason:       strings.Join(pairs, ", "),
	})
	logging.WithFields(ctx, "op", ActionReplaceBulk, "column", column).Debug("bulk replacement applied", "rows", len(rows))
	return len(rows), nil
}

// ReplaceByHand merges an edited subtable into the live table cell by cell.
// When column is set only that column is merged; otherwise every column the
// edited table shares with the live table is.
func (s *Session) ReplaceByHand(ctx context.Context, edited *Table, column string) (int, error) {
	columns := []string{column}
	if column == "" {
		columns = nil
		for _, c := range edited.Columns {
			if s.live.HasColumn(c) {
				columns = append(columns, c)
			}
		}
	} else if !s.live.HasColumn(column) {
		return 0, &UnknownColumnError{Column: column}
	}

	var errs []error
	var rows []RowID
	for _, er := range edited.Rows {
		r, ok := s.live.Row(er.ID)
		if !ok {
			errs = append(errs, &UnknownRowError{Row: er.ID, Op: string(ActionReplaceByHand)})
			continue
		}
		for _, c := range columns {
			if v, ok := er.Values[c]; ok {
				r.Values[c] = v
			}
		}
		s.markDirty(r.ID)
		rows = append(rows, r.ID)
	}

	s.history.Record(ctx, HistoryEntry{
		Action:       ActionReplaceByHand,
		Column:       column,
		Rows:         rows,
		RowsAffected: len(rows),
	})
	logging.WithFields(ctx, "op", ActionReplaceByHand, "column", column).Debug("manual edits merged", "rows", len(rows), "stale", len(errs))
	return len(rows), errors.Join(errs...)
}

// EditCells is ReplaceByHand for a single column given as row -> value.
func (s *Session) EditCells(ctx context.Context, column string, values map[RowID]string) (int, error) {
	edited := NewTable(column)
	for _, id := range sortedRowIDs(values) {
		row := &Row{ID: id, Values: map[string]Cell{column: StringCell(values[id])}}
		if err := edited.Append(row); err != nil {
			return 0, err
		}
	}
	return s.ReplaceByHand(ctx, edited, column)
}

// NormalizeCategoryCase uppercases deviceCategory values that are valid
// apart from their case, so exports carry the canonical token.
func (s *Session) NormalizeCategoryCase(ctx context.Context) (int, error) {
	if !s.live.HasColumn(ColCategory) {
		return 0, &UnknownColumnError{Column: ColCategory}
	}
	var rows []RowID
	for _, r := range s.live.Rows {
		v := r.Get(ColCategory).String()
		up := strings.ToUpper(v)
		if v == up || !IsDeviceCategory(v) {
			continue
		}
		r.Values[ColCategory] = StringCell(up)
		s.markDirty(r.ID)
		rows = append(rows, r.ID)
	}
	if len(rows) > 0 {
		s.history.Record(ctx, HistoryEntry{
			Action:       ActionNormalizeCase,
			Column:       ColCategory,
			Rows:         rows,
			RowsAffected: len(rows),
		})
	}
	return len(rows), nil
}

// IgnoreRows moves rows from the live table to the ignored table. It cannot
// be undone. The moved rows are returned in live-table order.
func (s *Session) IgnoreRows(ctx context.Context, rows []RowID) (*Table, error) {
	want := make(map[RowID]struct{}, len(rows))
	var errs []error
	for _, id := range rows {
		if !s.live.Has(id) {
			errs = append(errs, &UnknownRowError{Row: id, Op: string(ActionIgnoreRows)})
			continue
		}
		want[id] = struct{}{}
	}

	moved := NewTable(s.live.Columns...)
	for _, c := range s.live.Columns {
		s.ignored.AddColumn(c)
	}
	for _, r := range s.live.remove(want) {
		if err := s.ignored.Append(r); err != nil {
			errs = append(errs, err)
			continue
		}
		_ = moved.Append(r.clone())
		delete(s.dirty, r.ID)
	}

	s.history.Record(ctx, HistoryEntry{
		Action:       ActionIgnoreRows,
		Rows:         moved.IDs(),
		RowsAffected: moved.Len(),
	})
	logging.WithFields(ctx, "op", ActionIgnoreRows).Debug("rows ignored", "rows", moved.Len(), "live", s.live.Len())
	return moved, errors.Join(errs...)
}

func sortedRowIDs[V any](m map[RowID]V) []RowID {
	ids := make([]RowID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
