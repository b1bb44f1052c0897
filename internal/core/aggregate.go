package core

// aggregate.go runs the checkers and shapes their issues for review.
//
// Issues are split into those with a suggestion, which can be applied in one
// step, and those without, which need a person. The manual ones are also
// grouped per row so each problematic row is listed once.

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// AggregateOptions configures Aggregate.
type AggregateOptions struct {
	Checkers []Checker       // Defaults to DefaultCheckers
	Progress ProgressCallback // Called after each checker
}

// RowIssues is the manual view of one row: every issue without a
// suggestion, joined for display.
type RowIssues struct {
	Row     RowID       `json:"row" yaml:"row"`
	Detail  string      `json:"detail" yaml:"detail"`
	Count   int         `json:"count" yaml:"count"`
	Columns []string    `json:"columns" yaml:"columns"`
	Kinds   []ErrorKind `json:"kinds" yaml:"kinds"`
}

// IssueReport is the combined output of one checker pass.
type IssueReport struct {
	TotalRows         int         `json:"total_rows" yaml:"total_rows"`
	Issues            []Issue     `json:"issues" yaml:"issues"`
	WithSuggestion    []Issue     `json:"with_suggestion" yaml:"with_suggestion"`
	WithoutSuggestion []Issue     `json:"without_suggestion" yaml:"without_suggestion"`
	Manual            []RowIssues `json:"manual" yaml:"manual"`
}

// Aggregate runs every checker against t in order and partitions the
// result. The table is not modified.
func Aggregate(ctx context.Context, t *Table, opts AggregateOptions) *IssueReport {
	checkers := opts.Checkers
	if checkers == nil {
		checkers = DefaultCheckers(CheckerOptions{})
	}

	var issues []Issue
	for i, c := range checkers {
		found := c.Check(ctx, t)
		issues = append(issues, found...)
		slog.Debug("checker finished", "checker", c.Name(), "issues", len(found))
		if opts.Progress != nil {
			opts.Progress(Progress{
				Phase:   "check",
				Step:    c.Name(),
				Current: i + 1,
				Total:   len(checkers),
				Issues:  len(found),
			})
		}
	}
	return NewIssueReport(t.Len(), issues)
}

// NewIssueReport partitions issues and builds the manual view.
func NewIssueReport(totalRows int, issues []Issue) *IssueReport {
	r := &IssueReport{TotalRows: totalRows, Issues: issues}
	for _, is := range issues {
		if is.AutoCorrectable() {
			r.WithSuggestion = append(r.WithSuggestion, is)
		} else {
			r.WithoutSuggestion = append(r.WithoutSuggestion, is)
		}
	}
	r.Manual = groupByRow(r.WithoutSuggestion)
	return r
}

func groupByRow(issues []Issue) []RowIssues {
	byRow := make(map[RowID]*RowIssues)
	messages := make(map[RowID][]string)
	for _, is := range issues {
		ri, ok := byRow[is.Row]
		if !ok {
			ri = &RowIssues{Row: is.Row}
			byRow[is.Row] = ri
		}
		ri.Count++
		ri.Columns = append(ri.Columns, is.Column)
		if !slices.Contains(ri.Kinds, is.Kind) {
			ri.Kinds = append(ri.Kinds, is.Kind)
		}
		messages[is.Row] = append(messages[is.Row], is.Message)
	}

	out := make([]RowIssues, 0, len(byRow))
	for id, ri := range byRow {
		ri.Detail = strings.Join(messages[id], ", ")
		out = append(out, *ri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

// Clean reports whether the pass found nothing.
func (r *IssueReport) Clean() bool { return len(r.Issues) == 0 }

// ManualRows returns the manual view restricted to rows that have at least
// one issue of the given kinds. No kinds means all rows.
func (r *IssueReport) ManualRows(kinds ...ErrorKind) []RowIssues {
	if len(kinds) == 0 {
		return r.Manual
	}
	var filtered []Issue
	for _, is := range r.WithoutSuggestion {
		if slices.Contains(kinds, is.Kind) {
			filtered = append(filtered, is)
		}
	}
	return groupByRow(filtered)
}

// ManualRowIDs returns the rows with a manual issue in column, optionally
// restricted to kinds, in ascending order. An empty column matches all.
func (r *IssueReport) ManualRowIDs(column string, kinds ...ErrorKind) []RowID {
	seen := make(map[RowID]bool)
	var ids []RowID
	for _, is := range r.WithoutSuggestion {
		if column != "" && is.Column != column {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, is.Kind) {
			continue
		}
		if !seen[is.Row] {
			seen[is.Row] = true
			ids = append(ids, is.Row)
		}
	}
	slices.Sort(ids)
	return ids
}

// ForColumn returns the issues reported for column.
func (r *IssueReport) ForColumn(column string) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Column == column {
			out = append(out, is)
		}
	}
	return out
}

// DistinctManualValues returns the distinct current values of the manual
// issues in column, in first-seen order. It is the input to a bulk
// replacement by value.
func (r *IssueReport) DistinctManualValues(column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, is := range r.WithoutSuggestion {
		if is.Column != column || seen[is.Value] {
			continue
		}
		seen[is.Value] = true
		out = append(out, is.Value)
	}
	return out
}

// ColumnKindCount is one line of the errors-by-column breakdown.
type ColumnKindCount struct {
	Column string    `json:"column" yaml:"column"`
	Kind   ErrorKind `json:"kind" yaml:"kind"`
	Count  int       `json:"count" yaml:"count"`
}

// Summary is the headline statistics of a report.
type Summary struct {
	TotalRows        int               `json:"total_rows" yaml:"total_rows"`
	RowsWithIssues   int               `json:"rows_with_issues" yaml:"rows_with_issues"`
	ManualRows       int               `json:"manual_rows" yaml:"manual_rows"`
	AutoCorrectable  int               `json:"auto_correctable" yaml:"auto_correctable"`
	ManualIssues     int               `json:"manual_issues" yaml:"manual_issues"`
	PercentWithIssue float64           `json:"percent_with_issue" yaml:"percent_with_issue"`
	ByKind           map[ErrorKind]int `json:"by_kind" yaml:"by_kind"`
	ByColumn         []ColumnKindCount `json:"by_column" yaml:"by_column"`
}

// Summary computes headline statistics.
func (r *IssueReport) Summary() Summary {
	s := Summary{
		TotalRows:       r.TotalRows,
		ManualRows:      len(r.Manual),
		AutoCorrectable: len(r.WithSuggestion),
		ManualIssues:    len(r.WithoutSuggestion),
		ByKind:          make(map[ErrorKind]int),
	}

	rows := make(map[RowID]bool)
	counts := make(map[[2]string]int)
	for _, is := range r.Issues {
		rows[is.Row] = true
		s.ByKind[is.Kind]++
		counts[[2]string{is.Column, string(is.Kind)}]++
	}
	s.RowsWithIssues = len(rows)
	if r.TotalRows > 0 {
		s.PercentWithIssue = float64(s.RowsWithIssues) * 100 / float64(r.TotalRows)
	}

	for k, n := range counts {
		s.ByColumn = append(s.ByColumn, ColumnKindCount{Column: k[0], Kind: ErrorKind(k[1]), Count: n})
	}
	sort.Slice(s.ByColumn, func(i, j int) bool {
		a, b := s.ByColumn[i], s.ByColumn[j]
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Kind < b.Kind
	})
	return s
}
