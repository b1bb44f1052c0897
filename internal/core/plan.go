package core

// plan.go applies a recorded resolution plan to a session.
//
// A plan is the non-interactive form of a review: a column mapping, whether
// to take every suggestion, and an ordered list of resolutions. Each
// resolution targets the rows that have a manual issue in its column at the
// moment it runs, so later steps see the effect of earlier ones.

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// ResolutionAction names what a plan step does.
type ResolutionAction string

const (
	ResolveReplaceAll      ResolutionAction = "replace_all"
	ResolveReplaceBulk     ResolutionAction = "replace_bulk"
	ResolveEdit            ResolutionAction = "edit"
	ResolveIgnore          ResolutionAction = "ignore"
	ResolveIgnoreRemaining ResolutionAction = "ignore_remaining"
)

// Resolution is one plan step.
type Resolution struct {
	Column string            `json:"column,omitempty" yaml:"column,omitempty"`
	Action ResolutionAction  `json:"action" yaml:"action"`
	Kinds  []ErrorKind       `json:"kinds,omitempty" yaml:"kinds,omitempty"`   // Restrict targets to these kinds
	Value  string            `json:"value,omitempty" yaml:"value,omitempty"`   // replace_all
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"` // replace_bulk: old -> new
	Edits  map[RowID]string  `json:"edits,omitempty" yaml:"edits,omitempty"`   // edit: row -> new
	Rows   []RowID           `json:"rows,omitempty" yaml:"rows,omitempty"`     // ignore: explicit rows
}

// Plan is a complete, replayable review.
type Plan struct {
	Mapping             Mapping      `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	SuggestMapping      bool         `json:"suggest_mapping,omitempty" yaml:"suggest_mapping,omitempty"`
	ApplySuggestions    bool         `json:"apply_suggestions,omitempty" yaml:"apply_suggestions,omitempty"`
	NormalizeCategories bool         `json:"normalize_categories,omitempty" yaml:"normalize_categories,omitempty"`
	Resolutions         []Resolution `json:"resolutions,omitempty" yaml:"resolutions,omitempty"`
}

// Validate checks the plan for steps that could never apply.
func (p Plan) Validate() error {
	var errs []error
	for i, r := range p.Resolutions {
		switch r.Action {
		case ResolveReplaceAll, ResolveReplaceBulk, ResolveEdit:
			if r.Column == "" {
				errs = append(errs, fmt.Errorf("plan: resolution %d (%s) needs a column", i+1, r.Action))
			}
		case ResolveIgnore, ResolveIgnoreRemaining:
		default:
			errs = append(errs, fmt.Errorf("plan: resolution %d has unknown action %q", i+1, r.Action))
		}
		for _, k := range r.Kinds {
			if _, err := ParseErrorKind(string(k)); err != nil {
				errs = append(errs, fmt.Errorf("plan: resolution %d: %w", i+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ReadPlan decodes a YAML plan and validates it.
func ReadPlan(r io.Reader) (Plan, error) {
	var p Plan
	data, err := io.ReadAll(r)
	if err != nil {
		return p, fmt.Errorf("plan: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("plan: %w", err)
	}
	return p, p.Validate()
}

// WritePlan encodes p as YAML.
func WritePlan(w io.Writer, p Plan) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// PlanResult summarizes what ApplyPlan did.
type PlanResult struct {
	SuggestionsApplied   int
	CategoriesNormalized int
	CellsChanged         int
	RowsIgnored          int
	Final                *IssueReport
}

// ApplyPlan runs p against the session. Row-identity errors from individual
// steps are collected and returned together after the plan finishes; schema
// errors stop it immediately.
func (s *Session) ApplyPlan(ctx context.Context, p Plan, opts AggregateOptions) (*PlanResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	mapping := p.Mapping
	if p.SuggestMapping {
		mapping = mergeMapping(SuggestMapping(s.live.Columns), mapping)
	}
	if !mapping.IsZero() || len(InspectColumns(s.live.Columns).Unmapped) > 0 {
		if err := s.ApplyMapping(ctx, mapping); err != nil {
			return nil, err
		}
	}
	if err := RequireColumns(s.live); err != nil {
		return nil, err
	}

	res := &PlanResult{}
	var errs []error
	if p.NormalizeCategories {
		n, err := s.NormalizeCategoryCase(ctx)
		if err != nil {
			return nil, err
		}
		res.CategoriesNormalized = n
	}
	if p.ApplySuggestions {
		report := s.Check(ctx, opts)
		n, err := s.ApplySuggestions(ctx, report.WithSuggestion)
		res.SuggestionsApplied = n
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, step := range p.Resolutions {
		n, ignored, err := s.applyResolution(ctx, step, opts)
		res.CellsChanged += n
		res.RowsIgnored += ignored
		if err != nil {
			if errors.Is(err, ErrUnknownRow) {
				errs = append(errs, err)
				continue
			}
			return nil, fmt.Errorf("resolution %s %s: %w", step.Action, step.Column, err)
		}
	}

	res.Final = s.Check(ctx, opts)
	return res, errors.Join(errs...)
}

func (s *Session) applyResolution(ctx context.Context, step Resolution, opts AggregateOptions) (changed, ignored int, err error) {
	switch step.Action {
	case ResolveReplaceAll:
		rows := s.Check(ctx, opts).ManualRowIDs(step.Column, step.Kinds...)
		changed, err = s.ReplaceAll(ctx, rows, step.Column, step.Value)
	case ResolveReplaceBulk:
		changed, err = s.ReplaceBulkByValue(ctx, step.Column, step.Values)
	case ResolveEdit:
		changed, err = s.EditCells(ctx, step.Column, step.Edits)
	case ResolveIgnore:
		rows := step.Rows
		if len(rows) == 0 {
			rows = s.Check(ctx, opts).ManualRowIDs(step.Column, step.Kinds...)
		}
		var moved *Table
		moved, err = s.IgnoreRows(ctx, rows)
		ignored = moved.Len()
	case ResolveIgnoreRemaining:
		rows := s.Check(ctx, opts).ManualRowIDs("", step.Kinds...)
		var moved *Table
		moved, err = s.IgnoreRows(ctx, rows)
		ignored = moved.Len()
	}
	return changed, ignored, err
}

// mergeMapping overlays explicit on suggested; explicit entries win and a
// suggested rename is dropped if explicit deletes or tags its source.
func mergeMapping(suggested, explicit Mapping) Mapping {
	out := Mapping{Rename: map[string]string{}, Tag: explicit.Tag, Delete: explicit.Delete}
	claimed := make(map[string]bool)
	for src, dst := range explicit.Rename {
		out.Rename[src] = dst
		claimed[dst] = true
	}
	skip := make(map[string]bool)
	for _, c := range explicit.Tag {
		skip[c] = true
	}
	for _, c := range explicit.Delete {
		skip[c] = true
	}
	for src, dst := range suggested.Rename {
		if _, ok := out.Rename[src]; ok || skip[src] || claimed[dst] {
			continue
		}
		out.Rename[src] = dst
	}
	return out
}
