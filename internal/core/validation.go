package core

// validation.go provides the column checkers run against a device table.
//
// Each checker owns a fixed set of columns, reads the table without changing
// it and returns one Issue per offending cell. Columns missing from the table
// are skipped; RequireColumns reports them separately.

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Checker validates one concern of a device table.
type Checker interface {
	Name() string
	Columns() []string
	Check(ctx context.Context, t *Table) []Issue
}

// DateChecker flags date cells that are not exactly YYYY-MM-DD. When the
// value can be read leniently the canonical date is offered as suggestion.
type DateChecker struct{}

func (DateChecker) Name() string { return "date" }

func (DateChecker) Columns() []string {
	return []string{ColEntryDate, ColPurchaseDate, ColRetirementDate}
}

func (c DateChecker) Check(_ context.Context, t *Table) []Issue {
	var issues []Issue
	for _, col := range c.Columns() {
		if !t.HasColumn(col) {
			continue
		}
		spec, _ := LookupField(col)
		for _, r := range t.Rows {
			cell := r.Get(col)
			if cell.IsEmpty() {
				if spec.Required {
					issues = append(issues, emptyIssue(r, col))
				}
				continue
			}
			if _, ok := ParseCanonicalDate(cell.Value); ok {
				continue
			}
			issues = append(issues, Issue{
				Row:        r.ID,
				Column:     col,
				Value:      cell.Value,
				Kind:       KindInvalidFormat,
				Message:    "Invalid date format",
				Suggestion: NormalizeDate(cell.Value),
			})
		}
	}
	return issues
}

// CategoryChecker validates deviceCategory against DeviceCategories. The
// comparison is case-insensitive but whitespace is significant.
type CategoryChecker struct{}

func (CategoryChecker) Name() string      { return "category" }
func (CategoryChecker) Columns() []string { return []string{ColCategory} }

func (CategoryChecker) Check(_ context.Context, t *Table) []Issue {
	if !t.HasColumn(ColCategory) {
		return nil
	}
	var issues []Issue
	for _, r := range t.Rows {
		cell := r.Get(ColCategory)
		if cell.IsEmpty() {
			issues = append(issues, emptyIssue(r, ColCategory))
			continue
		}
		if IsDeviceCategory(cell.Value) {
			continue
		}
		issues = append(issues, Issue{
			Row:     r.ID,
			Column:  ColCategory,
			Value:   cell.Value,
			Kind:    KindInvalidEnum,
			Message: "Invalid device category",
		})
	}
	return issues
}

// IsDeviceCategory reports whether v, uppercased, is an accepted category.
func IsDeviceCategory(v string) bool {
	return slices.Contains(DeviceCategories, strings.ToUpper(v))
}

// CountryChecker requires ISO 3166-1 alpha-2 codes in the country column.
type CountryChecker struct {
	Normalizer *CountryNormalizer
}

func (CountryChecker) Name() string      { return "country" }
func (CountryChecker) Columns() []string { return []string{ColCountry} }

func (c CountryChecker) Check(ctx context.Context, t *Table) []Issue {
	if !t.HasColumn(ColCountry) {
		return nil
	}
	n := c.Normalizer
	if n == nil {
		n = NewCountryNormalizer()
	}

	// Inventories repeat the same few spellings thousands of times.
	resolved := make(map[string]string)
	var issues []Issue
	for _, r := range t.Rows {
		cell := r.Get(ColCountry)
		if cell.isMissing() {
			issues = append(issues, emptyIssue(r, ColCountry))
			continue
		}
		if IsAlpha2(cell.Value) {
			continue
		}
		suggestion, ok := resolved[cell.Value]
		if !ok {
			res := n.Resolve(ctx, cell.Value)
			suggestion = res.Code
			resolved[cell.Value] = suggestion
		}
		issues = append(issues, Issue{
			Row:        r.ID,
			Column:     ColCountry,
			Value:      cell.Value,
			Kind:       KindInvalidCountryFormat,
			Message:    fmt.Sprintf("The column %s not in Alpha 2 format", ColCountry),
			Suggestion: suggestion,
		})
	}
	return issues
}

// SerialNumberChecker requires a serial number on every row and flags every
// row whose serial number occurs more than once.
type SerialNumberChecker struct{}

func (SerialNumberChecker) Name() string      { return "serial_number" }
func (SerialNumberChecker) Columns() []string { return []string{ColSerialNumber} }

func (SerialNumberChecker) Check(_ context.Context, t *Table) []Issue {
	if !t.HasColumn(ColSerialNumber) {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range t.Rows {
		if cell := r.Get(ColSerialNumber); !cell.isMissing() {
			counts[cell.Value]++
		}
	}

	var issues []Issue
	for _, r := range t.Rows {
		cell := r.Get(ColSerialNumber)
		switch {
		case cell.isMissing():
			issues = append(issues, emptyIssue(r, ColSerialNumber))
		case counts[cell.Value] > 1:
			issues = append(issues, Issue{
				Row:     r.ID,
				Column:  ColSerialNumber,
				Value:   cell.Value,
				Kind:    KindDuplicateValue,
				Message: fmt.Sprintf("Duplicate value for %s (%d occurrences)", ColSerialNumber, counts[cell.Value]),
			})
		}
	}
	return issues
}

// RequiredTextChecker reports empty or "unknown" cells in a free-text
// required column.
type RequiredTextChecker struct {
	Column string
	Label  string
}

func (c RequiredTextChecker) Name() string      { return c.Label }
func (c RequiredTextChecker) Columns() []string { return []string{c.Column} }

func (c RequiredTextChecker) Check(_ context.Context, t *Table) []Issue {
	if !t.HasColumn(c.Column) {
		return nil
	}
	var issues []Issue
	for _, r := range t.Rows {
		if r.Get(c.Column).isMissing() {
			issues = append(issues, emptyIssue(r, c.Column))
		}
	}
	return issues
}

// NumericChecker flags optional numeric cells that are not plain decimals.
// Values with currency symbols or separators get the cleaned number as
// suggestion.
type NumericChecker struct{}

func (NumericChecker) Name() string      { return "numeric" }
func (NumericChecker) Columns() []string { return []string{ColPrice, ColMaxPower} }

func (c NumericChecker) Check(_ context.Context, t *Table) []Issue {
	var issues []Issue
	for _, col := range c.Columns() {
		if !t.HasColumn(col) {
			continue
		}
		for _, r := range t.Rows {
			cell := r.Get(col)
			if cell.IsEmpty() || numericRegex.MatchString(cell.Value) {
				continue
			}
			issues = append(issues, Issue{
				Row:        r.ID,
				Column:     col,
				Value:      cell.Value,
				Kind:       KindInvalidFormat,
				Message:    "Invalid number format",
				Suggestion: FormatNumeric(ToPgNumeric(cell.Value)),
			})
		}
	}
	return issues
}
