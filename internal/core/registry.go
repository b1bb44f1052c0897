package core

import (
	"fmt"
	"slices"
)

// CheckerOptions configures the checkers that need outside collaborators.
type CheckerOptions struct {
	Countries *CountryNormalizer
}

// DefaultCheckers returns the checkers in the order they run: date,
// category, country, serial number, manufacturer, model, then the optional
// numeric columns.
func DefaultCheckers(opts CheckerOptions) []Checker {
	countries := opts.Countries
	if countries == nil {
		countries = NewCountryNormalizer()
	}
	return []Checker{
		DateChecker{},
		CategoryChecker{},
		CountryChecker{Normalizer: countries},
		SerialNumberChecker{},
		RequiredTextChecker{Column: ColManufacturer, Label: "manufacturer"},
		RequiredTextChecker{Column: ColModel, Label: "model"},
		NumericChecker{},
	}
}

// CheckerNames returns the names of the given checkers in order.
func CheckerNames(checkers []Checker) []string {
	names := make([]string, len(checkers))
	for i, c := range checkers {
		names[i] = c.Name()
	}
	return names
}

// CheckerByName returns the checker with the given name.
func CheckerByName(checkers []Checker, name string) (Checker, error) {
	for _, c := range checkers {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("checker not found: %s", name)
}

// CheckerForColumn returns the checker that validates column, if any.
func CheckerForColumn(checkers []Checker, column string) (Checker, bool) {
	for _, c := range checkers {
		if slices.Contains(c.Columns(), column) {
			return c, true
		}
	}
	return nil, false
}

// SelectCheckers keeps only the named checkers, preserving run order. An
// empty list selects all of them.
func SelectCheckers(checkers []Checker, names []string) ([]Checker, error) {
	if len(names) == 0 {
		return checkers, nil
	}
	var out []Checker
	for _, name := range names {
		if _, err := CheckerByName(checkers, name); err != nil {
			return nil, err
		}
	}
	for _, c := range checkers {
		if slices.Contains(names, c.Name()) {
			out = append(out, c)
		}
	}
	return out, nil
}
