package core

import "fmt"

// ErrorKind classifies a validation issue.
type ErrorKind string

const (
	KindEmptyRequired        ErrorKind = "EmptyRequired"
	KindInvalidFormat        ErrorKind = "InvalidFormat"
	KindInvalidEnum          ErrorKind = "InvalidEnum"
	KindInvalidCountryFormat ErrorKind = "InvalidCountryFormat"
	KindDuplicateValue       ErrorKind = "DuplicateValue"
)

// AllKinds lists every error kind in reporting order.
var AllKinds = []ErrorKind{
	KindEmptyRequired,
	KindInvalidFormat,
	KindInvalidEnum,
	KindInvalidCountryFormat,
	KindDuplicateValue,
}

// ParseErrorKind accepts a kind name as written in plans and flags.
func ParseErrorKind(s string) (ErrorKind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown error kind %q", s)
}

// Issue is a single validation finding for one cell.
type Issue struct {
	Row        RowID     `json:"row" yaml:"row"`
	Column     string    `json:"column" yaml:"column"`
	Value      string    `json:"value" yaml:"value"`
	Kind       ErrorKind `json:"kind" yaml:"kind"`
	Message    string    `json:"message" yaml:"message"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// AutoCorrectable reports whether the issue carries a suggestion.
func (i Issue) AutoCorrectable() bool { return i.Suggestion != "" }

func (i Issue) String() string {
	if i.Suggestion != "" {
		return fmt.Sprintf("row %d %s: %s (%q -> %q)", i.Row, i.Column, i.Message, i.Value, i.Suggestion)
	}
	return fmt.Sprintf("row %d %s: %s (%q)", i.Row, i.Column, i.Message, i.Value)
}

func emptyIssue(r *Row, column string) Issue {
	return Issue{
		Row:     r.ID,
		Column:  column,
		Value:   r.Get(column).String(),
		Kind:    KindEmptyRequired,
		Message: fmt.Sprintf("The column %s shouldn't be empty", column),
	}
}
