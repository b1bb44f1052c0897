package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrSchema         = errors.New("schema error")
	ErrUnknownRow     = errors.New("unknown row")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrEmptySource    = errors.New("empty source")
	ErrUnsupportedExt = errors.New("unsupported source format")
	ErrFileTooLarge   = errors.New("file too large")
)

// MissingColumnsError reports required columns absent after mapping.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrSchema }

// DuplicateTargetError lists every target name claimed by more than one
// source column in a mapping.
type DuplicateTargetError struct {
	Targets []string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("duplicate mapping target(s): %s", strings.Join(e.Targets, ", "))
}

func (e *DuplicateTargetError) Is(target error) bool { return target == ErrSchema }

// UnknownRowError is returned when a resolution references a row that is
// not in the live table, typically because it was ignored.
type UnknownRowError struct {
	Row RowID
	Op  string
}

func (e *UnknownRowError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: unknown row %d", e.Op, e.Row)
	}
	return fmt.Sprintf("unknown row %d", e.Row)
}

func (e *UnknownRowError) Is(target error) bool { return target == ErrUnknownRow }

// UnknownColumnError is returned when an operation names a column the table
// does not have.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// UnknownRows extracts the row identities from every *UnknownRowError in err,
// including errors combined with errors.Join.
func UnknownRows(err error) []RowID {
	var out []RowID
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		var ure *UnknownRowError
		if u, ok := e.(*UnknownRowError); ok {
			out = append(out, u.Row)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		if errors.As(e, &ure) {
			out = append(out, ure.Row)
		}
	}
	walk(err)
	return out
}
