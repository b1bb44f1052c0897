package core

import "strings"

// FieldType represents the expected data type for a schema column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldCountry
)

func (t FieldType) String() string {
	switch t {
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldCountry:
		return "country"
	default:
		return "text"
	}
}

// FieldSpec defines the rules for a single schema column.
type FieldSpec struct {
	Name       string    // Canonical column name
	Type       FieldType // Expected data type
	Required   bool      // Column must exist after mapping and cells must be filled
	Unique     bool      // Values must not repeat across rows
	EnumValues []string  // Valid values for FieldEnum type
	Aliases    []string  // Header spellings commonly seen in exports
}

// RowID is the stable identity of a row, assigned once at ingestion.
type RowID int

// Cell is a single table value. Null marks a value that was absent in the
// source (an empty field or a column the source did not have).
type Cell struct {
	Value string
	Null  bool
}

// NullCell returns an absent value.
func NullCell() Cell { return Cell{Null: true} }

// StringCell wraps s. The empty string is stored as null.
func StringCell(s string) Cell {
	if s == "" {
		return NullCell()
	}
	return Cell{Value: s}
}

// String returns the cell value, or "" for null cells.
func (c Cell) String() string {
	if c.Null {
		return ""
	}
	return c.Value
}

// IsEmpty reports whether the cell is null or holds only whitespace.
func (c Cell) IsEmpty() bool {
	return c.Null || strings.TrimSpace(c.Value) == ""
}

// isMissing reports whether a cell is empty or holds the "unknown" placeholder
// that inventory exports use for missing values.
func (c Cell) isMissing() bool {
	return c.IsEmpty() || strings.EqualFold(strings.TrimSpace(c.Value), "unknown")
}

// ProgressCallback receives progress updates during long operations.
type ProgressCallback func(p Progress)

// Progress describes how far a multi-step operation has got.
type Progress struct {
	Phase   string // e.g. "check", "ingest"
	Step    string // Checker or source name
	Current int
	Total   int
	Issues  int
}
