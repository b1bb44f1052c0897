// Package report renders issue reports for people: terminal tables, YAML
// documents and a standalone HTML page.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts s to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want table or yaml)", s)
	}
}

// Document is the serializable form of one checker pass.
type Document struct {
	Session string              `yaml:"session,omitempty"`
	Sources []string            `yaml:"sources,omitempty"`
	Columns core.ColumnReport   `yaml:"columns"`
	Summary core.Summary        `yaml:"summary"`
	Suggest []core.Issue        `yaml:"suggestions,omitempty"`
	Manual  []core.RowIssues    `yaml:"manual,omitempty"`
	Values  map[string][]string `yaml:"manual_values,omitempty"`
	History []core.HistoryEntry `yaml:"history,omitempty"`
}

// NewDocument collects what a report shows about sess and r.
func NewDocument(sess *core.Session, r *core.IssueReport) Document {
	doc := Document{
		Session: sess.ID,
		Sources: sess.Sources,
		Columns: core.InspectColumns(sess.Live().Columns),
		Summary: r.Summary(),
		Suggest: r.WithSuggestion,
		Manual:  r.Manual,
		Values:  make(map[string][]string),
		History: sess.History().Entries(),
	}
	for _, c := range core.RequiredColumns() {
		if v := r.DistinctManualValues(c); len(v) > 0 {
			doc.Values[c] = v
		}
	}
	return doc
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc Document) error {
	data, err := yaml.MarshalWithOptions(doc,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Write renders doc in the given format.
func Write(w io.Writer, format Format, doc Document, live *core.Table) error {
	if format == FormatYAML {
		return WriteYAML(w, doc)
	}
	if err := WriteSummary(w, doc.Summary); err != nil {
		return err
	}
	if len(doc.Manual) == 0 {
		_, err := fmt.Fprintln(w, "\nNo rows need manual attention.")
		return err
	}
	fmt.Fprintf(w, "\nRows needing manual attention: %d\n", len(doc.Manual))
	return WriteManualRows(w, live, doc.Manual, DefaultManualLimit)
}

// kindOrder returns the kinds present in m in reporting order.
func kindOrder(m map[core.ErrorKind]int) []core.ErrorKind {
	var out []core.ErrorKind
	for _, k := range core.AllKinds {
		if m[k] > 0 {
			out = append(out, k)
		}
	}
	return out
}
