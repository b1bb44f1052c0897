package core

// ingest.go reads delimited text and spreadsheet sources into one Table.
//
// The delimiter of each text source is sniffed from its first bytes. Sources
// are concatenated in the order given; columns are the union of all headers
// in first-seen order and cells a source lacks are null. Row identities are
// assigned once, counting from zero across all sources.

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SniffSize is how many leading bytes are used to detect the delimiter.
const SniffSize = 1024

// SourceFormat identifies how a source is parsed.
type SourceFormat string

const (
	FormatDelimited SourceFormat = "delimited"
	FormatXLSX      SourceFormat = "xlsx"
)

// Source is one input to Ingest.
type Source struct {
	Name   string
	Reader io.Reader
	Format SourceFormat // Defaults to FormatDelimited
}

// IngestOptions configures Ingest.
type IngestOptions struct {
	Encoding  string           // Text encoding of delimited sources (default utf-8)
	Delimiter rune             // Zero means detect per source
	Sheet     string           // Spreadsheet sheet name; default is the first sheet
	MaxBytes  int64            // IngestFiles rejects larger files; zero means no limit
	Progress  ProgressCallback // Called after each source
}

// DetectDelimiter picks the most frequent of ',', ';' and tab in sample.
// Ties go to the earlier of that list; a sample with none of them yields ','.
func DetectDelimiter(sample []byte) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		n := strings.Count(string(sample), string(d))
		if n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// FormatForPath returns the source format implied by a file extension.
func FormatForPath(path string) (SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt", "":
		return FormatDelimited, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedExt)
	}
}

// rawSource is a parsed source before concatenation.
type rawSource struct {
	name    string
	header  []string
	records [][]string
}

// Ingest parses every source and concatenates them.
func Ingest(ctx context.Context, sources []Source, opts IngestOptions) (*Table, error) {
	var parsed []rawSource
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := readSource(src, opts)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.Name, err)
		}
		parsed = append(parsed, raw)
		if opts.Progress != nil {
			opts.Progress(Progress{Phase: "ingest", Step: src.Name, Current: i + 1, Total: len(sources)})
		}
	}
	return concatSources(parsed), nil
}

// IngestFiles opens and ingests the given paths.
func IngestFiles(ctx context.Context, paths []string, opts IngestOptions) (*Table, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		format, err := FormatForPath(p)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if opts.MaxBytes > 0 {
			info, err := f.Stat()
			if err != nil {
				return nil, err
			}
			if info.Size() > opts.MaxBytes {
				return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", p, ErrFileTooLarge, info.Size(), opts.MaxBytes)
			}
		}
		sources = append(sources, Source{Name: filepath.Base(p), Reader: f, Format: format})
	}
	return Ingest(ctx, sources, opts)
}

func readSource(src Source, opts IngestOptions) (rawSource, error) {
	if src.Format == FormatXLSX {
		return readSpreadsheet(src, opts.Sheet)
	}
	return readDelimited(src, opts)
}

func readDelimited(src Source, opts IngestOptions) (rawSource, error) {
	decoded, counter, err := WrapForStreaming(src.Reader, opts.Encoding)
	if err != nil {
		return rawSource{}, err
	}
	br := bufio.NewReaderSize(decoded, 64*1024)

	delim := opts.Delimiter
	if delim == 0 {
		sample, err := br.Peek(SniffSize)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return rawSource{}, err
		}
		delim = DetectDelimiter(sample)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return rawSource{}, ErrEmptySource
	}
	if err != nil {
		return rawSource{}, err
	}

	out := rawSource{name: src.Name, header: cleanHeaders(header)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rawSource{}, err
		}
		out.records = append(out.records, rec)
	}

	slog.Debug("source read",
		"source", src.Name,
		"delimiter", string(delim),
		"rows", len(out.records),
		"bytes", counter.BytesRead(),
	)
	return out, nil
}

func readSpreadsheet(src Source, sheet string) (rawSource, error) {
	f, err := excelize.OpenReader(src.Reader)
	if err != nil {
		return rawSource{}, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return rawSource{}, ErrEmptySource
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return rawSource{}, err
	}
	if len(rows) == 0 {
		return rawSource{}, ErrEmptySource
	}
	slog.Debug("sheet read", "source", src.Name, "sheet", sheet, "rows", len(rows)-1)
	return rawSource{name: src.Name, header: cleanHeaders(rows[0]), records: rows[1:]}, nil
}

// cleanHeaders tidies header cells, names blank ones "Unnamed: i" and
// suffixes repeats with ".1", ".2" so every column name is unique.
func cleanHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		h = CleanHeader(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func concatSources(sources []rawSource) *Table {
	var columns []string
	known := make(map[string]bool)
	for _, s := range sources {
		for _, h := range s.header {
			if !known[h] {
				known[h] = true
				columns = append(columns, h)
			}
		}
	}

	t := NewTable(columns...)
	next := RowID(0)
	for _, s := range sources {
		for line, rec := range s.records {
			if len(rec) > len(s.header) {
				slog.Warn("extra fields dropped", "source", s.name, "row", line+1, "fields", len(rec), "columns", len(s.header))
			}
			row := &Row{ID: next, Source: s.name, Values: make(map[string]Cell, len(columns))}
			for _, c := range columns {
				row.Values[c] = NullCell()
			}
			for i, h := range s.header {
				if i < len(rec) {
					row.Values[h] = StringCell(rec[i])
				}
			}
			_ = t.Append(row)
			next++
		}
	}
	return t
}
