package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"semicolon wins over commas in values", "a;b;c\n\"1,5\";2;3", ';'},
		{"tie prefers comma", "a,b;c", ','},
		{"tie prefers semicolon over tab", "a;b\tc", ';'},
		{"none", "single", ','},
		{"empty", "", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter([]byte(tt.sample)); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.sample, got, tt.want)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    SourceFormat
		wantErr bool
	}{
		{"devices.csv", FormatDelimited, false},
		{"devices.TSV", FormatDelimited, false},
		{"devices.xlsx", FormatXLSX, false},
		{"devices.pdf", "", true},
	}
	for _, tt := range tests {
		got, err := FormatForPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatForPath(%q) error = %v", tt.path, err)
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedExt) {
			t.Errorf("FormatForPath(%q) error = %v, want ErrUnsupportedExt", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIngest_Concatenates(t *testing.T) {
	a := "deviceManufacturer;deviceModel;site\nDell;Latitude;Paris\nHP;;Lyon\n"
	b := "deviceModel,deviceManufacturer,user\nT14,Lenovo,alice\n"

	tbl, err := Ingest(context.Background(), []Source{
		{Name: "a.csv", Reader: strings.NewReader(a)},
		{Name: "b.csv", Reader: strings.NewReader(b)},
	}, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	wantCols := []string{ColManufacturer, ColModel, "site", "user"}
	if strings.Join(tbl.Columns, "|") != strings.Join(wantCols, "|") {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if !equalIDs(tbl.IDs(), []RowID{0, 1, 2}) {
		t.Errorf("IDs = %v", tbl.IDs())
	}

	r, _ := tbl.Row(1)
	if !r.Get(ColModel).Null {
		t.Errorf("empty field should be null, got %+v", r.Get(ColModel))
	}
	if !r.Get("user").Null {
		t.Errorf("missing column should be null, got %+v", r.Get("user"))
	}
	r, _ = tbl.Row(2)
	if r.Source != "b.csv" || r.Get(ColManufacturer).Value != "Lenovo" || !r.Get("site").Null {
		t.Errorf("row 2 = %+v", r)
	}
}

func TestIngest_Headers(t *testing.T) {
	data := "\xEF\xBB\xBFserial,,serial,=\"model\"\n1,2,3,4,5\n"
	tbl, err := Ingest(context.Background(), []Source{{Name: "x.csv", Reader: strings.NewReader(data)}}, IngestOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"serial", "Unnamed: 1", "serial.1", "model"}
	if strings.Join(tbl.Columns, "|") != strings.Join(want, "|") {
		t.Errorf("Columns = %q, want %q", tbl.Columns, want)
	}
	if c, _ := tbl.Get(0, "model"); c.Value != "4" {
		t.Errorf("model = %q", c.Value)
	}
}

func TestIngest_Windows1252(t *testing.T) {
	data := []byte("site;user\nM\xfcnchen;Jos\xe9\n")
	tbl, err := Ingest(context.Background(), []Source{{Name: "w.csv", Reader: bytes.NewReader(data)}},
		IngestOptions{Encoding: EncodingWindows1252})
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := tbl.Get(0, "site"); c.Value != "München" {
		t.Errorf("site = %q", c.Value)
	}
	if c, _ := tbl.Get(0, "user"); c.Value != "José" {
		t.Errorf("user = %q", c.Value)
	}
}

func TestIngest_EmptySource(t *testing.T) {
	_, err := Ingest(context.Background(), []Source{{Name: "empty.csv", Reader: strings.NewReader("")}}, IngestOptions{})
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("error = %v, want ErrEmptySource", err)
	}
}

func TestIngest_Spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"deviceManufacturer", "deviceModel"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"Apple", "MacBook Air"})
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	tbl, err := Ingest(context.Background(), []Source{{Name: "x.xlsx", Reader: &buf, Format: FormatXLSX}}, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d", tbl.Len())
	}
	if c, _ := tbl.Get(0, ColModel); c.Value != "MacBook Air" {
		t.Errorf("model = %q", c.Value)
	}
}

func TestIngestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.tsv")
	if err := os.WriteFile(path, []byte("deviceModel\tsite\nT14\tParis\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var progress []Progress
	tbl, err := IngestFiles(context.Background(), []string{path}, IngestOptions{
		Progress: func(p Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := tbl.Get(0, "site"); c.Value != "Paris" {
		t.Errorf("site = %q", c.Value)
	}
	if len(progress) != 1 || progress[0].Step != "devices.tsv" {
		t.Errorf("progress = %v", progress)
	}

	if _, err := IngestFiles(context.Background(), []string{filepath.Join(dir, "missing.csv")}, IngestOptions{}); err == nil {
		t.Error("expected error for missing file")
	}

	_, err = IngestFiles(context.Background(), []string{path}, IngestOptions{MaxBytes: 8})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}
