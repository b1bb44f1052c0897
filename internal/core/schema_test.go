package core

import (
	"errors"
	"testing"
)

func TestInspectColumns(t *testing.T) {
	r := InspectColumns([]string{ColManufacturer, ColModel, "tag:asset", "Serial Number", ColPrice})

	if len(r.Known) != 3 {
		t.Errorf("Known = %v", r.Known)
	}
	if len(r.Tagged) != 1 || r.Tagged[0] != "tag:asset" {
		t.Errorf("Tagged = %v", r.Tagged)
	}
	if len(r.Unmapped) != 1 || r.Unmapped[0] != "Serial Number" {
		t.Errorf("Unmapped = %v", r.Unmapped)
	}
	wantMissing := []string{ColSerialNumber, ColEntryDate, ColCategory, ColCountry}
	if len(r.MissingRequired) != len(wantMissing) {
		t.Fatalf("MissingRequired = %v", r.MissingRequired)
	}
	for i, c := range wantMissing {
		if r.MissingRequired[i] != c {
			t.Errorf("MissingRequired[%d] = %s, want %s", i, r.MissingRequired[i], c)
		}
	}
	if r.Complete() {
		t.Error("Complete() = true")
	}

	candidates := r.MappingCandidates()
	if len(candidates) != len(wantMissing)+len(r.MissingOptional) {
		t.Fatalf("MappingCandidates() = %v", candidates)
	}
	if candidates[0] != ColSerialNumber {
		t.Errorf("MappingCandidates()[0] = %s, want required columns first", candidates[0])
	}
	for _, c := range candidates {
		if c == ColPrice || c == ColManufacturer {
			t.Errorf("MappingCandidates() offers present column %s", c)
		}
	}
}

func TestRequireColumns(t *testing.T) {
	if err := RequireColumns(NewTable(deviceColumns...)); err != nil {
		t.Errorf("RequireColumns(complete) = %v", err)
	}

	err := RequireColumns(NewTable(ColManufacturer))
	var missing *MissingColumnsError
	if !errors.As(err, &missing) || len(missing.Columns) != 5 {
		t.Fatalf("RequireColumns() = %v", err)
	}
	if !errors.Is(err, ErrSchema) {
		t.Error("MissingColumnsError should match ErrSchema")
	}
}

func TestSuggestMapping(t *testing.T) {
	m := SuggestMapping([]string{"Manufacturer", "Model", "S/N", "Entry Date", "Type", "Country Code", "deviceCategory", "Notes"})

	want := map[string]string{
		"Manufacturer": ColManufacturer,
		"Model":        ColModel,
		"S/N":          ColSerialNumber,
		"Entry Date":   ColEntryDate,
		"Country Code": ColCountry,
	}
	if len(m.Rename) != len(want) {
		t.Errorf("Rename = %v", m.Rename)
	}
	for src, dst := range want {
		if m.Rename[src] != dst {
			t.Errorf("Rename[%q] = %q, want %q", src, m.Rename[src], dst)
		}
	}
	if _, ok := m.Rename["Type"]; ok {
		t.Error("Type must not claim deviceCategory, which is already present")
	}
}

func TestSuggestMapping_FirstClaimWins(t *testing.T) {
	m := SuggestMapping([]string{"brand", "vendor"})
	if m.Rename["brand"] != ColManufacturer {
		t.Errorf("Rename[brand] = %q", m.Rename["brand"])
	}
	if _, ok := m.Rename["vendor"]; ok {
		t.Error("second alias should not claim the same target")
	}
}

func TestApplyMapping(t *testing.T) {
	tbl := NewTable("Serial", "Notes", "Junk", ColModel, "tag:kept")
	_ = tbl.AppendValues(7, "SN1", "spare", "x", "T14", "k")

	out, err := ApplyMapping(tbl, Mapping{
		Rename: map[string]string{"Serial": ColSerialNumber},
		Delete: []string{"Junk"},
	})
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}

	wantCols := []string{ColSerialNumber, "tag:Notes", ColModel, "tag:kept"}
	if len(out.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v, want %v", out.Columns, wantCols)
	}
	for i, c := range wantCols {
		if out.Columns[i] != c {
			t.Errorf("Columns[%d] = %s, want %s", i, out.Columns[i], c)
		}
	}
	if c, _ := out.Get(7, ColSerialNumber); c.Value != "SN1" {
		t.Errorf("serial = %q", c.Value)
	}
	if c, _ := out.Get(7, "tag:Notes"); c.Value != "spare" {
		t.Errorf("tag:Notes = %q", c.Value)
	}
	if !tbl.HasColumn("Serial") {
		t.Error("source table must not change")
	}
}

func TestApplyMapping_TagKnownColumn(t *testing.T) {
	tbl := NewTable(ColHostname)
	_ = tbl.AppendValues(1, "pc-1")

	out, err := ApplyMapping(tbl, Mapping{Tag: []string{ColHostname}})
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasColumn(TagPrefix + ColHostname) {
		t.Errorf("Columns = %v", out.Columns)
	}
}

func TestApplyMapping_DuplicateTargets(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		mapping Mapping
		want    string
	}{
		{
			name:    "two renames to one target",
			columns: []string{"a", "b"},
			mapping: Mapping{Rename: map[string]string{"a": ColModel, "b": ColModel}},
			want:    ColModel,
		},
		{
			name:    "rename onto existing column",
			columns: []string{"a", ColModel},
			mapping: Mapping{Rename: map[string]string{"a": ColModel}},
			want:    ColModel,
		},
		{
			name:    "tag collides with tagged column",
			columns: []string{"notes", "tag:notes"},
			mapping: Mapping{},
			want:    "tag:notes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := NewTable(tt.columns...)
			_, err := ApplyMapping(tbl, tt.mapping)
			var dup *DuplicateTargetError
			if !errors.As(err, &dup) {
				t.Fatalf("ApplyMapping() error = %v, want DuplicateTargetError", err)
			}
			if len(dup.Targets) != 1 || dup.Targets[0] != tt.want {
				t.Errorf("Targets = %v, want [%s]", dup.Targets, tt.want)
			}
		})
	}
}

func TestApplyMapping_DeleteResolvesCollision(t *testing.T) {
	tbl := NewTable("a", ColModel)
	out, err := ApplyMapping(tbl, Mapping{
		Rename: map[string]string{"a": ColModel},
		Delete: []string{ColModel},
	})
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}
	if len(out.Columns) != 1 || out.Columns[0] != ColModel {
		t.Errorf("Columns = %v", out.Columns)
	}
}
