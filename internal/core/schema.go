package core

// schema.go holds the device inventory schema and column mapping.
//
// Imported files rarely use the canonical header names. InspectColumns
// reports what a table has against the schema, SuggestMapping proposes a
// mapping from known header aliases, and ApplyMapping renames, tags or deletes
// columns. Columns outside the schema are kept under a "tag:" prefix unless the
// mapping deletes them.

import (
	"slices"
	"sort"
	"strings"
)

// TagPrefix marks columns that are carried through cleaning but not validated.
const TagPrefix = "tag:"

// Canonical column names.
const (
	ColManufacturer   = "deviceManufacturer"
	ColModel          = "deviceModel"
	ColSerialNumber   = "deviceSerialnumber"
	ColEntryDate      = "deviceEntryDate"
	ColCategory       = "deviceCategory"
	ColCountry        = "country"
	ColRetirementDate = "deviceRetirementDate"
	ColHostname       = "deviceHostname"
	ColPrice          = "devicePrice"
	ColPurchaseDate   = "devicePurchaseDate"
	ColSite           = "site"
	ColUser           = "user"
	ColOSName         = "operatingSystemName"
	ColOSVersion      = "operatingSystemVersion"
	ColUsage          = "usage"
	ColMaxPower       = "maxPower"
	ColStatus         = "status"
)

// DeviceCategories is the closed set of accepted category tokens.
var DeviceCategories = []string{
	"LAPTOP", "DESKTOP", "NOTEBOOK", "SMARTPHONE", "MONITOR", "TABLET",
	"PRINTER", "SERVER", "SWITCH", "ROUTER", "VIRTUAL_MACHINE", "FIREWALL",
	"WIFI_ACCESS_POINT", "LOAD_BALANCER", "GENERATOR",
	"UNINTERRUPTED_POWER_SUPPLY", "REFRIGERATION_UNIT",
	"AIR_CONDITIONING_CABINET", "OTHER",
}

// DeviceSchema lists every known column. Required columns come first, in
// the order they are validated.
var DeviceSchema = []FieldSpec{
	{Name: ColManufacturer, Type: FieldText, Required: true, Aliases: []string{"manufacturer", "brand", "make", "vendor"}},
	{Name: ColModel, Type: FieldText, Required: true, Aliases: []string{"model", "model name", "modelname"}},
	{Name: ColSerialNumber, Type: FieldText, Required: true, Unique: true, Aliases: []string{"serial", "serial number", "serialnumber", "serial_number", "sn", "s/n"}},
	{Name: ColEntryDate, Type: FieldDate, Required: true, Aliases: []string{"entry date", "entrydate", "entry_date", "inventory date", "date"}},
	{Name: ColCategory, Type: FieldEnum, Required: true, EnumValues: DeviceCategories, Aliases: []string{"category", "type", "device type", "devicetype"}},
	{Name: ColCountry, Type: FieldCountry, Required: true, Aliases: []string{"country code", "countrycode", "location country", "pays"}},
	{Name: ColRetirementDate, Type: FieldDate, Aliases: []string{"retirement date", "retirementdate", "end of life", "eol"}},
	{Name: ColHostname, Type: FieldText, Aliases: []string{"hostname", "host", "host name", "computer name"}},
	{Name: ColPrice, Type: FieldNumeric, Aliases: []string{"price", "cost", "purchase price"}},
	{Name: ColPurchaseDate, Type: FieldDate, Aliases: []string{"purchase date", "purchasedate", "purchase_date", "bought"}},
	{Name: ColSite, Type: FieldText, Aliases: []string{"location", "office", "building"}},
	{Name: ColUser, Type: FieldText, Aliases: []string{"owner", "assigned to", "username", "employee"}},
	{Name: ColOSName, Type: FieldText, Aliases: []string{"os", "operating system", "os name"}},
	{Name: ColOSVersion, Type: FieldText, Aliases: []string{"os version", "osversion", "operating system version"}},
	{Name: ColUsage, Type: FieldText, Aliases: []string{"use"}},
	{Name: ColMaxPower, Type: FieldNumeric, Aliases: []string{"max power", "power", "wattage", "max_power"}},
	{Name: ColStatus, Type: FieldText, Aliases: []string{"state", "device status"}},
}

// RequiredColumns returns the names of the required columns in schema order.
func RequiredColumns() []string {
	var out []string
	for _, f := range DeviceSchema {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// OptionalColumns returns the names of the optional columns in schema order.
func OptionalColumns() []string {
	var out []string
	for _, f := range DeviceSchema {
		if !f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// LookupField returns the FieldSpec for a canonical column name.
func LookupField(name string) (FieldSpec, bool) {
	for _, f := range DeviceSchema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// IsKnownColumn reports whether name is a canonical schema column.
func IsKnownColumn(name string) bool {
	_, ok := LookupField(name)
	return ok
}

// ColumnReport describes a table's columns against the schema.
type ColumnReport struct {
	Known           []string `json:"known" yaml:"known"`                       // Canonical columns present
	MissingRequired []string `json:"missing_required" yaml:"missing_required"` // Required columns absent
	MissingOptional []string `json:"missing_optional" yaml:"missing_optional"` // Optional columns absent
	Tagged          []string `json:"tagged" yaml:"tagged"`                     // Already carrying the tag prefix
	Unmapped        []string `json:"unmapped" yaml:"unmapped"`                 // Everything else
}

// MappingCandidates lists the canonical columns that are absent and could be
// the target of a rename, required columns first.
func (r ColumnReport) MappingCandidates() []string {
	out := make([]string, 0, len(r.MissingRequired)+len(r.MissingOptional))
	out = append(out, r.MissingRequired...)
	return append(out, r.MissingOptional...)
}

// Complete reports whether every required column is present.
func (r ColumnReport) Complete() bool { return len(r.MissingRequired) == 0 }

// InspectColumns classifies columns against the schema.
func InspectColumns(columns []string) ColumnReport {
	var r ColumnReport
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
		switch {
		case IsKnownColumn(c):
			r.Known = append(r.Known, c)
		case strings.HasPrefix(c, TagPrefix):
			r.Tagged = append(r.Tagged, c)
		default:
			r.Unmapped = append(r.Unmapped, c)
		}
	}
	for _, f := range DeviceSchema {
		if present[f.Name] {
			continue
		}
		if f.Required {
			r.MissingRequired = append(r.MissingRequired, f.Name)
		} else {
			r.MissingOptional = append(r.MissingOptional, f.Name)
		}
	}
	return r
}

// RequireColumns returns a *MissingColumnsError if any required column is
// absent from t.
func RequireColumns(t *Table) error {
	r := InspectColumns(t.Columns)
	if r.Complete() {
		return nil
	}
	return &MissingColumnsError{Columns: r.MissingRequired}
}

// Mapping describes how source columns become schema columns.
type Mapping struct {
	Rename map[string]string `json:"rename,omitempty" yaml:"rename,omitempty"` // source -> canonical
	Tag    []string          `json:"tag,omitempty" yaml:"tag,omitempty"`       // keep as tag:<name>
	Delete []string          `json:"delete,omitempty" yaml:"delete,omitempty"` // drop
}

// IsZero reports whether the mapping does nothing explicit.
func (m Mapping) IsZero() bool {
	return len(m.Rename) == 0 && len(m.Tag) == 0 && len(m.Delete) == 0
}

// normalizeHeader folds a header for alias comparison.
func normalizeHeader(s string) string {
	s = strings.ToLower(CleanHeader(s))
	return strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(strings.Join(strings.Fields(s), " "))
}

// SuggestMapping proposes renames for unknown columns whose header matches a
// canonical name or alias case-insensitively. Canonical columns already
// present are never the target of a suggestion, and the first source column
// to claim a target wins.
func SuggestMapping(columns []string) Mapping {
	m := Mapping{Rename: map[string]string{}}
	taken := make(map[string]bool)
	for _, c := range columns {
		if IsKnownColumn(c) {
			taken[c] = true
		}
	}

	for _, c := range columns {
		if IsKnownColumn(c) || strings.HasPrefix(c, TagPrefix) {
			continue
		}
		norm := normalizeHeader(c)
		for _, f := range DeviceSchema {
			if taken[f.Name] {
				continue
			}
			if norm == normalizeHeader(f.Name) || slices.ContainsFunc(f.Aliases, func(a string) bool {
				return normalizeHeader(a) == norm
			}) {
				m.Rename[c] = f.Name
				taken[f.Name] = true
				break
			}
		}
	}
	return m
}

// ApplyMapping returns a new table with the mapping applied. Row identities
// and row order are preserved.
//
// Order of operations: deleted columns are dropped, renames are applied, and
// every remaining column that is neither canonical nor tagged gets the tag
// prefix. A *DuplicateTargetError is returned, and nothing is changed, if two
// columns would end up with the same name.
func ApplyMapping(t *Table, m Mapping) (*Table, error) {
	if err := checkTargets(t.Columns, m); err != nil {
		return nil, err
	}

	deleted := make(map[string]bool, len(m.Delete))
	for _, c := range m.Delete {
		deleted[c] = true
	}
	tagged := make(map[string]bool, len(m.Tag))
	for _, c := range m.Tag {
		tagged[c] = true
	}

	rename := make(map[string]string, len(t.Columns))
	var columns []string
	for _, c := range t.Columns {
		if deleted[c] {
			continue
		}
		target := targetName(c, m, tagged)
		rename[c] = target
		columns = append(columns, target)
	}

	out := NewTable(columns...)
	for _, r := range t.Rows {
		row := &Row{ID: r.ID, Source: r.Source, Values: make(map[string]Cell, len(columns))}
		for src, dst := range rename {
			row.Values[dst] = r.Get(src)
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func targetName(c string, m Mapping, tagged map[string]bool) string {
	if dst, ok := m.Rename[c]; ok {
		return dst
	}
	if tagged[c] && !strings.HasPrefix(c, TagPrefix) {
		return TagPrefix + c
	}
	if IsKnownColumn(c) || strings.HasPrefix(c, TagPrefix) {
		return c
	}
	return TagPrefix + c
}

// checkTargets finds every name that more than one column would map to.
func checkTargets(columns []string, m Mapping) error {
	deleted := make(map[string]bool, len(m.Delete))
	for _, c := range m.Delete {
		deleted[c] = true
	}
	tagged := make(map[string]bool, len(m.Tag))
	for _, c := range m.Tag {
		tagged[c] = true
	}

	counts := make(map[string]int)
	for _, c := range columns {
		if deleted[c] {
			continue
		}
		counts[targetName(c, m, tagged)]++
	}

	var dups []string
	for name, n := range counts {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	// A rename whose value repeats is a duplicate even if a source column is missing.
	seen := make(map[string]int)
	for src, dst := range m.Rename {
		if deleted[src] {
			continue
		}
		seen[dst]++
	}
	for name, n := range seen {
		if n > 1 && counts[name] <= 1 {
			dups = append(dups, name)
		}
	}

	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return &DuplicateTargetError{Targets: dups}
}
