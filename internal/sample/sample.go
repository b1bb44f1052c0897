// Package sample generates messy device inventories for demos and tests.
//
// Rows are built from a seeded faker so the same options always give the
// same table. A share of the rows carries one injected defect of the kind
// real inventory exports contain.
package sample

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

// Defect names one kind of injected problem.
type Defect string

const (
	DefectDateFormat          Defect = "date_format"           // Readable but not YYYY-MM-DD
	DefectBadDate             Defect = "bad_date"              // Not a date at all
	DefectCategoryCase        Defect = "category_case"         // Valid category in lower case
	DefectUnknownCategory     Defect = "unknown_category"      // Not in the category list
	DefectCountryName         Defect = "country_name"          // Country written out
	DefectMissingCountry      Defect = "missing_country"       // "unknown"
	DefectMissingSerial       Defect = "missing_serial"        // Empty serial number
	DefectDuplicateSerial     Defect = "duplicate_serial"      // Serial of an earlier row
	DefectMissingManufacturer Defect = "missing_manufacturer"  // "Unknown"
	DefectPriceFormat         Defect = "price_format"          // Currency symbol and separators
)

// AllDefects lists every defect kind.
var AllDefects = []Defect{
	DefectDateFormat, DefectBadDate, DefectCategoryCase, DefectUnknownCategory,
	DefectCountryName, DefectMissingCountry, DefectMissingSerial,
	DefectDuplicateSerial, DefectMissingManufacturer, DefectPriceFormat,
}

// Columns is the header of a generated table.
var Columns = []string{
	core.ColManufacturer, core.ColModel, core.ColSerialNumber, core.ColEntryDate,
	core.ColCategory, core.ColCountry, core.ColHostname, core.ColPrice,
	core.ColPurchaseDate, core.ColSite, core.ColUser, core.ColStatus,
}

var (
	manufacturers = []string{"Dell", "HP", "Lenovo", "Apple", "Cisco", "Samsung", "APC", "Fortinet"}
	badCategories = []string{"Phone", "Computer", "Mobile", "Laptop ", "PC", "N/A"}
	statuses      = []string{"active", "in stock", "repair", "retired"}
)

// Options configures Generate.
type Options struct {
	Rows       int
	Seed       int64
	DefectRate float64   // Share of rows with a defect, 0..1
	Defects    []Defect  // Kinds to inject (default AllDefects)
	Now        time.Time // Latest entry date (default 2024-12-31)
}

// Injected records a defect placed in the table.
type Injected struct {
	Row    core.RowID
	Column string
	Defect Defect
}

// Generate builds a table of opts.Rows rows with identities 0..Rows-1.
func Generate(opts Options) (*core.Table, []Injected) {
	f := gofakeit.New(opts.Seed)
	now := opts.Now
	if now.IsZero() {
		now = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	defects := opts.Defects
	if len(defects) == 0 {
		defects = AllDefects
	}
	countries := core.Countries()

	t := core.NewTable(Columns...)
	var injected []Injected
	var serials []string

	for i := 0; i < opts.Rows; i++ {
		id := core.RowID(i)
		country := countries[f.Number(0, len(countries)-1)]
		entry := f.DateRange(now.AddDate(-5, 0, 0), now)
		manufacturer := f.RandomString(manufacturers)

		values := map[string]string{
			core.ColManufacturer: manufacturer,
			core.ColModel:        fmt.Sprintf("%s %s-%d", manufacturer, strings.ToUpper(f.LetterN(2)), f.Number(100, 9999)),
			core.ColSerialNumber: fmt.Sprintf("%s%07d", strings.ToUpper(f.LetterN(3)), i),
			core.ColEntryDate:    entry.Format(core.CanonicalDateLayout),
			core.ColCategory:     f.RandomString(core.DeviceCategories),
			core.ColCountry:      country.Alpha2,
			core.ColHostname:     fmt.Sprintf("%s-%s", strings.ToLower(country.Alpha2), f.Username()),
			core.ColPrice:        fmt.Sprintf("%.2f", f.Price(99, 4999)),
			core.ColPurchaseDate: entry.AddDate(0, 0, -f.Number(0, 60)).Format(core.CanonicalDateLayout),
			core.ColSite:         f.Company(),
			core.ColUser:         f.Username() + "@" + f.DomainName(),
			core.ColStatus:       f.RandomString(statuses),
		}

		if opts.DefectRate > 0 && f.Float64() < opts.DefectRate {
			d := defects[f.Number(0, len(defects)-1)]
			if d == DefectDuplicateSerial && len(serials) == 0 {
				d = DefectMissingSerial
			}
			column := inject(f, d, values, serials, country, entry)
			injected = append(injected, Injected{Row: id, Column: column, Defect: d})
		}

		row := make([]string, len(Columns))
		for j, c := range Columns {
			row[j] = values[c]
		}
		_ = t.AppendValues(id, row...)
		if s := values[core.ColSerialNumber]; s != "" {
			serials = append(serials, s)
		}
	}
	return t, injected
}

func inject(f *gofakeit.Faker, d Defect, values map[string]string, serials []string, country core.Country, entry time.Time) string {
	switch d {
	case DefectDateFormat:
		layouts := []string{"01/02/2006", "Jan 2, 2006", "2006/01/02", "20060102"}
		values[core.ColEntryDate] = entry.Format(f.RandomString(layouts))
		return core.ColEntryDate
	case DefectBadDate:
		values[core.ColEntryDate] = f.RandomString([]string{"2024-13-01", "31/31/2024", "soon", "TBD"})
		return core.ColEntryDate
	case DefectCategoryCase:
		values[core.ColCategory] = strings.ToLower(values[core.ColCategory])
		return core.ColCategory
	case DefectUnknownCategory:
		values[core.ColCategory] = f.RandomString(badCategories)
		return core.ColCategory
	case DefectCountryName:
		values[core.ColCountry] = country.Name
		return core.ColCountry
	case DefectMissingCountry:
		values[core.ColCountry] = "unknown"
		return core.ColCountry
	case DefectMissingSerial:
		values[core.ColSerialNumber] = ""
		return core.ColSerialNumber
	case DefectDuplicateSerial:
		values[core.ColSerialNumber] = serials[f.Number(0, len(serials)-1)]
		return core.ColSerialNumber
	case DefectMissingManufacturer:
		values[core.ColManufacturer] = "Unknown"
		return core.ColManufacturer
	case DefectPriceFormat:
		values[core.ColPrice] = fmt.Sprintf("$%s", withThousands(values[core.ColPrice]))
		return core.ColPrice
	}
	return ""
}

// withThousands inserts comma separators into the integer part of a
// plain decimal string.
func withThousands(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString("." + frac)
	}
	return b.String()
}
