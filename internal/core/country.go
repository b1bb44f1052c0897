package core

// country.go normalizes free-form country text to ISO 3166-1 alpha-2 codes.
//
// Resolution order:
//  1. An exact uppercase alpha-2 code needs no change.
//  2. The offline fuzzy search over the ISO table.
//  3. The optional geocoder, for city or address text the table cannot match.

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Country is one ISO 3166-1 entry.
type Country struct {
	Alpha2       string
	Alpha3       string
	Name         string
	OfficialName string
	CommonName   string
}

// LookupSource tells which stage produced a country code.
type LookupSource string

const (
	SourceNone    LookupSource = ""
	SourceAlpha2  LookupSource = "alpha2"
	SourceFuzzy   LookupSource = "fuzzy"
	SourceGeocode LookupSource = "geocode"
)

// LookupResult is the outcome of resolving a country string.
type LookupResult struct {
	Found  bool
	Code   string
	Source LookupSource
}

// countryAliases holds exact spellings the ISO names do not cover.
var countryAliases = map[string]string{
	"uk":              "GB",
	"great britain":   "GB",
	"england":         "GB",
	"scotland":        "GB",
	"wales":           "GB",
	"holland":         "NL",
	"the netherlands": "NL",
	"america":         "US",
	"u.s.a.":          "US",
	"u.s.":            "US",
	"deutschland":     "DE",
	"espana":          "ES",
	"italia":          "IT",
	"schweiz":         "CH",
	"suisse":          "CH",
	"osterreich":      "AT",
	"belgique":        "BE",
	"brasil":          "BR",
}

var alpha2Index = func() map[string]Country {
	m := make(map[string]Country, len(isoCountries))
	for _, c := range isoCountries {
		m[c.Alpha2] = c
	}
	return m
}()

// Countries returns a copy of the ISO table.
func Countries() []Country {
	out := make([]Country, len(isoCountries))
	copy(out, isoCountries)
	return out
}

// IsAlpha2 reports whether v is exactly an uppercase ISO alpha-2 code.
func IsAlpha2(v string) bool {
	_, ok := alpha2Index[v]
	return ok
}

// CountryByAlpha2 returns the entry for an uppercase alpha-2 code.
func CountryByAlpha2(code string) (Country, bool) {
	c, ok := alpha2Index[code]
	return c, ok
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldCountry lowercases s and strips diacritics.
func foldCountry(s string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// SearchCountries ranks countries matching query. An exact match on any
// code or name scores 50; a partial match on a name scores more the earlier
// the query appears in it. Ties are broken by alpha-2 code so the order is
// stable.
func SearchCountries(query string) []Country {
	q := foldCountry(query)
	if !strings.ContainsFunc(q, unicode.IsLetter) {
		return nil
	}

	scores := make(map[string]int)
	if code, ok := countryAliases[q]; ok {
		scores[code] += 50
	}
	for _, c := range isoCountries {
		for _, v := range []string{c.Alpha2, c.Alpha3, c.Name, c.OfficialName, c.CommonName} {
			if v != "" && foldCountry(v) == q {
				scores[c.Alpha2] += 50
				break
			}
		}
	}
	for _, c := range isoCountries {
		for _, v := range []string{c.Name, c.OfficialName, c.CommonName} {
			if v == "" {
				continue
			}
			if i := strings.Index(foldCountry(v), q); i >= 0 {
				scores[c.Alpha2] += max(5, 30-2*i)
				break
			}
		}
	}

	codes := make([]string, 0, len(scores))
	for code := range scores {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if scores[codes[i]] != scores[codes[j]] {
			return scores[codes[i]] > scores[codes[j]]
		}
		return codes[i] < codes[j]
	})

	out := make([]Country, len(codes))
	for i, code := range codes {
		out[i] = alpha2Index[code]
	}
	return out
}

// CountryNormalizer resolves country strings to alpha-2 codes.
type CountryNormalizer struct {
	geocoder *RetryingGeocoder
}

// CountryOption configures a CountryNormalizer.
type CountryOption func(*CountryNormalizer)

// WithGeocoder enables the geocoding fallback.
func WithGeocoder(g *RetryingGeocoder) CountryOption {
	return func(n *CountryNormalizer) { n.geocoder = g }
}

// NewCountryNormalizer creates a normalizer. Without options it works
// offline.
func NewCountryNormalizer(opts ...CountryOption) *CountryNormalizer {
	n := &CountryNormalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve maps v to an alpha-2 code. A result with Found false means v could
// not be resolved; it is never an error.
func (n *CountryNormalizer) Resolve(ctx context.Context, v string) LookupResult {
	if IsAlpha2(v) {
		return LookupResult{Found: true, Code: v, Source: SourceAlpha2}
	}
	if strings.TrimSpace(v) == "" {
		return LookupResult{}
	}
	if matches := SearchCountries(v); len(matches) > 0 {
		return LookupResult{Found: true, Code: matches[0].Alpha2, Source: SourceFuzzy}
	}
	if n != nil && n.geocoder != nil {
		if code := n.geocoder.Lookup(ctx, v); code != "" {
			return LookupResult{Found: true, Code: code, Source: SourceGeocode}
		}
		slog.Debug("country not resolved by geocoder", "value", v)
	}
	return LookupResult{}
}
