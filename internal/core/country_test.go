package core

import (
	"context"
	"testing"
)

func TestIsAlpha2(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"FR", true},
		{"GB", true},
		{"fr", false},
		{"XX", false},
		{"FRA", false},
		{" FR", false},
	}
	for _, tt := range tests {
		if got := IsAlpha2(tt.input); got != tt.want {
			t.Errorf("IsAlpha2(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSearchCountries(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"France", "FR"},
		{"france", "FR"},
		{"FRA", "FR"},
		{"Germany", "DE"},
		{"uk", "GB"},
		{"United Kingdom", "GB"},
		{"USA", "US"},
		{"United States of America", "US"},
		{"México", "MX"},
		{"Brasil", "BR"},
		{"  Holland ", "NL"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := SearchCountries(tt.query)
			if len(got) == 0 {
				t.Fatalf("SearchCountries(%q) found nothing", tt.query)
			}
			if got[0].Alpha2 != tt.want {
				t.Errorf("SearchCountries(%q)[0] = %s, want %s", tt.query, got[0].Alpha2, tt.want)
			}
		})
	}
}

func TestSearchCountries_NoMatch(t *testing.T) {
	for _, q := range []string{"", "   ", "Atlantis", "-", ".", "'", "--", "?"} {
		if got := SearchCountries(q); len(got) != 0 {
			t.Errorf("SearchCountries(%q) = %v, want none", q, got)
		}
	}
}

func TestSearchCountries_StableOrder(t *testing.T) {
	first := SearchCountries("guinea")
	for i := 0; i < 5; i++ {
		again := SearchCountries("guinea")
		if len(again) != len(first) {
			t.Fatalf("result length changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if first[j].Alpha2 != again[j].Alpha2 {
				t.Fatalf("order changed at %d: %s vs %s", j, first[j].Alpha2, again[j].Alpha2)
			}
		}
	}
}

func TestCountryNormalizer_Resolve(t *testing.T) {
	n := NewCountryNormalizer()
	ctx := context.Background()

	tests := []struct {
		input      string
		wantFound  bool
		wantCode   string
		wantSource LookupSource
	}{
		{"FR", true, "FR", SourceAlpha2},
		{"France", true, "FR", SourceFuzzy},
		{"Atlantis", false, "", SourceNone},
		{"", false, "", SourceNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := n.Resolve(ctx, tt.input)
			if got.Found != tt.wantFound || got.Code != tt.wantCode || got.Source != tt.wantSource {
				t.Errorf("Resolve(%q) = %+v", tt.input, got)
			}
		})
	}
}

func TestCountryNormalizer_GeocoderFallback(t *testing.T) {
	geo := &fakeGeocoder{codes: map[string]string{"Paris, Ile-de-France": "FR"}}
	n := NewCountryNormalizer(WithGeocoder(NewRetryingGeocoder(geo, GeocodeOptions{Backoff: -1})))

	if got := n.Resolve(context.Background(), "Lyon"); got.Found {
		t.Errorf("Resolve(Lyon) = %+v, want not found", got)
	}
	got := n.Resolve(context.Background(), "Paris, Ile-de-France")
	if !got.Found || got.Code != "FR" {
		t.Errorf("Resolve(Paris) = %+v", got)
	}
}

func TestCountries_Table(t *testing.T) {
	all := Countries()
	if len(all) < 240 {
		t.Fatalf("Countries() has %d entries", len(all))
	}
	seen := make(map[string]bool)
	for _, c := range all {
		if len(c.Alpha2) != 2 || len(c.Alpha3) != 3 || c.Name == "" {
			t.Errorf("malformed entry %+v", c)
		}
		if seen[c.Alpha2] {
			t.Errorf("duplicate alpha-2 %s", c.Alpha2)
		}
		seen[c.Alpha2] = true
	}
}
