package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeGeocoder struct {
	mu    sync.Mutex
	codes map[string]string
	errs  []error // Returned in order before answering from codes
	calls int
}

func (f *fakeGeocoder) CountryCode(_ context.Context, location string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.codes[location], nil
}

func noSleep(r *RetryingGeocoder) *RetryingGeocoder {
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func TestRetryingGeocoder_RetriesTransientErrors(t *testing.T) {
	geo := &fakeGeocoder{
		codes: map[string]string{"Berlin": "DE"},
		errs:  []error{ErrGeocodeTimeout, ErrGeocodeUnavailable},
	}
	r := noSleep(NewRetryingGeocoder(geo, GeocodeOptions{Attempts: 3}))

	if got := r.Lookup(context.Background(), "Berlin"); got != "DE" {
		t.Errorf("Lookup() = %q, want DE", got)
	}
	if geo.calls != 3 {
		t.Errorf("calls = %d, want 3", geo.calls)
	}
}

func TestRetryingGeocoder_GivesUp(t *testing.T) {
	geo := &fakeGeocoder{errs: []error{ErrGeocodeTimeout, ErrGeocodeTimeout, ErrGeocodeTimeout, ErrGeocodeTimeout}}
	r := noSleep(NewRetryingGeocoder(geo, GeocodeOptions{Attempts: 2}))

	if got := r.Lookup(context.Background(), "Berlin"); got != "" {
		t.Errorf("Lookup() = %q, want empty", got)
	}
	if geo.calls != 2 {
		t.Errorf("calls = %d, want 2", geo.calls)
	}
	if r.CachedLocations() != 0 {
		t.Error("failed lookups must not be cached")
	}
}

func TestRetryingGeocoder_PermanentErrorNotRetried(t *testing.T) {
	geo := &fakeGeocoder{errs: []error{errors.New("bad request")}}
	r := noSleep(NewRetryingGeocoder(geo, GeocodeOptions{Attempts: 3}))

	if got := r.Lookup(context.Background(), "Berlin"); got != "" {
		t.Errorf("Lookup() = %q, want empty", got)
	}
	if geo.calls != 1 {
		t.Errorf("calls = %d, want 1", geo.calls)
	}
}

func TestRetryingGeocoder_Cache(t *testing.T) {
	geo := &fakeGeocoder{codes: map[string]string{"Berlin": "DE"}}
	r := NewRetryingGeocoder(geo, GeocodeOptions{Backoff: -1})

	for i := 0; i < 3; i++ {
		if got := r.Lookup(context.Background(), "Berlin"); got != "DE" {
			t.Fatalf("Lookup() = %q, want DE", got)
		}
	}
	_ = r.Lookup(context.Background(), " berlin ")
	if geo.calls != 1 {
		t.Errorf("calls = %d, want 1", geo.calls)
	}
	if r.CachedLocations() != 1 {
		t.Errorf("CachedLocations() = %d, want 1", r.CachedLocations())
	}
}

func TestRetryingGeocoder_RejectsUnknownCode(t *testing.T) {
	geo := &fakeGeocoder{codes: map[string]string{"Nowhere": "ZZ"}}
	r := NewRetryingGeocoder(geo, GeocodeOptions{Backoff: -1})

	if got := r.Lookup(context.Background(), "Nowhere"); got != "" {
		t.Errorf("Lookup() = %q, want empty", got)
	}
}

func TestNominatimGeocoder_CountryCode(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"address":{"country_code":"de"}}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, "deviceclean-test", time.Second)
	code, err := g.CountryCode(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("CountryCode() error = %v", err)
	}
	if code != "DE" {
		t.Errorf("CountryCode() = %q, want DE", code)
	}
	if gotQuery != "Berlin" || gotAgent != "deviceclean-test" {
		t.Errorf("request q=%q agent=%q", gotQuery, gotAgent)
	}
}

func TestNominatimGeocoder_Statuses(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		wantErr error
		want    string
	}{
		{status: http.StatusOK, body: `[]`},
		{status: http.StatusTooManyRequests, wantErr: ErrGeocodeUnavailable},
		{status: http.StatusServiceUnavailable, wantErr: ErrGeocodeUnavailable},
		{status: http.StatusGatewayTimeout, wantErr: ErrGeocodeTimeout},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			code, err := NewNominatimGeocoder(srv.URL, "test", time.Second).CountryCode(context.Background(), "x")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || code != tt.want {
				t.Errorf("CountryCode() = %q, %v", code, err)
			}
		})
	}
}

func TestNominatimGeocoder_BadRequestIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, "test", time.Second).CountryCode(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrGeocodeTimeout) || errors.Is(err, ErrGeocodeUnavailable) {
		t.Errorf("400 classified as transient: %v", err)
	}
}
