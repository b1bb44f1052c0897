package core

// geocode.go is the online fallback for country text the ISO table cannot
// match, such as city names or full addresses.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Transient geocoder failures. Only these are retried.
var (
	ErrGeocodeTimeout     = errors.New("geocoder timed out")
	ErrGeocodeUnavailable = errors.New("geocoder unavailable")
)

// Geocoder resolves a free-form location to an ISO alpha-2 country code.
// An empty code with a nil error means the location is unknown.
type Geocoder interface {
	CountryCode(ctx context.Context, location string) (string, error)
}

// NominatimGeocoder queries an OpenStreetMap Nominatim search endpoint.
type NominatimGeocoder struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

// NewNominatimGeocoder creates a geocoder for endpoint, e.g.
// https://nominatim.openstreetmap.org/search.
func NewNominatimGeocoder(endpoint, userAgent string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type nominatimPlace struct {
	Address struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// CountryCode implements Geocoder.
func (g *NominatimGeocoder) CountryCode(ctx context.Context, location string) (string, error) {
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("geocoder endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: status %d", ErrGeocodeUnavailable, resp.StatusCode)
	case http.StatusGatewayTimeout:
		return "", fmt.Errorf("%w: status %d", ErrGeocodeTimeout, resp.StatusCode)
	default:
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return "", fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(places) == 0 {
		return "", nil
	}
	return strings.ToUpper(places[0].Address.CountryCode), nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGeocodeTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrGeocodeTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrGeocodeUnavailable, err)
}

// GeocodeOptions tunes RetryingGeocoder.
type GeocodeOptions struct {
	Attempts int           // Total tries per lookup (default 3)
	Backoff  time.Duration // Pause between tries (default 1s)
	CacheTTL time.Duration // How long answers are kept (default 24h)
}

// RetryingGeocoder adds retries and caching to a Geocoder. Its Lookup never
// fails; an unresolvable location yields "".
type RetryingGeocoder struct {
	geocoder Geocoder
	attempts int
	backoff  time.Duration
	cache    *gocache.Cache
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryingGeocoder wraps g.
func NewRetryingGeocoder(g Geocoder, opts GeocodeOptions) *RetryingGeocoder {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	} else if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	return &RetryingGeocoder{
		geocoder: g,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		cache:    gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Lookup returns the alpha-2 code for location, or "" when it cannot be
// resolved. Timeouts and unavailability are retried; any other failure
// gives up at once.
func (r *RetryingGeocoder) Lookup(ctx context.Context, location string) string {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return ""
	}
	if v, ok := r.cache.Get(key); ok {
		return v.(string)
	}

	logger := slog.Default().With("location", location)
	for attempt := 1; attempt <= r.attempts; attempt++ {
		code, err := r.geocoder.CountryCode(ctx, location)
		if err == nil {
			if code != "" && !IsAlpha2(code) {
				logger.Warn("geocoder returned unknown country code", "code", code)
				code = ""
			}
			r.cache.Set(key, code, gocache.DefaultExpiration)
			return code
		}
		if !errors.Is(err, ErrGeocodeTimeout) && !errors.Is(err, ErrGeocodeUnavailable) {
			logger.Debug("geocoder lookup failed", "error", err)
			return ""
		}
		logger.Debug("geocoder lookup retry", "attempt", attempt, "error", err)
		if attempt == r.attempts {
			break
		}
		if err := r.sleep(ctx, r.backoff); err != nil {
			return ""
		}
	}
	logger.Warn("geocoder gave up", "attempts", r.attempts)
	return ""
}

// CachedLocations returns how many lookups are cached.
func (r *RetryingGeocoder) CachedLocations() int {
	return r.cache.ItemCount()
}
