// Package config provides centralized configuration management for deviceclean.
// Values come from command line flags, environment variables and an optional
// config file, with sensible defaults, and are validated before a run starts.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// Every setting can be configured via an environment variable of the tag name.
type Config struct {
	Logging LoggingConfig
	Ingest  IngestConfig
	Geocode GeocodeConfig
	Export  ExportConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// IngestConfig holds source reading settings.
type IngestConfig struct {
	// Encoding of delimited sources: utf-8, utf-16, latin1, windows-1252 (default: utf-8)
	Encoding string `env:"INGEST_ENCODING" default:"utf-8"`

	// Delimiter forces a delimiter instead of sniffing: "," ";" "tab" or empty
	Delimiter string `env:"INGEST_DELIMITER"`

	// Sheet is the spreadsheet sheet to read (default: first sheet)
	Sheet string `env:"INGEST_SHEET"`

	// MaxFileSize is the largest source accepted, in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`
}

// GeocodeConfig holds the online country lookup settings.
type GeocodeConfig struct {
	// Enabled turns on the geocoding fallback (default: false)
	Enabled bool `env:"GEOCODE_ENABLED" default:"false"`

	// Endpoint is the Nominatim search URL
	Endpoint string `env:"GEOCODE_ENDPOINT" default:"https://nominatim.openstreetmap.org/search"`

	// UserAgent identifies the tool to the geocoding service
	UserAgent string `env:"GEOCODE_USER_AGENT" default:"deviceclean"`

	// Timeout is the per-request HTTP timeout (default: 10s)
	Timeout time.Duration `env:"GEOCODE_TIMEOUT" default:"10s"`

	// Attempts is the number of tries per location (default: 3)
	Attempts int `env:"GEOCODE_ATTEMPTS" default:"3"`

	// Backoff is the pause between tries (default: 1s)
	Backoff time.Duration `env:"GEOCODE_BACKOFF" default:"1s"`

	// CacheTTL is how long answers are kept (default: 24h)
	CacheTTL time.Duration `env:"GEOCODE_CACHE_TTL" default:"24h"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	// Delimiter of delimited output: "," ";" "tab" or empty for
	// the extension's default (tab for .tsv, "," otherwise)
	Delimiter string `env:"EXPORT_DELIMITER"`

	// CanonicalDates rewrites readable dates as YYYY-MM-DD (default: true)
	CanonicalDates bool `env:"EXPORT_CANONICAL_DATES" default:"true"`

	// RowIDColumn adds a leading column with each row's identity when set
	RowIDColumn string `env:"EXPORT_ROW_ID_COLUMN"`

	// Sheet is the sheet name of spreadsheet output (default: devices)
	Sheet string `env:"EXPORT_SHEET" default:"devices"`
}

// ParseDelimiter converts a configured delimiter name to a rune. The empty
// string yields 0, meaning "detect".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "tab", "\t", `\t`:
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
}
