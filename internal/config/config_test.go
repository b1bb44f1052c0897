package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Ingest.Encoding != "utf-8" {
		t.Errorf("Ingest.Encoding = %q, want %q", cfg.Ingest.Encoding, "utf-8")
	}
	if cfg.Ingest.MaxFileSize != 104857600 {
		t.Errorf("Ingest.MaxFileSize = %d, want %d", cfg.Ingest.MaxFileSize, 104857600)
	}
	if cfg.Geocode.Enabled {
		t.Error("Geocode.Enabled should default to false")
	}
	if cfg.Geocode.Attempts != 3 || cfg.Geocode.Backoff != time.Second {
		t.Errorf("Geocode retry = %d x %v, want 3 x 1s", cfg.Geocode.Attempts, cfg.Geocode.Backoff)
	}
	if cfg.Export.Delimiter != "" || !cfg.Export.CanonicalDates {
		t.Errorf("Export = %+v", cfg.Export)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INGEST_DELIMITER", ";")
	t.Setenv("GEOCODE_ENABLED", "true")
	t.Setenv("GEOCODE_TIMEOUT", "1m30s")
	t.Setenv("EXPORT_CANONICAL_DATES", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Ingest.Delimiter != ";" {
		t.Errorf("Ingest.Delimiter = %q", cfg.Ingest.Delimiter)
	}
	if !cfg.Geocode.Enabled {
		t.Error("Geocode.Enabled = false")
	}
	if cfg.Geocode.Timeout != 90*time.Second {
		t.Errorf("Geocode.Timeout = %v, want %v", cfg.Geocode.Timeout, 90*time.Second)
	}
	if cfg.Export.CanonicalDates {
		t.Error("Export.CanonicalDates = true")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"GEOCODE_ATTEMPTS", "many"},
		{"GEOCODE_BACKOFF", "soon"},
		{"GEOCODE_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error should mention %s: %v", tt.env, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deviceclean.yaml")
	data := "log_format: json\ningest_encoding: windows-1252\ngeocode_cache_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("environment should win over the file, got %q", cfg.Logging.Format)
	}
	if cfg.Ingest.Encoding != "windows-1252" {
		t.Errorf("Ingest.Encoding = %q", cfg.Ingest.Encoding)
	}
	if cfg.Geocode.CacheTTL != 2*time.Hour {
		t.Errorf("Geocode.CacheTTL = %v", cfg.Geocode.CacheTTL)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() expected error for a missing file")
	}
}

func TestSource_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	v, err := Source("")
	if err != nil {
		t.Fatalf("Source() without a file error = %v", err)
	}
	if v.ConfigFileUsed() != "" {
		t.Errorf("ConfigFileUsed() = %q, want none", v.ConfigFileUsed())
	}

	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("export_sheet: inventory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Export.Sheet != "inventory" {
		t.Errorf("Export.Sheet = %q, want value from %s", cfg.Export.Sheet, DefaultFile)
	}
}

func TestLoadFrom_BoundFlag(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	if err := flags.Parse([]string{"--log-level", "error"}); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	if err := v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level")); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want the flag value", cfg.Logging.Level)
	}
}

func validConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Ingest:  IngestConfig{Encoding: "utf-8", MaxFileSize: 1},
		Geocode: GeocodeConfig{Timeout: time.Second, Attempts: 3, Backoff: time.Second, CacheTTL: time.Hour},
		Export:  ExportConfig{Delimiter: ","},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "log level", modify: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "LOG_LEVEL"},
		{name: "log format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "encoding", modify: func(c *Config) { c.Ingest.Encoding = "ebcdic" }, wantErr: "INGEST_ENCODING"},
		{name: "ingest delimiter", modify: func(c *Config) { c.Ingest.Delimiter = "|" }, wantErr: "INGEST_DELIMITER"},
		{name: "export delimiter", modify: func(c *Config) { c.Export.Delimiter = "|" }, wantErr: "EXPORT_DELIMITER"},
		{name: "attempts", modify: func(c *Config) { c.Geocode.Attempts = 0 }, wantErr: "GEOCODE_ATTEMPTS"},
		{name: "endpoint when enabled", modify: func(c *Config) {
			c.Geocode.Enabled = true
			c.Geocode.UserAgent = "x"
		}, wantErr: "GEOCODE_ENDPOINT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "loud"
	cfg.Geocode.CacheTTL = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"LOG_LEVEL", "GEOCODE_CACHE_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		input   string
		want    rune
		wantErr bool
	}{
		{"", 0, false},
		{",", ',', false},
		{"semicolon", ';', false},
		{"TAB", '\t', false},
		{"|", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestConfigString(t *testing.T) {
	str := validConfig().String()
	for _, want := range []string{"Logging", "Geocode", "Export"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() should contain %s: %s", want, str)
		}
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir: restoring %s: %v", old, err)
		}
	})
}
