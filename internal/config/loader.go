package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "deviceclean.yaml"

// Source returns a viper instance backed by the config file at path. With
// an empty path it reads DefaultFile from the working directory if present.
func Source(path string) (*viper.Viper, error) {
	v := viper.New()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return v, nil
		}
		path = DefaultFile
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config load: read %s: %w", path, err)
	}
	return v, nil
}

// LoadFile reads configuration from path (see Source), with environment
// variables taking precedence over the file.
func LoadFile(path string) (*Config, error) {
	v, err := Source(path)
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

// LoadFrom populates a Config from v. Keys are the env tag names, so a flag
// bound with v.BindPFlag("LOG_LEVEL", ...) overrides the LOG_LEVEL variable
// and a config file may use log_level.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), v.GetString); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields through lookup.
func loadStruct(v reflect.Value, lookup func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary key, then alternate
		value := lookup(envName)
		if value == "" && envAlt != "" {
			value = lookup(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required setting %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	// Ingest validation
	validEncodings := map[string]bool{"utf-8": true, "utf8": true, "utf-16": true, "utf16": true,
		"latin1": true, "iso-8859-1": true, "windows-1252": true, "cp1252": true}
	if !validEncodings[strings.ToLower(c.Ingest.Encoding)] {
		errs = append(errs, fmt.Sprintf("INGEST_ENCODING (%q) must be one of: utf-8, utf-16, latin1, windows-1252", c.Ingest.Encoding))
	}
	if _, err := ParseDelimiter(c.Ingest.Delimiter); err != nil {
		errs = append(errs, fmt.Sprintf("INGEST_DELIMITER: %v", err))
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}

	// Geocode validation
	if c.Geocode.Enabled {
		if c.Geocode.Endpoint == "" {
			errs = append(errs, "GEOCODE_ENDPOINT is required when geocoding is enabled")
		}
		if c.Geocode.UserAgent == "" {
			errs = append(errs, "GEOCODE_USER_AGENT is required when geocoding is enabled")
		}
	}
	if c.Geocode.Timeout <= 0 {
		errs = append(errs, "GEOCODE_TIMEOUT must be positive")
	}
	if c.Geocode.Attempts <= 0 {
		errs = append(errs, "GEOCODE_ATTEMPTS must be positive")
	}
	if c.Geocode.Backoff < 0 {
		errs = append(errs, "GEOCODE_BACKOFF must be non-negative")
	}
	if c.Geocode.CacheTTL <= 0 {
		errs = append(errs, "GEOCODE_CACHE_TTL must be positive")
	}

	// Export validation
	if _, err := ParseDelimiter(c.Export.Delimiter); err != nil {
		errs = append(errs, fmt.Sprintf("EXPORT_DELIMITER (%q) must be one of: , ; tab or empty", c.Export.Delimiter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Ingest: {Encoding: %q, Delimiter: %q, MaxFileSize: %d}, ",
		c.Ingest.Encoding, c.Ingest.Delimiter, c.Ingest.MaxFileSize))
	b.WriteString(fmt.Sprintf("Geocode: {Enabled: %v, Endpoint: %q, Attempts: %d}, ",
		c.Geocode.Enabled, c.Geocode.Endpoint, c.Geocode.Attempts))
	b.WriteString(fmt.Sprintf("Export: {Delimiter: %q, CanonicalDates: %v}",
		c.Export.Delimiter, c.Export.CanonicalDates))
	b.WriteString("}")
	return b.String()
}
