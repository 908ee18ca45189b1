// Package config loads the errdetective YAML configuration.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/errdetective/internal/errors"
)

// Config is the full configuration. Zero sections are filled by Default.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Batch   BatchConfig   `yaml:"batch"`
	Cache   CacheConfig   `yaml:"cache"`
	Catalog CatalogConfig `yaml:"catalog"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	Service ServiceConfig `yaml:"service"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// BatchConfig bounds AnalyzeBatch scheduling.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
	ChunkSize   int `yaml:"chunk_size"`
}

type CacheConfig struct {
	ParseEntries int `yaml:"parse_entries"` // 0 disables the log parse cache
}

// CatalogConfig points at an optional endpoint table overlay.
type CatalogConfig struct {
	OverlayFile string `yaml:"overlay_file,omitempty"`
	Watch       bool   `yaml:"watch"` // reload on change while serving
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// EventsConfig controls publishing of results to JetStream.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
	// Retry is the backoff for failed publishes.
	Retry RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	Backoff    string   `yaml:"backoff"` // fixed|linear|exponential
	Initial    Duration `yaml:"initial"`
	Max        Duration `yaml:"max"`
	MaxRetries int      `yaml:"max_retries"`
}

// ServiceConfig configures the NATS request/reply classification service.
type ServiceConfig struct {
	NATSURL    string   `yaml:"nats_url"`
	Subject    string   `yaml:"subject"`
	QueueGroup string   `yaml:"queue_group"`
	Timeout    Duration `yaml:"timeout"`
}

// Duration accepts Go duration strings such as "250ms" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Batch:   BatchConfig{Concurrency: 8, ChunkSize: 10},
		Cache:   CacheConfig{ParseEntries: 512},
		Metrics: MetricsConfig{ListenAddr: ":9464"},
		Events: EventsConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "errdetective.classified",
			Stream:  "ERRDETECTIVE",
			Retry: RetryConfig{
				Backoff:    "exponential",
				Initial:    Duration(100 * time.Millisecond),
				Max:        Duration(2 * time.Second),
				MaxRetries: 3,
			},
		},
		Service: ServiceConfig{
			NATSURL:    "nats://127.0.0.1:4222",
			Subject:    "errdetective.classify",
			QueueGroup: "errdetective",
			Timeout:    Duration(5 * time.Second),
		},
	}
}

// Load reads path over the defaults. Environment variables from .env files
// are loaded first and ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, errors.ConfigInvalid(".env", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.ConfigInvalid(path, err)
	}
	return Parse(data, path)
}

// LoadOptional is Load, but a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); stdErrors.Is(err, os.ErrNotExist) {
		if err := loadEnvFile(); err != nil {
			return nil, errors.ConfigInvalid(".env", err)
		}
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes YAML data over the defaults, normalizes and validates it.
// source names the data in errors.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, errors.ConfigInvalid(source, err)
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigInvalid(source, err)
	}
	return cfg, nil
}

// Validate checks bounds and required fields of enabled sections.
func (c *Config) Validate() error {
	var errs []error
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency))
	}
	if c.Batch.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("batch.chunk_size must be >= 1, got %d", c.Batch.ChunkSize))
	}
	if c.Cache.ParseEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.parse_entries cannot be negative"))
	}
	if c.Catalog.Watch && c.Catalog.OverlayFile == "" {
		errs = append(errs, fmt.Errorf("catalog.watch requires catalog.overlay_file"))
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("metrics.listen_addr is required when metrics are enabled"))
	}
	if c.Events.Enabled {
		if c.Events.NATSURL == "" {
			errs = append(errs, fmt.Errorf("events.nats_url is required when events are enabled"))
		}
		if c.Events.Subject == "" {
			errs = append(errs, fmt.Errorf("events.subject is required when events are enabled"))
		}
		switch c.Events.Retry.Backoff {
		case "", "fixed", "linear", "exponential":
		default:
			errs = append(errs, fmt.Errorf("events.retry.backoff %q is not fixed, linear or exponential", c.Events.Retry.Backoff))
		}
		if c.Events.Retry.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("events.retry.max_retries cannot be negative"))
		}
	}
	if c.Service.Subject == "" {
		errs = append(errs, fmt.Errorf("service.subject is required"))
	}
	return stdErrors.Join(errs...)
}
