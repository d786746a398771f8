// Package config loads and validates the engine's YAML configuration: the
// two required directory keys plus optional, defaulted sections for the
// tokenizer, file filter, logging, and metrics. The commands use only the
// two directory keys; the optional sections are parsed, defaulted and
// validated, but nothing applies their values to the tokenizer, filter,
// logger or metrics. Grounded on the teacher's
// internal/config/config.go, which uses the same gopkg.in/yaml.v3 library
// for a much larger schema.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/filter"
)

// IndexConfig holds the one-shot/initial indexing target.
type IndexConfig struct {
	Directory string `yaml:"directory"`
}

// WatchConfig holds the filesystem-watch target.
type WatchConfig struct {
	Directory string `yaml:"directory"`
}

// TokenizerConfig configures the default word tokenizer.
type TokenizerConfig struct {
	MinTokenLength int  `yaml:"min_token_length"`
	Lowercase      bool `yaml:"lowercase"`
}

// FilterConfig configures the service/watcher file filters.
type FilterConfig struct {
	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes"`
	ServiceExtensions []string `yaml:"service_extensions"`
	WatcherExtensions []string `yaml:"watcher_extensions"`
}

// LoggingConfig configures the engine's structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// MetricsConfig configures the performance-health thresholds.
type MetricsConfig struct {
	SlowIndexThresholdMS  int64 `yaml:"slow_index_threshold_ms"`
	SlowSearchThresholdMS int64 `yaml:"slow_search_threshold_ms"`
}

// Config is the engine's full configuration: two required directories plus
// optional sections that all default to the engine's fixed build-time
// values when absent, so a config file containing only index.directory and
// watch.directory behaves identically to the hardcoded defaults.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Watch     WatchConfig     `yaml:"watch"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Filter    FilterConfig    `yaml:"filter"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Default returns a Config populated with the engine's fixed defaults for
// every optional section; Index.Directory and Watch.Directory are left
// empty and must be supplied by the caller or a loaded file.
func Default() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			MinTokenLength: 2,
			Lowercase:      true,
		},
		Filter: FilterConfig{
			MaxFileSizeBytes:  filter.DefaultMaxFileSize,
			ServiceExtensions: filter.ServiceExtensions,
			WatcherExtensions: filter.WatcherExtensions,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "",
		},
		Metrics: MetricsConfig{
			SlowIndexThresholdMS:  1000,
			SlowSearchThresholdMS: 100,
		},
	}
}

// Load reads and parses the YAML configuration file at path, merging it
// over Default(), and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engerrors.ConfigError("read config file "+path, err).WithSuggestion(
			"create a config file with index.directory and watch.directory")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, engerrors.ConfigError("parse config file "+path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the configuration's required-key and directory rules:
// both directories must be set, be absolute, contain no NUL/CR/LF bytes,
// and refer to an existing, writable directory.
func (c *Config) Validate() error {
	if err := validateDirectory("index.directory", c.Index.Directory); err != nil {
		return err
	}
	if err := validateDirectory("watch.directory", c.Watch.Directory); err != nil {
		return err
	}
	if c.Tokenizer.MinTokenLength < 1 {
		c.Tokenizer.MinTokenLength = 1
	}
	if c.Filter.MaxFileSizeBytes <= 0 {
		c.Filter.MaxFileSizeBytes = filter.DefaultMaxFileSize
	}
	if len(c.Filter.ServiceExtensions) == 0 {
		c.Filter.ServiceExtensions = filter.ServiceExtensions
	}
	if len(c.Filter.WatcherExtensions) == 0 {
		c.Filter.WatcherExtensions = filter.WatcherExtensions
	}
	if !isValidLevel(c.Logging.Level) {
		return engerrors.ConfigError("logging.level must be one of debug/info/warn/error, got "+c.Logging.Level, nil)
	}
	return nil
}

func isValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateDirectory(key, path string) error {
	if path == "" {
		return engerrors.ConfigError(key+" is required", nil)
	}
	if strings.ContainsAny(path, "\x00\r\n") {
		return engerrors.ConfigError(key+" must not contain NUL, CR, or LF bytes", nil)
	}
	if !filepath.IsAbs(path) {
		return engerrors.ConfigError(key+" must be an absolute path, got "+path, nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return engerrors.ConfigError(key+" does not exist: "+path, err)
	}
	if !info.IsDir() {
		return engerrors.ConfigError(key+" is not a directory: "+path, nil)
	}
	if !isWritable(path) {
		return engerrors.ConfigError(key+" is not writable: "+path, nil)
	}
	return nil
}

// isWritable performs a best-effort writability probe: create and remove a
// temp file in dir.
func isWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".writable-check-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
