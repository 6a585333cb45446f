// Package config defines engine configuration with YAML loading and
// validation. Defaults match the original Verbex behavior: stop-word
// filtering and lemmatization are opt-in, token length bounds disabled,
// sigmoid normalization divisor 10.0.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

// DefaultDelimiters is the default tokenizer delimiter set: whitespace
// plus sentence and bracket punctuation.
const DefaultDelimiters = " \t\r\n.,;:!?()[]{}\"'"

// Config represents the complete engine configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// StorageConfig configures the SQLite storage engine.
type StorageConfig struct {
	// Path is the database file path. Empty means in-memory storage.
	Path string `yaml:"path" json:"path"`

	// BusyTimeoutMS bounds the wait for the SQLite write lock before a
	// retryable storage-busy error is surfaced. Default: 5000.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`

	// CacheSizeMB is the SQLite page cache size in MB. Default: 64.
	CacheSizeMB int `yaml:"cache_size_mb" json:"cache_size_mb"`
}

// AnalysisConfig configures the tokenizer and normalizer pipeline.
// The same configuration must be used at index time and query time;
// changing it invalidates comparability with already-indexed content.
type AnalysisConfig struct {
	// Delimiters is the tokenizer split set. Empty uses DefaultDelimiters.
	Delimiters string `yaml:"delimiters" json:"delimiters"`

	// EnableStopWordFilter drops common English words before indexing.
	EnableStopWordFilter bool `yaml:"enable_stop_word_filter" json:"enable_stop_word_filter"`

	// ExtraStopWords extends the built-in stop-word set.
	ExtraStopWords []string `yaml:"extra_stop_words" json:"extra_stop_words"`

	// EnableLemmatizer maps tokens to canonical base forms.
	EnableLemmatizer bool `yaml:"enable_lemmatizer" json:"enable_lemmatizer"`

	// MinTokenLength rejects shorter tokens when non-zero.
	MinTokenLength int `yaml:"min_token_length" json:"min_token_length"`

	// MaxTokenLength rejects longer tokens when non-zero.
	MaxTokenLength int `yaml:"max_token_length" json:"max_token_length"`
}

// SearchConfig configures query execution and scoring.
type SearchConfig struct {
	// MaxResults is the default result limit when the caller passes none.
	// Default: 100.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// NormalizationDivisor controls how quickly sigmoid-normalized scores
	// saturate toward 1.0. Must be positive. Default: 10.0.
	NormalizationDivisor float64 `yaml:"normalization_divisor" json:"normalization_divisor"`

	// UseANDLogic requires every query term to match (default: OR).
	UseANDLogic bool `yaml:"use_and_logic" json:"use_and_logic"`

	// TermCacheSize bounds the LRU cache of resolved terms. Default: 1024.
	TermCacheSize int `yaml:"term_cache_size" json:"term_cache_size"`
}

// LoggingConfig configures engine log output. Without a file path the
// engine logs through the process-default slog handler, filtered to
// the configured level.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// FilePath enables rotating JSON file logging when set.
	FilePath string `yaml:"file_path" json:"file_path"`

	// MaxSizeMB is the file size in MB before rotation. Default: 10.
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxFiles is how many rotated files to keep. Default: 5.
	MaxFiles int `yaml:"max_files" json:"max_files"`

	// Stderr mirrors file log records to stderr as well.
	Stderr bool `yaml:"stderr" json:"stderr"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:          "",
			BusyTimeoutMS: 5000,
			CacheSizeMB:   64,
		},
		Analysis: AnalysisConfig{
			Delimiters:           DefaultDelimiters,
			EnableStopWordFilter: false,
			EnableLemmatizer:     false,
			MinTokenLength:       0,
			MaxTokenLength:       0,
		},
		Search: SearchConfig{
			MaxResults:           100,
			NormalizationDivisor: 10.0,
			UseANDLogic:          false,
			TermCacheSize:        1024,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load reads configuration from a YAML file, merges it over defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := New()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks configuration invariants. Violations surface as
// validation errors at setup time, never at indexing time.
func (c *Config) Validate() error {
	if c.Analysis.MinTokenLength < 0 {
		return verrors.ConfigError("analysis.min_token_length must not be negative")
	}
	if c.Analysis.MaxTokenLength < 0 {
		return verrors.ConfigError("analysis.max_token_length must not be negative")
	}
	if c.Analysis.MinTokenLength > 0 && c.Analysis.MaxTokenLength > 0 &&
		c.Analysis.MinTokenLength > c.Analysis.MaxTokenLength {
		return verrors.New(verrors.ErrCodeTokenLengthBounds,
			fmt.Sprintf("analysis.min_token_length (%d) exceeds max_token_length (%d)",
				c.Analysis.MinTokenLength, c.Analysis.MaxTokenLength), nil)
	}
	if c.Search.NormalizationDivisor <= 0 {
		return verrors.ConfigError("search.normalization_divisor must be positive")
	}
	if c.Search.MaxResults <= 0 {
		return verrors.ConfigError("search.max_results must be positive")
	}
	if c.Search.TermCacheSize <= 0 {
		return verrors.ConfigError("search.term_cache_size must be positive")
	}
	if c.Storage.BusyTimeoutMS < 0 {
		return verrors.ConfigError("storage.busy_timeout_ms must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return verrors.ConfigError(fmt.Sprintf("logging.level %q is not recognized", c.Logging.Level))
	}
	if c.Logging.FilePath != "" {
		if c.Logging.MaxSizeMB <= 0 {
			return verrors.ConfigError("logging.max_size_mb must be positive")
		}
		if c.Logging.MaxFiles <= 0 {
			return verrors.ConfigError("logging.max_files must be positive")
		}
	}
	return nil
}

// EffectiveDelimiters returns the tokenizer delimiter set in use.
func (c *AnalysisConfig) EffectiveDelimiters() string {
	if c.Delimiters == "" {
		return DefaultDelimiters
	}
	return c.Delimiters
}

// InMemory reports whether the engine runs without an on-disk database.
func (c *StorageConfig) InMemory() bool {
	return c.Path == ""
}
