package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Empty(t, cfg.Storage.Path)
	assert.True(t, cfg.Storage.InMemory())
	assert.Equal(t, 5000, cfg.Storage.BusyTimeoutMS)
	assert.Equal(t, DefaultDelimiters, cfg.Analysis.Delimiters)
	assert.False(t, cfg.Analysis.EnableStopWordFilter)
	assert.False(t, cfg.Analysis.EnableLemmatizer)
	assert.Zero(t, cfg.Analysis.MinTokenLength)
	assert.Zero(t, cfg.Analysis.MaxTokenLength)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.Equal(t, 10.0, cfg.Search.NormalizationDivisor)
	assert.False(t, cfg.Search.UseANDLogic)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "min below max is valid",
			mutate: func(c *Config) { c.Analysis.MinTokenLength = 2; c.Analysis.MaxTokenLength = 32 },
		},
		{
			name:   "zero bounds disable filtering",
			mutate: func(c *Config) { c.Analysis.MinTokenLength = 0; c.Analysis.MaxTokenLength = 0 },
		},
		{
			name:    "min above max",
			mutate:  func(c *Config) { c.Analysis.MinTokenLength = 10; c.Analysis.MaxTokenLength = 3 },
			wantErr: verrors.ErrCodeTokenLengthBounds,
		},
		{
			name:    "negative min",
			mutate:  func(c *Config) { c.Analysis.MinTokenLength = -1 },
			wantErr: verrors.ErrCodeInvalidConfig,
		},
		{
			name:    "zero divisor",
			mutate:  func(c *Config) { c.Search.NormalizationDivisor = 0 },
			wantErr: verrors.ErrCodeInvalidConfig,
		},
		{
			name:    "negative divisor",
			mutate:  func(c *Config) { c.Search.NormalizationDivisor = -1.5 },
			wantErr: verrors.ErrCodeInvalidConfig,
		},
		{
			name:    "zero max results",
			mutate:  func(c *Config) { c.Search.MaxResults = 0 },
			wantErr: verrors.ErrCodeInvalidConfig,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: verrors.ErrCodeInvalidConfig,
		},
		{
			name: "file logging without rotation size",
			mutate: func(c *Config) {
				c.Logging.FilePath = "engine.log"
				c.Logging.MaxSizeMB = 0
			},
			wantErr: verrors.ErrCodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, verrors.GetCode(err))
		})
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verbex.yaml")
	yaml := `
storage:
  path: /tmp/verbex-test/index.db
  busy_timeout_ms: 2500
analysis:
  enable_stop_word_filter: true
  enable_lemmatizer: true
  min_token_length: 2
search:
  max_results: 25
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/verbex-test/index.db", cfg.Storage.Path)
	assert.False(t, cfg.Storage.InMemory())
	assert.Equal(t, 2500, cfg.Storage.BusyTimeoutMS)
	assert.True(t, cfg.Analysis.EnableStopWordFilter)
	assert.True(t, cfg.Analysis.EnableLemmatizer)
	assert.Equal(t, 2, cfg.Analysis.MinTokenLength)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	// Untouched fields keep defaults.
	assert.Equal(t, 10.0, cfg.Search.NormalizationDivisor)
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verbex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  min_token_length: 9\n  max_token_length: 3\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, verrors.ErrCodeTokenLengthBounds, verrors.GetCode(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEffectiveDelimiters(t *testing.T) {
	ac := AnalysisConfig{}
	assert.Equal(t, DefaultDelimiters, ac.EffectiveDelimiters())

	ac.Delimiters = " -"
	assert.Equal(t, " -", ac.EffectiveDelimiters())
}
