package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.PollInterval)
	assert.Equal(t, 3, cfg.Extraction.Retries)
	assert.Equal(t, 200, cfg.PDF.DPI)
	assert.Equal(t, domain.SourceBoth, cfg.PDF.Source)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, time.Hour, cfg.Tasks.Retention)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
pipeline:
  workers: 8
pdf:
  dpi: 300
  source: page
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 300, cfg.PDF.DPI)
	assert.Equal(t, domain.SourcePage, cfg.PDF.Source)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Extraction.Retries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAGELIFT_BASE_URL", "https://api.example.com/v3")
	t.Setenv("PAGELIFT_API_KEY", "secret")
	t.Setenv("PAGELIFT_MODEL", "custom-model")
	t.Setenv("PAGELIFT_WORKERS", "2")
	t.Setenv("PAGELIFT_RETRIES", "5")
	t.Setenv("PAGELIFT_TIMEOUT", "60")
	t.Setenv("PAGELIFT_SOURCE", "embedded")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v3", cfg.Extraction.BaseURL)
	assert.Equal(t, "secret", cfg.Extraction.APIKey)
	assert.Equal(t, "custom-model", cfg.Extraction.Model)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 5, cfg.Extraction.Retries)
	assert.Equal(t, 60*time.Second, cfg.Extraction.ReadTimeout)
	assert.Equal(t, domain.SourceEmbedded, cfg.PDF.Source)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.NoError(t, cfg.RequireExtraction())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"negative retries", func(c *Config) { c.Extraction.Retries = -1 }},
		{"dpi too low", func(c *Config) { c.PDF.DPI = 30 }},
		{"dpi too high", func(c *Config) { c.PDF.DPI = 1200 }},
		{"bad source", func(c *Config) { c.PDF.Source = "everything" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireExtraction(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.RequireExtraction())

	cfg.Extraction.BaseURL = "https://api.example.com/v3"
	assert.Error(t, cfg.RequireExtraction())

	cfg.Extraction.APIKey = "key"
	assert.NoError(t, cfg.RequireExtraction())
}
