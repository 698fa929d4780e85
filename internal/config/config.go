// Package config provides unified configuration loading for pagelift.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pagelift/pagelift/internal/domain"
)

// Config holds all configuration for pagelift.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	PDF           PDFConfig           `yaml:"pdf"`
	Output        OutputConfig        `yaml:"output"`
	Tasks         TasksConfig         `yaml:"tasks"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// ExtractionConfig holds extraction-service settings.
type ExtractionConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	Retries        int           `yaml:"retries"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
}

// PipelineConfig holds worker-pool settings.
type PipelineConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// PDFConfig holds PDF image-source settings.
type PDFConfig struct {
	DPI    int               `yaml:"dpi"`
	Source domain.SourceMode `yaml:"source"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// TasksConfig holds task-registry settings.
type TasksConfig struct {
	Retention time.Duration `yaml:"retention"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. A .env file in the working directory is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   256 << 20,
		},
		Extraction: ExtractionConfig{
			Model:          "doubao-seed-1-6-vision-250815",
			ConnectTimeout: 10 * time.Second,
			ReadTimeout:    180 * time.Second,
			Retries:        3,
			BackoffBase:    time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:      4,
			PollInterval: 500 * time.Millisecond,
		},
		PDF: PDFConfig{
			DPI:    200,
			Source: domain.SourceBoth,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Tasks: TasksConfig{
			Retention: time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Extraction.Retries < 0 {
		return fmt.Errorf("extraction retries must not be negative, got %d", c.Extraction.Retries)
	}
	if c.PDF.DPI < 72 || c.PDF.DPI > 600 {
		return fmt.Errorf("pdf dpi must be between 72 and 600, got %d", c.PDF.DPI)
	}
	switch c.PDF.Source {
	case domain.SourceBoth, domain.SourceEmbedded, domain.SourcePage:
	default:
		return fmt.Errorf("invalid pdf source mode: %s", c.PDF.Source)
	}
	return nil
}

// RequireExtraction verifies that the extraction service is reachable by
// configuration: endpoint and credentials must be set before any batch runs.
func (c *Config) RequireExtraction() error {
	if c.Extraction.BaseURL == "" {
		return domain.ConfigError("extraction base URL not set (PAGELIFT_BASE_URL)", nil)
	}
	if c.Extraction.APIKey == "" {
		return domain.ConfigError("extraction API key not set (PAGELIFT_API_KEY)", nil)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAGELIFT_BASE_URL"); v != "" {
		cfg.Extraction.BaseURL = v
	}
	if v := os.Getenv("PAGELIFT_API_KEY"); v != "" {
		cfg.Extraction.APIKey = v
	}
	if v := os.Getenv("PAGELIFT_MODEL"); v != "" {
		cfg.Extraction.Model = v
	}
	if v := os.Getenv("PAGELIFT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Extraction.ReadTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("PAGELIFT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Extraction.Retries = n
		}
	}
	if v := os.Getenv("PAGELIFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("PAGELIFT_SOURCE"); v != "" {
		cfg.PDF.Source = domain.SourceMode(v)
	}
	if v := os.Getenv("PAGELIFT_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
