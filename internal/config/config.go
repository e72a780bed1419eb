// Package config provides unified configuration loading for the term
// extractor. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// Config holds all configuration for the term extractor.
type Config struct {
	Model         ModelConfig         `yaml:"model"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Output        OutputConfig        `yaml:"output"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ModelConfig holds inference service settings.
type ModelConfig struct {
	ID          string  `yaml:"id"`
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
}

// PipelineConfig holds extraction pipeline settings.
type PipelineConfig struct {
	MaxChars     int    `yaml:"max_chars"`
	Template     string `yaml:"template"`
	TemplateFile string `yaml:"template_file"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	IDMode string `yaml:"id_mode"`
}

// ServerConfig holds HTTP front-end settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the defaults the original
// deployment used: Claude via the chat family, a 50k character budget,
// deterministic sampling.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			ID:          "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			MaxTokens:   5000,
			Temperature: 0.0,
			MaxRetries:  0,
		},
		Pipeline: PipelineConfig{
			MaxChars: 50000,
		},
		Output: OutputConfig{
			Dir:    "glossary_files",
			IDMode: string(domain.IDModeSequential),
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     5 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Model.ID == "" {
		return domain.ConfigError("model id must not be empty", nil)
	}
	if c.Model.MaxTokens < 1 {
		return domain.ConfigError(fmt.Sprintf("max_tokens must be positive, got %d", c.Model.MaxTokens), nil)
	}
	if c.Pipeline.MaxChars < 1 {
		return domain.ConfigError(fmt.Sprintf("max_chars must be positive, got %d", c.Pipeline.MaxChars), nil)
	}
	if c.Model.MaxRetries < 0 {
		return domain.ConfigError(fmt.Sprintf("max_retries must not be negative, got %d", c.Model.MaxRetries), nil)
	}
	switch domain.IDMode(c.Output.IDMode) {
	case domain.IDModeSequential, domain.IDModeRandomToken:
	default:
		return domain.ConfigError(fmt.Sprintf("unknown id_mode %q", c.Output.IDMode), nil)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}
	return nil
}

// TemplateBody resolves the prompt template: an inline template wins, then a
// template file, then empty (the builder falls back to its default).
func (c *Config) TemplateBody() (string, error) {
	if c.Pipeline.Template != "" {
		return c.Pipeline.Template, nil
	}
	if c.Pipeline.TemplateFile != "" {
		data, err := os.ReadFile(c.Pipeline.TemplateFile)
		if err != nil {
			return "", domain.ConfigError("read template file", err)
		}
		return string(data), nil
	}
	return "", nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODEL_ID"); v != "" {
		cfg.Model.ID = v
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.Model.Endpoint = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("MAX_SOURCE_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxChars = n
		}
	}
	if v := os.Getenv("PROMPT_TEMPLATE_FILE"); v != "" {
		cfg.Pipeline.TemplateFile = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("ID_MODE"); v != "" {
		cfg.Output.IDMode = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
