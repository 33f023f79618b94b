// Package config handles loading and validating the crosstalk configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the crosstalk pipeline.
type Config struct {
	Backend        string         `mapstructure:"backend"` // "ollama" or "openai"
	Ollama         OllamaConfig   `mapstructure:"ollama"`
	OpenAI         OpenAIConfig   `mapstructure:"openai"`
	BackendTimeout time.Duration  `mapstructure:"backend_timeout"`
	Annotate       AnnotateConfig `mapstructure:"annotate"`
	Batch          BatchConfig    `mapstructure:"batch"`
	Server         ServerConfig   `mapstructure:"server"`
	Logging        LoggingConfig  `mapstructure:"logging"`
}

// OllamaConfig holds self-hosted Ollama settings. An empty host defers to
// the OLLAMA_HOST environment variable, which batch workers use to target
// their own server instance.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"` // Ollama model name (e.g., "llama3:8b")
}

// OpenAIConfig holds OpenAI-compatible API settings.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// AnnotateConfig tunes the annotation pass.
type AnnotateConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	Window           int `mapstructure:"window"` // context window shape: 2 or 4
	SampleUtterances int `mapstructure:"sample_utterances"`
}

// BatchConfig holds the batch-mode folder settings.
type BatchConfig struct {
	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`
}

// ServerConfig holds the serve-mode settings.
type ServerConfig struct {
	HTTPPort int        `mapstructure:"http_port"`
	GRPC     GRPCConfig `mapstructure:"grpc"`
}

// GRPCConfig configures the optional gRPC health listener.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./crosstalk.yaml, ./configs/crosstalk.yaml, /etc/crosstalk/crosstalk.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("backend", "ollama")
	v.SetDefault("ollama.host", "")
	v.SetDefault("ollama.model", "llama3:8b")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("backend_timeout", "120s")
	v.SetDefault("annotate.max_attempts", 3)
	v.SetDefault("annotate.window", 4)
	v.SetDefault("annotate.sample_utterances", 6)
	v.SetDefault("batch.input_dir", "transcripts")
	v.SetDefault("batch.output_dir", "transcripts_annotated")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc.enabled", false)
	v.SetDefault("server.grpc.port", 50051)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("crosstalk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/crosstalk")
	}

	// Environment variables: CROSSTALK_BACKEND, CROSSTALK_OLLAMA_HOST, etc.
	v.SetEnvPrefix("CROSSTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.OpenAI.APIKey = resolveEnvRef(cfg.OpenAI.APIKey)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Annotate.Window != 2 && c.Annotate.Window != 4 {
		return fmt.Errorf("annotate.window must be 2 or 4, got %d", c.Annotate.Window)
	}
	if c.Annotate.MaxAttempts < 1 {
		return fmt.Errorf("annotate.max_attempts must be at least 1, got %d", c.Annotate.MaxAttempts)
	}
	if c.Annotate.SampleUtterances < 0 {
		return fmt.Errorf("annotate.sample_utterances must not be negative, got %d", c.Annotate.SampleUtterances)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
