//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads covid-agent settings from defaults, an optional YAML
// file, a .env file and COVID_AGENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "covid_agent"
	// EnvConfigFile names the environment variable holding the config file path.
	EnvConfigFile = "COVID_AGENT_CONFIG"
	// DefaultEnvFile is the dotenv file read from the working directory.
	DefaultEnvFile = ".env"

	defaultOpenAIModel = "gpt-4o-mini"
)

// Keys.
const (
	KeyModelProvider     = "model.provider"
	KeyModelName         = "model.name"
	KeyModelAPIKeys      = "model.api_keys"
	KeyModelBaseURL      = "model.base_url"
	KeyModelTemperature  = "model.temperature"
	KeyModelMaxTokens    = "model.max_tokens"
	KeyDatasetURL        = "dataset.url"
	KeyDatasetFile       = "dataset.file"
	KeyDatasetTimeout    = "dataset.timeout"
	KeyServerAddr        = "server.addr"
	KeyA2AHost           = "a2a.host"
	KeyLogLevel          = "log.level"
	KeyTelemetryEnabled  = "telemetry.enabled"
	KeyTelemetryEndpoint = "telemetry.endpoint"
	KeyTelemetryProtocol = "telemetry.protocol"
)

var (
	// ErrUnknownProvider is returned for an unsupported model provider.
	ErrUnknownProvider = errors.New("config: unknown model provider")
	// ErrInvalidValue is returned when a setting is out of range.
	ErrInvalidValue = errors.New("config: invalid value")
)

// Config is the resolved configuration.
type Config struct {
	Model     ModelConfig
	Dataset   DatasetConfig
	Server    ServerConfig
	A2A       A2AConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ModelConfig selects and tunes the hosted model.
type ModelConfig struct {
	Provider string
	Name     string
	// APIKeys are tried in order; later keys are used once earlier ones run out of quota.
	APIKeys     []string
	BaseURL     string
	Temperature *float64
	MaxTokens   *int
}

// DatasetConfig locates the OWID CSV. File wins over URL when both are set.
type DatasetConfig struct {
	URL     string
	File    string
	Timeout time.Duration
}

// ServerConfig configures the HTTP query API.
type ServerConfig struct {
	Addr string
}

// A2AConfig configures the A2A server.
type A2AConfig struct {
	Host string
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
	Protocol string
}

type options struct {
	file    string
	envFile string
}

// Option configures Load.
type Option func(*options)

// WithFile reads settings from a YAML file.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnvFile sets the dotenv file. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// Load resolves the configuration. Precedence from lowest to highest is
// defaults, the YAML file, then the environment (including .env).
func Load(opts ...Option) (*Config, error) {
	o := &options{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(o)
	}
	if o.envFile != "" {
		// Existing environment variables are not overridden.
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", o.envFile, err)
		}
	}
	if o.file == "" {
		o.file = os.Getenv(EnvConfigFile)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if o.file != "" {
		v.SetConfigFile(o.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", o.file, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyModelProvider, ProviderGemini)
	v.SetDefault(KeyModelName, "")
	v.SetDefault(KeyModelAPIKeys, "")
	v.SetDefault(KeyModelBaseURL, "")
	v.SetDefault(KeyDatasetURL, "")
	v.SetDefault(KeyDatasetFile, "")
	v.SetDefault(KeyDatasetTimeout, 60*time.Second)
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyA2AHost, "localhost:8888")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTelemetryEnabled, false)
	v.SetDefault(KeyTelemetryEndpoint, "")
	v.SetDefault(KeyTelemetryProtocol, "grpc")
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Model: ModelConfig{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString(KeyModelProvider))),
			Name:     v.GetString(KeyModelName),
			APIKeys:  splitList(v.Get(KeyModelAPIKeys)),
			BaseURL:  v.GetString(KeyModelBaseURL),
		},
		Dataset: DatasetConfig{
			URL:     v.GetString(KeyDatasetURL),
			File:    v.GetString(KeyDatasetFile),
			Timeout: v.GetDuration(KeyDatasetTimeout),
		},
		Server:    ServerConfig{Addr: v.GetString(KeyServerAddr)},
		A2A:       A2AConfig{Host: v.GetString(KeyA2AHost)},
		Log:       LogConfig{Level: v.GetString(KeyLogLevel)},
		Telemetry: TelemetryConfig{
			Enabled:  v.GetBool(KeyTelemetryEnabled),
			Endpoint: v.GetString(KeyTelemetryEndpoint),
			Protocol: v.GetString(KeyTelemetryProtocol),
		},
	}
	if v.IsSet(KeyModelTemperature) {
		t := v.GetFloat64(KeyModelTemperature)
		cfg.Model.Temperature = &t
	}
	if v.IsSet(KeyModelMaxTokens) {
		n := v.GetInt(KeyModelMaxTokens)
		cfg.Model.MaxTokens = &n
	}

	switch cfg.Model.Provider {
	case ProviderGemini:
		if cfg.Model.Name == "" {
			cfg.Model.Name = "gemini-1.5-flash"
		}
		if len(cfg.Model.APIKeys) == 0 {
			cfg.Model.APIKeys = splitList(os.Getenv("GOOGLE_API_KEY"))
		}
	case ProviderOpenAI:
		if cfg.Model.Name == "" {
			cfg.Model.Name = defaultOpenAIModel
		}
		if len(cfg.Model.APIKeys) == 0 {
			cfg.Model.APIKeys = splitList(os.Getenv("OPENAI_API_KEY"))
		}
	}
	return cfg
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Model.Provider)
	}
	if c.Dataset.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidValue, KeyDatasetTimeout)
	}
	if t := c.Model.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("%w: %s must be within [0, 2]", ErrInvalidValue, KeyModelTemperature)
	}
	if n := c.Model.MaxTokens; n != nil && *n <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidValue, KeyModelMaxTokens)
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("%w: %s must be grpc or http", ErrInvalidValue, KeyTelemetryProtocol)
	}
	return nil
}

// splitList accepts a comma separated string or a YAML list.
func splitList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
