// Package config loads settings for all three processes from an optional
// yaml file plus MARKETPILOT_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Bus      BusConfig
	Optimize OptimizeConfig
	Storage  StorageConfig
	Content  ContentConfig
	Poller   PollerConfig
	Fetch    FetchConfig
}

// ServerConfig holds background HTTP server configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BusConfig holds message bus client configuration
type BusConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// OptimizeConfig holds optimization API configuration
type OptimizeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	PerMinute int    `mapstructure:"per_minute"`
}

// StorageConfig holds persisted state configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ContentConfig holds live page session configuration
type ContentConfig struct {
	StartURL     string        `mapstructure:"start_url"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	MutationPoll time.Duration `mapstructure:"mutation_poll"`
}

// PollerConfig holds price poller configuration
type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// FetchConfig holds plain-HTTP page fetching configuration
type FetchConfig struct {
	RequestDelay time.Duration `mapstructure:"request_delay"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/marketpilot/")

	v.SetEnvPrefix("MARKETPILOT")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8820")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("bus.url", "ws://127.0.0.1:8820/ws")
	v.SetDefault("bus.request_timeout", "10s")

	v.SetDefault("optimize.base_url", "https://api.marketpilot.dev")
	v.SetDefault("optimize.per_minute", 10)

	v.SetDefault("storage.path", "marketpilot-state.json")

	v.SetDefault("content.settle_delay", "1s")
	v.SetDefault("content.mutation_poll", "250ms")

	v.SetDefault("poller.interval", "15m")

	v.SetDefault("fetch.request_delay", "2s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set MARKETPILOT_SERVER_PORT)")
	}

	env := config.Server.Environment
	if env != "development" && env != "production" {
		return fmt.Errorf("environment must be 'development' or 'production', got: %s", env)
	}

	if config.Bus.URL == "" {
		return fmt.Errorf("bus URL is required (set MARKETPILOT_BUS_URL)")
	}

	if config.Bus.RequestTimeout < 0 {
		return fmt.Errorf("bus request timeout must not be negative")
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required (set MARKETPILOT_STORAGE_PATH)")
	}

	return nil
}
