package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Agent   AgentConfig   `mapstructure:"agent"`
	History HistoryConfig `mapstructure:"history"`
	Reveal  RevealConfig  `mapstructure:"reveal"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// ServerConfig holds connection settings for the remote agent server
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig selects which remote agent the client talks to
type AgentConfig struct {
	ID string `mapstructure:"id"`
}

// HistoryConfig controls transcript pagination
type HistoryConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// RevealConfig tunes the pacing of streamed text. The thresholds and
// multipliers are a UX choice, not a derived invariant, so they live here
// rather than as hard-coded values in the reveal buffer.
type RevealConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	BaseQuantum     int           `mapstructure:"base_quantum"`
	BurstThreshold  int           `mapstructure:"burst_threshold"`
	BurstMultiplier int           `mapstructure:"burst_multiplier"`
	FloodThreshold  int           `mapstructure:"flood_threshold"`
	FloodMultiplier int           `mapstructure:"flood_multiplier"`
}

var globalConfig *Config

// SetDefaults registers all configuration defaults with viper
func SetDefaults() {
	viper.SetDefault("logging.log_file", ".loom/loom.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("server.url", "http://localhost:8283")
	viper.SetDefault("server.timeout", 60*time.Second)

	viper.SetDefault("history.page_size", 50)

	viper.SetDefault("reveal.interval", 15*time.Millisecond)
	viper.SetDefault("reveal.base_quantum", 2)
	viper.SetDefault("reveal.burst_threshold", 200)
	viper.SetDefault("reveal.burst_multiplier", 3)
	viper.SetDefault("reveal.flood_threshold", 500)
	viper.SetDefault("reveal.flood_multiplier", 5)
}

// Load resolves configuration from the environment, the settings file and
// defaults. A .env file supplies LOOM_API_KEY without putting the token in
// the settings file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.APIKey == "" {
		cfg.Server.APIKey = os.Getenv("LOOM_API_KEY")
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get returns the loaded configuration, loading it on first use
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			SetDefaults()
			cfg = &Config{}
			_ = viper.Unmarshal(cfg)
		}
		globalConfig = cfg
	}
	return globalConfig
}

// Reset clears the cached configuration, useful in tests
func Reset() {
	globalConfig = nil
}
