// Package config loads and validates process configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all settings the bot needs at startup.
type Config struct {
	Token             string    `mapstructure:"token"`
	AdminIDs          []int64   `mapstructure:"admin_ids"`
	DBPath            string    `mapstructure:"db_path"`
	StoragePath       string    `mapstructure:"storage_path"`
	MaxVideoDuration  int       `mapstructure:"max_video_duration"`
	MaxFileSize       int64     `mapstructure:"max_file_size"`
	RateLimitRequests int       `mapstructure:"rate_limit_requests"`
	WorkerPoolSize    int       `mapstructure:"worker_pool_size"`
	CleanupAfterDays  int       `mapstructure:"cleanup_after_days"`
	Log               LogConfig `mapstructure:"log"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from an optional config.yaml and environment
// variables prefixed with BOT (e.g. BOT_TOKEN).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("BOT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: defaults plus environment
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("db_path", "/data/bot.db")
	viper.SetDefault("storage_path", "./downloads")
	viper.SetDefault("max_video_duration", 3600)
	viper.SetDefault("max_file_size", int64(50*1024*1024))
	viper.SetDefault("rate_limit_requests", 5)
	viper.SetDefault("worker_pool_size", 3)
	viper.SetDefault("cleanup_after_days", 7)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
}

// Validate checks that the configuration is usable. The process must not
// start without a bot token.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot token is not set")
	}
	if c.MaxVideoDuration <= 0 {
		return fmt.Errorf("max_video_duration must be positive, got %d", c.MaxVideoDuration)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("rate_limit_requests must be positive, got %d", c.RateLimitRequests)
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be positive, got %d", c.WorkerPoolSize)
	}
	return nil
}

// IsAdmin reports whether the given Telegram ID is in the configured
// administrator set.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
