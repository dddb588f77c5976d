// Package config loads the application configuration from a YAML file with
// SOLARSCOPE_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes where measurements come from and how they are parsed
type DatasetConfig struct {
	Location        string        `mapstructure:"location"`
	Sheet           string        `mapstructure:"sheet"`
	Delimiter       string        `mapstructure:"delimiter"`
	TimestampLayout string        `mapstructure:"timestamp_layout"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelayBase  time.Duration `mapstructure:"retry_delay_base"`
}

// AnalysisConfig holds the initial window and the supplemental statistics settings
type AnalysisConfig struct {
	StartDate          string   `mapstructure:"start_date"`
	EndDate            string   `mapstructure:"end_date"`
	HistogramBins      int      `mapstructure:"histogram_bins"`
	HistogramVariables []string `mapstructure:"histogram_variables"`
	QuantileLow        float64  `mapstructure:"quantile_low"`
	QuantileHigh       float64  `mapstructure:"quantile_high"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// SOLARSCOPE_DATASET_LOCATION overrides dataset.location
	v.SetEnvPrefix("SOLARSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.location", "")
	v.SetDefault("dataset.sheet", "")
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("dataset.timestamp_layout", "2006-01-02 15:04:05")
	v.SetDefault("dataset.timeout", "30s")
	v.SetDefault("dataset.max_retries", 3)
	v.SetDefault("dataset.retry_delay_base", "1s")

	// Analysis defaults
	v.SetDefault("analysis.start_date", "")
	v.SetDefault("analysis.end_date", "")
	v.SetDefault("analysis.histogram_bins", 30)
	v.SetDefault("analysis.histogram_variables", []string{"ghi", "dhi"})
	v.SetDefault("analysis.quantile_low", 0.01)
	v.SetDefault("analysis.quantile_high", 0.99)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	if len([]rune(c.Dataset.Delimiter)) != 1 {
		return fmt.Errorf("dataset.delimiter must be a single character")
	}
	if c.Dataset.TimestampLayout == "" {
		return fmt.Errorf("dataset.timestamp_layout is required")
	}
	if c.Dataset.Timeout < time.Second {
		return fmt.Errorf("dataset.timeout must be at least 1 second")
	}
	if c.Dataset.MaxRetries < 1 {
		return fmt.Errorf("dataset.max_retries must be at least 1")
	}

	// Validate Analysis config
	if _, err := c.Window(); err != nil {
		return err
	}
	for _, v := range c.Analysis.HistogramVariables {
		if !schema.IsNumeric(v) {
			return fmt.Errorf("analysis.histogram_variables: %q is not a numeric column", v)
		}
	}
	if c.Analysis.HistogramBins < 1 {
		return fmt.Errorf("analysis.histogram_bins must be at least 1")
	}
	if c.Analysis.QuantileLow < 0 || c.Analysis.QuantileHigh > 1 || c.Analysis.QuantileLow >= c.Analysis.QuantileHigh {
		return fmt.Errorf("analysis.quantile_low and analysis.quantile_high must satisfy 0 <= low < high <= 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Window returns the configured initial window, or nil when neither date is
// set. Setting only one of the two dates is an error, as is a start date after
// the end date (wrapping *models.RangeError).
func (c *Config) Window() (*models.DateWindow, error) {
	start, end := c.Analysis.StartDate, c.Analysis.EndDate
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("analysis.start_date and analysis.end_date must be set together")
	}
	w, err := models.ParseDateWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("analysis window: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("analysis window: %w", err)
	}
	return &w, nil
}
