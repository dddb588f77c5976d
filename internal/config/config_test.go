package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rewired-gh/solarscope/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	content := `
dataset:
  location: "data/site_a.csv"
  delimiter: ";"
  timeout: 10s

analysis:
  start_date: "2023-01-01"
  end_date: "2023-01-31"
  histogram_bins: 20
  histogram_variables:
    - ghi
    - tamb

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "text"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dataset.Location != "data/site_a.csv" {
		t.Errorf("Unexpected location: %s", cfg.Dataset.Location)
	}
	if cfg.Dataset.Delimiter != ";" {
		t.Errorf("Unexpected delimiter: %q", cfg.Dataset.Delimiter)
	}
	if cfg.Dataset.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Dataset.Timeout)
	}
	if cfg.Analysis.HistogramBins != 20 {
		t.Errorf("Unexpected bins: %d", cfg.Analysis.HistogramBins)
	}
	if len(cfg.Analysis.HistogramVariables) != 2 {
		t.Errorf("Expected 2 histogram variables, got %d", len(cfg.Analysis.HistogramVariables))
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	w, err := cfg.Window()
	if err != nil || w == nil {
		t.Fatalf("Window() = %v, %v", w, err)
	}
	if w.String() != "2023-01-01..2023-01-31" {
		t.Errorf("Unexpected window: %s", w)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "dataset:\n  location: site.csv\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dataset.Delimiter != "," {
		t.Errorf("Expected default delimiter, got %q", cfg.Dataset.Delimiter)
	}
	if cfg.Dataset.TimestampLayout != "2006-01-02 15:04:05" {
		t.Errorf("Unexpected layout: %s", cfg.Dataset.TimestampLayout)
	}
	if cfg.Analysis.HistogramBins != 30 {
		t.Errorf("Expected 30 bins, got %d", cfg.Analysis.HistogramBins)
	}
	if cfg.Analysis.QuantileLow != 0.01 || cfg.Analysis.QuantileHigh != 0.99 {
		t.Errorf("Unexpected quantiles: %v %v", cfg.Analysis.QuantileLow, cfg.Analysis.QuantileHigh)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if w, err := cfg.Window(); w != nil || err != nil {
		t.Errorf("Expected no configured window, got %v, %v", w, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SOLARSCOPE_DATASET_LOCATION", "https://example.com/site.csv")

	cfg, err := Load(writeConfig(t, "dataset:\n  location: site.csv\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dataset.Location != "https://example.com/site.csv" {
		t.Errorf("Expected env override, got %s", cfg.Dataset.Location)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Delimiter:       ",",
			TimestampLayout: "2006-01-02 15:04:05",
			Timeout:         30 * time.Second,
			MaxRetries:      3,
		},
		Analysis: AnalysisConfig{
			HistogramBins: 30,
			QuantileLow:   0.01,
			QuantileHigh:  0.99,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing telegram token when enabled", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "1"
		}, true},
		{"multi-character delimiter", func(c *Config) { c.Dataset.Delimiter = ";;" }, true},
		{"zero retries", func(c *Config) { c.Dataset.MaxRetries = 0 }, true},
		{"unknown histogram variable", func(c *Config) { c.Analysis.HistogramVariables = []string{"ghi", "irradiance"} }, true},
		{"zero bins", func(c *Config) { c.Analysis.HistogramBins = 0 }, true},
		{"inverted quantiles", func(c *Config) { c.Analysis.QuantileLow = 0.9; c.Analysis.QuantileHigh = 0.1 }, true},
		{"only start date", func(c *Config) { c.Analysis.StartDate = "2023-01-01" }, true},
		{"bad date", func(c *Config) { c.Analysis.StartDate = "2023-13-01"; c.Analysis.EndDate = "2023-12-31" }, true},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReversedWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.StartDate = "2023-02-01"
	cfg.Analysis.EndDate = "2023-01-01"

	err := cfg.Validate()
	var rangeErr *models.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Expected RangeError, got %v", err)
	}
}
