package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rewired-gh/solarscope/internal/config"
	"github.com/rewired-gh/solarscope/internal/logger"
	"github.com/rewired-gh/solarscope/internal/notify"
	"github.com/rewired-gh/solarscope/internal/pipeline"
	"github.com/rewired-gh/solarscope/internal/schema"
	"github.com/rewired-gh/solarscope/internal/session"
	"github.com/rewired-gh/solarscope/internal/source"
)

var (
	configPath  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	input       = flag.String("input", "", "Measurement file path or URL (overrides dataset.location)")
	startDate   = flag.String("start", "", "Window start date, YYYY-MM-DD")
	endDate     = flag.String("end", "", "Window end date, YYYY-MM-DD")
	vars        = flag.String("vars", "", "Comma-separated histogram variables")
	interactive = flag.Bool("interactive", false, "Read window/vars/load commands from stdin")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	if cfg.Dataset.Location == "" {
		logger.Fatal("No dataset: set dataset.location or pass -input")
	}

	var notifier *notify.Client
	if cfg.Telegram.Enabled {
		notifier, err = notify.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	opts := pipelineOptions(cfg, *vars != "")

	a := &app{
		cfg:      cfg,
		fetcher:  source.NewClient(cfg.Dataset.Timeout, cfg.Dataset.MaxRetries, cfg.Dataset.RetryDelayBase),
		session:  session.New(opts),
		notifier: notifier,
		out:      os.Stdout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	w, err := cfg.Window()
	if err != nil {
		logger.Fatal("Invalid analysis window: %v", err)
	}
	if err := a.load(ctx, cfg.Dataset.Location, w); err != nil {
		logger.Fatal("Failed to analyse %s: %v", cfg.Dataset.Location, err)
	}

	if *interactive {
		a.repl(ctx, os.Stdin)
	}
}

// applyFlags lets command-line flags override the configuration file.
func applyFlags(cfg *config.Config) {
	if *input != "" {
		cfg.Dataset.Location = *input
	}
	if *startDate != "" {
		cfg.Analysis.StartDate = *startDate
	}
	if *endDate != "" {
		cfg.Analysis.EndDate = *endDate
	}
	if *vars != "" {
		parsed, err := parseVars(*vars)
		if err != nil {
			log.Fatalf("Invalid -vars: %v", err)
		}
		cfg.Analysis.HistogramVariables = parsed
	}
}

// pipelineOptions builds the analysis options. Variables named on the
// command line are explicit: a dataset lacking one of them fails to analyse.
// Configured variables absent from a dataset are skipped.
func pipelineOptions(cfg *config.Config, explicitVars bool) pipeline.Options {
	return pipeline.Options{
		HistogramVars:       cfg.Analysis.HistogramVariables,
		StrictHistogramVars: explicitVars,
		HistogramBins:       cfg.Analysis.HistogramBins,
		QuantileLow:         cfg.Analysis.QuantileLow,
		QuantileHigh:        cfg.Analysis.QuantileHigh,
	}
}

// parseVars splits a comma-separated list of canonical numeric column names.
func parseVars(s string) ([]string, error) {
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !schema.IsNumeric(v) {
			return nil, fmt.Errorf("%q is not a numeric column", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no variables given")
	}
	return out, nil
}
