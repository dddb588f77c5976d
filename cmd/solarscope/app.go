package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rewired-gh/solarscope/internal/config"
	"github.com/rewired-gh/solarscope/internal/dataset"
	"github.com/rewired-gh/solarscope/internal/logger"
	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/notify"
	"github.com/rewired-gh/solarscope/internal/pipeline"
	"github.com/rewired-gh/solarscope/internal/report"
	"github.com/rewired-gh/solarscope/internal/session"
	"github.com/rewired-gh/solarscope/internal/source"
)

type fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// app ties the configured source, session and outputs together.
type app struct {
	cfg      *config.Config
	fetcher  fetcher
	session  *session.Session
	notifier *notify.Client
	out      io.Writer
}

// load reads location into the session and shows the result.
func (a *app) load(ctx context.Context, location string, w *models.DateWindow) error {
	raw, err := a.read(ctx, location)
	if err != nil {
		return err
	}

	table, err := pipeline.Prepare(raw, a.cfg.Dataset.TimestampLayout)
	if err != nil {
		return err
	}

	analysis, err := a.session.Load(table, location, w)
	if err != nil {
		return err
	}
	return a.publish(analysis)
}

func (a *app) read(ctx context.Context, location string) (*dataset.RawTable, error) {
	data, err := a.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	if source.Detect(location) == source.Workbook {
		return dataset.ReadWorkbook(bytes.NewReader(data), a.cfg.Dataset.Sheet)
	}

	opts := dataset.DefaultOptions()
	if d := []rune(a.cfg.Dataset.Delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	}
	return dataset.Read(bytes.NewReader(data), opts)
}

// publish renders the analysis and forwards a digest when notifications are on.
func (a *app) publish(analysis *models.Analysis) error {
	src, _ := a.session.Source()
	if err := report.Render(a.out, analysis, src); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if a.notifier != nil {
		if err := a.notifier.Send(analysis, src); err != nil {
			logger.Warn("Failed to send Telegram digest: %v", err)
		}
	}
	return nil
}

// repl executes one command per input line until quit, EOF or cancellation.
// Lines are read on a separate goroutine so cancellation is noticed while
// waiting for input.
func (a *app) repl(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	done := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		done <- scanner.Err()
	}()

	fmt.Fprint(a.out, "> ")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return
		case err := <-done:
			if err != nil {
				logger.Error("Failed to read commands: %v", err)
			}
			return
		case line := <-lines:
			quit, err := a.exec(ctx, line)
			if err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
			}
			if quit {
				return
			}
			fmt.Fprint(a.out, "> ")
		}
	}
}

const usage = `commands:
  window <start> <end>   re-analyse YYYY-MM-DD..YYYY-MM-DD
  vars <a,b,...>         choose histogram variables
  load <path|url>        replace the dataset
  show                   print the current analysis
  quit`

// exec runs a single command. A failed command leaves the current analysis
// in place.
func (a *app) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true, nil

	case "help":
		fmt.Fprintln(a.out, usage)
		return false, nil

	case "show":
		current := a.session.Current()
		if current == nil {
			return false, session.ErrNoData
		}
		return false, a.publish(current)

	case "window":
		if len(fields) != 3 {
			return false, errors.New("usage: window <start> <end>")
		}
		w, err := models.ParseDateWindow(fields[1], fields[2])
		if err != nil {
			return false, err
		}
		analysis, err := a.session.SetWindow(w)
		if err != nil {
			return false, err
		}
		return false, a.publish(analysis)

	case "vars":
		if len(fields) != 2 {
			return false, errors.New("usage: vars <a,b,...>")
		}
		selected, err := parseVars(fields[1])
		if err != nil {
			return false, err
		}
		analysis, err := a.session.SetHistogramVars(selected)
		if err != nil {
			return false, err
		}
		return false, a.publish(analysis)

	case "load":
		if len(fields) != 2 {
			return false, errors.New("usage: load <path|url>")
		}
		return false, a.load(ctx, fields[1], nil)

	default:
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}
