// Package session holds the canonical measurement table of one analysis
// session together with the most recent valid analysis.
//
// A session owns exactly one table at a time. Load replaces it wholesale and
// SetWindow recomputes the full pipeline from it; derived results are never
// patched. A rejected window leaves the previous analysis in place so the
// caller can keep displaying it. Reads may happen concurrently with a
// recomputation, but each recomputation runs to completion under the lock.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/solarscope/internal/logger"
	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/pipeline"
	"github.com/rewired-gh/solarscope/internal/window"
)

// ErrNoData is returned when an operation needs a loaded table.
var ErrNoData = errors.New("no dataset loaded")

// Session is the per-user analysis state
type Session struct {
	id       string
	table    *models.Table
	source   string
	loadedAt time.Time
	opts     pipeline.Options
	current  *models.Analysis
	mu       sync.RWMutex
}

// New creates an empty session
func New(opts pipeline.Options) *Session {
	return &Session{
		id:   uuid.New().String(),
		opts: opts,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Load replaces the canonical table and analyses it over w, or over the full
// span of the table when w is nil. On failure the previous table and analysis
// are kept.
func (s *Session) Load(table *models.Table, source string, w *models.DateWindow) (*models.Analysis, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}

	win, err := s.resolveWindow(table, w)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	analysis, err := pipeline.Analyze(table, win, s.opts)
	if err != nil {
		return nil, err
	}

	s.table = table
	s.source = source
	s.loadedAt = time.Now()
	s.current = analysis

	logger.Info("session %s: loaded %d rows from %s, window %s", s.id, table.Len(), source, win)
	return analysis, nil
}

func (s *Session) resolveWindow(table *models.Table, w *models.DateWindow) (models.DateWindow, error) {
	if w != nil {
		return *w, nil
	}
	full, ok := window.Full(table)
	if !ok {
		// nothing to span; analyse today's empty window
		today := time.Now()
		return models.NewDateWindow(today, today), nil
	}
	return full, nil
}

// SetWindow recomputes the analysis for w. A *models.RangeError is returned
// for an invalid window before anything is recomputed, and the previous
// analysis remains current.
func (s *Session) SetWindow(w models.DateWindow) (*models.Analysis, error) {
	if err := w.Validate(); err != nil {
		logger.Warn("session %s: rejected window: %v", s.id, err)
		return nil, err
	}
	return s.recompute(&w)
}

// SetHistogramVars changes the histogram selection and recomputes the
// current window. The selection is explicit, so a variable absent from the
// table fails with *models.SchemaError and the previous selection is kept.
func (s *Session) SetHistogramVars(vars []string) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.opts
	s.opts.HistogramVars = append([]string(nil), vars...)
	s.opts.StrictHistogramVars = true

	a, err := s.recomputeLocked(nil)
	if err != nil {
		s.opts = prev
	}
	return a, err
}

func (s *Session) recompute(w *models.DateWindow) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputeLocked(w)
}

// recomputeLocked runs the pipeline on the canonical table. A nil w reuses
// the current window. s.mu must be held.
func (s *Session) recomputeLocked(w *models.DateWindow) (*models.Analysis, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	win := s.current.Window
	if w != nil {
		win = *w
	}

	analysis, err := pipeline.Analyze(s.table, win, s.opts)
	if err != nil {
		return nil, err
	}
	s.current = analysis

	logger.Info("session %s: window %s, %d rows, %d outliers",
		s.id, win, analysis.Filtered.Len(), analysis.Outliers.Count)
	return analysis, nil
}

// Current returns the most recent valid analysis, or nil before Load.
func (s *Session) Current() *models.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Source returns where the canonical table was loaded from and when.
func (s *Session) Source() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.loadedAt
}
