// Package pipeline wires the analysis stages together:
//
//	raw table -> schema.Normalize -> timeindex.Build            (Prepare)
//	table + window -> window.Filter -> stats + outlier            (Analyze)
//
// Every call recomputes from its inputs; nothing is cached or updated in place.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/solarscope/internal/dataset"
	"github.com/rewired-gh/solarscope/internal/logger"
	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/outlier"
	"github.com/rewired-gh/solarscope/internal/schema"
	"github.com/rewired-gh/solarscope/internal/stats"
	"github.com/rewired-gh/solarscope/internal/timeindex"
	"github.com/rewired-gh/solarscope/internal/window"
)

// Options tunes the supplemental statistics of an analysis.
//
// HistogramVars absent from the table are skipped unless
// StrictHistogramVars is set, as it is for a selection made explicitly by
// the user. In that case an absent variable fails the analysis.
type Options struct {
	HistogramVars       []string
	StrictHistogramVars bool
	HistogramBins       int
	QuantileLow         float64
	QuantileHigh        float64
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		HistogramBins: stats.DefaultBins,
		QuantileLow:   0.01,
		QuantileHigh:  0.99,
	}
}

// Prepare normalizes the raw headers and builds the time index.
// It fails with *models.SchemaError or *models.ParseError.
func Prepare(raw *dataset.RawTable, layout string) (*models.Table, error) {
	n, err := schema.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(n.Dropped) > 0 {
		logger.Debug("pipeline: dropped unrecognised columns %v", n.Dropped)
	}

	table, err := timeindex.Build(n, layout)
	if err != nil {
		return nil, err
	}
	logger.Debug("pipeline: indexed %d rows with columns %v", table.Len(), table.Columns)
	return table, nil
}

// Analyze filters t to w and derives the statistics bundle and outlier set.
// An invalid window fails with *models.RangeError before any computation; an
// unknown histogram variable fails with *models.SchemaError.
func Analyze(t *models.Table, w models.DateWindow, opts Options) (*models.Analysis, error) {
	filtered, err := window.Filter(t, w)
	if err != nil {
		return nil, err
	}

	hists, err := histograms(filtered, opts)
	if err != nil {
		return nil, err
	}

	a := &models.Analysis{
		ID:         uuid.New().String(),
		Window:     w,
		Filtered:   filtered,
		Summary:    stats.Summarize(filtered),
		Outliers:   outlier.Detect(filtered),
		Quantiles:  stats.QuantileBounds(filtered, opts.QuantileLow, opts.QuantileHigh),
		Cleaning:   stats.CleaningImpact(filtered),
		Histograms: hists,
		ComputedAt: time.Now(),
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("analysis %s is inconsistent: %w", a.ID, err)
	}

	logger.Debug("pipeline: window %s kept %d of %d rows, %d outliers",
		w, filtered.Len(), t.Len(), a.Outliers.Count)
	return a, nil
}

func histograms(t *models.Table, opts Options) ([]models.Histogram, error) {
	vars := opts.HistogramVars
	if len(vars) == 0 || opts.StrictHistogramVars {
		return stats.Histograms(t, vars, opts.HistogramBins)
	}

	present := make([]string, 0, len(vars))
	for _, v := range vars {
		if t.HasColumn(v) {
			present = append(present, v)
		} else {
			logger.Debug("pipeline: skipping histogram of absent column %s", v)
		}
	}
	if len(present) == 0 {
		return nil, nil
	}
	return stats.Histograms(t, present, opts.HistogramBins)
}
