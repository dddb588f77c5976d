// Package outlier flags measurement rows whose readings sit far from their
// column's centre within the current window.
//
// For every tracked column the mean and population standard deviation are
// computed over the present readings of the filtered table only:
//
//	z = (x - mean) / std
//
// A row is flagged when |z| > Threshold on any tracked column. Missing
// readings take no part in a column's statistics and never trigger a flag. A
// column with no present readings or a constant value has no defined z-score
// and is reported in OutlierSet.Undefined instead.
package outlier

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/solarscope/internal/logger"
	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
)

// Threshold is the |z| above which a reading is an outlier.
const Threshold = 3.0

// columnStats is the per-window centre and spread of one tracked column.
type columnStats struct {
	index int
	name  string
	mean  float64
	std   float64
}

// Detect screens the schema.OutlierColumns present in t.
func Detect(t *models.Table) models.OutlierSet {
	return DetectColumns(t, schema.OutlierColumns)
}

// DetectColumns screens the given columns; names absent from t are skipped.
// Flagged rows keep their original relative order. t is not modified.
func DetectColumns(t *models.Table, columns []string) models.OutlierSet {
	set := models.OutlierSet{
		Threshold: Threshold,
		Rows:      []models.FlaggedRow{},
	}

	var tracked []columnStats
	for _, name := range columns {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			continue
		}
		set.Columns = append(set.Columns, name)

		cs, ok := fit(t, idx, name)
		if !ok {
			set.Undefined = append(set.Undefined, name)
			continue
		}
		tracked = append(tracked, cs)
	}

	for _, row := range t.Rows {
		var triggers []models.ZScore
		for _, cs := range tracked {
			r := row.Readings[cs.index]
			if !r.Present {
				continue
			}
			z := (r.Value - cs.mean) / cs.std
			if math.Abs(z) > Threshold {
				triggers = append(triggers, models.ZScore{Column: cs.name, Value: r.Value, Z: z})
			}
		}
		if len(triggers) > 0 {
			set.Rows = append(set.Rows, models.FlaggedRow{Row: row, Triggers: triggers})
		}
	}
	set.Count = len(set.Rows)

	logger.Debug("outlier: %d of %d rows flagged across %d columns (%d undefined)",
		set.Count, t.Len(), len(tracked), len(set.Undefined))

	return set
}

// fit computes the window mean and population standard deviation of one
// column. ok is false when the z-score is undefined for the column.
func fit(t *models.Table, idx int, name string) (columnStats, bool) {
	values := make([]float64, 0, t.Len())
	for _, r := range t.Rows {
		if r.Readings[idx].Present {
			values = append(values, r.Readings[idx].Value)
		}
	}
	if len(values) == 0 {
		return columnStats{}, false
	}
	for _, v := range values[1:] {
		if v != values[0] {
			mean, std := stat.PopMeanStdDev(values, nil)
			if std == 0 || math.IsNaN(std) {
				return columnStats{}, false
			}
			return columnStats{index: idx, name: name, mean: mean, std: std}, true
		}
	}
	// constant column
	return columnStats{}, false
}
