// Package stats computes the statistics bundle of a filtered measurement table.
//
// Missing readings are excluded per column: every statistic of a column is
// computed over that column's present values only, and correlations use the
// rows where both columns are present. Degenerate inputs are not errors. An
// empty column has Count 0 and NaN statistics, and a correlation involving a
// constant column or fewer than two paired rows is models.Undefined.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
)

// Summarize computes descriptive statistics, missing counts and the
// correlation matrix of t.
func Summarize(t *models.Table) models.Summary {
	return models.Summary{
		Rows:        t.Len(),
		Columns:     Describe(t),
		Missing:     MissingCounts(t),
		Correlation: Correlate(t, schema.CorrelationColumns),
	}
}

// Describe returns count, mean, sample std, min, quartiles and max for every
// column of t, in column order.
func Describe(t *models.Table) []models.ColumnSummary {
	out := make([]models.ColumnSummary, 0, len(t.Columns))
	for _, col := range t.Columns {
		values, _ := t.Present(col)
		out = append(out, describe(col, values))
	}
	return out
}

func describe(col string, values []float64) models.ColumnSummary {
	nan := math.NaN()
	s := models.ColumnSummary{
		Column: col,
		Count:  len(values),
		Mean:   nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan,
	}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		if isConstant(sorted) {
			s.Std = 0
		} else {
			s.Std = stat.StdDev(sorted, nil)
		}
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.P25 = Quantile(sorted, 0.25)
	s.P50 = Quantile(sorted, 0.50)
	s.P75 = Quantile(sorted, 0.75)
	return s
}

// MissingCounts returns the number of absent readings per column.
func MissingCounts(t *models.Table) []models.MissingCount {
	out := make([]models.MissingCount, len(t.Columns))
	for j, col := range t.Columns {
		out[j].Column = col
		for _, r := range t.Rows {
			if !r.Readings[j].Present {
				out[j].Missing++
			}
		}
	}
	return out
}

// Quantile returns the p-quantile of sorted values, interpolating linearly
// between the closest ranks. It returns NaN for an empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// isConstant reports whether every value equals the first, compared exactly.
// values must not be empty.
func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
