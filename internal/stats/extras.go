package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
)

// DefaultBins is the histogram bin count used when none is configured.
const DefaultBins = 30

// QuantileBounds returns the low and high percentiles of every column of t.
// Bounds of an empty column are NaN.
func QuantileBounds(t *models.Table, low, high float64) []models.QuantileBounds {
	out := make([]models.QuantileBounds, 0, len(t.Columns))
	for _, col := range t.Columns {
		values, _ := t.Present(col)
		sort.Float64s(values)
		out = append(out, models.QuantileBounds{
			Column: col,
			Low:    Quantile(values, low),
			High:   Quantile(values, high),
		})
	}
	return out
}

// CleaningImpact groups rows by the cleaning indicator and averages the
// irradiance and temperature columns per group. Groups are ordered by state.
// It returns nil when t has no cleaning indicator column.
func CleaningImpact(t *models.Table) []models.CleaningGroup {
	key, ok := t.ColumnIndex(schema.Cleaning)
	if !ok {
		return nil
	}

	type acc struct {
		rows   int
		values map[string][]float64
	}
	groups := make(map[float64]*acc)
	for _, r := range t.Rows {
		k := r.Readings[key]
		if !k.Present {
			continue
		}
		g, exists := groups[k.Value]
		if !exists {
			g = &acc{values: make(map[string][]float64)}
			groups[k.Value] = g
		}
		g.rows++
		for _, col := range schema.CleaningColumns {
			if j, ok := t.ColumnIndex(col); ok && r.Readings[j].Present {
				g.values[col] = append(g.values[col], r.Readings[j].Value)
			}
		}
	}

	states := make([]float64, 0, len(groups))
	for s := range groups {
		states = append(states, s)
	}
	sort.Float64s(states)

	out := make([]models.CleaningGroup, 0, len(states))
	for _, s := range states {
		g := groups[s]
		means := make(map[string]float64)
		for _, col := range schema.CleaningColumns {
			if !t.HasColumn(col) {
				continue
			}
			if vals := g.values[col]; len(vals) > 0 {
				means[col] = stat.Mean(vals, nil)
			} else {
				means[col] = math.NaN()
			}
		}
		out = append(out, models.CleaningGroup{State: s, Rows: g.rows, Means: means})
	}
	return out
}

// Histograms computes equal-width bin counts for each selected variable.
// An empty selection uses schema.HistogramDefaults that exist in t. A
// variable that is not a numeric column of t fails with *models.SchemaError.
func Histograms(t *models.Table, vars []string, bins int) ([]models.Histogram, error) {
	if bins <= 0 {
		bins = DefaultBins
	}
	if len(vars) == 0 {
		for _, v := range schema.HistogramDefaults {
			if t.HasColumn(v) {
				vars = append(vars, v)
			}
		}
	}

	out := make([]models.Histogram, 0, len(vars))
	for _, v := range vars {
		values, ok := t.Present(v)
		if !ok {
			return nil, &models.SchemaError{
				Missing: []string{v},
				Reason:  fmt.Sprintf("histogram variable %q is not a column of the table", v),
			}
		}
		out = append(out, histogram(v, values, bins))
	}
	return out, nil
}

func histogram(col string, values []float64, bins int) models.Histogram {
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
		if lo == hi {
			lo, hi = lo-0.5, hi+0.5
		}
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	counts := make([]int, bins)
	if len(values) == 0 {
		return models.Histogram{Column: col, Edges: edges, Counts: counts}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	// The last bin is closed on the right.
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	weighted := stat.Histogram(nil, dividers, sorted, nil)
	for i, w := range weighted {
		counts[i] = int(w)
	}
	return models.Histogram{Column: col, Edges: edges, Counts: counts}
}
