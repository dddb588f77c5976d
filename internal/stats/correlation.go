package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/solarscope/internal/models"
)

// Correlate returns the Pearson correlation matrix over the requested columns
// that exist in t. Each pair uses only rows where both readings are present.
// The result is symmetric by construction; the diagonal is 1.0 for a column
// with at least two distinct present values and Undefined otherwise.
func Correlate(t *models.Table, columns []string) models.CorrelationMatrix {
	var cols []string
	var idx []int
	for _, c := range columns {
		if i, ok := t.ColumnIndex(c); ok {
			cols = append(cols, c)
			idx = append(idx, i)
		}
	}

	m := models.CorrelationMatrix{
		Columns: cols,
		Cells:   make([][]models.Correlation, len(cols)),
	}
	for i := range m.Cells {
		m.Cells[i] = make([]models.Correlation, len(cols))
	}

	for a := range cols {
		values, _ := t.Present(cols[a])
		if len(values) >= 2 && !isConstant(values) {
			m.Cells[a][a] = models.Correlation{Value: 1.0, Defined: true}
		}
		for b := 0; b < a; b++ {
			c := pearson(t, idx[a], idx[b])
			m.Cells[a][b] = c
			m.Cells[b][a] = c
		}
	}
	return m
}

func pearson(t *models.Table, i, j int) models.Correlation {
	var x, y []float64
	for _, r := range t.Rows {
		if r.Readings[i].Present && r.Readings[j].Present {
			x = append(x, r.Readings[i].Value)
			y = append(y, r.Readings[j].Value)
		}
	}
	if len(x) < 2 || isConstant(x) || isConstant(y) {
		return models.Undefined
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return models.Undefined
	}
	return models.Correlation{Value: math.Max(-1, math.Min(1, r)), Defined: true}
}
