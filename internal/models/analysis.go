package models

import (
	"errors"
	"math"
	"time"
)

// ColumnSummary holds descriptive statistics for one numeric column.
// Every float field is NaN when Count is zero; Std is NaN when Count < 2.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// MissingCount is the number of absent readings of one column.
type MissingCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// Correlation is one entry of a correlation matrix.
// Defined is false when the coefficient cannot be computed, e.g. for a
// zero-variance column or fewer than two paired observations.
type Correlation struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Undefined is the correlation entry that has no value.
var Undefined = Correlation{}

// CorrelationMatrix is a square, symmetric matrix over Columns.
type CorrelationMatrix struct {
	Columns []string        `json:"columns"`
	Cells   [][]Correlation `json:"cells"`
}

// At returns the entry for a pair of columns.
func (m CorrelationMatrix) At(a, b string) (Correlation, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return Undefined, false
	}
	return m.Cells[i][j], true
}

// Validate checks that the matrix is square, symmetric and has a unit or
// undefined diagonal.
func (m CorrelationMatrix) Validate() error {
	n := len(m.Columns)
	if len(m.Cells) != n {
		return errors.New("correlation matrix must be square")
	}
	for i := range m.Cells {
		if len(m.Cells[i]) != n {
			return errors.New("correlation matrix must be square")
		}
		if d := m.Cells[i][i]; d.Defined && d.Value != 1.0 {
			return errors.New("correlation diagonal must be 1.0 or undefined")
		}
		for j := 0; j < i; j++ {
			if m.Cells[i][j] != m.Cells[j][i] {
				return errors.New("correlation matrix must be symmetric")
			}
		}
	}
	return nil
}

// Summary is the statistics bundle computed over one filtered table.
type Summary struct {
	Rows        int               `json:"rows"`
	Columns     []ColumnSummary   `json:"columns"`
	Missing     []MissingCount    `json:"missing"`
	Correlation CorrelationMatrix `json:"correlation"`
}

// Column returns the summary of the named column.
func (s *Summary) Column(name string) (ColumnSummary, bool) {
	for _, c := range s.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// ZScore is the standardised deviation of one reading.
type ZScore struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
	Z      float64 `json:"z"`
}

// FlaggedRow is a row with at least one tracked reading beyond the threshold.
// Triggers lists only the columns that exceeded it.
type FlaggedRow struct {
	Row      Row      `json:"row"`
	Triggers []ZScore `json:"triggers"`
}

// OutlierSet is the subset of filtered rows flagged by the z-score test.
// Undefined lists tracked columns whose z-score could not be computed in the
// window (no values or zero standard deviation); they never trigger a flag.
type OutlierSet struct {
	Threshold float64      `json:"threshold"`
	Columns   []string     `json:"columns"`
	Undefined []string     `json:"undefined,omitempty"`
	Rows      []FlaggedRow `json:"rows"`
	Count     int          `json:"count"`
}

// QuantileBounds holds a low and high percentile for one column.
type QuantileBounds struct {
	Column string  `json:"column"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// CleaningGroup holds column means for rows sharing a cleaning indicator value.
type CleaningGroup struct {
	State float64            `json:"state"`
	Rows  int                `json:"rows"`
	Means map[string]float64 `json:"means"`
}

// Histogram holds equal-width bin counts for one column.
// Edges has len(Counts)+1 entries.
type Histogram struct {
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// Analysis is the read-only snapshot derived from one table and one window.
// It is replaced wholesale, never updated in place.
type Analysis struct {
	ID         string           `json:"id"`
	Window     DateWindow       `json:"window"`
	Filtered   *Table           `json:"filtered"`
	Summary    Summary          `json:"summary"`
	Outliers   OutlierSet       `json:"outliers"`
	Quantiles  []QuantileBounds `json:"quantiles,omitempty"`
	Cleaning   []CleaningGroup  `json:"cleaning,omitempty"`
	Histograms []Histogram      `json:"histograms,omitempty"`
	ComputedAt time.Time        `json:"computed_at"`
}

// Validate checks the internal consistency of an analysis
func (a *Analysis) Validate() error {
	if a.ID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if err := a.Window.Validate(); err != nil {
		return err
	}
	if a.Filtered == nil {
		return errors.New("filtered table must not be nil")
	}
	if a.Summary.Rows != a.Filtered.Len() {
		return errors.New("summary rows must equal filtered row count")
	}
	if a.Outliers.Count != len(a.Outliers.Rows) {
		return errors.New("outlier count must equal number of flagged rows")
	}
	if a.Outliers.Count > a.Filtered.Len() {
		return errors.New("outlier count must not exceed filtered row count")
	}
	for _, c := range a.Summary.Columns {
		if c.Count == 0 && !math.IsNaN(c.Mean) {
			return errors.New("mean of an empty column must be NaN")
		}
	}
	return a.Summary.Correlation.Validate()
}
