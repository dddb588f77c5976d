// Package models defines the core domain entities for the solarscope analyser.
// These models represent the measurement table, the active date window, and the
// statistics and outliers derived from a windowed view of the table.
//
// Terminology:
//   - Table: the canonical, time-indexed measurement table loaded from one file.
//   - Reading: a single numeric cell; missing cells are carried explicitly.
//   - Analysis: the read-only snapshot derived from one (table, window) pair.
package models

import (
	"errors"
	"time"
)

// Reading is one numeric cell of a measurement row.
// Present is false when the source cell was empty or a missing-value marker.
type Reading struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

// Missing returns a Reading with no value.
func Missing() Reading {
	return Reading{}
}

// Value returns a present Reading holding v.
func Value(v float64) Reading {
	return Reading{Value: v, Present: true}
}

// Row is one time-stamped measurement row.
// Line is the 1-based line of the row in the source file (header is line 1).
type Row struct {
	Line      int       `json:"line"`
	Timestamp time.Time `json:"timestamp"`
	Readings  []Reading `json:"readings"`
}

// Table is an ordered sequence of rows sharing one column layout.
// Columns lists the numeric canonical columns; Readings of every row are
// aligned with it. The timestamp is held separately on each row.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Validate checks that every row is aligned with the column layout
func (t *Table) Validate() error {
	if t == nil {
		return errors.New("table must not be nil")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c == "" {
			return errors.New("column name must not be empty")
		}
		if seen[c] {
			return errors.New("column names must be unique")
		}
		seen[c] = true
	}
	for _, r := range t.Rows {
		if len(r.Readings) != len(t.Columns) {
			return errors.New("row readings must match the column layout")
		}
		if r.Timestamp.IsZero() {
			return errors.New("row timestamp must be set")
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Present returns the present values of a column in row order.
// The second result is false when the column does not exist.
func (t *Table) Present(name string) ([]float64, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Readings[idx].Present {
			values = append(values, r.Readings[idx].Value)
		}
	}
	return values, true
}

// WithRows returns a new table sharing the column layout and holding rows.
// The receiver is not modified.
func (t *Table) WithRows(rows []Row) *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Columns: cols, Rows: rows}
}

// Span returns the earliest and latest timestamps in the table.
// ok is false for an empty table.
func (t *Table) Span() (first, last time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t.Rows[0].Timestamp, t.Rows[0].Timestamp
	for _, r := range t.Rows[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return first, last, true
}
