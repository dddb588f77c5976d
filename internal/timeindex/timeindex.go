// Package timeindex parses a normalized table into a time-indexed measurement
// table.
//
// Timestamps are validated against exactly one layout and kept as naive
// wall-clock time: no zone conversion is performed and every parsed value
// carries the UTC location. Workbook tables may also hold date cells as
// spreadsheet serial numbers; those are converted to the same wall-clock form. Input order is preserved; the index is used as a
// value key by the window filter, so rows need not be sorted.
//
// Parse policy: the first unparseable timestamp or numeric cell aborts
// indexing with a *models.ParseError. Empty cells and the markers in
// MissingMarkers are read as missing values.
package timeindex

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/solarscope/internal/dataset"
	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
)

// DefaultLayout is the canonical timestamp layout.
const DefaultLayout = "2006-01-02 15:04:05"

// MissingMarkers are cell values read as a missing reading.
var MissingMarkers = []string{"", "na", "n/a", "nan", "null", "none", "-"}

// ErrMissingTimestamp is wrapped by the ParseError of a row without timestamp.
var ErrMissingTimestamp = errors.New("timestamp is missing")

// ErrNonFinite is wrapped by the ParseError of an infinite numeric cell.
var ErrNonFinite = errors.New("value is not finite")

func isMissing(cell string) bool {
	c := strings.ToLower(strings.TrimSpace(cell))
	for _, m := range MissingMarkers {
		if c == m {
			return true
		}
	}
	return false
}

// Build parses every record of n into a models.Table.
// layout defaults to DefaultLayout when empty.
func Build(n *schema.Normalized, layout string) (*models.Table, error) {
	if layout == "" {
		layout = DefaultLayout
	}

	numeric := n.NumericHeaders()
	table := &models.Table{
		Columns: append([]string(nil), numeric...),
		Rows:    make([]models.Row, 0, len(n.Raw.Records)),
	}

	for i, record := range n.Raw.Records {
		rowNum := i + 1
		line := n.Raw.LineOf(i)

		rawTS := strings.TrimSpace(record[n.Columns[0]])
		if isMissing(rawTS) {
			return nil, &models.ParseError{Row: rowNum, Line: line, Column: schema.Timestamp, Value: rawTS, Err: ErrMissingTimestamp}
		}
		stamp, err := parseTimestamp(n.Raw, layout, rawTS)
		if err != nil {
			return nil, &models.ParseError{Row: rowNum, Line: line, Column: schema.Timestamp, Value: rawTS, Err: err}
		}

		readings := make([]models.Reading, len(numeric))
		for j, col := range numeric {
			cell := record[n.Columns[j+1]]
			if isMissing(cell) {
				readings[j] = models.Missing()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &models.ParseError{Row: rowNum, Line: line, Column: col, Value: cell, Err: err}
			}
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, &models.ParseError{Row: rowNum, Line: line, Column: col, Value: cell, Err: ErrNonFinite}
			}
			readings[j] = models.Value(v)
		}

		table.Rows = append(table.Rows, models.Row{Line: line, Timestamp: stamp, Readings: readings})
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("indexed table is inconsistent: %w", err)
	}
	return table, nil
}

// parseTimestamp parses s with layout. For workbook tables a numeric cell is
// taken as a date serial and rounded to the second.
func parseTimestamp(raw *dataset.RawTable, layout, s string) (time.Time, error) {
	stamp, err := time.ParseInLocation(layout, s, time.UTC)
	if err == nil || !raw.SerialDates {
		return stamp, err
	}
	serial, perr := strconv.ParseFloat(s, 64)
	if perr != nil || serial <= 0 {
		return time.Time{}, err
	}
	t, cerr := excelize.ExcelDateToTime(serial, raw.Date1904)
	if cerr != nil {
		return time.Time{}, cerr
	}
	return t.Round(time.Second).UTC(), nil
}
