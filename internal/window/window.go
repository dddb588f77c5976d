// Package window restricts a time-indexed table to an inclusive date range.
package window

import (
	"github.com/rewired-gh/solarscope/internal/models"
)

// Filter returns the rows of t whose timestamp falls on a day in w, in their
// original relative order. The comparison is by value, so t need not be
// sorted. An invalid window fails with a *models.RangeError before any row is
// examined; a valid window that matches nothing yields an empty table.
// The input table is not modified.
func Filter(t *models.Table, w models.DateWindow) (*models.Table, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	rows := make([]models.Row, 0)
	for _, r := range t.Rows {
		if w.Contains(r.Timestamp) {
			rows = append(rows, r)
		}
	}
	return t.WithRows(rows), nil
}

// Full returns the window spanning every day present in t.
// ok is false for an empty table.
func Full(t *models.Table) (models.DateWindow, bool) {
	first, last, ok := t.Span()
	if !ok {
		return models.DateWindow{}, false
	}
	return models.NewDateWindow(first, last), true
}
