package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for window bounds.
const DateLayout = "2006-01-02"

// DateWindow is an inclusive [Start, End] range of calendar dates.
// Only the year, month and day of each bound are significant.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateWindow truncates both bounds to midnight of their calendar day.
func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{Start: dayOf(start), End: dayOf(end)}
}

// ParseDateWindow parses two YYYY-MM-DD dates into a window.
// The window is not validated; call Validate before filtering.
func ParseDateWindow(start, end string) (DateWindow, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DateWindow{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DateWindow{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return DateWindow{Start: s, End: e}, nil
}

// Validate returns a *RangeError when the start date falls after the end date.
func (w DateWindow) Validate() error {
	if dayOf(w.Start).After(dayOf(w.End)) {
		return &RangeError{Start: w.Start, End: w.End}
	}
	return nil
}

// Contains reports whether ts falls on a day inside the window.
// A reading at 23:59:59 on the end date is inside.
func (w DateWindow) Contains(ts time.Time) bool {
	lo := dayOf(w.Start)
	hi := dayOf(w.End).AddDate(0, 0, 1)
	return !ts.Before(lo) && ts.Before(hi)
}

// String formats the window as "start..end".
func (w DateWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

// dayOf keeps the wall-clock calendar day of t without any zone conversion.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
