package models

import (
	"fmt"
	"strings"
	"time"
)

// SchemaError reports a table whose headers cannot be mapped onto the
// canonical schema. It is fatal to the session.
type SchemaError struct {
	Missing   []string // mandatory canonical columns that are absent
	Duplicate []string // canonical names produced by more than one header
	Reason    string
}

func (e *SchemaError) Error() string {
	var parts []string
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate "+strings.Join(e.Duplicate, ", "))
	}
	return "schema error: " + strings.Join(parts, "; ")
}

// ParseError reports a cell that could not be parsed.
// Row is the 1-based data row; Line is the source line including the header.
type ParseError struct {
	Row    int
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("parse error at row %d (line %d): %v", e.Row, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error at row %d (line %d), column %s, value %q: %v",
		e.Row, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RangeError reports a date window whose start falls after its end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid date window: start %s is after end %s",
		e.Start.Format(DateLayout), e.End.Format(DateLayout))
}
