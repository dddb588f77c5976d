package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		wantErr bool
	}{
		{
			name: "valid table",
			table: &Table{
				Columns: []string{"ghi", "tamb"},
				Rows: []Row{
					{Line: 2, Timestamp: ts("2023-01-01 00:00:00"), Readings: []Reading{Value(1), Missing()}},
				},
			},
			wantErr: false,
		},
		{
			name:    "nil table",
			table:   nil,
			wantErr: true,
		},
		{
			name:    "duplicate column",
			table:   &Table{Columns: []string{"ghi", "ghi"}},
			wantErr: true,
		},
		{
			name: "misaligned row",
			table: &Table{
				Columns: []string{"ghi", "tamb"},
				Rows:    []Row{{Timestamp: ts("2023-01-01 00:00:00"), Readings: []Reading{Value(1)}}},
			},
			wantErr: true,
		},
		{
			name: "zero timestamp",
			table: &Table{
				Columns: []string{"ghi"},
				Rows:    []Row{{Readings: []Reading{Value(1)}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTablePresentAndSpan(t *testing.T) {
	table := &Table{
		Columns: []string{"ghi"},
		Rows: []Row{
			{Timestamp: ts("2023-03-01 12:00:00"), Readings: []Reading{Value(3)}},
			{Timestamp: ts("2023-01-01 12:00:00"), Readings: []Reading{Missing()}},
			{Timestamp: ts("2023-02-01 12:00:00"), Readings: []Reading{Value(5)}},
		},
	}

	values, ok := table.Present("ghi")
	if !ok {
		t.Fatal("expected ghi column")
	}
	if len(values) != 2 || values[0] != 3 || values[1] != 5 {
		t.Errorf("unexpected present values: %v", values)
	}
	if _, ok := table.Present("bp"); ok {
		t.Error("expected bp column to be absent")
	}

	first, last, ok := table.Span()
	if !ok {
		t.Fatal("expected span for non-empty table")
	}
	if !first.Equal(ts("2023-01-01 12:00:00")) || !last.Equal(ts("2023-03-01 12:00:00")) {
		t.Errorf("unexpected span %v..%v", first, last)
	}

	empty := table.WithRows(nil)
	if _, _, ok := empty.Span(); ok {
		t.Error("expected no span for empty table")
	}
	if table.Len() != 3 {
		t.Error("WithRows must not modify the receiver")
	}
}

func TestDateWindow(t *testing.T) {
	w, err := ParseDateWindow("2023-01-01", "2023-01-31")
	if err != nil {
		t.Fatalf("ParseDateWindow failed: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		at   string
		want bool
	}{
		{"2022-12-31 23:59:59", false},
		{"2023-01-01 00:00:00", true},
		{"2023-01-31 23:59:00", true},
		{"2023-02-01 00:00:00", false},
	}
	for _, tt := range tests {
		if got := w.Contains(ts(tt.at)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.at, got, tt.want)
		}
	}

	if w.String() != "2023-01-01..2023-01-31" {
		t.Errorf("unexpected String(): %s", w.String())
	}
}

func TestDateWindowReversed(t *testing.T) {
	w, err := ParseDateWindow("2023-02-01", "2023-01-01")
	if err != nil {
		t.Fatalf("ParseDateWindow failed: %v", err)
	}
	err = w.Validate()
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected *RangeError, got %v", err)
	}

	single := NewDateWindow(ts("2023-01-05 18:00:00"), ts("2023-01-05 06:00:00"))
	if err := single.Validate(); err != nil {
		t.Errorf("same-day window must be valid, got %v", err)
	}
}

func TestParseDateWindowInvalid(t *testing.T) {
	if _, err := ParseDateWindow("01/01/2023", "2023-01-31"); err == nil {
		t.Error("expected error for non-ISO start date")
	}
	if _, err := ParseDateWindow("2023-01-01", "tomorrow"); err == nil {
		t.Error("expected error for non-ISO end date")
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("bad float")
	pe := &ParseError{Row: 3, Line: 4, Column: "ghi", Value: "x", Err: cause}
	if !errors.Is(pe, cause) {
		t.Error("ParseError must unwrap to its cause")
	}
	if pe.Error() == "" {
		t.Error("ParseError message must not be empty")
	}

	se := &SchemaError{Missing: []string{"timestamp"}}
	if se.Error() != "schema error: missing timestamp" {
		t.Errorf("unexpected SchemaError message: %s", se.Error())
	}
}

func TestCorrelationMatrixValidate(t *testing.T) {
	good := CorrelationMatrix{
		Columns: []string{"a", "b"},
		Cells: [][]Correlation{
			{{Value: 1, Defined: true}, {Value: 0.5, Defined: true}},
			{{Value: 0.5, Defined: true}, Undefined},
		},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	asym := CorrelationMatrix{
		Columns: []string{"a", "b"},
		Cells: [][]Correlation{
			{{Value: 1, Defined: true}, {Value: 0.5, Defined: true}},
			{{Value: 0.4, Defined: true}, {Value: 1, Defined: true}},
		},
	}
	if err := asym.Validate(); err == nil {
		t.Error("expected error for asymmetric matrix")
	}

	if c, ok := good.At("b", "a"); !ok || c.Value != 0.5 {
		t.Errorf("At(b, a) = %v, %v", c, ok)
	}
	if _, ok := good.At("a", "z"); ok {
		t.Error("expected lookup of unknown column to fail")
	}
}

func TestAnalysisValidate(t *testing.T) {
	a := &Analysis{
		ID:       "run-1",
		Window:   NewDateWindow(ts("2023-01-01 00:00:00"), ts("2023-01-02 00:00:00")),
		Filtered: &Table{Columns: []string{"ghi"}},
		Summary: Summary{
			Columns: []ColumnSummary{{Column: "ghi", Mean: math.NaN()}},
		},
	}
	if err := a.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	a.Outliers.Count = 1
	if err := a.Validate(); err == nil {
		t.Error("expected error when count disagrees with flagged rows")
	}
}
