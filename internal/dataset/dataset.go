// Package dataset reads raw measurement tables from delimited text and from
// xlsx workbooks. It performs no interpretation of the cells: headers and
// values are returned exactly as found, apart from BOM removal.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/solarscope/internal/models"
)

// RawTable is an uninterpreted table: a header row and data records.
// Records are aligned with Headers. Lines[i] is the 1-based source line (or
// sheet row) of Records[i].
type RawTable struct {
	Headers []string
	Records [][]string
	Lines   []int

	// SerialDates is set for workbooks, whose date cells are read as
	// spreadsheet serial numbers rather than display text.
	SerialDates bool
	Date1904    bool
}

// LineOf returns the source line of record i. Tables built without line
// information fall back to i+2, counting the header as line 1.
func (t *RawTable) LineOf(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// Options controls delimited-text reading.
type Options struct {
	Delimiter rune // default ','
	Comment   rune // lines starting with this rune are skipped; 0 disables
}

// DefaultOptions returns options for comma-separated input.
func DefaultOptions() Options {
	return Options{Delimiter: ','}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses delimited text with a header row.
// A record whose field count differs from the header is reported as a
// *models.ParseError naming its line.
func Read(r io.Reader, opts Options) (*RawTable, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = opts.Delimiter
	reader.Comment = opts.Comment
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &models.SchemaError{Reason: "input has no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &RawTable{Headers: header}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := row + 1
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return nil, &models.ParseError{Row: row, Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			return nil, &models.ParseError{
				Row:  row,
				Line: line,
				Err:  fmt.Errorf("expected %d fields, got %d", len(header), len(record)),
			}
		}
		table.Records = append(table.Records, record)
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}

// ReadString is a convenience wrapper around Read for in-memory input.
func ReadString(s string, opts Options) (*RawTable, error) {
	return Read(strings.NewReader(s), opts)
}

// ReadWorkbook reads the named sheet of an xlsx workbook; an empty sheet
// name selects the first sheet. Short rows are padded with empty cells,
// which later read as missing values. Cells are read as raw values, so
// numbers keep full precision and date cells arrive as serial numbers.
func ReadWorkbook(r io.Reader, sheet string) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &models.SchemaError{Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &models.SchemaError{Reason: fmt.Sprintf("sheet %q has no header row", sheet)}
	}

	header := rows[0]
	table := &RawTable{
		Headers:     header,
		SerialDates: true,
		Date1904:    props.Date1904 != nil && *props.Date1904,
	}
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, &models.ParseError{
				Row:  i + 1,
				Line: i + 2,
				Err:  fmt.Errorf("expected at most %d cells, got %d", len(header), len(row)),
			}
		}
		record := make([]string, len(header))
		copy(record, row)
		table.Records = append(table.Records, record)
		table.Lines = append(table.Lines, i+2)
	}

	return table, nil
}
