package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"commscivet/core/reconcile"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither .csv nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoHeader is returned when a file has no non-empty row.
	ErrNoHeader = errors.New("header row could not be detected")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Table is a parsed tabular export.
type Table struct {
	// Headers are the trimmed column names. Blank names become column_N and
	// repeated names get a _2, _3 suffix.
	Headers []string

	// Rows are padded or truncated to len(Headers). Empty rows are dropped.
	Rows [][]string
}

// ReadFile opens path and parses it by extension.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f)
}

// Read parses a .csv or .xlsx stream; name is only used for its extension.
func Read(name string, r io.Reader) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV parses a CSV stream, tolerating a UTF-8 byte order mark and ragged rows.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalize(records)
}

// ReadXLSX parses the first worksheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalize(rows)
}

// Records converts rows into a snapshot. Empty cells become nil so they
// compare as absent values.
func (t *Table) Records() reconcile.Snapshot {
	out := make(reconcile.Snapshot, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(reconcile.Record, len(t.Headers))
		for i, h := range t.Headers {
			if row[i] == "" {
				rec[h] = nil
				continue
			}
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// HasColumn reports whether the table has a header with that exact name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func normalize(records [][]string) (*Table, error) {
	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if isEmpty(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return nil, ErrNoHeader
	}

	headers := sanitizeHeaders(headerRow)
	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return &Table{Headers: headers, Rows: filterEmptyRows(dataRows)}, nil
}

func isEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func filterEmptyRows(rows [][]string) [][]string {
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !isEmpty(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
