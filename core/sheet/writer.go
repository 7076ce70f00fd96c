package sheet

import (
	"fmt"
	"io"
	"time"

	"commscivet/core/reconcile"
	"commscivet/core/utils"

	"github.com/xuri/excelize/v2"
)

const changesSheet = "changes"

// ChangeHeaders are the column names of a change report.
var ChangeHeaders = []string{"identifier", "change_type", "field_name", "old_value", "new_value", "observed_at"}

// WriteXLSX writes headers and rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheetName string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return sw.SetRow(cell, row)
	}

	if err := write(1, headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		if err := write(i+2, r); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// WriteChanges writes change records as a reviewer-friendly workbook, one
// row per change in the given order. Nil values are left blank.
func WriteChanges(w io.Writer, changes []reconcile.ChangeRecord) error {
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			c.Identifier,
			string(c.ChangeType),
			c.FieldName,
			utils.ToString(c.OldValue),
			utils.ToString(c.NewValue),
			c.ObservedAt.Format(time.DateOnly),
		})
	}
	return WriteXLSX(w, changesSheet, ChangeHeaders, rows)
}
