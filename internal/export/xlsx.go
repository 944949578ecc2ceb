// Package export writes the record collection as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/starford/recordbook/internal/models"
)

// SheetName is the name of the single sheet in an exported workbook.
const SheetName = "Records"

// Header is the first row of every export.
var Header = []any{"ID", "Name", "Age", "Address"}

// ScanFunc streams records to fn in file order.
type ScanFunc func(fn func(models.Record) error) error

// ToFile creates the workbook at path. It fails if the file cannot be
// created or the records cannot be read.
func ToFile(path string, scan ScanFunc) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Write(out, scan); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}

// Write streams a workbook with a header row and one row per record to w.
// ID and Age are written as numeric cells.
func Write(w io.Writer, scan ScanFunc) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export: stream writer: %w", err)
	}
	if err := sw.SetRow("A1", Header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}

	row := 2
	err = scan(func(r models.Record) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{r.ID, r.Name, r.Age, r.Address}); err != nil {
			return err
		}
		row++
		return nil
	})
	if err != nil {
		return fmt.Errorf("export: rows: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
