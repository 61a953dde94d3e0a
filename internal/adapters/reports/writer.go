package reports

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	domain "parish/internal/domain/reporting"
)

// Table is a rectangular report payload ready for serialization.
type Table struct {
	Sheet   string // Sheet name for XLSX output
	Headers []string
	Rows    [][]string
}

// Write serializes the table to path in the requested format and returns the
// file size in bytes.
// PRE: format is one of the reporting format constants; path is writable
// POST: File at path holds the serialized table
func Write(format, path string, table Table) (int64, error) {
	switch format {
	case domain.FormatCSV:
		return writeCSV(path, table)
	case domain.FormatXLSX:
		return writeXLSX(path, table)
	default:
		return 0, fmt.Errorf("unsupported report format: %s", format)
	}
}

func writeCSV(path string, table Table) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return 0, err
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return fileSize(f)
}

func writeXLSX(path string, table Table) (int64, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := table.Sheet
	if sheet == "" {
		sheet = "Report"
	}
	idx, err := wb.NewSheet(sheet)
	if err != nil {
		return 0, err
	}
	wb.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			return 0, err
		}
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return 0, err
	}
	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := wb.SetSheetRow(sheet, cell, &cells); err != nil {
			return 0, err
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func fileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
