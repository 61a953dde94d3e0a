package reports

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	domain "parish/internal/domain/reporting"
)

func sampleTable() Table {
	return Table{
		Sheet:   "Attendance",
		Headers: []string{"date", "member", "method"},
		Rows: [][]string{
			{"2026-03-01", "Mele Tupou", "kiosk"},
			{"2026-03-01", "Guest: S. Finau", "manual"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	size, err := Write(domain.FormatCSV, path, sampleTable())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if size <= 0 {
		t.Errorf("size = %d, want > 0", size)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if records[0][1] != "member" {
		t.Errorf("header = %v", records[0])
	}
	if records[2][2] != "manual" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	size, err := Write(domain.FormatXLSX, path, sampleTable())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if size <= 0 {
		t.Errorf("size = %d, want > 0", size)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.bin")
	if _, err := Write("pdf", path, sampleTable()); err == nil {
		t.Fatal("Write() expected error for unsupported format")
	}
}
