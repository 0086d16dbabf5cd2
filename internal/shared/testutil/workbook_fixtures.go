package testutil

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetFixture is the content of one worksheet: a header row followed by data rows.
type SheetFixture struct {
	Name   string
	Header []interface{}
	Rows   [][]interface{}
}

// AnalyticsSheets returns a small workbook layout matching the IWA export:
// Facebook, Instagram and LinkedIn sheets covering October to December 2023.
func AnalyticsSheets() []SheetFixture {
	header := []interface{}{"Year", "Month", "Followers", "Views", "Posts", "Interactions", "Comments"}
	return []SheetFixture{
		{
			Name:   "FB Page",
			Header: header,
			Rows: [][]interface{}{
				{2023, "October", 1000, 5000, 10, 300, 40},
				{2023, "November", 1200, 4500, 10, 320, 35},
				{2023, "December", 1300, 6000, 12, 400, 50},
			},
		},
		{
			Name:   "Instagram",
			Header: header,
			Rows: [][]interface{}{
				{2023, "October", 800, 2000, 8, 150, 20},
				{2023, "November", 780, 2100, 9, 150, 25},
				{2023, "December", 760, 2500, 9, 160, 18},
			},
		},
		{
			Name:   "LinkedIn",
			Header: header,
			Rows: [][]interface{}{
				{2023, "October", 300, 900, 4, 60, 5},
				{2023, "November", 320, 950, 4, 70, 6},
				{2023, "December", 340, 1000, 5, 80, 7},
			},
		},
	}
}

// NewWorkbook builds an in-memory workbook from sheets. The default sheet is
// renamed to the first fixture so no stray "Sheet1" remains.
func NewWorkbook(t *testing.T, sheets []SheetFixture) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("create sheet %s: %v", s.Name, err)
		}

		if err := f.SetSheetRow(s.Name, "A1", &s.Header); err != nil {
			t.Fatalf("write header: %v", err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("write row: %v", err)
			}
		}
	}
	return f
}

// WriteWorkbook saves sheets as an .xlsx file under t.TempDir and returns its path.
func WriteWorkbook(t *testing.T, name string, sheets []SheetFixture) string {
	t.Helper()

	f := NewWorkbook(t, sheets)
	defer f.Close()

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WorkbookBytes returns sheets encoded as .xlsx bytes, as an upload would carry them.
func WorkbookBytes(t *testing.T, sheets []SheetFixture) []byte {
	t.Helper()

	f := NewWorkbook(t, sheets)
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("encode workbook: %v", err)
	}
	return buf.Bytes()
}
