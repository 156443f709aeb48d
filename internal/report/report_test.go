package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"staffattendance/internal/attendance"
	"staffattendance/internal/calendar"
)

var records = []attendance.Record{
	{ID: 2, Name: "Jane", Date: "2024-03-20", CheckInTime: "09:15", Status: calendar.Late, Photo: "https://cdn/x.jpg"},
	{ID: 1, Name: "Ali", Date: "2024-03-20", CheckInTime: "08:30", Status: calendar.OnTime},
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := WriteFile(dir, "2024-03-20", records)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "attendance-2024-03-20.xlsx" {
		t.Fatalf("path = %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][3] != "Check-in" {
		t.Fatalf("header = %v", rows[0])
	}
	want := []string{"1", "Jane", "2024-03-20", "09:15", "late", "https://cdn/x.jpg"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("row 1 = %v", rows[1])
		}
	}
	if rows[2][1] != "Ali" || rows[2][4] != "on-time" {
		t.Fatalf("row 2 = %v", rows[2])
	}

	// rewriting the same day replaces the file
	if _, err := WriteFile(dir, "2024-03-20", records[:1]); err != nil {
		t.Fatal(err)
	}
	f2, _ := excelize.OpenFile(path)
	defer f2.Close()
	rows, _ = f2.GetRows(f2.GetSheetName(0))
	if len(rows) != 2 {
		t.Fatalf("rows after rewrite = %v", rows)
	}
}

func TestEmptyWorkbookHasHeader(t *testing.T) {
	buf, err := Workbook(nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(f.GetSheetName(0))
	if len(rows) != 1 || len(rows[0]) != len(headers) {
		t.Fatalf("rows = %v", rows)
	}
}
