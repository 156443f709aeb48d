// Package report renders attendance records as spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"staffattendance/internal/attendance"
)

// ContentType is the xlsx MIME type.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"No", "Name", "Date", "Check-in", "Status", "Photo"}

// Filename is the download and export name for date.
func Filename(date string) string {
	return fmt.Sprintf("attendance-%s.xlsx", date)
}

// Workbook builds a single-sheet workbook, one row per record.
func Workbook(records []attendance.Record) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(file.GetActiveSheetIndex())

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}
	for index, r := range records {
		row := index + 2
		_ = file.SetCellValue(sheet, fmt.Sprintf("A%d", row), index+1)
		_ = file.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Name)
		_ = file.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Date)
		_ = file.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.CheckInTime)
		_ = file.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(r.Status))
		_ = file.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Photo)
	}
	_ = file.SetColWidth(sheet, "B", "B", 24)
	_ = file.SetColWidth(sheet, "F", "F", 48)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf, nil
}

// WriteFile renders records for date into dir, replacing any previous export.
func WriteFile(dir, date string, records []attendance.Record) (string, error) {
	buf, err := Workbook(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(date))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
