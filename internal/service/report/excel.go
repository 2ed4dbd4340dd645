// Package report renders attendance exports, points statements and location
// QR codes, and reads bulk employee imports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"attendance/workforce/internal/repository/postgres/attendance"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const attendanceSheet = "Attendance"

var attendanceHeaders = []string{
	"Employee ID", "Full Name", "Work Day", "Location", "Check In", "Check Out",
	"Total Hours", "Face Verified", "Fraud Score", "Points", "Valid",
}

// AttendanceWorkbook writes one row per event with times in tz.
func AttendanceWorkbook(rows []attendance.GetListResponse, tz *time.Location) (*bytes.Buffer, error) {
	if tz == nil {
		tz = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	for i, header := range attendanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(attendanceSheet, cell, header)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(attendanceHeaders), 1)
		f.SetCellStyle(attendanceSheet, "A1", last, style)
	}

	for i, row := range rows {
		rowNum := i + 2

		checkOut := ""
		if row.CheckOutTime != nil {
			checkOut = row.CheckOutTime.In(tz).Format("15:04:05")
		}
		workDay := ""
		if row.WorkDay != nil {
			workDay = row.WorkDay.String()
		}

		values := []interface{}{
			deref(row.EmployeeID),
			deref(row.Fullname),
			workDay,
			deref(row.Location),
			row.CheckInTime.In(tz).Format("15:04:05"),
			checkOut,
			row.TotalHours,
			yesNo(row.FaceVerified),
			row.FraudScore,
			row.PointsEarned,
			yesNo(row.IsValid),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(attendanceSheet, cell, v)
		}
	}

	f.SetColWidth(attendanceSheet, "A", "K", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

// FileName is the download name of an export created at t.
func FileName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
