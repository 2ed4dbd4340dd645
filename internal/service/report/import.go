package report

import (
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// ImportSheet is the sheet bulk employee imports are read from.
const ImportSheet = "Employees"

// ImportHeaders are the columns of the import template, in order.
var ImportHeaders = []string{"Employee ID", "Full Name", "Role", "Password", "Phone", "Locale", "Face Photo URL"}

type ImportRow struct {
	Row          int
	EmployeeID   string
	FullName     string
	Role         string
	Password     string
	Phone        string
	Locale       string
	FacePhotoURL string
}

var phoneRegex = regexp.MustCompile(`^\+?\d{6,15}$`)

// ReadEmployees parses an import workbook. Rows that are incomplete, use
// full-width identifiers, have a bad phone or repeat an employee id already
// in existing or earlier in the file are reported by row number and skipped.
func ReadEmployees(r io.Reader, existing map[string]struct{}) ([]ImportRow, []int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(ImportSheet)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading sheet %q", ImportSheet)
	}

	var (
		out      []ImportRow
		rejected []int
		seen     = map[string]struct{}{}
	)

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1

		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(norm.NFC.String(row[col]))
			}
			return ""
		}

		rec := ImportRow{
			Row:          rowNum,
			EmployeeID:   cell(0),
			FullName:     cell(1),
			Role:         strings.ToUpper(cell(2)),
			Password:     cell(3),
			Phone:        cell(4),
			Locale:       cell(5),
			FacePhotoURL: cell(6),
		}

		if rec.EmployeeID == "" && rec.FullName == "" && rec.Password == "" {
			continue
		}
		if rec.EmployeeID == "" || rec.Role == "" || rec.Password == "" {
			rejected = append(rejected, rowNum)
			continue
		}
		if !IsHalfWidth(rec.EmployeeID) || !IsHalfWidth(rec.Password) {
			rejected = append(rejected, rowNum)
			continue
		}
		if rec.Phone != "" && !phoneRegex.MatchString(rec.Phone) {
			rejected = append(rejected, rowNum)
			continue
		}
		if _, ok := existing[rec.EmployeeID]; ok {
			rejected = append(rejected, rowNum)
			continue
		}
		if _, ok := seen[rec.EmployeeID]; ok {
			rejected = append(rejected, rowNum)
			continue
		}

		seen[rec.EmployeeID] = struct{}{}
		out = append(out, rec)
	}

	return out, rejected, nil
}

// ImportTemplate is an empty workbook with the import headers.
func ImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ImportSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}
	for i, h := range ImportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ImportSheet, cell, h)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing template")
	}
	return buf.Bytes(), nil
}

// IsHalfWidth reports whether s has no full-width forms.
func IsHalfWidth(s string) bool {
	for _, r := range norm.NFC.String(s) {
		if r >= '！' && r <= '｠' || r >= '￠' && r <= '￯' {
			return false
		}
	}
	return true
}
