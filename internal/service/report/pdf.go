package report

import (
	"bytes"
	"fmt"
	"time"

	"attendance/workforce/internal/repository/postgres/points"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
)

// PointsStatement renders a user's points ledger as an A4 PDF.
func PointsStatement(s points.Statement) ([]byte, error) {
	tz, err := time.LoadLocation(s.Timezone)
	if err != nil || s.Timezone == "" {
		tz = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Points statement", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Points statement", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Employee: %s (%s)", deref(s.FullName), deref(s.EmployeeID)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Period: "+periodLabel(s.From, s.To), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Current balance: %d", s.PointsBalance), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{40, 25, 20, 25, 70}
	headers := []string{"Date", "Type", "Points", "Balance", "Description"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range s.Entries {
		cells := []string{
			e.CreatedAt.In(tz).Format("2006-01-02 15:04"),
			string(e.Type),
			fmt.Sprintf("%+d", e.Points),
			fmt.Sprintf("%d", e.BalanceAfter),
			e.Description,
		}
		for i, c := range cells {
			align := "L"
			if i == 2 || i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(s.Entries) == 0 {
		pdf.CellFormat(0, 7, "No ledger entries in this period.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

func periodLabel(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return from.Format("2006-01-02") + " to " + to.Format("2006-01-02")
	case from != nil:
		return "from " + from.Format("2006-01-02")
	case to != nil:
		return "until " + to.Format("2006-01-02")
	}
	return "all time"
}
