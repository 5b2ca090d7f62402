package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/mgnrega/dashboard/models"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no data to export")

const (
	title        = "MGNREGA District Performance Report"
	marginLeft   = 10.0
	marginRight  = 10.0
	tableTop     = 25.0
	marginBottom = 15.0
	headRowH     = 9.0
	bodyRowH     = 7.0
)

type rgb struct{ r, g, b int }

var (
	bandColor   = rgb{44, 62, 80}
	headColor   = rgb{52, 152, 219}
	bodyText    = rgb{50, 50, 50}
	stripeColor = rgb{248, 249, 250}
)

// WritePDF renders records as a landscape A4 table report.
func WritePDF(w io.Writer, records []models.Record, generated time.Time) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	columns := ExportColumns(records)
	if len(columns) == 0 {
		return fmt.Errorf("report: first record has no exportable fields: %w", ErrNoRecords)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(marginLeft, tableTop, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - marginLeft - marginRight) / float64(len(columns))

	pdf.SetFooterFunc(func() {
		pdf.SetTextColor(150, 150, 150)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetY(pageH - 12)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.Text(marginLeft, pageH-9, "MGNREGA Dashboard")
	})

	drawHead := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(headColor.r, headColor.g, headColor.b)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetX(marginLeft)
		for _, c := range columns {
			pdf.CellFormat(colW, headRowH, fit(pdf, tr(ColumnTitle(c)), colW), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(bodyText.r, bodyText.g, bodyText.b)
	}

	pdf.AddPage()

	pdf.SetFillColor(bandColor.r, bandColor.g, bandColor.b)
	pdf.Rect(0, 0, pageW, 20, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(14, 12, title)
	pdf.SetTextColor(200, 200, 200)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(pageW-60, 12, "Generated: "+generated.Format("2/1/2006, 3:04:05 pm"))
	pdf.Text(pageW-60, 17, fmt.Sprintf("Records: %d", len(records)))

	pdf.SetY(tableTop)
	drawHead()
	for i, r := range records {
		if pdf.GetY()+bodyRowH > pageH-marginBottom {
			pdf.AddPage()
			pdf.SetY(tableTop)
			drawHead()
		}
		stripe := i%2 == 1
		if stripe {
			pdf.SetFillColor(stripeColor.r, stripeColor.g, stripeColor.b)
		}
		pdf.SetX(marginLeft)
		for _, c := range columns {
			pdf.CellFormat(colW, bodyRowH, fit(pdf, tr(FormatCell(r[c])), colW), "1", 0, "L", stripe, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	return nil
}

// WriteFile renders the report into dir under FileName(generated) and
// returns the path written.
func WriteFile(dir string, records []models.Record, generated time.Time) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	path := filepath.Join(dir, FileName(generated))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WritePDF(f, records, generated); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("report: close %s: %w", path, err)
	}
	return path, nil
}

// fit shortens s until it fits a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"..") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}
