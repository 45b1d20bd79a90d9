package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets as a landscape table. Timetable exports carry
// nine columns, so the page is rotated and column widths are weighted instead
// of uniform.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// columnWeight widens the columns that hold free-form text.
func columnWeight(header string) float64 {
	switch header {
	case "Subject", "Teacher":
		return 2.0
	case "Group", "Room":
		return 1.3
	default:
		return 1.0
	}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 20
	var totalWeight float64
	for _, header := range data.Headers {
		totalWeight += columnWeight(header)
	}
	widths := make([]float64, len(data.Headers))
	for i, header := range data.Headers {
		widths[i] = usable * columnWeight(header) / totalWeight
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(245, 245, 245)
	for rowIdx, row := range data.Rows {
		fill := rowIdx%2 == 1
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 7, truncateCell(row[header], 40), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateCell(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
