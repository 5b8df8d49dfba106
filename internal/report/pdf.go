package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// CalcSheet is the content of one PDF calculation sheet.
type CalcSheet struct {
	Title   string
	Model   string
	RunID   string
	Author  string
	Date    time.Time
	Floor   float64 // base shear floor of a force run
	Units   loadcase.Units
	Periods []*seismic.PeriodResult
	Forces  []*seismic.ForceResult
	Notes   []seismic.Diagnostic
}

const (
	pdfLine   = 6.0
	pdfHeader = 7.0
)

// WriteCalcSheet renders the sheet as an A4 PDF.
func WriteCalcSheet(path string, cs CalcSheet) error {
	if cs.Title == "" {
		cs.Title = "Equivalent Static Seismic Calculation"
	}
	if cs.Date.IsZero() {
		cs.Date = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(cs.Title, true)
	pdf.SetAuthor(cs.Author, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, cs.Title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Model: %s", cs.Model),
		fmt.Sprintf("Run: %s", cs.RunID),
		fmt.Sprintf("Date: %s", cs.Date.Format("2006-01-02 15:04")),
		fmt.Sprintf("Units: %s, g = %.2f", cs.Units, loadcase.Gravity),
	} {
		pdf.Cell(0, pdfLine, line)
		pdf.Ln(pdfLine)
	}
	pdf.Ln(4)

	if len(cs.Periods) > 0 {
		section(pdf, "Rayleigh period  T = 2 pi sqrt(zeta / (g beta))")
		widths := []float64{50, 20, 35, 35, 35}
		tableHeader(pdf, widths, periodColumns)
		for _, r := range cs.Periods {
			tableRow(pdf, widths, []string{
				r.Group, r.Axis.String(),
				fmt.Sprintf("%.4f", r.Period), fmt.Sprintf("%.4f", r.Beta), fmt.Sprintf("%.4f", r.Zeta),
			})
		}
		pdf.Ln(4)
	}

	if len(cs.Forces) > 0 {
		section(pdf, fmt.Sprintf("Equivalent static forces  F = (beta/zeta) C g m u, floor %.0f%% of V", cs.Floor*100))
		widths := []float64{34, 12, 26, 18, 26, 26, 24, 24}
		tableHeader(pdf, widths, []string{"Group", "Dir", "Total Force", "C", "beta", "zeta", "Total Mass", "Base Shear"})
		for _, r := range cs.Forces {
			beta, zeta := "-", "-"
			if !r.Axis.Vertical() {
				beta, zeta = fmt.Sprintf("%.4f", r.Beta), fmt.Sprintf("%.4f", r.Zeta)
			}
			tableRow(pdf, widths, []string{
				r.Group, r.Axis.String(), fmt.Sprintf("%.4f", r.TotalForce()), fmt.Sprintf("%.3f", r.Factor),
				beta, zeta, fmt.Sprintf("%.4f", r.TotalMass), fmt.Sprintf("%.4f", r.BaseShear),
			})
		}
		pdf.Ln(4)
	}

	if len(cs.Notes) > 0 {
		section(pdf, "Notes")
		pdf.SetFont("Helvetica", "", 9)
		for _, d := range cs.Notes {
			pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.Axis, d.Group, d.Message), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render calc sheet: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, cols []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, c := range cols {
		pdf.CellFormat(widths[i], pdfHeader, c, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, cells []string) {
	pdf.SetFont("Helvetica", "", 9)
	for i, c := range cells {
		align := "R"
		if i < 2 {
			align = "L"
		}
		pdf.CellFormat(widths[i], pdfLine, c, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
