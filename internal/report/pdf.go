package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/types"
)

// RenderPDF renders a report as a PDF document, grounded on the teacher's
// finding-by-finding PDF writer generalized to radar findings.
func RenderPDF(report types.RadarReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Agentic Radar Report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, fmt.Sprintf("Project: %s | Mode: %s", report.ProjectName, report.Mode))
	pdf.Ln(6)
	pdf.Cell(40, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt))
	pdf.Ln(12)

	totals := types.SeverityTotals(report.Findings)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, severity := range []string{types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow, types.SeverityInfo, types.SeverityUnknown} {
		pdf.Cell(40, 6, fmt.Sprintf("%s: %v", severity, totals[severity]))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Findings")
	pdf.Ln(10)

	for i, finding := range report.Findings {
		if i > 0 {
			pdf.Ln(5)
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, fmt.Sprintf("%d. %s", i+1, finding.Title))
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 9)
		pdf.Cell(40, 5, fmt.Sprintf("Severity: %s | Detector: %s | ID: %s", finding.Severity, finding.Detector, finding.Identifier))
		pdf.Ln(5)

		if finding.Subject != nil {
			pdf.Cell(40, 5, fmt.Sprintf("Subject: %s", *finding.Subject))
			pdf.Ln(5)
		}

		if finding.Description != "" {
			pdf.MultiCell(0, 4, finding.Description, "", "", false)
			pdf.Ln(2)
		}

		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewReportError("failed to generate PDF: " + err.Error())
	}
	return buf.Bytes(), nil
}
