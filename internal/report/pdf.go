package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"proctor/internal/suite"
	"proctor/internal/testcase"
	"proctor/pkg/logging"
	pstrings "proctor/pkg/strings"
)

// WritePDF renders the summary as a PDF document.
func WritePDF(w io.Writer, summary suite.Summary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Test Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	info := []struct{ label, value string }{
		{"Suite", summary.Name},
		{"Run ID", summary.RunID},
		{"Started", summary.StartTime.Format(time.RFC3339)},
		{"Finished", summary.EndTime.Format(time.RFC3339)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
		{"Results", fmt.Sprintf("%d passed, %d failed, %d skipped of %d", summary.Passed, summary.Failed, summary.Skipped, summary.Total)},
		{"Success rate", fmt.Sprintf("%.1f%%", SuccessRate(summary))},
	}
	if summary.BeforeSuiteError != "" {
		info = append(info, struct{ label, value string }{"Before suite", pstrings.Truncate(summary.BeforeSuiteError, 90)})
	}
	if summary.AfterSuiteError != "" {
		info = append(info, struct{ label, value string }{"After suite", pstrings.Truncate(summary.AfterSuiteError, 90)})
	}

	for _, item := range info {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 7, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Test Cases", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(summary.Results) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 7, "No test cases executed.", "", 1, "L", false, 0, "")
		return pdf.Output(w)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	pdf.CellFormat(55, 7, "Test case", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 7, "Result", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Duration", "1", 0, "R", true, 0, "")
	pdf.CellFormat(0, 7, "Details", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, r := range summary.Results {
		details := r.Error
		if r.Result == suite.ResultSkipped {
			details = r.SkipReason
		}
		pdf.CellFormat(55, 7, pstrings.Truncate(r.Name, 30), "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 7, string(r.Result), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, r.Duration.Round(time.Millisecond).String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(0, 7, pstrings.Truncate(details, 45), "1", 1, "L", false, 0, "")
	}

	for _, r := range summary.Results {
		if r.Result != suite.ResultFailed {
			continue
		}
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Failure: "+r.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, r.Error, "", "L", false)
		pdf.Ln(4)

		if len(r.Actions) == 0 {
			continue
		}
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(220, 220, 220)
		pdf.CellFormat(12, 6, "#", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 6, "Action", "1", 0, "L", true, 0, "")
		pdf.CellFormat(25, 6, "Duration", "1", 0, "R", true, 0, "")
		pdf.CellFormat(0, 6, "Error", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 8)
		for _, a := range r.Actions {
			name := a.Name
			if a.Finally {
				name += " (finally)"
			}
			pdf.CellFormat(12, 6, fmt.Sprint(a.Index), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, pstrings.Truncate(name, 24), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, a.Duration.Round(time.Millisecond).String(), "1", 0, "R", false, 0, "")
			pdf.CellFormat(0, 6, pstrings.Truncate(a.Error, 60), "1", 1, "L", false, 0, "")
		}
	}

	return pdf.Output(w)
}

// pdfReporter writes a PDF file per run
type pdfReporter struct {
	dir string
}

// NewPDFReporter creates a reporter that writes a PDF report into dir.
func NewPDFReporter(dir string) suite.Reporter {
	return &pdfReporter{dir: dir}
}

func (r *pdfReporter) OnSuiteStart(string) {}

func (r *pdfReporter) OnTestStart(*testcase.TestCase) {}

func (r *pdfReporter) OnTestFinish(suite.CaseResult) {}

func (r *pdfReporter) OnSuiteFinish(summary suite.Summary) {
	path, err := SavePDF(r.dir, summary)
	if err != nil {
		logging.Error(subsystem, err, "Failed to save PDF report")
		return
	}
	logging.Info(subsystem, "PDF report saved to %s", path)
}

// SavePDF writes the PDF report into dir and returns the file path.
func SavePDF(dir string, summary suite.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("proctor-report-%s.pdf", summary.RunID))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create PDF file: %w", err)
	}
	defer f.Close()

	if err := WritePDF(f, summary); err != nil {
		return "", fmt.Errorf("failed to render PDF: %w", err)
	}
	return path, nil
}
