package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"proctor/internal/suite"
	"proctor/internal/testcase"
	"proctor/pkg/logging"
)

const subsystem = "Report"

// jsonReporter writes the summary as JSON once the suite finishes
type jsonReporter struct {
	out io.Writer
}

// NewJSONReporter creates a reporter that outputs JSON for CI/CD integration
func NewJSONReporter(out io.Writer) suite.Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &jsonReporter{out: out}
}

func (r *jsonReporter) OnSuiteStart(string) {}

func (r *jsonReporter) OnTestStart(*testcase.TestCase) {}

func (r *jsonReporter) OnTestFinish(suite.CaseResult) {}

func (r *jsonReporter) OnSuiteFinish(summary suite.Summary) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logging.Error(subsystem, err, "Failed to marshal summary")
		return
	}
	fmt.Fprintln(r.out, string(data))
}

// jsonFileReporter saves a detailed report file per run
type jsonFileReporter struct {
	dir string
}

// NewJSONFileReporter creates a reporter that saves a timestamped JSON
// report into dir.
func NewJSONFileReporter(dir string) suite.Reporter {
	return &jsonFileReporter{dir: dir}
}

func (r *jsonFileReporter) OnSuiteStart(string) {}

func (r *jsonFileReporter) OnTestStart(*testcase.TestCase) {}

func (r *jsonFileReporter) OnTestFinish(suite.CaseResult) {}

func (r *jsonFileReporter) OnSuiteFinish(summary suite.Summary) {
	path, err := SaveJSON(r.dir, summary)
	if err != nil {
		logging.Error(subsystem, err, "Failed to save detailed report")
		return
	}
	logging.Info(subsystem, "Detailed report saved to %s", path)
}

// SaveJSON writes the summary to a timestamped file inside dir and returns
// the file path.
func SaveJSON(dir string, summary suite.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	end := summary.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	path := filepath.Join(dir, fmt.Sprintf("proctor-report-%s.json", end.Format("20060102-150405")))

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
