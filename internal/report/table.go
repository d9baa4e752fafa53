package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"proctor/internal/suite"
	"proctor/internal/testcase"
	pstrings "proctor/pkg/strings"
)

// RenderTable writes the per test case results and totals as a table.
func RenderTable(w io.Writer, summary suite.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s (%s)", summary.Name, summary.RunID))

	t.AppendHeader(table.Row{
		text.Bold.Sprint("TEST CASE"),
		text.Bold.Sprint("RESULT"),
		text.Bold.Sprint("DURATION"),
		text.Bold.Sprint("DETAILS"),
	})

	for _, r := range summary.Results {
		details := r.Error
		if r.Result == suite.ResultSkipped {
			details = r.SkipReason
		}
		t.AppendRow(table.Row{
			r.Name,
			colorResult(r.Result),
			r.Duration.Round(time.Millisecond).String(),
			pstrings.Truncate(details, pstrings.DefaultMaxLen),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d/%d passed", summary.Passed, summary.Total),
		summary.Duration.Round(time.Millisecond).String(),
		fmt.Sprintf("%d failed, %d skipped", summary.Failed, summary.Skipped),
	})
	t.Render()
}

func colorResult(result suite.Result) string {
	switch result {
	case suite.ResultPassed:
		return text.FgGreen.Sprint(string(result))
	case suite.ResultFailed:
		return text.FgRed.Sprint(string(result))
	default:
		return text.FgYellow.Sprint(string(result))
	}
}

// tableReporter renders the table once the suite finishes
type tableReporter struct {
	out io.Writer
}

// NewTableReporter creates a reporter that renders a summary table.
func NewTableReporter(out io.Writer) suite.Reporter {
	return &tableReporter{out: out}
}

func (r *tableReporter) OnSuiteStart(string) {}

func (r *tableReporter) OnTestStart(*testcase.TestCase) {}

func (r *tableReporter) OnTestFinish(suite.CaseResult) {}

func (r *tableReporter) OnSuiteFinish(summary suite.Summary) {
	RenderTable(r.out, summary)
}
