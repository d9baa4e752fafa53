package report

import (
	"fmt"
	"io"
	"os"

	"proctor/internal/suite"
	"proctor/internal/testcase"
	pstrings "proctor/pkg/strings"
)

// consoleReporter prints human readable progress
type consoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a reporter that prints progress to out
func NewConsoleReporter(out io.Writer, verbose bool) suite.Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &consoleReporter{out: out, verbose: verbose}
}

func (r *consoleReporter) OnSuiteStart(name string) {
	fmt.Fprintf(r.out, "🧪 Starting test suite %s\n", name)
}

func (r *consoleReporter) OnTestStart(tc *testcase.TestCase) {
	if !r.verbose {
		fmt.Fprintf(r.out, "🎯 %s... ", tc.Name)
		return
	}

	fmt.Fprintf(r.out, "🎯 Starting test case: %s\n", tc.Name)
	if tc.Description != "" {
		fmt.Fprintf(r.out, "   📝 Description: %s\n", tc.Description)
	}
	if tc.Meta.Author != "" {
		fmt.Fprintf(r.out, "   👤 Author: %s\n", tc.Meta.Author)
	}
	fmt.Fprintf(r.out, "   📋 Actions: %d\n", len(tc.Actions))
	if len(tc.Finally) > 0 {
		fmt.Fprintf(r.out, "   🧹 Finally actions: %d\n", len(tc.Finally))
	}
}

func (r *consoleReporter) OnTestFinish(result suite.CaseResult) {
	symbol := resultSymbol(result.Result)

	if result.Result == suite.ResultSkipped {
		// Skipped cases never got a start line.
		if r.verbose {
			fmt.Fprintf(r.out, "%s Skipped test case: %s (%s)\n\n", symbol, result.Name, result.SkipReason)
		} else {
			fmt.Fprintf(r.out, "🎯 %s... %s\n", result.Name, symbol)
		}
		return
	}

	if !r.verbose {
		fmt.Fprintf(r.out, "%s (%v)\n", symbol, result.Duration)
		return
	}

	for _, a := range result.Actions {
		actionSymbol := resultSymbol(suite.ResultPassed)
		if a.Error != "" {
			actionSymbol = resultSymbol(suite.ResultFailed)
		}
		label := "Action"
		if a.Finally {
			label = "Finally"
		}
		fmt.Fprintf(r.out, "   %s %s %d: %s (%v)\n", actionSymbol, label, a.Index, a.Name, a.Duration)
		if a.Error != "" {
			fmt.Fprintf(r.out, "      ❌ %s\n", a.Error)
		}
	}

	fmt.Fprintf(r.out, "%s Test case completed: %s (%v)\n", symbol, result.Name, result.Duration)
	if result.Error != "" {
		fmt.Fprintf(r.out, "   ❌ Error: %s\n", result.Error)
	}
	fmt.Fprintln(r.out)
}

func (r *consoleReporter) OnSuiteFinish(summary suite.Summary) {
	fmt.Fprintf(r.out, "\n🏁 Test Suite Complete\n")
	fmt.Fprintf(r.out, "⏱️  Duration: %v\n", summary.Duration)
	fmt.Fprintf(r.out, "📊 Results:\n")
	fmt.Fprintf(r.out, "   ✅ Passed: %d\n", summary.Passed)

	if summary.Failed > 0 {
		fmt.Fprintf(r.out, "   ❌ Failed: %d\n", summary.Failed)
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(r.out, "   ⏭️  Skipped: %d\n", summary.Skipped)
	}
	fmt.Fprintf(r.out, "   📈 Total: %d\n", summary.Total)
	fmt.Fprintf(r.out, "   📏 Success Rate: %.1f%%\n", SuccessRate(summary))

	if summary.BeforeSuiteError != "" {
		fmt.Fprintf(r.out, "   💥 Before suite: %s\n", pstrings.Truncate(summary.BeforeSuiteError, 120))
	}
	if summary.AfterSuiteError != "" {
		fmt.Fprintf(r.out, "   💥 After suite: %s\n", pstrings.Truncate(summary.AfterSuiteError, 120))
	}

	if summary.Success() {
		fmt.Fprintf(r.out, "\n🎉 All tests passed!\n")
	} else {
		fmt.Fprintf(r.out, "\n💔 Some tests failed\n")
	}
}

// quietReporter only prints failures and the final line
type quietReporter struct {
	out io.Writer
}

// NewQuietReporter creates a reporter that only outputs essential information
func NewQuietReporter(out io.Writer) suite.Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &quietReporter{out: out}
}

func (r *quietReporter) OnSuiteStart(string) {}

func (r *quietReporter) OnTestStart(*testcase.TestCase) {}

func (r *quietReporter) OnTestFinish(result suite.CaseResult) {
	if result.Result == suite.ResultFailed {
		fmt.Fprintf(r.out, "❌ %s: %s\n", result.Name, result.Error)
	}
}

func (r *quietReporter) OnSuiteFinish(summary suite.Summary) {
	if summary.Success() {
		fmt.Fprintf(r.out, "✅ All %d tests passed (%v)\n", summary.Passed, summary.Duration)
	} else {
		fmt.Fprintf(r.out, "❌ %d/%d tests failed (%v)\n", summary.Failed, summary.Total, summary.Duration)
	}
}

// SuccessRate returns the share of passed test cases in percent.
func SuccessRate(summary suite.Summary) float64 {
	if summary.Total == 0 {
		return 0
	}
	return float64(summary.Passed) / float64(summary.Total) * 100
}

func resultSymbol(result suite.Result) string {
	switch result {
	case suite.ResultPassed:
		return "✅"
	case suite.ResultFailed:
		return "❌"
	case suite.ResultSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}
