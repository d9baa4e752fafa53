package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"proctor/internal/action"
	"proctor/internal/config"
	"proctor/internal/loader"
	"proctor/internal/report"
	"proctor/internal/suite"
	"proctor/internal/testcase"
	"proctor/pkg/logging"
)

// ErrTestsFailed is returned by Run when the suite did not succeed.
var ErrTestsFailed = errors.New("test suite failed")

// TestPath returns the resolved test case directory or file.
func (a *Application) TestPath() string {
	return a.project.ResolvePath(a.project.TestDir)
}

// LoadTestCases loads fresh test cases bound to the application services.
func (a *Application) LoadTestCases() ([]*testcase.TestCase, error) {
	return loader.Load(a.TestPath(), loader.Options{
		Globals:     a.Globals(),
		Registry:    a.services.Registry,
		Endpoints:   a.services.Endpoints,
		DataSources: a.services.DataSources,
	})
}

// RunOptions narrow a single run. Empty fields keep the project settings.
type RunOptions struct {
	Include []string
	Exclude []string
}

// NewSuite creates a suite from the project configuration with the given
// reporters plus the file and history reporters the project asks for.
func (a *Application) NewSuite(opts RunOptions, reporters ...suite.Reporter) (*suite.Suite, error) {
	buildOpts := action.BuildOptions{
		Endpoints:   a.services.Endpoints,
		DataSources: a.services.DataSources,
		BaseDir:     a.project.Dir,
	}

	before, err := action.BuildAll(a.project.Before, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("before suite: %w", err)
	}
	between, err := action.BuildAll(a.project.Between, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("between: %w", err)
	}
	after, err := action.BuildAll(a.project.After, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("after suite: %w", err)
	}

	reportDir := a.project.ResolvePath(a.project.ReportDir)
	for _, format := range a.project.Reports {
		switch format {
		case config.ReportJSON:
			reporters = append(reporters, report.NewJSONFileReporter(reportDir))
		case config.ReportPDF:
			reporters = append(reporters, report.NewPDFReporter(reportDir))
		}
	}
	if a.services.History != nil {
		reporters = append(reporters, report.NewStoreReporter(a.services.History))
	}

	include, exclude := a.project.Include, a.project.Exclude
	if len(opts.Include) > 0 {
		include = opts.Include
	}
	if len(opts.Exclude) > 0 {
		exclude = opts.Exclude
	}

	return suite.New(suite.Options{
		Name:      a.project.Name,
		Globals:   a.Globals(),
		Registry:  a.services.Registry,
		Before:    before,
		Between:   between,
		After:     after,
		Include:   include,
		Exclude:   exclude,
		FailFast:  a.project.FailFast,
		Reporters: reporters,
	}), nil
}

// OutputReporters returns the reporters for the configured output format.
func (a *Application) OutputReporters() []suite.Reporter {
	var out io.Writer = os.Stdout
	if a.config.Out != nil {
		out = a.config.Out
	}

	switch a.config.Output {
	case OutputQuiet:
		return []suite.Reporter{report.NewQuietReporter(out)}
	case OutputJSON:
		return []suite.Reporter{report.NewJSONReporter(out)}
	case OutputTable:
		return []suite.Reporter{report.NewTableReporter(out)}
	case OutputNone:
		return nil
	default:
		return []suite.Reporter{report.NewConsoleReporter(out, a.config.Verbose)}
	}
}

// Run loads the test cases and executes them as a suite. The summary is
// returned even when tests fail; the error is then ErrTestsFailed.
func (a *Application) Run(ctx context.Context, reporters ...suite.Reporter) (suite.Summary, error) {
	return a.RunWith(ctx, RunOptions{}, reporters...)
}

// RunWith is Run with per-run filters.
func (a *Application) RunWith(ctx context.Context, opts RunOptions, reporters ...suite.Reporter) (suite.Summary, error) {
	cases, err := a.LoadTestCases()
	if err != nil {
		return suite.Summary{}, err
	}

	s, err := a.NewSuite(opts, append(a.OutputReporters(), reporters...)...)
	if err != nil {
		return suite.Summary{}, err
	}

	logging.Info("Run", "Running %d test cases from %s", len(cases), a.TestPath())
	if s.BeforeSuite(ctx) {
		s.Run(ctx, cases...)
	}
	s.AfterSuite(ctx)

	summary := s.Summary()
	if !summary.Success() {
		return summary, ErrTestsFailed
	}
	return summary, nil
}
