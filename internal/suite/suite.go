// Package suite orchestrates test case execution: before suite actions,
// per test case between actions, include and exclude filtering, counting
// and after suite actions.
package suite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"proctor/internal/action"
	"proctor/internal/function"
	"proctor/internal/testcase"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

const subsystem = "Suite"

// Options configure a Suite.
type Options struct {
	Name     string
	Globals  *testcontext.GlobalVariables
	Registry *function.Registry

	Before  []action.Action
	Between []action.Action
	After   []action.Action

	Include []string
	Exclude []string

	// FailFast skips all remaining test cases after the first failure.
	FailFast bool

	Reporters []Reporter
}

// Suite runs test cases. It is used once: BeforeSuite, then any number of
// Run calls, then AfterSuite.
type Suite struct {
	opts Options

	runID      string
	startTime  time.Time
	canProceed bool
	stopped    bool

	success int
	failed  int
	skipped int
	results []CaseResult

	beforeErr error
	afterErr  error
}

// New creates a suite.
func New(opts Options) *Suite {
	if opts.Name == "" {
		opts.Name = "proctor"
	}
	if opts.Globals == nil {
		opts.Globals = testcontext.NewGlobalVariables(nil)
	}
	return &Suite{
		opts:       opts,
		runID:      uuid.NewString(),
		startTime:  time.Now(),
		canProceed: true,
	}
}

// AddReporter registers an additional reporter.
func (s *Suite) AddReporter(r Reporter) {
	s.opts.Reporters = append(s.opts.Reporters, r)
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.opts.Name }

// RunID returns the unique id of this run.
func (s *Suite) RunID() string { return s.runID }

// BeforeSuite runs the before actions. On failure the suite cannot proceed
// and Run executes nothing.
func (s *Suite) BeforeSuite(ctx context.Context) bool {
	s.startTime = time.Now()
	for _, r := range s.opts.Reporters {
		r.OnSuiteStart(s.opts.Name)
	}

	if err := s.runChain(ctx, "before suite", s.opts.Before, s.newContext()); err != nil {
		logging.Error(subsystem, err, "Before suite failed")
		s.beforeErr = err
		s.canProceed = false
		return false
	}
	return true
}

// CanProceed reports whether the before suite actions succeeded.
func (s *Suite) CanProceed() bool {
	return s.canProceed
}

// Run executes the given test cases and returns true if none failed.
func (s *Suite) Run(ctx context.Context, cases ...*testcase.TestCase) bool {
	if !s.canProceed {
		logging.Warn(subsystem, "Before suite failed, not running %d test cases", len(cases))
		return false
	}

	ok := true
	for i, tc := range cases {
		if tc == nil {
			logging.Warn(subsystem, "Ignoring nil test case at position %d", i)
			continue
		}
		if reason := s.skipReason(ctx, tc); reason != "" {
			s.record(tc, ResultSkipped, time.Now(), nil, reason)
			continue
		}
		if !s.runCase(ctx, tc) {
			ok = false
			if s.opts.FailFast {
				s.stopped = true
			}
		}
	}
	return ok
}

func (s *Suite) skipReason(ctx context.Context, tc *testcase.TestCase) string {
	switch {
	case s.stopped:
		return "fail fast after earlier failure"
	case ctx.Err() != nil:
		return "run cancelled"
	case tc.Disabled():
		return "test case is disabled"
	case !s.included(tc.Name):
		return "not matched by include patterns"
	case s.excluded(tc.Name):
		return "matched by exclude patterns"
	default:
		return ""
	}
}

func (s *Suite) runCase(ctx context.Context, tc *testcase.TestCase) bool {
	for _, r := range s.opts.Reporters {
		r.OnTestStart(tc)
	}
	logging.Info(subsystem, "Running test case %s", tc.Name)

	start := time.Now()
	err := s.runChain(ctx, "between", s.opts.Between, tc.Context())
	if err == nil {
		err = s.executeCase(ctx, tc)
	}

	if err != nil {
		logging.Error(subsystem, err, "Test case %s failed", tc.Name)
		s.record(tc, ResultFailed, start, err, "")
		return false
	}
	s.record(tc, ResultPassed, start, nil, "")
	return true
}

func (s *Suite) executeCase(ctx context.Context, tc *testcase.TestCase) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("test case %s panicked: %v", tc.Name, r)
		}
	}()
	return tc.Execute(ctx)
}

// AfterSuite runs the after actions. Its result does not depend on earlier
// failures.
func (s *Suite) AfterSuite(ctx context.Context) bool {
	err := s.runChain(ctx, "after suite", s.opts.After, s.newContext())
	if err != nil {
		logging.Error(subsystem, err, "After suite failed")
		s.afterErr = err
	}

	summary := s.Summary()
	for _, r := range s.opts.Reporters {
		r.OnSuiteFinish(summary)
	}
	return err == nil
}

func (s *Suite) newContext() *testcontext.Context {
	return testcontext.New(s.opts.Globals, s.opts.Registry)
}

func (s *Suite) runChain(ctx context.Context, phase string, actions []action.Action, tc *testcontext.Context) (err error) {
	for i, a := range actions {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("action %s panicked: %v", a.Name(), r)
				}
			}()
			err = a.Execute(ctx, tc)
		}()
		if err != nil {
			return fmt.Errorf("%s action %d (%s) failed: %w", phase, i+1, a.Name(), err)
		}
	}
	return nil
}

func (s *Suite) record(tc *testcase.TestCase, result Result, start time.Time, err error, skipReason string) {
	end := time.Now()
	cr := CaseResult{
		Name:       tc.Name,
		Source:     tc.Source,
		Author:     tc.Meta.Author,
		Status:     tc.Meta.Status,
		Result:     result,
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start),
		SkipReason: skipReason,
	}
	if err != nil {
		cr.Error = err.Error()
	}

	switch result {
	case ResultPassed:
		s.success++
		cr.Actions = tc.Results()
	case ResultFailed:
		s.failed++
		cr.Actions = tc.Results()
	case ResultSkipped:
		s.skipped++
		logging.Debug(subsystem, "Skipping test case %s: %s", tc.Name, skipReason)
	}

	s.results = append(s.results, cr)
	for _, r := range s.opts.Reporters {
		r.OnTestFinish(cr)
	}
}

func (s *Suite) included(name string) bool {
	return len(s.opts.Include) == 0 || matchesAny(name, s.opts.Include)
}

func (s *Suite) excluded(name string) bool {
	return matchesAny(name, s.opts.Exclude)
}

// Selected reports whether a test case name passes the include and exclude
// patterns the way a run filters it.
func Selected(name string, include, exclude []string) bool {
	if len(include) > 0 && !matchesAny(name, include) {
		return false
	}
	return !matchesAny(name, exclude)
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if MatchesPattern(name, pattern) {
			return true
		}
	}
	return false
}

// MatchesPattern matches a test case name against a pattern that may hold
// a "*" wildcard at its start, its end or both. Without wildcards the name
// must match exactly.
func MatchesPattern(name, pattern string) bool {
	leading := strings.HasPrefix(pattern, "*")
	trailing := strings.HasSuffix(pattern, "*") && len(pattern) > 1
	core := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
	if pattern == "*" {
		return true
	}

	switch {
	case leading && trailing:
		return strings.Contains(name, core)
	case leading:
		return strings.HasSuffix(name, core)
	case trailing:
		return strings.HasPrefix(name, core)
	default:
		return name == pattern
	}
}

// Success returns the number of passed test cases.
func (s *Suite) Success() int { return s.success }

// Failed returns the number of failed test cases.
func (s *Suite) Failed() int { return s.failed }

// Skipped returns the number of skipped test cases.
func (s *Suite) Skipped() int { return s.skipped }

// Results returns the test case results in execution order.
func (s *Suite) Results() []CaseResult {
	out := make([]CaseResult, len(s.results))
	copy(out, s.results)
	return out
}

// Summary returns the current run summary.
func (s *Suite) Summary() Summary {
	end := time.Now()
	summary := Summary{
		Name:      s.opts.Name,
		RunID:     s.runID,
		StartTime: s.startTime,
		EndTime:   end,
		Duration:  end.Sub(s.startTime),
		Total:     s.success + s.failed + s.skipped,
		Passed:    s.success,
		Failed:    s.failed,
		Skipped:   s.skipped,
		Results:   s.Results(),
	}
	if s.beforeErr != nil {
		summary.BeforeSuiteError = s.beforeErr.Error()
	}
	if s.afterErr != nil {
		summary.AfterSuiteError = s.afterErr.Error()
	}
	return summary
}
