package suite

import (
	"time"

	"proctor/internal/testcase"
)

// Result is the outcome of a test case
type Result string

const (
	// ResultPassed indicates the test case passed
	ResultPassed Result = "PASSED"
	// ResultFailed indicates the test case failed
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the test case was not executed
	ResultSkipped Result = "SKIPPED"
)

// CaseResult represents the result of a single test case
type CaseResult struct {
	// Name of the test case
	Name string `json:"name"`
	// Source file of the test case, if loaded from disk
	Source string `json:"source,omitempty"`
	// Author from the test case meta info
	Author string `json:"author,omitempty"`
	// Status from the test case meta info
	Status testcase.Status `json:"status"`
	// Result is the outcome
	Result Result `json:"result"`
	// StartTime when execution began
	StartTime time.Time `json:"start_time"`
	// EndTime when execution completed
	EndTime time.Time `json:"end_time"`
	// Duration of the execution
	Duration time.Duration `json:"duration"`
	// Error message if the test case failed
	Error string `json:"error,omitempty"`
	// SkipReason explains why a test case was skipped
	SkipReason string `json:"skip_reason,omitempty"`
	// Actions contains the individual action results
	Actions []testcase.ActionResult `json:"actions,omitempty"`
}

// Summary represents the overall result of a suite run
type Summary struct {
	// Name of the suite
	Name string `json:"name"`
	// RunID uniquely identifies the run
	RunID string `json:"run_id"`
	// StartTime when the suite started
	StartTime time.Time `json:"start_time"`
	// EndTime when the suite finished
	EndTime time.Time `json:"end_time"`
	// Duration of the whole run
	Duration time.Duration `json:"duration"`
	// Total is the number of test cases seen
	Total int `json:"total"`
	// Passed is the number of successful test cases
	Passed int `json:"passed"`
	// Failed is the number of failed test cases
	Failed int `json:"failed"`
	// Skipped is the number of skipped test cases
	Skipped int `json:"skipped"`
	// BeforeSuiteError holds the failure of the before suite actions
	BeforeSuiteError string `json:"before_suite_error,omitempty"`
	// AfterSuiteError holds the failure of the after suite actions
	AfterSuiteError string `json:"after_suite_error,omitempty"`
	// Results contains the test case results in execution order
	Results []CaseResult `json:"results"`
}

// Success reports whether the run had no failures at all.
func (s Summary) Success() bool {
	return s.Failed == 0 && s.BeforeSuiteError == "" && s.AfterSuiteError == ""
}

// Reporter is notified about suite progress
type Reporter interface {
	// OnSuiteStart is called once before the first test case
	OnSuiteStart(name string)
	// OnTestStart is called before a test case is executed
	OnTestStart(tc *testcase.TestCase)
	// OnTestFinish is called for every test case, including skipped ones
	OnTestFinish(result CaseResult)
	// OnSuiteFinish is called after the after suite actions
	OnSuiteFinish(summary Summary)
}
