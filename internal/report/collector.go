package report

import (
	"sync"

	"proctor/internal/suite"
	"proctor/internal/testcase"
)

// Collector captures results in memory without writing to stdio. The MCP
// server uses it since stdout carries the protocol stream.
type Collector struct {
	mu      sync.RWMutex
	running string
	results []suite.CaseResult
	summary *suite.Summary
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) OnSuiteStart(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
	c.summary = nil
}

func (c *Collector) OnTestStart(tc *testcase.TestCase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = tc.Name
}

func (c *Collector) OnTestFinish(result suite.CaseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = ""
	c.results = append(c.results, result)
}

func (c *Collector) OnSuiteFinish(summary suite.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = &summary
}

// Running returns the name of the test case currently executing.
func (c *Collector) Running() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Results returns the results collected so far.
func (c *Collector) Results() []suite.CaseResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]suite.CaseResult, len(c.results))
	copy(out, c.results)
	return out
}

// Summary returns the final summary, or false while the suite is running.
func (c *Collector) Summary() (suite.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil {
		return suite.Summary{}, false
	}
	return *c.summary, true
}

// Replay feeds a finished summary to a reporter as if the suite ran again.
// OnTestStart is not called since the test cases are gone.
func Replay(r suite.Reporter, summary suite.Summary) {
	r.OnSuiteStart(summary.Name)
	for _, result := range summary.Results {
		r.OnTestFinish(result)
	}
	r.OnSuiteFinish(summary)
}
