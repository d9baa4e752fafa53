package suite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/action"
	"proctor/internal/testcase"
	"proctor/internal/testcontext"
)

func passing(name string) action.Action {
	return action.New(name, func(context.Context, *testcontext.Context) error { return nil })
}

func failing(name string) action.Action {
	return action.New(name, func(context.Context, *testcontext.Context) error {
		return errors.New("generated error")
	})
}

func newCase(name string) *testcase.TestCase {
	return testcase.NewBuilder(name).Action(passing("noop")).Build(nil, nil)
}

type recordingReporter struct {
	events  []string
	summary Summary
}

func (r *recordingReporter) OnSuiteStart(name string) {
	r.events = append(r.events, "suite-start:"+name)
}

func (r *recordingReporter) OnTestStart(tc *testcase.TestCase) {
	r.events = append(r.events, "test-start:"+tc.Name)
}

func (r *recordingReporter) OnTestFinish(result CaseResult) {
	r.events = append(r.events, "test-finish:"+result.Name+":"+string(result.Result))
}

func (r *recordingReporter) OnSuiteFinish(summary Summary) {
	r.events = append(r.events, "suite-finish")
	r.summary = summary
}

func TestSuite_SingleTestCase(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	assert.True(t, s.BeforeSuite(ctx))
	assert.True(t, s.Run(ctx, newCase("MyTestCase")))
	assert.True(t, s.AfterSuite(ctx))

	assert.Equal(t, 1, s.Success())
	assert.Equal(t, 0, s.Failed())
	assert.Equal(t, 0, s.Skipped())
}

func TestSuite_NilTestCaseIsIgnored(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	require.True(t, s.BeforeSuite(ctx))
	assert.NotPanics(t, func() {
		assert.True(t, s.Run(ctx, nil, newCase("MyTestCase"), nil))
	})

	assert.Equal(t, 1, s.Success())
	assert.Equal(t, 0, s.Failed())
	assert.Equal(t, 0, s.Skipped())
	assert.Len(t, s.Results(), 1)
}

func TestSuite_FailingBeforeSuite(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Before: []action.Action{failing("before")}})

	executed := false
	tc := testcase.NewBuilder("MyTestCase").Action(action.New("mark", func(context.Context, *testcontext.Context) error {
		executed = true
		return nil
	})).Build(nil, nil)

	assert.False(t, s.BeforeSuite(ctx))
	assert.False(t, s.CanProceed())
	assert.False(t, s.Run(ctx, tc))
	assert.False(t, executed)
	assert.Equal(t, 0, s.Success())
	assert.Contains(t, s.Summary().BeforeSuiteError, "before suite action 1 (before) failed")
}

func TestSuite_FailingAfterSuite(t *testing.T) {
	ctx := context.Background()
	s := New(Options{After: []action.Action{failing("after")}})

	assert.True(t, s.BeforeSuite(ctx))
	assert.True(t, s.Run(ctx, newCase("MyTestCase")))
	assert.False(t, s.AfterSuite(ctx))

	assert.Equal(t, 1, s.Success())
	assert.False(t, s.Summary().Success())
}

func TestSuite_AfterSuiteRunsAfterFailures(t *testing.T) {
	ctx := context.Background()
	afterRan := false
	s := New(Options{After: []action.Action{action.New("after", func(context.Context, *testcontext.Context) error {
		afterRan = true
		return nil
	})}})

	tc := testcase.NewBuilder("Broken").Action(failing("boom")).Build(nil, nil)

	assert.False(t, s.Run(ctx, tc))
	assert.True(t, s.AfterSuite(ctx))
	assert.True(t, afterRan)
}

func TestSuite_BetweenActions(t *testing.T) {
	ctx := context.Background()

	t.Run("passing", func(t *testing.T) {
		s := New(Options{Between: []action.Action{passing("between")}})
		assert.True(t, s.Run(ctx, newCase("MyTestCase"), newCase("MyTestCase")))
		assert.Equal(t, 2, s.Success())
	})

	t.Run("failing", func(t *testing.T) {
		s := New(Options{Between: []action.Action{failing("between")}})
		assert.False(t, s.Run(ctx, newCase("MyTestCase"), newCase("MyTestCase")))
		assert.Equal(t, 0, s.Success())
		assert.Equal(t, 2, s.Failed())
		assert.Equal(t, 0, s.Skipped())
		assert.True(t, s.AfterSuite(ctx))
	})

	t.Run("shares the test case context", func(t *testing.T) {
		s := New(Options{Between: []action.Action{action.New("seed", func(_ context.Context, tc *testcontext.Context) error {
			return tc.SetVariable("seeded", "yes")
		})}})

		var seen string
		tc := testcase.NewBuilder("MyTestCase").Action(action.New("read", func(_ context.Context, tc *testcontext.Context) error {
			v, err := tc.GetVariable("seeded")
			seen = v
			return err
		})).Build(nil, nil)

		assert.True(t, s.Run(ctx, tc))
		assert.Equal(t, "yes", seen)
	})
}

func TestSuite_IncludeExclude(t *testing.T) {
	names := []string{"TestCase1", "TestCase2", "ExcludeTestCase"}

	tests := []struct {
		name            string
		include         []string
		exclude         []string
		expectedSkipped int
		expectedSuccess int
	}{
		{"include exact name", []string{"TestCase1"}, nil, 2, 1},
		{"include prefix pattern", []string{"TestCase*"}, nil, 1, 2},
		{"include suffix pattern", []string{"*TestCase"}, nil, 2, 1},
		{"include substring pattern", []string{"*TestCase*"}, nil, 0, 3},
		{"exclude exact name", nil, []string{"TestCase1"}, 1, 2},
		{"exclude prefix pattern", nil, []string{"Exclude*"}, 1, 2},
		{"include and exclude", []string{"TestCase*"}, []string{"*2"}, 2, 1},
		{"no patterns", nil, nil, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{Include: tt.include, Exclude: tt.exclude})

			var cases []*testcase.TestCase
			for _, n := range names {
				cases = append(cases, newCase(n))
			}

			assert.True(t, s.Run(context.Background(), cases...))
			assert.Equal(t, tt.expectedSkipped, s.Skipped())
			assert.Equal(t, tt.expectedSuccess, s.Success())
		})
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected bool
	}{
		{"TestCase1", "TestCase1", true},
		{"TestCase1", "TestCase", false},
		{"TestCase1", "TestCase*", true},
		{"ExcludeTestCase", "TestCase*", false},
		{"ExcludeTestCase", "*TestCase", true},
		{"TestCase1", "*TestCase", false},
		{"ExcludeTestCase", "*Test*", true},
		{"TestCase1", "*", true},
		{"TestCase1", "Test*Case1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchesPattern(tt.name, tt.pattern))
		})
	}
}

func TestSuite_DisabledTestCaseIsSkipped(t *testing.T) {
	tc := testcase.NewBuilder("Disabled").Status(testcase.StatusDisabled).Action(failing("boom")).Build(nil, nil)

	s := New(Options{})
	assert.True(t, s.Run(context.Background(), tc))
	assert.Equal(t, 1, s.Skipped())
	assert.Equal(t, 0, s.Failed())

	results := s.Results()
	require.Len(t, results, 1)
	assert.Equal(t, ResultSkipped, results[0].Result)
	assert.Equal(t, "test case is disabled", results[0].SkipReason)
}

func TestSuite_PanicIsCountedAsFailure(t *testing.T) {
	panicking := action.New("panic", func(context.Context, *testcontext.Context) error {
		panic("unexpected")
	})

	s := New(Options{Between: []action.Action{panicking}})
	assert.False(t, s.Run(context.Background(), newCase("MyTestCase"), newCase("Other")))
	assert.Equal(t, 2, s.Failed())

	results := s.Results()
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Error, "panicked: unexpected")
}

func TestSuite_FailFast(t *testing.T) {
	broken := testcase.NewBuilder("Broken").Action(failing("boom")).Build(nil, nil)

	s := New(Options{FailFast: true})
	assert.False(t, s.Run(context.Background(), newCase("First"), broken, newCase("Third"), newCase("Fourth")))

	assert.Equal(t, 1, s.Success())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, 2, s.Skipped())
}

func TestSuite_CancelledContextSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{})
	assert.True(t, s.Run(ctx, newCase("MyTestCase")))
	assert.Equal(t, 1, s.Skipped())
}

func TestSuite_Reporters(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	s := New(Options{Name: "sample", Exclude: []string{"Skipped"}, Reporters: []Reporter{reporter}})
	broken := testcase.NewBuilder("Broken").Action(failing("boom")).Build(nil, nil)

	s.BeforeSuite(ctx)
	s.Run(ctx, newCase("Passing"), broken, newCase("Skipped"))
	s.AfterSuite(ctx)

	assert.Equal(t, []string{
		"suite-start:sample",
		"test-start:Passing",
		"test-finish:Passing:PASSED",
		"test-start:Broken",
		"test-finish:Broken:FAILED",
		"test-finish:Skipped:SKIPPED",
		"suite-finish",
	}, reporter.events)

	summary := reporter.summary
	assert.Equal(t, "sample", summary.Name)
	assert.Equal(t, s.RunID(), summary.RunID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Results, 3)
	assert.Contains(t, summary.Results[1].Error, "boom")
	assert.False(t, summary.Success())
}

func TestSuite_GlobalVariablesSeedContexts(t *testing.T) {
	globals := testcontext.NewGlobalVariables(map[string]any{"env": "test"})

	var seen string
	s := New(Options{
		Globals: globals,
		Before: []action.Action{action.New("read", func(_ context.Context, tc *testcontext.Context) error {
			v, err := tc.GetVariable("env")
			seen = v
			return err
		})},
	})

	assert.True(t, s.BeforeSuite(context.Background()))
	assert.Equal(t, "test", seen)
}

func TestSelected(t *testing.T) {
	assert.True(t, Selected("TestCase1", nil, nil))
	assert.True(t, Selected("TestCase1", []string{"Test*"}, []string{"*2"}))
	assert.False(t, Selected("TestCase2", []string{"Test*"}, []string{"*2"}))
	assert.False(t, Selected("ExcludeTestCase", []string{"Test*"}, nil))
	assert.False(t, Selected("ExcludeTestCase", nil, []string{"Exclude*"}))
}
