package testcase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/action"
	"proctor/internal/endpoint"
	"proctor/internal/testcontext"
)

func recorder(name string, calls *[]string, err error) action.Action {
	return action.New(name, func(context.Context, *testcontext.Context) error {
		*calls = append(*calls, name)
		return err
	})
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		ok       bool
	}{
		{"DRAFT", StatusDraft, true},
		{"READY_FOR_REVIEW", StatusReadyForReview, true},
		{"DISABLED", StatusDisabled, true},
		{"FINAL", StatusFinal, true},
		{"", StatusDraft, true},
		{"final", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, ok := ParseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestExecute_RunsActionsInOrder(t *testing.T) {
	var calls []string
	tc := NewBuilder("ordered").
		Action(recorder("first", &calls, nil)).
		Action(recorder("second", &calls, nil)).
		Finally(recorder("cleanup", &calls, nil)).
		Build(nil, nil)

	require.NoError(t, tc.Execute(context.Background()))
	assert.Equal(t, []string{"first", "second", "cleanup"}, calls)

	results := tc.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Name)
	assert.True(t, results[2].Finally)
	assert.Empty(t, results[1].Error)
}

func TestExecute_StopsAtFirstFailureAndRunsFinally(t *testing.T) {
	var calls []string
	tc := NewBuilder("failing").
		Action(recorder("first", &calls, nil)).
		Action(recorder("broken", &calls, errors.New("boom"))).
		Action(recorder("never", &calls, nil)).
		Finally(recorder("cleanup", &calls, errors.New("cleanup failed"))).
		Build(nil, nil)

	err := tc.Execute(context.Background())
	assert.EqualError(t, err, "action 2 (broken) failed: boom")
	assert.Equal(t, []string{"first", "broken", "cleanup"}, calls)

	results := tc.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "boom", results[1].Error)
	assert.Equal(t, "cleanup failed", results[2].Error)
}

func TestExecute_FinallyErrorReportedWhenActionsPass(t *testing.T) {
	var calls []string
	tc := NewBuilder("finally").
		Action(recorder("ok", &calls, nil)).
		Finally(recorder("cleanup", &calls, errors.New("cleanup failed"))).
		Build(nil, nil)

	assert.EqualError(t, tc.Execute(context.Background()), "action 1 (cleanup) failed: cleanup failed")
}

func TestExecute_RecoversPanics(t *testing.T) {
	tc := NewBuilder("panicking").
		Action(action.New("explode", func(context.Context, *testcontext.Context) error {
			panic("kaboom")
		})).
		Build(nil, nil)

	err := tc.Execute(context.Background())
	assert.ErrorContains(t, err, "action explode panicked: kaboom")
}

func TestExecute_SeedsVariables(t *testing.T) {
	globals := testcontext.NewGlobalVariables(map[string]any{"user": "Alice"})
	tc := NewBuilder("variables").
		Variable("greeting", "Hello ${user}").
		Variable("upper", "core:upperCase(${greeting})").
		CreateVariable("copy", "${upper}").
		Build(globals, nil)

	require.NoError(t, tc.Execute(context.Background()))

	vars := tc.Context().Variables()
	assert.Equal(t, "Hello Alice", vars["greeting"])
	assert.Equal(t, "HELLO ALICE", vars["upper"])
	assert.Equal(t, "HELLO ALICE", vars["copy"])
}

func TestExecute_VariableSeedFailureSkipsActionsButRunsFinally(t *testing.T) {
	var calls []string
	tc := NewBuilder("bad variable").
		Variable("broken", "${missing}").
		Action(recorder("never", &calls, nil)).
		Finally(recorder("cleanup", &calls, nil)).
		Build(nil, nil)

	err := tc.Execute(context.Background())
	assert.ErrorIs(t, err, testcontext.ErrUnknownVariable)
	assert.Equal(t, []string{"cleanup"}, calls)
}

func TestBuilder_Meta(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	updated := created.Add(24 * time.Hour)

	tc := NewBuilder("meta").
		Author("Alice").
		Status(StatusFinal).
		CreationDate(created).
		LastUpdated("Jan", updated).
		Description("checks meta info").
		Source("tests/meta.yaml").
		Build(nil, nil)

	assert.Equal(t, "meta", tc.Name)
	assert.Equal(t, "checks meta info", tc.Description)
	assert.Equal(t, "tests/meta.yaml", tc.Source)
	assert.Equal(t, MetaInfo{
		Author:        "Alice",
		Status:        StatusFinal,
		CreationDate:  created,
		LastUpdatedBy: "Jan",
		LastUpdatedOn: updated,
	}, tc.Meta)
	assert.False(t, tc.Disabled())
	assert.True(t, NewBuilder("off").Status(StatusDisabled).Build(nil, nil).Disabled())
}

func TestBuilder_BuildCreatesIndependentCases(t *testing.T) {
	b := NewBuilder("shared").Echo("hi")
	first := b.Build(nil, nil)
	second := b.Sleep(time.Millisecond).Build(nil, nil)

	assert.Len(t, first.Actions, 1)
	assert.Len(t, second.Actions, 2)
	assert.NotSame(t, first.Context(), second.Context())
}

func TestBuilder_SendReceiveLoopback(t *testing.T) {
	endpoints := endpoint.NewRegistry()
	endpoints.Register(endpoint.NewChannel("hello", 1))

	tc := NewBuilder("loopback").
		Variable("user", "Alice").
		WithEndpoints(endpoints).
		Send("hello", "<Hello><User>${user}</User></Hello>", map[string]string{"op": "greet"}).
		Receive("hello", time.Second, map[string]string{"Hello.User": "@startsWith('Ali')@"}).
		Template("summary", "{{ .user }} greeted").
		TraceVariables().
		Build(nil, nil)

	require.NoError(t, tc.Execute(context.Background()))

	v, err := tc.Context().GetVariable("summary")
	require.NoError(t, err)
	assert.Equal(t, "Alice greeted", v)
}

func TestBuilder_FailAndSQLWithoutDataSources(t *testing.T) {
	err := NewBuilder("fail").Fail("stop").Build(nil, nil).Execute(context.Background())
	assert.EqualError(t, err, "action 1 (fail) failed: stop")

	err = NewBuilder("sql").SQL("db", "SELECT 1").Build(nil, nil).Execute(context.Background())
	assert.ErrorContains(t, err, "no data sources configured")
}
