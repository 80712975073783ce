package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransition(StateIdle, StateFetchingDocumentation))
	assert.True(t, CanTransition(StateCheckingFundingSignal, StateFetchingFunding))
	assert.True(t, CanTransition(StateCheckingFundingSignal, StateNoFunding))
	assert.True(t, CanTransition(StateAnalyzingTeam, StateFetchingCode))
	assert.True(t, CanTransition(StateAnalyzingTeam, StateGeneratingRating))

	assert.False(t, CanTransition(StateIdle, StateGeneratingRating))
	assert.False(t, CanTransition(StateNoFunding, StateAnalyzingFunding))
	assert.False(t, CanTransition(StateCompleted, StateFailed))
	assert.False(t, CanTransition(StateFailed, StateIdle))
}

func TestEveryNonTerminalStateCanFail(t *testing.T) {
	t.Parallel()

	for _, s := range AllStates {
		if s.IsTerminal() {
			continue
		}
		assert.True(t, CanTransition(s, StateFailed), "state %s", s)
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	start := NewProgress()
	require.Equal(t, StateIdle, start.CurrentState)
	require.NotEmpty(t, start.RunID)

	next := Transition(start, StateFetchingDocumentation, map[string]any{"url": "https://docs.example.org"})

	assert.Empty(t, start.StateHistory)
	assert.Equal(t, StateIdle, start.CurrentState)
	require.Len(t, next.StateHistory, 1)
	assert.Equal(t, StateIdle, next.StateHistory[0].From)
	assert.Equal(t, StateFetchingDocumentation, next.StateHistory[0].To)
	assert.Equal(t, "https://docs.example.org", next.StateHistory[0].Metadata["url"])
	assert.Nil(t, next.CompletedAt)
}

func TestTransitionBranchesShareNoHistory(t *testing.T) {
	t.Parallel()

	base := Transition(NewProgress(), StateFetchingDocumentation, nil)
	a := Transition(base, StateAnalyzingDocumentation, nil)
	b := Transition(base, StateFailed, nil)

	assert.Equal(t, StateAnalyzingDocumentation, a.StateHistory[1].To)
	assert.Equal(t, StateFailed, b.StateHistory[1].To)
}

func TestTerminalTransitionSetsCompletedAtOnce(t *testing.T) {
	t.Parallel()

	first := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := TransitionAt(NewProgress(), StateCompleted, first, nil)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, first, *p.CompletedAt)

	later := TransitionAt(p, StateFailed, first.Add(time.Hour), nil)
	assert.Equal(t, first, *later.CompletedAt)
}

func TestFailRecordsError(t *testing.T) {
	t.Parallel()

	p := Transition(NewProgress(), StateFetchingDocumentation, nil)
	failed := Fail(p, errors.New("docs unreachable"))

	assert.Equal(t, StateFailed, failed.CurrentState)
	assert.Equal(t, "docs unreachable", failed.Error)
	assert.Equal(t, "docs unreachable", failed.StateHistory[1].Metadata["error"])
	assert.NotNil(t, failed.CompletedAt)
	assert.Equal(t, []AnalysisState{StateFetchingDocumentation, StateFailed}, failed.States())
}

func TestPercent(t *testing.T) {
	t.Parallel()

	p := NewProgress()
	assert.Equal(t, 0, p.Percent())

	p = Transition(p, StateFetchingDocumentation, nil)
	assert.Equal(t, 7, p.Percent())

	p = Transition(p, StateCompleted, nil)
	assert.Equal(t, 100, p.Percent())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	for _, s := range []AnalysisState{StateIdle, StateFetchingDocumentation, StateCompleted, StateFailed} {
		assert.NotEmpty(t, s.Describe(), string(s))
	}
	assert.Equal(t, "mystery", AnalysisState("mystery").Describe())
}

func TestReusedProgressIsNotExecuted(t *testing.T) {
	t.Parallel()

	reused := ReusedProgress()
	assert.False(t, reused.Executed())
	assert.Equal(t, StateIdle, reused.CurrentState)
	assert.Empty(t, reused.StateHistory)

	assert.True(t, NewProgress().Executed())
}
