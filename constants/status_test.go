package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTargetsAreDefined(t *testing.T) {
	defined := map[JobState]bool{}
	for _, s := range AllStates() {
		defined[s] = true
	}
	for _, from := range AllStates() {
		for _, to := range NextStates(from) {
			assert.True(t, defined[to], "%s -> %s targets an undefined state", from, to)
		}
	}
}

func TestLegalEdges(t *testing.T) {
	cases := []struct {
		from, to JobState
		legal    bool
	}{
		{StateQueued, StateProcessing, true},
		{StateQueued, StateNeedsTrim, true},
		{StateQueued, StateFailed, true},
		{StateQueued, StateCompleted, false},
		{StateNeedsTrim, StateQueued, true},
		{StateNeedsTrim, StateProcessing, false},
		{StateProcessing, StateCompleted, true},
		{StateProcessing, StateAwaitingManualJSON, true},
		{StateProcessing, StateFailed, true},
		{StateProcessing, StateQueued, false},
		{StateAwaitingManualJSON, StateCompleted, true},
		{StateAwaitingManualJSON, StateQueued, false},
		{StateFailed, StateQueued, true},
		{StateFailed, StateProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.legal, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCompletedIsFullyTerminal(t *testing.T) {
	require.Empty(t, NextStates(StateCompleted))
	assert.True(t, StateCompleted.IsTerminal())
}

func TestFailedOnlyRequeues(t *testing.T) {
	require.Equal(t, []JobState{StateQueued}, NextStates(StateFailed))
	assert.True(t, StateFailed.IsTerminal())
}

func TestParkedStates(t *testing.T) {
	for _, s := range AllStates() {
		parked := s == StateNeedsTrim || s == StateAwaitingManualJSON
		assert.Equal(t, parked, s.IsParked(), "state %s", s)
	}
}
