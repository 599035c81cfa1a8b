package constants

// JobState is the canonical lifecycle state for rows in jobs.
type JobState string

// Stable values (store these exact strings in the job store).
const (
	StateQueued             JobState = "queued"               // created, not yet dispatched
	StateNeedsTrim          JobState = "needs_trim"           // parked: page count above warn threshold, awaiting review
	StateProcessing         JobState = "processing"           // dispatched to the extraction provider, poll in flight
	StateAwaitingManualJSON JobState = "awaiting_manual_json" // parked: required fields missing, awaiting human entry
	StateCompleted          JobState = "completed"            // terminal success
	StateFailed             JobState = "failed"               // terminal failure
)

// transitions enumerates every legal edge of the job state machine.
// Terminal states have no outgoing edges except the explicit operator
// re-drives (failed -> queued, needs_trim -> queued).
var transitions = map[JobState][]JobState{
	StateQueued:             {StateNeedsTrim, StateProcessing, StateFailed},
	StateNeedsTrim:          {StateQueued, StateFailed},
	StateProcessing:         {StateCompleted, StateAwaitingManualJSON, StateFailed},
	StateAwaitingManualJSON: {StateCompleted, StateFailed},
	StateCompleted:          nil,
	StateFailed:             {StateQueued},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to JobState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state has no automatic continuation.
func (s JobState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// IsParked reports whether a state waits on an explicit external trigger.
func (s JobState) IsParked() bool {
	return s == StateNeedsTrim || s == StateAwaitingManualJSON
}

// AllStates lists every defined state.
func AllStates() []JobState {
	return []JobState{
		StateQueued, StateNeedsTrim, StateProcessing,
		StateAwaitingManualJSON, StateCompleted, StateFailed,
	}
}

// NextStates returns the legal successor states of s.
func NextStates(s JobState) []JobState {
	return transitions[s]
}
