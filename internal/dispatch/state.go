// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
)

const (
	// StateIdle indicates Run has not been called.
	StateIdle State = iota
	// StateResolving indicates candidates are being evaluated.
	StateResolving
	// StateNoCandidateAvailable is terminal: nothing could be started.
	StateNoCandidateAvailable
	// StateSpawning indicates the selected plan is being started.
	StateSpawning
	// StateSpawnFailed is terminal: the selected plan could not be started.
	StateSpawnFailed
	// StateRunning indicates the child is running.
	StateRunning
	// StateTerminated is terminal: the child's status has been relayed.
	StateTerminated
)

// ErrInvalidTransition is the sentinel error wrapped by TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

type (
	// State is the lifecycle state of a dispatcher run.
	State int32

	// TransitionError is returned when a run is driven out of order.
	TransitionError struct {
		From State
		To   State
	}
)

// allowed lists the legal transitions.
//
//nolint:gochecknoglobals // Immutable lookup table.
var allowed = map[State][]State{
	StateIdle:      {StateResolving},
	StateResolving: {StateNoCandidateAvailable, StateSpawning},
	StateSpawning:  {StateSpawnFailed, StateRunning},
	StateRunning:   {StateTerminated},
}

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateNoCandidateAvailable:
		return "no-candidate-available"
	case StateSpawning:
		return "spawning"
	case StateSpawnFailed:
		return "spawn-failed"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateNoCandidateAvailable || s == StateSpawnFailed || s == StateTerminated
}

// CanTransition reports whether to may follow s.
func (s State) CanTransition(to State) bool {
	for _, next := range allowed[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
