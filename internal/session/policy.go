package session

import (
	"fmt"
	"strings"
)

// Policy decides what happens to the queue after a command fails.
type Policy int

const (
	// CancelOnError saves the failing command and the rest of the queue to
	// the recovery file and clears the queue.
	CancelOnError Policy = iota
	// SkipOnError records the failing command and carries on.
	SkipOnError
)

func (p Policy) String() string {
	switch p {
	case SkipOnError:
		return "skip"
	default:
		return "cancel"
	}
}

// ParsePolicy accepts "cancel" or "skip" (and their -on-error forms).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cancel", "cancel-on-error":
		return CancelOnError, nil
	case "skip", "skip-on-error":
		return SkipOnError, nil
	default:
		return CancelOnError, fmt.Errorf("unknown failure policy %q (want cancel or skip)", s)
	}
}

// State is a phase of the execution loop.
type State int

const (
	StateIdle State = iota
	StateExpanding
	StateAwaitingInput
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateExpanding:
		return "expanding"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateTerminating:
		return "terminating"
	default:
		return "idle"
	}
}
