package manager

import (
	"errors"
	"fmt"
)

// ErrSessionConsumed is returned when a session's token sequence is iterated twice.
var ErrSessionConsumed = errors.New("session already consumed")

// ErrSessionsActive is returned by Close while sessions are still admitted.
var ErrSessionsActive = errors.New("sessions still active")

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ reason string }

func (e tooBusyError) Error() string { return "too busy: " + e.reason }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// TooBusyReason returns the backpressure reason ("queue_full",
// "wait_timeout" or "draining") or "" when err is not a backpressure error.
func TooBusyReason(err error) string {
	var tb tooBusyError
	if errors.As(err, &tb) {
		return tb.reason
	}
	return ""
}

// GenerationError is a runtime failure while priming or stepping a session.
// Partial output of the failed session is discarded.
type GenerationError struct {
	SessionID string
	State     SessionState
	Err       error
}

func (e *GenerationError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("start session: %v", e.Err)
	}
	return fmt.Sprintf("session %s failed while %s: %v", e.SessionID, e.State, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError reports whether err is a session runtime failure (return 500).
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// panicError carries a recovered runtime panic.
type panicError struct{ v any }

func (e panicError) Error() string { return fmt.Sprintf("runtime panic: %v", e.v) }
