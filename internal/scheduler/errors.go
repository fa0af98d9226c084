package scheduler

import (
	"errors"
	"fmt"
)

// ErrFetchTimeout reports that fetching participant calendars did not
// finish within the configured fetch timeout.
var ErrFetchTimeout = errors.New("participant calendar fetch timed out")

// InvalidRequestError reports a request rejected before any work was done:
// empty participant list, non-positive duration, or an inverted date range.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid availability request: " + e.Reason
}

// ParticipantFetchError wraps a collaborator failure with the participant
// it occurred for, so callers can retry selectively. A failed fetch always
// fails the whole request; skipping a participant would understate
// conflicts.
type ParticipantFetchError struct {
	Participant string
	Err         error
}

func (e *ParticipantFetchError) Error() string {
	return fmt.Sprintf("failed to fetch calendar for participant %s: %v", e.Participant, e.Err)
}

func (e *ParticipantFetchError) Unwrap() error {
	return e.Err
}
