package availability

import "fmt"

// InvalidTimestampError indicates a timestamp that could not be parsed or
// carries an unrecognized offset. The engine always reports malformed
// instants instead of guessing.
type InvalidTimestampError struct {
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %v", e.Value, e.Err)
}

func (e *InvalidTimestampError) Unwrap() error {
	return e.Err
}
