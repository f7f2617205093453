package eventlog

import (
	"errors"
	"fmt"
)

// ErrCorrupt marks a persisted log that exists but cannot be parsed.
// The log must not be appended to or rendered in that state.
var ErrCorrupt = errors.New("eventlog: corrupt log")

// ErrInvalidEvent marks an event Append refused because it could not be
// read back from the log.
var ErrInvalidEvent = errors.New("eventlog: invalid event")

// ReadError reports a failure to read or parse the persisted log.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("eventlog: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failure to rewrite the log after an append. The
// appended event is not on disk.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("eventlog: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
