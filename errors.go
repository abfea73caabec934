package glyphfield

import "errors"

var (
	// ErrClosed is returned when posting to a terminated engine.
	ErrClosed = errors.New("glyphfield: engine closed")

	// ErrFatal wraps the error that ended the event loop.
	ErrFatal = errors.New("glyphfield: fatal error")

	// ErrRunning is returned by a second call to Run.
	ErrRunning = errors.New("glyphfield: engine already running")
)
