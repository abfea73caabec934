// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
)

var (
	// ErrSurfaceLost means the presentation surface must be reconfigured.
	// The frame was skipped; a Resize at the current size recovers.
	ErrSurfaceLost = errors.New("render: surface lost")

	// ErrOutOfMemory is fatal.
	ErrOutOfMemory = errors.New("render: out of memory")

	// ErrDeviceLost is fatal.
	ErrDeviceLost = errors.New("render: device lost")

	// ErrOutOfBounds is returned by ReadPick for blocks outside the target.
	ErrOutOfBounds = errors.New("render: pick block out of bounds")

	// ErrNotReady is returned when rendering before the first Resize.
	ErrNotReady = errors.New("render: renderer not sized")
)

// ResourceError reports a failed operation on a named resource.
type ResourceError struct {
	Bucket string // resource family: "texture", "buffer", "pipeline", ...
	Key    string // resource label
	Op     string // "create", "write", "map", "submit", ...
	Err    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("render: %s %s %q: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Fatal reports whether err ends the event loop.
func Fatal(err error) bool {
	return errors.Is(err, ErrOutOfMemory) || errors.Is(err, ErrDeviceLost)
}
