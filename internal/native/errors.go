//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield/render"
)

// MapError translates HAL errors into the render error vocabulary so the
// engine can tell recoverable failures from fatal ones. Unknown errors are
// returned unchanged.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("%w: %w", render.ErrSurfaceLost, err)
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		return fmt.Errorf("%w: %w", render.ErrOutOfMemory, err)
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("%w: %w", render.ErrDeviceLost, err)
	}
	return err
}

// ResourceError wraps err as a render.ResourceError after mapping it.
func ResourceError(bucket, key, op string, err error) error {
	if err == nil {
		return nil
	}
	return &render.ResourceError{Bucket: bucket, Key: key, Op: op, Err: MapError(err)}
}
