// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "context"

// Renderer draws frames and answers pick queries.
//
// Renderers are NOT thread-safe. The engine calls them from its event loop
// only.
type Renderer interface {
	// Resize reallocates size-dependent targets. Width and height are in
	// physical pixels.
	Resize(width, height int) error

	// Render clears all targets and draws the axes, the glyph instances
	// and the selection highlight, then presents if the renderer owns a
	// surface.
	//
	// Errors wrapping ErrSurfaceLost are recoverable by Resize.
	// ErrOutOfMemory and ErrDeviceLost are fatal.
	Render(ctx context.Context, f *Frame) error

	// ReadPick returns the pick values of the w x h block at (x, y) from
	// the last rendered frame, row by row. The block must lie inside the
	// target or ErrOutOfBounds is returned.
	ReadPick(ctx context.Context, x, y, w, h int) ([]uint32, error)

	// Destroy releases all resources. The renderer is unusable afterwards.
	Destroy()
}

// Capabilities describes a renderer.
type Capabilities struct {
	// IsGPU indicates a hardware renderer.
	IsGPU bool

	// Backend names the implementation, e.g. "vulkan" or "software".
	Backend string

	// Presents is true when Render also presents to a window surface.
	Presents bool

	// MaxTextureSize is the maximum target dimension (0 = unlimited).
	MaxTextureSize int
}

// CapableRenderer is an optional interface for renderers that can
// report their capabilities.
type CapableRenderer interface {
	Renderer

	// Capabilities returns the renderer's capabilities.
	Capabilities() Capabilities
}
