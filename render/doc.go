// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render defines the contract between the engine and its
// renderers.
//
// The engine builds a [Frame] on every redraw and hands it to a
// [Renderer]. A renderer owns its color, depth and pick targets. The pick
// target stores one uint32 per pixel: zero for background and glyph id + 1
// where a glyph is visible.
//
// # Renderer Implementations
//
//   - internal/gpu: wgpu HAL renderer, optionally presenting to a surface
//   - internal/software: CPU rasterizer rendering into a [PixmapTarget]
//
// # Key Principle
//
// Renderers RECEIVE a GPU device from the host through a [DeviceHandle];
// they never create one.
package render
