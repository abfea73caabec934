//go:build !nogpu

// Package gpu renders glyph frames with wgpu.
//
// A Renderer owns three targets of the frame size: color, a Depth32Float
// depth buffer and an R32Uint pick buffer. One render pass clears all
// three, draws the axes, draws every glyph instance as a lit box writing
// glyph_id+1 into the pick buffer, and finally draws enlarged back faces
// of the selected glyphs in the highlight color without touching the pick
// buffer. ReadPick copies a block of the pick buffer back to the CPU.
//
// The color target is either an offscreen texture or the texture acquired
// from a configured surface, which is presented after the pass.
package gpu
