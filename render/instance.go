// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"
)

// InstanceSize is the byte size of one packed glyph instance:
// position.xyz, color.rgba, glyph_id, flags, all 32-bit little-endian.
const InstanceSize = 36

// Instance flags.
const (
	FlagSelected uint32 = 1 << iota
	// FlagClamped marks a glyph whose height was raised to the minimum.
	FlagClamped
)

const flagsOffset = 32

// Instance is the unpacked form of one glyph instance. Position.Y is the
// glyph's height; glyphs stand on the y = 0 plane.
type Instance struct {
	Position [3]float32
	Color    [4]float32
	GlyphID  uint32
	Flags    uint32
}

// Selected reports whether FlagSelected is set.
func (in Instance) Selected() bool { return in.Flags&FlagSelected != 0 }

// Put writes in to b[:InstanceSize].
func (in Instance) Put(b []byte) {
	_ = b[InstanceSize-1]
	for i, v := range in.Position {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	for i, v := range in.Color {
		binary.LittleEndian.PutUint32(b[12+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(b[28:], in.GlyphID)
	binary.LittleEndian.PutUint32(b[flagsOffset:], in.Flags)
}

// ReadInstance decodes the instance at b[:InstanceSize].
func ReadInstance(b []byte) Instance {
	_ = b[InstanceSize-1]
	var in Instance
	for i := range in.Position {
		in.Position[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	for i := range in.Color {
		in.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[12+i*4:]))
	}
	in.GlyphID = binary.LittleEndian.Uint32(b[28:])
	in.Flags = binary.LittleEndian.Uint32(b[flagsOffset:])
	return in
}

// Instances is a packed instance buffer.
type Instances []byte

// Len returns the number of instances.
func (s Instances) Len() int { return len(s) / InstanceSize }

// At decodes instance i.
func (s Instances) At(i int) Instance { return ReadInstance(s[i*InstanceSize:]) }

// Each calls fn for every instance in order.
func (s Instances) Each(fn func(i int, in Instance)) {
	for i := 0; i < s.Len(); i++ {
		fn(i, s.At(i))
	}
}

// MarkSelected rewrites only the flags word of every instance so that
// FlagSelected matches selected(glyph_id). It returns the number of
// selected instances.
func (s Instances) MarkSelected(selected func(id uint32) bool) int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		off := i * InstanceSize
		id := binary.LittleEndian.Uint32(s[off+28:])
		flags := binary.LittleEndian.Uint32(s[off+flagsOffset:])
		if selected(id) {
			flags |= FlagSelected
			n++
		} else {
			flags &^= FlagSelected
		}
		binary.LittleEndian.PutUint32(s[off+flagsOffset:], flags)
	}
	return n
}

// PickValue is the pick target value for a glyph id. Ids above
// glyph.MaxGlyphID would wrap to the background value; the store rejects
// them.
func PickValue(glyphID uint32) uint32 { return glyphID + 1 }

// GlyphOf maps a pick value back to a glyph id. ok is false for background.
func GlyphOf(pick uint32) (id uint32, ok bool) {
	if pick == 0 {
		return 0, false
	}
	return pick - 1, true
}
