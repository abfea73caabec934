// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func TestInstancePutRead(t *testing.T) {
	want := Instance{
		Position: [3]float32{1.5, 2.25, -3},
		Color:    [4]float32{0.1, 0.2, 0.3, 1},
		GlyphID:  42,
		Flags:    FlagClamped,
	}
	buf := make([]byte, InstanceSize)
	want.Put(buf)
	if got := ReadInstance(buf); got != want {
		t.Errorf("ReadInstance = %+v, want %+v", got, want)
	}
}

func TestMarkSelectedTouchesOnlyFlags(t *testing.T) {
	buf := make(Instances, 3*InstanceSize)
	for i := 0; i < 3; i++ {
		Instance{Position: [3]float32{float32(i), 1, 0}, GlyphID: uint32(i), Flags: FlagClamped}.
			Put(buf[i*InstanceSize:])
	}
	before := append(Instances(nil), buf...)

	n := buf.MarkSelected(func(id uint32) bool { return id == 1 })
	if n != 1 {
		t.Fatalf("MarkSelected = %d, want 1", n)
	}
	buf.Each(func(i int, in Instance) {
		if in.Selected() != (i == 1) {
			t.Errorf("instance %d selected = %v", i, in.Selected())
		}
		if in.Flags&FlagClamped == 0 {
			t.Errorf("instance %d lost FlagClamped", i)
		}
	})

	buf.MarkSelected(func(uint32) bool { return false })
	if string(buf) != string(before) {
		t.Error("clearing the selection did not restore the original bytes")
	}
}

func TestPickValue(t *testing.T) {
	if _, ok := GlyphOf(0); ok {
		t.Error("GlyphOf(0) should be background")
	}
	for _, id := range []uint32{0, 1, 99, math.MaxUint32 - 1} {
		got, ok := GlyphOf(PickValue(id))
		if !ok || got != id {
			t.Errorf("GlyphOf(PickValue(%d)) = %d, %v", id, got, ok)
		}
	}
}

func TestShade(t *testing.T) {
	l := Light{Color: [4]float32{1, 1, 1, 1}, Position: f32.Vec3{0, 10, 0}, Intensity: 1}
	base := [4]float32{0.5, 0.5, 0.5, 0.7}

	lit := l.Shade(base, f32.Vec3{}, f32.Vec3{0, 1, 0})
	away := l.Shade(base, f32.Vec3{}, f32.Vec3{0, -1, 0})
	if lit[0] <= away[0] {
		t.Errorf("facing the light (%v) should be brighter than facing away (%v)", lit[0], away[0])
	}
	if want := float32(0.5 * Ambient); away[0] != want {
		t.Errorf("ambient only = %v, want %v", away[0], want)
	}
	if lit[3] != 0.7 {
		t.Errorf("alpha changed to %v", lit[3])
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrOutOfMemory, true},
		{fmt.Errorf("submit: %w", ErrDeviceLost), true},
		{&ResourceError{Bucket: "buffer", Key: "instances", Op: "create", Err: ErrOutOfMemory}, true},
		{ErrSurfaceLost, false},
		{errors.New("other"), false},
	}
	for _, tt := range tests {
		if got := Fatal(tt.err); got != tt.want {
			t.Errorf("Fatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestResourceErrorMessage(t *testing.T) {
	err := &ResourceError{Bucket: "texture", Key: "pick", Op: "create", Err: errors.New("boom")}
	want := `render: create texture "pick": boom`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPixmapTarget(t *testing.T) {
	target := NewPixmapTarget(4, 3)
	target.Clear([4]float32{1, 0, 0, 1})
	if got := target.At(3, 2); got.R != 255 || got.G != 0 || got.A != 255 {
		t.Errorf("At = %v after Clear", got)
	}
	target.Set(1, 1, [4]float32{0, 0, 1, 1})
	if got := target.At(1, 1); got.B != 255 || got.R != 0 {
		t.Errorf("At(1,1) = %v", got)
	}
	target.Resize(8, 8)
	if target.Width() != 8 || target.Height() != 8 {
		t.Errorf("size after Resize = %dx%d", target.Width(), target.Height())
	}
}

func TestNullDeviceHandle(t *testing.T) {
	var handle DeviceHandle = NullDeviceHandle{}
	if handle.Device() != nil || handle.Queue() != nil || handle.Adapter() != nil {
		t.Error("NullDeviceHandle should return nil objects")
	}
}
