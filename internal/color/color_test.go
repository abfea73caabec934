package color

import (
	"math"
	"testing"
)

// TestSRGBToLinearEdgeCases tests edge cases for sRGB to linear conversion.
func TestSRGBToLinearEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input float32
		want  float32
	}{
		{"black", 0.0, 0.0},
		{"white", 1.0, 1.0},
		{"threshold", 0.04045, 0.04045 / 12.92},
		{"mid gray", 0.5, float32(math.Pow((0.5+0.055)/1.055, 2.4))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SRGBToLinear(tt.input)
			if !floatNear(got, tt.want, 1e-6) {
				t.Errorf("SRGBToLinear(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLinearRoundTrip(t *testing.T) {
	for i := 0; i <= 100; i++ {
		v := float32(i) / 100
		c := RGBA{v, v, v, 0.25}
		got := c.Linear().SRGB()
		if !colorNear(got, c, 1e-5) {
			t.Fatalf("round trip of %v = %v", c, got)
		}
		if got.A() != 0.25 {
			t.Fatalf("alpha changed: %v", got.A())
		}
	}
}

func TestLerpEndpointsExact(t *testing.T) {
	a := RGBA{0.1, 0.2, 0.3, 0.4}
	b := RGBA{0.9, 0.7, 0.13, 1}

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	mid := a.Lerp(b, 0.5)
	want := RGBA{0.5, 0.45, 0.215, 0.7}
	if !colorNear(mid, want, 1e-6) {
		t.Errorf("Lerp(0.5) = %v, want %v", mid, want)
	}
}

func TestU8(t *testing.T) {
	tests := []struct {
		name  string
		input RGBA
		want  [4]uint8
	}{
		{"black", RGBA{0, 0, 0, 0}, [4]uint8{0, 0, 0, 0}},
		{"white", RGBA{1, 1, 1, 1}, [4]uint8{255, 255, 255, 255}},
		{"rounding", RGBA{0.5, 0.25, 0.75, 1}, [4]uint8{128, 64, 191, 255}},
		{"clamp", RGBA{-0.1, 1.5, 0, 1}, [4]uint8{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.U8(); got != tt.want {
				t.Errorf("U8(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHSLPrimaries(t *testing.T) {
	tests := []struct {
		h    float64
		want RGBA
	}{
		{0, RGBA{1, 0, 0, 1}},
		{120, RGBA{0, 1, 0, 1}},
		{240, RGBA{0, 0, 1, 1}},
		{-120, RGBA{0, 0, 1, 1}},
		{360, RGBA{1, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := HSL(tt.h, 1, 0.5); !colorNear(got, tt.want, 1e-6) {
			t.Errorf("HSL(%v) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func TestWheelWraps(t *testing.T) {
	w := DefaultWheel()
	if w.Len() != WheelSize {
		t.Fatalf("Len() = %d, want %d", w.Len(), WheelSize)
	}

	tests := []struct {
		index, same int
	}{
		{-1, WheelSize - 1},
		{WheelSize, 0},
		{-WheelSize, 0},
		{2*WheelSize + 5, 5},
		{-WheelSize - 3, WheelSize - 3},
	}
	for _, tt := range tests {
		if w.Color(tt.index) != w.Color(tt.same) {
			t.Errorf("Color(%d) != Color(%d)", tt.index, tt.same)
		}
	}
}

func TestWheelDeterministic(t *testing.T) {
	a := newHueWheel(WheelSize, 1, 0.5)
	b := DefaultWheel()
	for i := -50; i < 50; i++ {
		if a.Color(i) != b.Color(i) {
			t.Fatalf("Color(%d) differs between wheels", i)
		}
	}
	if got := b.Color(0); !colorNear(got, RGBA{1, 0, 0, 1}, 1e-6) {
		t.Errorf("Color(0) = %v, want red", got)
	}
}

func TestWheelNearest(t *testing.T) {
	w := DefaultWheel()
	for i := 0; i < w.Len(); i++ {
		if got := w.Nearest(w.Color(i)); got != i {
			t.Errorf("Nearest(Color(%d)) = %d", i, got)
		}
	}
}

func TestNewWheelPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewWheel(nil) did not panic")
		}
	}()
	NewWheel(nil)
}

// floatNear checks if two float32 values are within epsilon of each other.
func floatNear(a, b, epsilon float32) bool {
	return math.Abs(float64(a-b)) < float64(epsilon)
}

func colorNear(a, b RGBA, epsilon float32) bool {
	for i := range a {
		if !floatNear(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}
