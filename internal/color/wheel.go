package color

// WheelSize is the number of entries in the default color wheel.
const WheelSize = 36

// Wheel is a fixed palette indexed by signed integers. Indices wrap modulo
// the table length in both directions, so Color(-1) is the last entry.
type Wheel struct {
	table []RGBA
}

var defaultWheel = newHueWheel(WheelSize, 1.0, 0.5)

// DefaultWheel returns the shared default wheel: WheelSize fully saturated
// hues in equal steps starting at red.
func DefaultWheel() *Wheel { return defaultWheel }

// NewWheel creates a wheel over the given colors. It panics if colors is
// empty.
func NewWheel(colors []RGBA) *Wheel {
	if len(colors) == 0 {
		panic("color: empty wheel")
	}
	t := make([]RGBA, len(colors))
	copy(t, colors)
	return &Wheel{table: t}
}

func newHueWheel(n int, s, l float64) *Wheel {
	t := make([]RGBA, n)
	step := 360.0 / float64(n)
	for i := range t {
		t[i] = HSL(float64(i)*step, s, l)
	}
	return &Wheel{table: t}
}

// Len returns the number of entries.
func (w *Wheel) Len() int { return len(w.table) }

// Color returns the entry at index i modulo Len.
func (w *Wheel) Color(i int) RGBA {
	return w.table[w.Wrap(i)]
}

// Wrap maps any index into [0, Len).
func (w *Wheel) Wrap(i int) int {
	n := len(w.table)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Nearest returns the index of the entry closest to c in RGB space.
// Used to resume cycling from an arbitrary configured color.
func (w *Wheel) Nearest(c RGBA) int {
	best, bestDist := 0, float32(-1)
	for i, e := range w.table {
		dr, dg, db := e[0]-c[0], e[1]-c[1], e[2]-c[2]
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
