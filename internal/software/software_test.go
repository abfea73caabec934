package software

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/render"
)

var background = [4]float32{0, 0, 0, 1}

func instances(ins ...render.Instance) render.Instances {
	out := make(render.Instances, len(ins)*render.InstanceSize)
	for i, in := range ins {
		in.Put(out[i*render.InstanceSize:])
	}
	return out
}

// lookAt returns a frame viewing target from the default orbit angles.
func lookAt(target f32.Vec3, distance float32, inst render.Instances) *render.Frame {
	opts := camera.DefaultOptions()
	opts.Target = target
	opts.Distance = distance
	cam := camera.New(opts)
	return &render.Frame{
		ViewProj:   cam.ViewProjection(),
		Eye:        cam.Eye(),
		Background: background,
		Highlight:  render.DefaultHighlight,
		Light:      render.Light{Color: [4]float32{1, 1, 1, 1}, Position: f32.Vec3{5, 20, 5}, Intensity: 1},
		GlyphSize:  1,
		Instances:  inst,
	}
}

func count(img *render.PixmapTarget, want color.RGBA) int {
	n := 0
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.At(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestRenderEmpty(t *testing.T) {
	r := New(WithSize(32, 24))
	if err := r.Render(context.Background(), lookAt(f32.Vec3{}, 10, nil)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := count(r.Target(), render.ToRGBA8(background)); got != 32*24 {
		t.Errorf("%d background pixels, want %d", got, 32*24)
	}
	ids, err := r.ReadPick(context.Background(), 0, 0, 32, 24)
	if err != nil {
		t.Fatalf("ReadPick: %v", err)
	}
	for i, id := range ids {
		if id != 0 {
			t.Fatalf("pick[%d] = %d, want 0", i, id)
		}
	}
}

func TestRenderSingleGlyph(t *testing.T) {
	r := New(WithSize(64, 64))
	red := [4]float32{1, 0, 0, 1}
	f := lookAt(f32.Vec3{0, 1, 0}, 6, instances(render.Instance{Position: [3]float32{0, 2, 0}, Color: red, GlyphID: 7}))
	if err := r.Render(context.Background(), f); err != nil {
		t.Fatalf("Render: %v", err)
	}

	ids, err := r.ReadPick(context.Background(), 31, 31, 3, 3)
	if err != nil {
		t.Fatalf("ReadPick: %v", err)
	}
	for i, id := range ids {
		if id != render.PickValue(7) {
			t.Errorf("pick[%d] = %d, want %d", i, id, render.PickValue(7))
		}
	}
	if c := r.Target().At(32, 32); c.R == 0 || c.G != 0 {
		t.Errorf("center pixel %v is not lit red", c)
	}

	corner, err := r.ReadPick(context.Background(), 0, 0, 1, 1)
	if err != nil {
		t.Fatalf("ReadPick: %v", err)
	}
	if corner[0] != 0 {
		t.Errorf("corner pick = %d, want background", corner[0])
	}
}

func TestRenderHighlight(t *testing.T) {
	hl := render.ToRGBA8(render.DefaultHighlight)
	for _, selected := range []bool{false, true} {
		r := New(WithSize(64, 64))
		in := render.Instance{Position: [3]float32{0, 2, 0}, Color: [4]float32{0, 0, 1, 1}, GlyphID: 1}
		if selected {
			in.Flags = render.FlagSelected
		}
		if err := r.Render(context.Background(), lookAt(f32.Vec3{0, 1, 0}, 8, instances(in))); err != nil {
			t.Fatalf("Render: %v", err)
		}
		n := count(r.Target(), hl)
		if selected && n == 0 {
			t.Error("selected glyph has no outline")
		}
		if !selected && n != 0 {
			t.Errorf("unselected glyph has %d outline pixels", n)
		}
		// the outline never replaces the glyph's own pick value
		ids, _ := r.ReadPick(context.Background(), 32, 32, 1, 1)
		if ids[0] != render.PickValue(1) {
			t.Errorf("selected=%v: center pick = %d", selected, ids[0])
		}
	}
}

func TestRenderDepthOrder(t *testing.T) {
	r := New(WithSize(64, 64))
	opts := camera.DefaultOptions()
	opts.Yaw, opts.Pitch = 0, 0.05
	opts.Target = f32.Vec3{0, 1, 0}
	opts.Distance = 10
	cam := camera.New(opts)

	// yaw 0 puts the eye on +Z, so glyph 2 at z=2 hides glyph 1 at z=-2.
	f := lookAt(f32.Vec3{}, 1, instances(
		render.Instance{Position: [3]float32{0, 2, -2}, Color: [4]float32{1, 0, 0, 1}, GlyphID: 1},
		render.Instance{Position: [3]float32{0, 2, 2}, Color: [4]float32{0, 1, 0, 1}, GlyphID: 2},
	))
	f.ViewProj = cam.ViewProjection()
	if err := r.Render(context.Background(), f); err != nil {
		t.Fatalf("Render: %v", err)
	}
	ids, _ := r.ReadPick(context.Background(), 32, 32, 1, 1)
	if ids[0] != render.PickValue(2) {
		t.Errorf("center pick = %d, want the nearer glyph", ids[0])
	}
}

func TestRenderAxes(t *testing.T) {
	r := New(WithSize(64, 64))
	f := lookAt(f32.Vec3{2, 2, 2}, 12, nil)
	f.Axes = render.Axes{
		Visible:        true,
		Colors:         [3][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}},
		CylinderRadius: 0.2, CylinderLength: 5, ConeRadius: 0.4, ConeLength: 1,
	}
	if err := r.Render(context.Background(), f); err != nil {
		t.Fatalf("Render: %v", err)
	}
	bg := render.ToRGBA8(background)
	if count(r.Target(), bg) == 64*64 {
		t.Error("axes were not drawn")
	}
	ids, _ := r.ReadPick(context.Background(), 0, 0, 64, 64)
	for _, id := range ids {
		if id != 0 {
			t.Fatal("axes must not write glyph ids")
		}
	}
}

func TestReadPickBounds(t *testing.T) {
	r := New(WithSize(10, 10))
	ctx := context.Background()
	for _, b := range [][4]int{{-1, 0, 3, 3}, {8, 8, 3, 3}, {0, 0, 0, 1}, {9, 0, 2, 1}} {
		if _, err := r.ReadPick(ctx, b[0], b[1], b[2], b[3]); !errors.Is(err, render.ErrOutOfBounds) {
			t.Errorf("ReadPick%v err = %v, want ErrOutOfBounds", b, err)
		}
	}
	ids, err := r.ReadPick(ctx, 7, 7, 3, 3)
	if err != nil || len(ids) != 9 {
		t.Errorf("edge block: %v, %d ids", err, len(ids))
	}
}

func TestResizeAndDestroy(t *testing.T) {
	target := render.NewPixmapTarget(4, 4)
	r := New(WithTarget(target))
	if err := r.Resize(0, 5); err == nil {
		t.Error("expected an error for a zero width")
	}
	if err := r.Resize(20, 10); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if r.Target().Width() != 20 || r.Target().Height() != 10 {
		t.Errorf("target is %dx%d", r.Target().Width(), r.Target().Height())
	}
	if _, err := r.ReadPick(context.Background(), 19, 9, 1, 1); err != nil {
		t.Errorf("ReadPick after resize: %v", err)
	}

	r.Destroy()
	if err := r.Render(context.Background(), lookAt(f32.Vec3{}, 5, nil)); !errors.Is(err, render.ErrNotReady) {
		t.Errorf("Render after Destroy: %v", err)
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(WithSize(4, 4)).Render(ctx, lookAt(f32.Vec3{}, 5, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	c := New().Capabilities()
	if c.IsGPU || c.Backend != "software" {
		t.Errorf("capabilities = %+v", c)
	}
}
