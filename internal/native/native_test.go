//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/glyphfield/render"
)

const trivialCompute = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    if id.x < arrayLength(&data) {
        data[id.x] = data[id.x] + 1u;
    }
}
`

func TestCompileWGSL(t *testing.T) {
	words, err := CompileWGSL(trivialCompute)
	if err != nil {
		t.Fatalf("CompileWGSL: %v", err)
	}
	// SPIR-V magic number
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Fatalf("missing SPIR-V magic, got %d words", len(words))
	}
}

func TestCompileWGSLError(t *testing.T) {
	if _, err := CompileWGSL("fn main( {"); err == nil {
		t.Fatal("expected a compile error")
	}
}

type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestFromProvider(t *testing.T) {
	dev, err := Open(gputypes.BackendEmpty)
	if err != nil {
		t.Fatalf("Open(noop): %v", err)
	}
	defer dev.Close()

	device, queue, err := FromProvider(halProvider{dev.Device, dev.Queue})
	if err != nil {
		t.Fatalf("FromProvider: %v", err)
	}
	if device != dev.Device || queue != dev.Queue {
		t.Error("FromProvider returned different objects")
	}

	if _, _, err := FromProvider(struct{}{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("plain struct: err = %v, want ErrNoHAL", err)
	}
	if _, _, err := FromProvider(halProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("nil device: err = %v, want ErrNoHAL", err)
	}
}

func TestOpenNoop(t *testing.T) {
	dev, err := Open(gputypes.BackendEmpty)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if dev.Info.Name != "Noop Adapter" {
		t.Errorf("adapter = %q", dev.Info.Name)
	}
	dev.Close()
	dev.Close() // idempotent
}

func TestResourcesDestroy(t *testing.T) {
	dev, err := Open(gputypes.BackendEmpty)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	res := Resources{Device: dev.Device}
	mod, err := CreateShaderModule(dev.Device, "trivial", trivialCompute)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	res.Shader(mod)
	bl, err := dev.Device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: "bl"})
	if err != nil {
		t.Fatal(err)
	}
	res.BindLayout(bl)
	res.Destroy()
	if res.ShaderModules != nil || res.BindLayouts != nil {
		t.Error("Destroy should clear recorded resources")
	}
	res.Destroy()
}

func TestMapError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{hal.ErrSurfaceLost, render.ErrSurfaceLost},
		{fmt.Errorf("acquire: %w", hal.ErrSurfaceOutdated), render.ErrSurfaceLost},
		{hal.ErrDeviceOutOfMemory, render.ErrOutOfMemory},
		{hal.ErrDeviceLost, render.ErrDeviceLost},
	}
	for _, tt := range tests {
		got := MapError(tt.in)
		if !errors.Is(got, tt.want) {
			t.Errorf("MapError(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if !errors.Is(got, tt.in) {
			t.Errorf("MapError(%v) lost the original error", tt.in)
		}
	}
	if MapError(nil) != nil {
		t.Error("MapError(nil) != nil")
	}
	other := errors.New("other")
	if MapError(other) != other {
		t.Error("unknown errors should pass through")
	}

	var re *render.ResourceError
	if err := ResourceError("buffer", "instances", "create", hal.ErrDeviceOutOfMemory); !errors.As(err, &re) || !render.Fatal(err) {
		t.Errorf("ResourceError = %v", err)
	}
}
