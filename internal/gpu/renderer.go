//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/internal/color"
	"github.com/gogpu/glyphfield/internal/mesh"
	"github.com/gogpu/glyphfield/internal/native"
	"github.com/gogpu/glyphfield/render"
)

// DefaultColorFormat is the offscreen color format.
const DefaultColorFormat = gputypes.TextureFormatRGBA8Unorm

// Option configures a Renderer.
type Option func(*Renderer)

// WithSurface renders into a window surface and presents every frame.
// The surface is configured on Resize with the given format.
func WithSurface(surface hal.Surface, format gputypes.TextureFormat) Option {
	return func(r *Renderer) {
		r.surface = surface
		r.colorFormat = format
	}
}

// WithColorFormat sets the offscreen color format.
func WithColorFormat(format gputypes.TextureFormat) Option {
	return func(r *Renderer) { r.colorFormat = format }
}

// Renderer draws frames with wgpu. It is not safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	owned  *native.Device // non-nil when the renderer opened the device

	surface     hal.Surface
	configured  bool
	colorFormat gputypes.TextureFormat
	backend     string

	pipes   *pipelines
	targets targetSet

	globals   hal.Buffer
	bindGroup hal.BindGroup

	boxVB, boxIB  hal.Buffer
	boxIndexCount uint32

	axesVB, axesIB hal.Buffer
	axesIndexCount uint32
	axesKey        render.Axes

	instances   hal.Buffer
	instanceCap uint64

	width, height int
	destroyed     bool
}

// New builds a renderer on a host-owned device. Destroy leaves the device
// alive.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	r := &Renderer{device: device, queue: queue, colorFormat: DefaultColorFormat, backend: "wgpu"}
	for _, o := range opts {
		o(r)
	}
	if err := r.init(); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

// NewFromProvider builds a renderer on the HAL device of a host provider.
func NewFromProvider(provider any, opts ...Option) (*Renderer, error) {
	device, queue, err := native.FromProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	return New(device, queue, opts...)
}

// Open opens a device on the given backend and builds a renderer that
// owns it.
func Open(variant gputypes.Backend, opts ...Option) (*Renderer, error) {
	dev, err := native.Open(variant)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	r, err := New(dev.Device, dev.Queue, opts...)
	if err != nil {
		dev.Close()
		return nil, err
	}
	r.owned = dev
	r.backend = variant.String()
	slogger().Info("gpu: device opened", "backend", r.backend, "adapter", dev.Info.Name)
	return r, nil
}

// SetLogger sets the logger used by this package.
func (*Renderer) SetLogger(l *slog.Logger) { setLogger(l) }

func (r *Renderer) init() error {
	pipes, err := newPipelines(r.device, r.colorFormat)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	r.pipes = pipes

	r.globals, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_globals",
		Size:  globalsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return native.ResourceError("buffer", "glyph_globals", "create", err)
	}
	r.bindGroup, err = r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyph_globals_bind",
		Layout: r.pipes.bindLayout,
		Entries: []gputypes.BindGroupEntry{{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: r.globals.NativeHandle(), Size: globalsSize},
		}},
	})
	if err != nil {
		return native.ResourceError("bind_group", "glyph_globals_bind", "create", err)
	}

	box := mesh.Box()
	if r.boxVB, err = r.upload("glyph_box_vertices", box.Bytes(), gputypes.BufferUsageVertex); err != nil {
		return err
	}
	if r.boxIB, err = r.upload("glyph_box_indices", box.IndexBytes(), gputypes.BufferUsageIndex); err != nil {
		return err
	}
	r.boxIndexCount = uint32(len(box.Indices)) //nolint:gosec // 36
	return nil
}

// upload creates a buffer holding data.
func (r *Renderer) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, native.ResourceError("buffer", label, "create", err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, native.ResourceError("buffer", label, "write", err)
	}
	return buf, nil
}

// Capabilities implements render.CapableRenderer.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		IsGPU:          true,
		Backend:        r.backend,
		Presents:       r.surface != nil,
		MaxTextureSize: int(gputypes.DefaultLimits().MaxTextureDimension2D),
	}
}

// Size returns the current target size.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Resize implements render.Renderer. Calling it at the current size
// reconfigures the surface, which recovers from ErrSurfaceLost.
func (r *Renderer) Resize(width, height int) error {
	if r.destroyed {
		return render.ErrNotReady
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpu: invalid size %dx%d", width, height)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive
	if r.surface != nil {
		err := r.surface.Configure(r.device, &hal.SurfaceConfiguration{
			Width:       w,
			Height:      h,
			Format:      r.colorFormat,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: gputypes.PresentModeFifo,
			AlphaMode:   gputypes.CompositeAlphaModeOpaque,
		})
		if err != nil {
			return native.MapError(fmt.Errorf("gpu: configure surface: %w", err))
		}
		r.configured = true
	}
	if err := r.targets.ensure(r.device, w, h, r.colorFormat, r.surface == nil); err != nil {
		return err
	}
	r.width, r.height = width, height
	slogger().Debug("gpu: resized", "width", width, "height", height)
	return nil
}

// globalsBytes packs the Globals uniform block. srgb marks a color target
// that expects linear values.
func globalsBytes(f *render.Frame, srgb bool) []byte {
	out := make([]byte, globalsSize)
	put := func(i int, v float32) { binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v)) }

	mvp := camera.ColumnMajor(camera.Mul(f.ViewProj, f.Model()))
	for i, v := range mvp {
		put(i, v)
	}
	lp := f.Light.Position
	for i, v := range [4]float32{lp[0], lp[1], lp[2], 1} {
		put(16+i, v)
	}
	for i, v := range f.Light.Color {
		put(20+i, v)
	}
	highlight := f.Highlight
	if highlight[3] == 0 {
		highlight = render.DefaultHighlight
	}
	for i, v := range highlight {
		put(24+i, v)
	}
	for i, v := range [4]float32{f.GlyphSize, f.Light.Intensity, render.Ambient, render.HighlightScale} {
		put(28+i, v)
	}
	if srgb {
		put(32, 1)
	}
	return out
}

// clearValue returns the background as a clear color for format. Frame
// colors are sRGB-encoded; *Srgb targets take linear clear values.
func clearValue(bg [4]float32, format gputypes.TextureFormat) gputypes.Color {
	c := color.RGBA(bg)
	if format.IsSrgb() {
		c = c.Linear()
	}
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

func (r *Renderer) ensureAxes(a render.Axes) error {
	if r.axesVB != nil && r.axesKey == a {
		return nil
	}
	r.destroyAxes()
	m := mesh.Axes(mesh.AxisSpec{
		CylinderRadius: a.CylinderRadius,
		CylinderLength: a.CylinderLength,
		ConeRadius:     a.ConeRadius,
		ConeLength:     a.ConeLength,
		Colors:         a.Colors,
	})
	var err error
	if r.axesVB, err = r.upload("glyph_axes_vertices", m.Bytes(), gputypes.BufferUsageVertex); err != nil {
		return err
	}
	if r.axesIB, err = r.upload("glyph_axes_indices", m.IndexBytes(), gputypes.BufferUsageIndex); err != nil {
		r.destroyAxes()
		return err
	}
	r.axesIndexCount = uint32(len(m.Indices)) //nolint:gosec // bounded by mesh size
	r.axesKey = a
	return nil
}

func (r *Renderer) destroyAxes() {
	for _, b := range []*hal.Buffer{&r.axesVB, &r.axesIB} {
		if *b != nil {
			r.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	r.axesIndexCount = 0
}

// ensureInstances grows the instance buffer to hold size bytes.
func (r *Renderer) ensureInstances(size uint64) error {
	if size <= r.instanceCap {
		return nil
	}
	if r.instances != nil {
		r.device.DestroyBuffer(r.instances)
		r.instances = nil
	}
	capacity := max(size, r.instanceCap*2)
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_instances",
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.instanceCap = 0
		return native.ResourceError("buffer", "glyph_instances", "create", err)
	}
	r.instances = buf
	r.instanceCap = capacity
	return nil
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, f *render.Frame) error {
	if r.destroyed || r.width == 0 {
		return render.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.queue.WriteBuffer(r.globals, 0, globalsBytes(f, r.colorFormat.IsSrgb())); err != nil {
		return native.ResourceError("buffer", "glyph_globals", "write", err)
	}
	if f.Axes.Visible {
		if err := r.ensureAxes(f.Axes); err != nil {
			return err
		}
	}

	n := f.Instances.Len()
	selected := 0
	if n > 0 {
		if err := r.ensureInstances(uint64(len(f.Instances))); err != nil {
			return err
		}
		if err := r.queue.WriteBuffer(r.instances, 0, f.Instances); err != nil {
			return native.ResourceError("buffer", "glyph_instances", "write", err)
		}
		f.Instances.Each(func(_ int, in render.Instance) {
			if in.Selected() {
				selected++
			}
		})
	}

	colorView := r.targets.colorView
	var acquired *hal.AcquiredSurfaceTexture
	presented := false
	if r.surface != nil {
		var err error
		acquired, err = r.surface.AcquireTexture(nil)
		if err != nil {
			return native.MapError(fmt.Errorf("gpu: acquire surface texture: %w", err))
		}
		defer func() {
			if !presented {
				r.surface.DiscardTexture(acquired.Texture)
			}
		}()
		view, err := r.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
			Label:         "glyph_surface_view",
			Format:        r.colorFormat,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			return native.ResourceError("texture_view", "glyph_surface_view", "create", err)
		}
		defer r.device.DestroyTextureView(view)
		colorView = view
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glyph_frame_encoder"})
	if err != nil {
		return native.MapError(fmt.Errorf("gpu: create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding("glyph_frame"); err != nil {
		return native.MapError(fmt.Errorf("gpu: begin encoding: %w", err))
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glyph_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       colorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue(f.Background, r.colorFormat),
			},
			{
				View:       r.targets.pickView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            r.targets.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	rp.SetViewport(0, 0, float32(r.width), float32(r.height), 0, 1)
	rp.SetBindGroup(0, r.bindGroup, nil)

	if f.Axes.Visible && r.axesIndexCount > 0 {
		rp.SetPipeline(r.pipes.axes)
		rp.SetVertexBuffer(0, r.axesVB, 0)
		rp.SetIndexBuffer(r.axesIB, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(r.axesIndexCount, 1, 0, 0, 0)
	}
	if n > 0 {
		rp.SetPipeline(r.pipes.glyphs)
		rp.SetVertexBuffer(0, r.boxVB, 0)
		rp.SetVertexBuffer(1, r.instances, 0)
		rp.SetIndexBuffer(r.boxIB, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(r.boxIndexCount, uint32(n), 0, 0, 0) //nolint:gosec // instance count fits uint32
		if selected > 0 {
			rp.SetPipeline(r.pipes.outline)
			rp.DrawIndexed(r.boxIndexCount, uint32(n), 0, 0, 0) //nolint:gosec // instance count fits uint32
		}
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return native.MapError(fmt.Errorf("gpu: end encoding: %w", err))
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return native.MapError(fmt.Errorf("gpu: submit: %w", err))
	}
	if err := r.device.WaitIdle(); err != nil {
		return native.MapError(fmt.Errorf("gpu: wait for GPU: %w", err))
	}

	if r.surface != nil {
		presented = true
		if err := r.queue.Present(r.surface, acquired.Texture, nil); err != nil {
			return native.MapError(fmt.Errorf("gpu: present: %w", err))
		}
		if acquired.Suboptimal {
			slogger().Debug("gpu: surface suboptimal, reconfigure on next resize")
		}
	}
	return nil
}

// ReadPick implements render.Renderer.
func (r *Renderer) ReadPick(ctx context.Context, x, y, w, h int) ([]uint32, error) {
	if r.destroyed || r.width == 0 {
		return nil, render.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > r.width || y+h > r.height {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", render.ErrOutOfBounds, w, h, x, y, r.width, r.height)
	}
	uw, uh := uint32(w), uint32(h) //nolint:gosec // checked above
	row := alignedRow(uw)
	size := uint64(row) * uint64(uh)

	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_pick_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, native.ResourceError("buffer", "glyph_pick_staging", "create", err)
	}
	defer r.device.DestroyBuffer(staging)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glyph_pick_encoder"})
	if err != nil {
		return nil, native.MapError(fmt.Errorf("gpu: create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding("glyph_pick"); err != nil {
		return nil, native.MapError(fmt.Errorf("gpu: begin encoding: %w", err))
	}
	encoder.CopyTextureToBuffer(r.targets.pickTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: row, RowsPerImage: uh},
		TextureBase: hal.ImageCopyTexture{
			Texture: r.targets.pickTex,
			Origin:  hal.Origin3D{X: uint32(x), Y: uint32(y)}, //nolint:gosec // checked above
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uw, Height: uh, DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, native.MapError(fmt.Errorf("gpu: end encoding: %w", err))
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, native.MapError(fmt.Errorf("gpu: submit: %w", err))
	}
	if err := r.device.WaitIdle(); err != nil {
		return nil, native.MapError(fmt.Errorf("gpu: wait for GPU: %w", err))
	}

	mapping, err := r.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, native.ResourceError("buffer", "glyph_pick_staging", "map", err)
	}
	raw := unsafe.Slice((*byte)(mapping.Ptr), size) //nolint:gosec // mapping covers size bytes
	out := make([]uint32, 0, w*h)
	for j := 0; j < h; j++ {
		line := raw[j*int(row):]
		for i := 0; i < w; i++ {
			out = append(out, binary.LittleEndian.Uint32(line[i*4:]))
		}
	}
	if err := r.device.UnmapBuffer(staging); err != nil {
		return nil, native.ResourceError("buffer", "glyph_pick_staging", "unmap", err)
	}
	return out, nil
}

// Destroy implements render.Renderer. It waits for the GPU, then releases
// frame buffers, pipelines, targets and finally the device if owned.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.device != nil {
		_ = r.device.WaitIdle()
	}
	r.release()
}

func (r *Renderer) release() {
	if r.device == nil {
		return
	}
	r.destroyAxes()
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	for _, b := range []*hal.Buffer{&r.instances, &r.boxVB, &r.boxIB, &r.globals} {
		if *b != nil {
			r.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	r.instanceCap = 0
	if r.pipes != nil {
		r.pipes.destroy()
		r.pipes = nil
	}
	r.targets.destroy(r.device)
	if r.surface != nil && r.configured {
		r.surface.Unconfigure(r.device)
		r.configured = false
	}
	if r.owned != nil {
		r.owned.Close()
		r.owned = nil
	}
	r.width, r.height = 0, 0
}

var _ render.CapableRenderer = (*Renderer)(nil)
