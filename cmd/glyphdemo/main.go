// Command glyphdemo renders a synthetic glyph field.
//
// By default it renders one frame of a wave-shaped grid on the CPU and
// writes it to a PNG. With -frames it orbits the camera for that many
// steps first. With -http it keeps running and serves the host API until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/gpucontext"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/glyphfield"
	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/integration/hostapi"
	"github.com/gogpu/glyphfield/internal/software"
	"github.com/gogpu/glyphfield/render"
)

// orbitStep is the simulated drag per frame, in pixels.
const orbitStep = 12

type flags struct {
	config  string
	grid    string
	width   int
	height  int
	gpu     bool
	http    string
	watch   bool
	frames  int
	output  string
	verbose bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "configuration file (.toml, .yaml or .json)")
	flag.StringVar(&f.grid, "grid", "24x24", "synthetic grid size as NXxNZ")
	flag.IntVar(&f.width, "width", glyphfield.DefaultWidth, "target width")
	flag.IntVar(&f.height, "height", glyphfield.DefaultHeight, "target height")
	flag.BoolVar(&f.gpu, "gpu", false, "render on a Vulkan device")
	flag.StringVar(&f.http, "http", "", "serve the host API on this address")
	flag.BoolVar(&f.watch, "watch", false, "reload -config when it changes")
	flag.IntVar(&f.frames, "frames", 1, "orbit frames to render before exiting")
	flag.StringVar(&f.output, "output", "glyphs.png", "PNG output of the software renderer")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	glyphfield.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, f); err != nil {
		log.Fatalf("glyphdemo: %v", err)
	}
}

// summary is what the demo prints on exit.
type summary struct {
	glyphs  int
	frames  uint64
	visible int
}

func run(ctx context.Context, f flags) error {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.LoadFile(f.config); err != nil {
			return err
		}
	}
	nx, nz, err := parseGrid(f.grid)
	if err != nil {
		return err
	}
	store := glyph.NewStore()
	if err := store.Replace(glyph.Grid(nx, nz, wave(nx, nz))); err != nil {
		return err
	}

	var sw *software.Renderer
	var r render.Renderer
	if f.gpu {
		if r, err = openGPU(); err != nil {
			glyphfield.Logger().Warn("glyphdemo: GPU unavailable, rendering on the CPU", "err", err)
			r = nil
		}
	}
	if r == nil {
		sw = software.New(software.WithSize(f.width, f.height))
		r = sw
	}

	eng, err := glyphfield.New(
		glyphfield.WithConfig(cfg),
		glyphfield.WithStore(store),
		glyphfield.WithRenderer(r),
		glyphfield.WithSize(f.width, f.height),
	)
	if err != nil {
		r.Destroy()
		return err
	}
	events, cancel := eng.Subscribe(1024)
	defer cancel()

	var sum summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(eng.Run(ctx))
	})
	g.Go(func() error {
		return drive(ctx, eng, events, f, &sum)
	})
	if f.http != "" {
		srv := hostapi.New(eng)
		g.Go(func() error { return srv.Start(f.http) })
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-eng.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	if f.watch && f.config != "" {
		g.Go(func() error {
			// Stop watching once the engine is gone.
			wctx, wcancel := context.WithCancel(ctx)
			defer wcancel()
			go func() {
				select {
				case <-eng.Done():
					wcancel()
				case <-wctx.Done():
				}
			}()
			err := config.Watch(wctx, f.config, func(c config.Config, err error) {
				if err != nil {
					glyphfield.Logger().Warn("glyphdemo: config reload failed", "err", err)
					return
				}
				if err := eng.Post(ctx, glyphfield.ReplaceConfig{Config: c}); err != nil {
					glyphfield.Logger().Debug("glyphdemo: config reload dropped", "err", err)
				}
			})
			return ignoreCanceled(err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("%d glyphs, %d visible, %d frames\n", sum.glyphs, sum.visible, sum.frames)
	if sw != nil && f.output != "" {
		if err := writePNG(f.output, sw); err != nil {
			return err
		}
		p.Printf("wrote %s (%dx%d)\n", f.output, f.width, f.height)
	}
	return nil
}

// drive consumes outbound events. Without -http it orbits the camera for
// the requested number of frames and then closes the engine.
func drive(ctx context.Context, eng *glyphfield.Engine, events <-chan glyphfield.Event, f flags, sum *summary) error {
	for {
		var ev glyphfield.Event
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			ev = e
		}
		switch ev := ev.(type) {
		case glyphfield.StateReady:
			sum.glyphs = ev.Glyphs
			sum.visible = ev.Glyphs
			if f.http != "" {
				continue
			}
			if err := orbit(ctx, eng, f); err != nil {
				return err
			}
		case glyphfield.Redraw:
			sum.frames = ev.Frame
		case glyphfield.UpdateModelFilter:
			sum.visible = ev.Visible
		case glyphfield.Terminated:
			if ev.Err != "" {
				return errors.New(ev.Err)
			}
			return nil
		}
	}
}

// orbit drags the camera frames-1 steps to the right, then closes. Moves
// that arrive faster than frames are drawn share a frame.
func orbit(ctx context.Context, eng *glyphfield.Engine, f flags) error {
	var evs []glyphfield.Event
	if f.frames > 1 {
		x, y := float64(f.width)/2, float64(f.height)/2
		evs = append(evs, glyphfield.MouseButton{Button: gpucontext.MouseButtonLeft, X: x, Y: y, Pressed: true})
		for i := 1; i < f.frames; i++ {
			evs = append(evs, glyphfield.MouseMove{X: x + float64(i*orbitStep), Y: y})
		}
		evs = append(evs, glyphfield.MouseButton{Button: gpucontext.MouseButtonLeft, X: x + float64((f.frames-1)*orbitStep), Y: y})
	}
	evs = append(evs, glyphfield.Close{})
	for _, ev := range evs {
		if err := eng.Post(ctx, ev); err != nil {
			return ignoreCanceled(err)
		}
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, glyphfield.ErrClosed) {
		return nil
	}
	return err
}

// parseGrid parses "NXxNZ".
func parseGrid(s string) (nx, nz int, err error) {
	a, b, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		nx, err = strconv.Atoi(a)
		if err == nil {
			nz, err = strconv.Atoi(b)
		}
	}
	if !ok || err != nil || nx <= 0 || nz <= 0 {
		return 0, 0, fmt.Errorf("invalid grid %q, want NXxNZ", s)
	}
	return nx, nz, nil
}

// wave is a smooth height field over the grid.
func wave(nx, nz int) func(x, z int) float32 {
	return func(x, z int) float32 {
		u := 2 * math.Pi * float64(x) / float64(nx)
		v := 2 * math.Pi * float64(z) / float64(nz)
		return float32(1 + math.Sin(u)*math.Cos(v))
	}
}

func writePNG(path string, r *software.Renderer) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, r.Target().Image()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
