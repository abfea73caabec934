package compute

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gogpu/glyphfield/render"
)

// Fallback runs Primary and retries on the CPU when Primary fails with
// anything but a fatal device error or a canceled context.
type Fallback struct {
	Primary Backend
	CPU     *CPU
}

// NewFallback wraps primary. A nil primary means CPU only.
func NewFallback(primary Backend) *Fallback {
	return &Fallback{Primary: primary, CPU: NewCPU()}
}

// Name implements Backend.
func (f *Fallback) Name() string {
	if f.Primary == nil {
		return f.CPU.Name()
	}
	return f.Primary.Name() + "+cpu"
}

// Layout implements Backend.
func (f *Fallback) Layout(ctx context.Context, in *Input) (render.Instances, error) {
	if f.Primary != nil {
		out, err := f.Primary.Layout(ctx, in)
		switch {
		case err == nil, ctx.Err() != nil:
			return out, err
		case errors.Is(err, ErrFallbackToCPU):
			slogger().Warn("compute: GPU layout unavailable, using CPU",
				"backend", f.Primary.Name(), "records", len(in.Records), "err", err)
		case render.Fatal(err):
			return nil, err
		default:
			slogger().Warn("compute: GPU layout failed, retrying on CPU",
				"backend", f.Primary.Name(), "records", len(in.Records), "err", err)
		}
	}
	return f.CPU.Layout(ctx, in)
}

// Close implements Backend.
func (f *Fallback) Close() {
	if f.Primary != nil {
		f.Primary.Close()
	}
	f.CPU.Close()
}

// SetLogger sets the logger used by this package.
func (f *Fallback) SetLogger(l *slog.Logger) { setLogger(l) }

var _ Backend = (*Fallback)(nil)
