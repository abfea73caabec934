package compute

import (
	"context"

	"github.com/gogpu/glyphfield/internal/parallel"
	"github.com/gogpu/glyphfield/render"
)

// cpuChunk is the smallest number of records handed to one worker.
const cpuChunk = 2048

// CPU lays out instances on the shared worker pool.
type CPU struct {
	pool *parallel.WorkerPool
}

// NewCPU returns a CPU backend on the process-wide pool.
func NewCPU() *CPU {
	return &CPU{pool: parallel.Shared()}
}

// Name implements Backend.
func (*CPU) Name() string { return "cpu" }

// Layout implements Backend.
func (c *CPU) Layout(ctx context.Context, in *Input) (render.Instances, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(render.Instances, len(in.Records)*render.InstanceSize)
	c.pool.ForEachChunk(len(in.Records), cpuChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			Place(&in.Records[i], in).Put(out[i*render.InstanceSize:])
		}
	})
	return out, nil
}

// Close implements Backend. The shared pool is never closed.
func (*CPU) Close() {}

var _ Backend = (*CPU)(nil)
