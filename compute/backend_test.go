package compute_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glyphfield"
	"github.com/gogpu/glyphfield/compute"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/render"
)

// flat is a host-supplied backend that lays every glyph out at height zero.
type flat struct {
	calls int
}

func (*flat) Name() string { return "flat" }
func (*flat) Close()       {}

func (f *flat) Layout(_ context.Context, in *compute.Input) (render.Instances, error) {
	f.calls++
	out := make(render.Instances, len(in.Records)*render.InstanceSize)
	for i := range in.Records {
		inst := compute.Place(&in.Records[i], in)
		inst.Position[1] = 0
		inst.Put(out[i*render.InstanceSize:])
	}
	return out, nil
}

var _ compute.Backend = (*flat)(nil)

func TestHostBackend(t *testing.T) {
	store := glyph.NewStore()
	require.NoError(t, store.Replace(glyph.Grid(3, 3, nil)))

	f := &flat{}
	e, err := glyphfield.New(glyphfield.WithComputer(f), glyphfield.WithStore(store), glyphfield.WithSize(32, 32))
	require.NoError(t, err)
	events, cancel := e.Subscribe(16)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	for ev := range events {
		if _, ok := ev.(glyphfield.StateReady); ok {
			break
		}
	}
	require.NoError(t, e.Post(context.Background(), glyphfield.Close{}))
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.calls)
}
