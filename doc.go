// Package glyphfield renders tabular data as a 3D field of extruded glyphs
// and drives the interaction around it.
//
// # Overview
//
// Each record of a dataset becomes one box-shaped glyph. Its X and Z ranks
// place it on a grid and its Y value sets its height and color. A host
// application feeds the engine with input events, filters and datasets and
// receives redraw, selection and diagnostic events back.
//
// # Quick Start
//
//	import "github.com/gogpu/glyphfield"
//
//	e, err := glyphfield.New(
//	    glyphfield.WithStore(store),
//	    glyphfield.WithSize(1280, 720),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	events, cancel := e.Subscribe(64)
//	defer cancel()
//	go e.Run(ctx)
//
//	_ = e.Post(ctx, glyphfield.UpdateModelFilter{JSON: []byte(`{"y":{"no_op":{}}}`)})
//
// # Event Loop
//
// All state lives on the goroutine running [Engine.Run]. Events posted with
// [Engine.Post] are handled strictly in order; the queue is bounded and
// Post blocks while it is full. After the queue drains the engine lays out
// and draws at most one frame, however many events asked for one.
//
// # States
//
// An engine starts Uninitialized. Run sizes the renderer, lays out the
// first frame and moves to Ready, announcing it with [StateReady]. A
// [Close] event, a canceled context or a fatal GPU error moves it to
// [StateTerminated], announced with [Terminated].
//
// # Renderers
//
// The default renderer is a CPU rasterizer that needs no GPU. The wgpu
// renderer in internal/gpu is selected by hosts through [WithRenderer],
// see integration/gpucanvas and cmd/glyphdemo.
//
// # Coordinate System
//
// Model space has Y up. X and Z run from 0 to the axis length in rank
// order and the model origin translates the field into world space.
// Window coordinates are physical pixels with the origin at the top left.
package glyphfield

// Version is the current version of the library.
const Version = "0.1.0"
