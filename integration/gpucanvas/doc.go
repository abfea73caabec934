// Package gpucanvas connects a glyphfield Engine to a gogpu window.
//
// The host window supplies two things through gpucontext interfaces:
//
//   - a DeviceProvider, whose HAL device backs the GPU renderer and the
//     GPU layout backend
//   - an EventSource, whose input callbacks become inbound engine events
//
// # Usage
//
//	opts, err := gpucanvas.EngineOptions(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	engine, err := glyphfield.New(opts...)
//	if err != nil {
//	    return err
//	}
//	canvas, err := gpucanvas.Attach(app.EventSource(), engine)
//	if err != nil {
//	    return err
//	}
//	defer canvas.Close()
//	return engine.Run(ctx)
//
// # Fallback
//
// A provider that does not expose HalDevice and HalQueue, or a device on
// which pipeline creation fails, yields the software renderer and the CPU
// layout backend. The engine behaves the same either way.
//
// # Thread Safety
//
// Callbacks may run on any goroutine. A callback blocks while the engine
// queue is full, so input is never lost to back-pressure. Only Close or
// engine termination drops events, and Stats counts them.
package gpucanvas
