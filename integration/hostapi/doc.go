// Package hostapi exposes a glyphfield Engine over HTTP.
//
// The control surface is a small JSON API served by echo. Every request is
// turned into an inbound engine event; the response is read back through
// Snapshot, which runs after the posted event on the engine's queue, so a
// response always reflects its own request.
//
//	POST /api/filter             filter document in, {"query", "visible"} out
//	POST /api/select             {"x", "y", "multi"} pixel hit test
//	POST /api/select/ids         {"ids": [...]} replaces the selection
//	GET  /api/selection          current selection views
//	POST /api/move/:direction    left, right, up, down, forward or backward
//	POST /api/axes/toggle        shows or hides the axis lines
//	GET  /api/state              engine summary and configuration
//	GET  /api/events             WebSocket stream of outbound events
//
// Outbound events are sent to WebSocket clients as text frames holding
// glyphfield.MarshalEvent envelopes. A slow client loses events rather
// than stalling the engine.
//
// # Usage
//
//	srv := hostapi.New(engine)
//	go srv.Start(":8080")
//	defer srv.Shutdown(ctx)
package hostapi
