package glyphfield

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/query"
)

// Event is a message to or from the engine. Hosts post input and control
// events with Engine.Post and receive outbound events from Engine.Subscribe.
type Event interface {
	// Name is the event type name used on the wire.
	Name() string
}

// Inbound input events.
type (
	// KeyEvent is a key press or release.
	KeyEvent struct {
		Key     gpucontext.Key
		Mods    gpucontext.Modifiers
		Pressed bool
	}

	// MouseMove reports the cursor position in physical pixels.
	MouseMove struct{ X, Y float64 }

	// MouseButton is a button press or release at a position. Mods may
	// be zero when the host does not know them; the engine then uses the
	// modifiers of the last key event.
	MouseButton struct {
		Button  gpucontext.MouseButton
		X, Y    float64
		Pressed bool
		Mods    gpucontext.Modifiers
	}

	// Scroll is a wheel movement; positive DY scrolls down.
	Scroll struct{ DX, DY float64 }

	// Resize reports the new window size in physical pixels.
	Resize struct{ Width, Height int }

	// ReplaceConfig swaps in a whole configuration snapshot.
	ReplaceConfig struct{ Config config.Config }

	// Close terminates the engine.
	Close struct{}
)

// Direction is a model movement direction.
type Direction uint8

const (
	MoveLeft Direction = iota
	MoveRight
	MoveUp
	MoveDown
	MoveForward
	MoveBackward
)

var directionNames = [...]string{"left", "right", "up", "down", "forward", "backward"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection maps a direction name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("glyphfield: unknown direction %q", b)
	}
	*d = v
	return nil
}

// Events that travel both ways.
type (
	// Redraw asks for a frame. Outbound, it reports a drawn frame.
	Redraw struct {
		Frame uint64 `json:"frame"`
	}

	// ToggleAxisLines shows or hides the axes. Outbound, it reports the
	// new visibility.
	ToggleAxisLines struct {
		Visible bool `json:"visible"`
	}

	// ModelMove moves the model origin one step. Outbound, it reports
	// the new origin.
	ModelMove struct {
		Direction Direction   `json:"direction"`
		Origin    config.Vec3 `json:"origin"`
	}

	// SelectGlyph selects the glyph under a pixel. Multi toggles it in
	// the selection instead of replacing the selection.
	SelectGlyph struct {
		X, Y  int
		Multi bool
	}

	// SelectGlyphs replaces the selection with ids. Unknown ids are
	// dropped.
	SelectGlyphs struct{ IDs []uint32 }

	// UpdateModelFilter replaces the filter. Inbound, JSON holds the
	// filter document. Outbound, Query is the applied filter and Visible
	// the number of glyphs that pass it.
	UpdateModelFilter struct {
		JSON    []byte       `json:"-"`
		Query   *query.Query `json:"query"`
		Visible int          `json:"visible"`
	}

	// GlyphsUpdated replaces the dataset. Outbound, Count is the number
	// of records loaded.
	GlyphsUpdated struct {
		Dataset glyph.Dataset `json:"-"`
		Count   int           `json:"count"`
	}
)

// Outbound-only events.
type (
	// StateReady announces that the engine finished starting up.
	StateReady struct {
		Backend string `json:"backend"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Glyphs  int    `json:"glyphs"`
	}

	// SelectedGlyphs carries the full selection after every selection
	// event.
	SelectedGlyphs struct {
		Views []SelectionView `json:"views"`
	}

	// FilterRejected reports a filter update that failed to parse or
	// compile. The previous filter stays active.
	FilterRejected struct {
		Kind      string `json:"kind"`
		FieldName string `json:"field_name,omitempty"`
		Fragment  string `json:"fragment,omitempty"`
		Reason    string `json:"reason"`
	}

	// ConfigRejected reports an invalid ReplaceConfig.
	ConfigRejected struct {
		Reason string `json:"reason"`
	}

	// Terminated is the last event of an engine. Err is empty on a clean
	// shutdown.
	Terminated struct {
		Err string `json:"error,omitempty"`
	}
)

func (KeyEvent) Name() string          { return "KeyEvent" }
func (MouseMove) Name() string         { return "MouseMove" }
func (MouseButton) Name() string       { return "MouseButton" }
func (Scroll) Name() string            { return "Scroll" }
func (Resize) Name() string            { return "Resize" }
func (ReplaceConfig) Name() string     { return "ReplaceConfig" }
func (Close) Name() string             { return "Close" }
func (Redraw) Name() string            { return "Redraw" }
func (ToggleAxisLines) Name() string   { return "ToggleAxisLines" }
func (ModelMove) Name() string         { return "ModelMove" }
func (SelectGlyph) Name() string       { return "SelectGlyph" }
func (SelectGlyphs) Name() string      { return "SelectGlyphs" }
func (UpdateModelFilter) Name() string { return "UpdateModelFilter" }
func (GlyphsUpdated) Name() string     { return "GlyphsUpdated" }
func (StateReady) Name() string        { return "StateReady" }
func (SelectedGlyphs) Name() string    { return "SelectedGlyphs" }
func (FilterRejected) Name() string    { return "FilterRejected" }
func (ConfigRejected) Name() string    { return "ConfigRejected" }
func (Terminated) Name() string        { return "Terminated" }

// Rejection builds the FilterRejected event reporting a parse or compile
// error.
func Rejection(err error) FilterRejected {
	var pe *query.ParseError
	if errors.As(err, &pe) {
		return FilterRejected{
			Kind:      pe.Kind.String(),
			FieldName: pe.FieldName,
			Fragment:  pe.Fragment,
			Reason:    pe.Reason,
		}
	}
	return FilterRejected{Kind: "invalid", Reason: err.Error()}
}

// envelope is the wire form of an outbound event.
type envelope struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}

// MarshalEvent encodes an event as {"type": name, "payload": event}.
func MarshalEvent(ev Event) ([]byte, error) {
	b, err := json.Marshal(envelope{Type: ev.Name(), Payload: ev})
	if err != nil {
		return nil, fmt.Errorf("glyphfield: marshal %s: %w", ev.Name(), err)
	}
	return b, nil
}
