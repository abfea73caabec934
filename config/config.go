// Package config holds the engine's rendering parameters and loads them
// from TOML, YAML or JSON files.
//
// A Config is a plain value. The engine keeps the only mutable copy and
// changes it from its event loop; everything else works on snapshots.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Color is a straight-alpha RGBA color with components in [0,1].
type Color [4]float32

// Vec3 is a point or direction in model space.
type Vec3 [3]float32

// Interpolation selects how values are spread along an axis.
type Interpolation uint8

const (
	Linear Interpolation = iota
	Log
)

// String returns "Linear" or "Log".
func (i Interpolation) String() string {
	if i == Log {
		return "Log"
	}
	return "Linear"
}

// Toggle returns the other interpolation.
func (i Interpolation) Toggle() Interpolation {
	if i == Log {
		return Linear
	}
	return Log
}

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Matching is case-insensitive.
func (i *Interpolation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "linear":
		*i = Linear
	case "log":
		*i = Log
	default:
		return fmt.Errorf("config: unknown interpolation %q", b)
	}
	return nil
}

// Order is the sort direction of an axis.
type Order uint8

const (
	Ascending Order = iota
	Descending
)

// String returns "Ascending" or "Descending".
func (o Order) String() string {
	if o == Descending {
		return "Descending"
	}
	return "Ascending"
}

// Toggle returns the other order.
func (o Order) Toggle() Order {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Matching is case-insensitive.
func (o *Order) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "ascending":
		*o = Ascending
	case "descending":
		*o = Descending
	default:
		return fmt.Errorf("config: unknown order %q", b)
	}
	return nil
}

// Config is the full set of rendering parameters.
type Config struct {
	// Axis geometry.
	GridCylinderRadius float32 `toml:"grid_cylinder_radius" yaml:"grid_cylinder_radius" json:"grid_cylinder_radius"`
	GridCylinderLength float32 `toml:"grid_cylinder_length" yaml:"grid_cylinder_length" json:"grid_cylinder_length"`
	GridConeRadius     float32 `toml:"grid_cone_radius" yaml:"grid_cone_radius" json:"grid_cone_radius"`
	GridConeLength     float32 `toml:"grid_cone_length" yaml:"grid_cone_length" json:"grid_cone_length"`

	// Glyph sizing.
	ZHeightRatio   float32 `toml:"z_height_ratio" yaml:"z_height_ratio" json:"z_height_ratio"`
	GlyphOffset    float32 `toml:"glyph_offset" yaml:"glyph_offset" json:"glyph_offset"`
	MinGlyphHeight float32 `toml:"min_glyph_height" yaml:"min_glyph_height" json:"min_glyph_height"`
	GlyphSize      float32 `toml:"glyph_size" yaml:"glyph_size" json:"glyph_size"`

	// Palette.
	XAxisColor      Color `toml:"x_axis_color" yaml:"x_axis_color" json:"x_axis_color"`
	YAxisColor      Color `toml:"y_axis_color" yaml:"y_axis_color" json:"y_axis_color"`
	ZAxisColor      Color `toml:"z_axis_color" yaml:"z_axis_color" json:"z_axis_color"`
	BackgroundColor Color `toml:"background_color" yaml:"background_color" json:"background_color"`
	MinColor        Color `toml:"min_color" yaml:"min_color" json:"min_color"`
	MaxColor        Color `toml:"max_color" yaml:"max_color" json:"max_color"`
	ColorFlip       bool  `toml:"color_flip" yaml:"color_flip" json:"color_flip"`

	// Lighting.
	LightColor     Color   `toml:"light_color" yaml:"light_color" json:"light_color"`
	LightLocation  Vec3    `toml:"light_location" yaml:"light_location" json:"light_location"`
	LightIntensity float32 `toml:"light_intensity" yaml:"light_intensity" json:"light_intensity"`

	ModelOrigin Vec3 `toml:"model_origin" yaml:"model_origin" json:"model_origin"`

	XInterpolation Interpolation `toml:"x_interpolation" yaml:"x_interpolation" json:"x_interpolation"`
	YInterpolation Interpolation `toml:"y_interpolation" yaml:"y_interpolation" json:"y_interpolation"`
	ZInterpolation Interpolation `toml:"z_interpolation" yaml:"z_interpolation" json:"z_interpolation"`

	XOrder Order `toml:"x_order" yaml:"x_order" json:"x_order"`
	YOrder Order `toml:"y_order" yaml:"y_order" json:"y_order"`
	ZOrder Order `toml:"z_order" yaml:"z_order" json:"z_order"`
}

// Default returns the startup configuration.
func Default() Config {
	return Config{
		GridCylinderRadius: 0.05,
		GridCylinderLength: 10,
		GridConeRadius:     0.15,
		GridConeLength:     0.4,

		ZHeightRatio:   0.5,
		GlyphOffset:    0.25,
		MinGlyphHeight: 0.05,
		GlyphSize:      0.4,

		XAxisColor:      Color{1, 0, 0, 1},
		YAxisColor:      Color{0, 1, 0, 1},
		ZAxisColor:      Color{0, 0, 1, 1},
		BackgroundColor: Color{0.05, 0.05, 0.08, 1},
		MinColor:        Color{0.1, 0.3, 0.9, 1},
		MaxColor:        Color{0.95, 0.2, 0.1, 1},

		LightColor:     Color{1, 1, 1, 1},
		LightLocation:  Vec3{5, 20, 5},
		LightIntensity: 1,

		ModelOrigin: Vec3{-5, 0, -5},
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Validate rejects NaN or infinite values, non-positive sizes and colors
// outside [0,1].
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float32
	}{
		{"grid_cylinder_radius", c.GridCylinderRadius},
		{"grid_cylinder_length", c.GridCylinderLength},
		{"grid_cone_radius", c.GridConeRadius},
		{"grid_cone_length", c.GridConeLength},
		{"z_height_ratio", c.ZHeightRatio},
		{"glyph_size", c.GlyphSize},
	}
	for _, f := range positive {
		if !finite(f.v) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, f.name, f.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float32
	}{
		{"glyph_offset", c.GlyphOffset},
		{"min_glyph_height", c.MinGlyphHeight},
		{"light_intensity", c.LightIntensity},
	}
	for _, f := range nonNegative {
		if !finite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalid, f.name, f.v)
		}
	}

	colors := []struct {
		name string
		v    Color
	}{
		{"x_axis_color", c.XAxisColor},
		{"y_axis_color", c.YAxisColor},
		{"z_axis_color", c.ZAxisColor},
		{"background_color", c.BackgroundColor},
		{"min_color", c.MinColor},
		{"max_color", c.MaxColor},
		{"light_color", c.LightColor},
	}
	for _, f := range colors {
		for _, ch := range f.v {
			if !finite(ch) || ch < 0 || ch > 1 {
				return fmt.Errorf("%w: %s component %v outside [0,1]", ErrInvalid, f.name, ch)
			}
		}
	}

	for _, v := range []struct {
		name string
		v    Vec3
	}{{"light_location", c.LightLocation}, {"model_origin", c.ModelOrigin}} {
		for _, ch := range v.v {
			if !finite(ch) {
				return fmt.Errorf("%w: %s is not finite", ErrInvalid, v.name)
			}
		}
	}

	if c.XInterpolation > Log || c.YInterpolation > Log || c.ZInterpolation > Log {
		return fmt.Errorf("%w: unknown interpolation", ErrInvalid)
	}
	if c.XOrder > Descending || c.YOrder > Descending || c.ZOrder > Descending {
		return fmt.Errorf("%w: unknown order", ErrInvalid)
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
