package glyph

import "fmt"

// Axis identifies one of the three model axes. X and Z are ranked axes
// backed by a VectorTable; Y is the continuous height measure.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the axes in evaluation order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// String returns the lowercase axis name used in filter JSON.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// Ranked reports whether the axis has a vector table.
func (a Axis) Ranked() bool { return a == AxisX || a == AxisZ }

// Record is one raw glyph as delivered by ingest.
type Record struct {
	GlyphID uint32   `json:"glyph_id"`
	XRank   uint32   `json:"x_rank"`
	XValue  float32  `json:"x_value"`
	YValue  float32  `json:"y_value"`
	ZRank   uint32   `json:"z_rank"`
	ZValue  float32  `json:"z_value"`
	RowIDs  []uint32 `json:"row_ids"`
}

// Value returns the record's vector value on the given axis.
func (r *Record) Value(a Axis) float32 {
	switch a {
	case AxisX:
		return r.XValue
	case AxisZ:
		return r.ZValue
	default:
		return r.YValue
	}
}

// Rank returns the record's rank on a ranked axis, or 0 for Y.
func (r *Record) Rank(a Axis) uint32 {
	switch a {
	case AxisX:
		return r.XRank
	case AxisZ:
		return r.ZRank
	default:
		return 0
	}
}
