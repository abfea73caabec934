package glyphfield

import (
	"github.com/goccy/go-json"

	"github.com/gogpu/glyphfield/glyph"
)

// SelectionView describes one selected glyph to the host.
type SelectionView struct {
	GlyphID uint32   `json:"glyph_id"`
	XValue  float32  `json:"x_value"`
	YValue  float32  `json:"y_value"`
	ZValue  float32  `json:"z_value"`
	RowIDs  []uint32 `json:"row_ids"`
}

// viewsOf looks up ids in the store, skipping unknown ones.
func viewsOf(s *glyph.Store, ids []uint32) []SelectionView {
	views := make([]SelectionView, 0, len(ids))
	for _, id := range ids {
		r, ok := s.Lookup(id)
		if !ok {
			continue
		}
		rows := r.RowIDs
		if rows == nil {
			rows = []uint32{}
		}
		views = append(views, SelectionView{
			GlyphID: r.GlyphID,
			XValue:  r.XValue,
			YValue:  r.YValue,
			ZValue:  r.ZValue,
			RowIDs:  rows,
		})
	}
	return views
}

// JSON encodes the selection as the array of views hosts receive.
func (s SelectedGlyphs) JSON() ([]byte, error) {
	views := s.Views
	if views == nil {
		views = []SelectionView{}
	}
	return json.Marshal(views)
}
