package pick

import "slices"

// Selection is an ordered set of glyph ids. Ids keep the order in which
// they were selected. The zero value is empty and ready to use.
type Selection struct {
	ids   []uint32
	index map[uint32]int
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// Contains reports whether id is selected.
func (s *Selection) Contains(id uint32) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []uint32 { return slices.Clone(s.ids) }

// Clear empties the selection and reports whether it changed.
func (s *Selection) Clear() bool {
	if len(s.ids) == 0 {
		return false
	}
	s.ids = s.ids[:0]
	clear(s.index)
	return true
}

// Replace makes id the only selected glyph.
func (s *Selection) Replace(id uint32) bool {
	if len(s.ids) == 1 && s.ids[0] == id {
		return false
	}
	s.Clear()
	s.add(id)
	return true
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id uint32) {
	if i, ok := s.index[id]; ok {
		s.ids = slices.Delete(s.ids, i, i+1)
		delete(s.index, id)
		for j := i; j < len(s.ids); j++ {
			s.index[s.ids[j]] = j
		}
		return
	}
	s.add(id)
}

// Set replaces the selection with ids, dropping duplicates.
func (s *Selection) Set(ids []uint32) {
	s.Clear()
	for _, id := range ids {
		if !s.Contains(id) {
			s.add(id)
		}
	}
}

// Apply updates the selection for a click that hit id (hit is true) or
// the background. A single click replaces the selection or clears it on
// background; a multi click toggles id and ignores background. It
// reports whether the selection changed.
func (s *Selection) Apply(id uint32, hit, multi bool) bool {
	switch {
	case !hit && multi:
		return false
	case !hit:
		return s.Clear()
	case multi:
		s.Toggle(id)
		return true
	default:
		return s.Replace(id)
	}
}

func (s *Selection) add(id uint32) {
	if s.index == nil {
		s.index = make(map[uint32]int)
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}
