package glyph

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrDuplicate is returned by VectorTable.Insert when the key is already present.
	ErrDuplicate = errors.New("glyph: duplicate original value")

	// ErrNaN is returned by VectorTable.Insert for a NaN original, which
	// could never be looked up again.
	ErrNaN = errors.New("glyph: NaN original value")
)

// VectorEntry is the numeric side of a vector table mapping.
type VectorEntry struct {
	Vector float64 `json:"vector"`
	Rank   uint64  `json:"rank"`
}

// VectorTable maps an axis's original values to their vector and rank,
// and ranks back to original values.
//
// A VectorTable is not safe for concurrent mutation. After a dataset is
// handed to a Store it is only read.
type VectorTable struct {
	entries map[OriginalValue]VectorEntry
	byRank  map[uint64]OriginalValue
	order   []OriginalValue
}

// NewVectorTable returns an empty table.
func NewVectorTable() *VectorTable {
	return &VectorTable{
		entries: make(map[OriginalValue]VectorEntry),
		byRank:  make(map[uint64]OriginalValue),
	}
}

// Insert adds a mapping. It fails with ErrDuplicate if v is already
// present and with ErrNaN if v is a NaN float.
func (t *VectorTable) Insert(v OriginalValue, vector float64, rank uint64) error {
	if v.isNaN() {
		return ErrNaN
	}
	if _, ok := t.entries[v]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, v)
	}
	t.entries[v] = VectorEntry{Vector: vector, Rank: rank}
	if _, ok := t.byRank[rank]; !ok {
		t.byRank[rank] = v
	}
	t.order = append(t.order, v)
	return nil
}

// Vector returns the vector stored for v.
func (t *VectorTable) Vector(v OriginalValue) (float64, bool) {
	if t == nil {
		return 0, false
	}
	e, ok := t.entries[v]
	return e.Vector, ok
}

// Entry returns the full mapping stored for v.
func (t *VectorTable) Entry(v OriginalValue) (VectorEntry, bool) {
	if t == nil {
		return VectorEntry{}, false
	}
	e, ok := t.entries[v]
	return e, ok
}

// Original returns the first original value inserted with the given rank.
func (t *VectorTable) Original(rank uint64) (OriginalValue, bool) {
	if t == nil {
		return OriginalValue{}, false
	}
	v, ok := t.byRank[rank]
	return v, ok
}

// Len returns the number of mappings.
func (t *VectorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Range calls fn for each mapping in insertion order until fn returns false.
func (t *VectorTable) Range(fn func(OriginalValue, VectorEntry) bool) {
	if t == nil {
		return
	}
	for _, v := range t.order {
		if !fn(v, t.entries[v]) {
			return
		}
	}
}

// BuildVectorTable assigns dense ranks 0..n-1 to the distinct values in
// values and uses the rank as the vector. With sorted set, ranks follow
// the natural order (numbers ascending, then strings); otherwise they
// follow first appearance. NaN values are skipped.
func BuildVectorTable(values []OriginalValue, sorted bool) *VectorTable {
	seen := make(map[OriginalValue]struct{}, len(values))
	uniq := make([]OriginalValue, 0, len(values))
	for _, v := range values {
		if v.isNaN() {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}
	if sorted {
		sort.SliceStable(uniq, func(i, j int) bool { return uniq[i].less(uniq[j]) })
	}

	t := NewVectorTable()
	for i, v := range uniq {
		// uniq has no duplicates or NaNs, Insert cannot fail.
		_ = t.Insert(v, float64(i), uint64(i))
	}
	return t
}

func (v OriginalValue) isNaN() bool { return v.kind == KindF64 && math.IsNaN(v.f) }
