package glyph

import (
	"errors"
	"fmt"
	"math"
)

// MaxGlyphID is the largest accepted glyph id. Pick targets store id+1
// in 32 bits and reserve 0 for the background.
const MaxGlyphID = math.MaxUint32 - 1

var (
	// ErrDuplicateGlyph is returned by Store.Replace when two records share a glyph id.
	ErrDuplicateGlyph = errors.New("glyph: duplicate glyph id")

	// ErrGlyphIDRange is returned by Store.Replace for an id above MaxGlyphID.
	ErrGlyphIDRange = errors.New("glyph: glyph id out of range")
)

// Dataset is the complete output of one ingest: ordered records, the X
// and Z vector tables and the X/Y/Z statistics.
type Dataset struct {
	Records  []Record
	XVectors *VectorTable
	ZVectors *VectorTable
	XStats   Stats
	YStats   Stats
	ZStats   Stats
}

// NewDataset assembles a dataset from records and vector tables and
// computes the three axis statistics from the record values.
func NewDataset(records []Record, x, z *VectorTable) Dataset {
	xs := make([]float64, len(records))
	ys := make([]float64, len(records))
	zs := make([]float64, len(records))
	for i := range records {
		xs[i] = float64(records[i].XValue)
		ys[i] = float64(records[i].YValue)
		zs[i] = float64(records[i].ZValue)
	}
	return Dataset{
		Records:  records,
		XVectors: x,
		ZVectors: z,
		XStats:   ComputeStats(xs),
		YStats:   ComputeStats(ys),
		ZStats:   ComputeStats(zs),
	}
}

// Store owns the current dataset. It offers read-only access; the only
// mutation is wholesale replacement.
//
// A Store belongs to the engine's event loop and is not safe for
// concurrent use.
type Store struct {
	ds         Dataset
	byID       map[uint32]int
	rankCount  [3]uint32
	generation uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[uint32]int)}
}

// Replace swaps in a new dataset. The store keeps the dataset's record
// slice; callers must not modify it afterwards. On error the previous
// dataset is kept.
func (s *Store) Replace(ds Dataset) error {
	byID := make(map[uint32]int, len(ds.Records))
	var rc [3]uint32
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.GlyphID > MaxGlyphID {
			return fmt.Errorf("%w: %d", ErrGlyphIDRange, r.GlyphID)
		}
		if _, ok := byID[r.GlyphID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateGlyph, r.GlyphID)
		}
		byID[r.GlyphID] = i
		rc[AxisX] = max(rc[AxisX], r.XRank+1)
		rc[AxisZ] = max(rc[AxisZ], r.ZRank+1)
	}
	if ds.XVectors == nil {
		ds.XVectors = NewVectorTable()
	}
	if ds.ZVectors == nil {
		ds.ZVectors = NewVectorTable()
	}
	rc[AxisX] = max(rc[AxisX], uint32(ds.XVectors.Len()))
	rc[AxisZ] = max(rc[AxisZ], uint32(ds.ZVectors.Len()))

	s.ds = ds
	s.byID = byID
	s.rankCount = rc
	s.generation++
	return nil
}

// Records returns the records in load order. The slice must not be modified.
func (s *Store) Records() []Record { return s.ds.Records }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.ds.Records) }

// Lookup returns the record with the given glyph id.
func (s *Store) Lookup(id uint32) (Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return s.ds.Records[i], true
}

// Vectors returns the vector table of a ranked axis, or nil for Y.
func (s *Store) Vectors(a Axis) *VectorTable {
	switch a {
	case AxisX:
		return s.ds.XVectors
	case AxisZ:
		return s.ds.ZVectors
	default:
		return nil
	}
}

// Stats returns the statistics of an axis.
func (s *Store) Stats(a Axis) *Stats {
	switch a {
	case AxisX:
		return &s.ds.XStats
	case AxisZ:
		return &s.ds.ZStats
	default:
		return &s.ds.YStats
	}
}

// RankCount returns the number of rank slots on a ranked axis: the
// larger of the highest record rank plus one and the vector table size.
// It is 0 for Y.
func (s *Store) RankCount(a Axis) uint32 { return s.rankCount[a] }

// Generation increases on every successful Replace.
func (s *Store) Generation() uint64 { return s.generation }
