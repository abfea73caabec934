package glyph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorTableInsertAndGet(t *testing.T) {
	vt := NewVectorTable()
	require.NoError(t, vt.Insert(F64(1.5), 10, 0))
	require.NoError(t, vt.Insert(String("apple"), 20, 1))
	require.NoError(t, vt.Insert(U64(7), 30, 2))

	v, ok := vt.Vector(F64(1.5))
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = vt.Vector(String("apple"))
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)

	_, ok = vt.Vector(String("pear"))
	assert.False(t, ok)
	assert.Equal(t, 3, vt.Len())
}

func TestVectorTableDuplicate(t *testing.T) {
	vt := NewVectorTable()
	require.NoError(t, vt.Insert(String("a"), 1, 0))
	err := vt.Insert(String("a"), 2, 1)
	assert.ErrorIs(t, err, ErrDuplicate)

	v, _ := vt.Vector(String("a"))
	assert.Equal(t, 1.0, v, "failed insert must not overwrite")
}

func TestVectorTableRejectsNaN(t *testing.T) {
	vt := NewVectorTable()
	assert.ErrorIs(t, vt.Insert(F64(math.NaN()), 0, 0), ErrNaN)
	assert.ErrorIs(t, vt.Insert(F64(math.NaN()), 1, 1), ErrNaN)
	assert.Equal(t, 0, vt.Len())

	built := BuildVectorTable([]OriginalValue{F64(math.NaN()), F64(2), F64(math.NaN()), F64(1)}, true)
	require.Equal(t, 2, built.Len())
	r, ok := built.Entry(F64(1))
	require.True(t, ok)
	assert.Equal(t, uint64(0), r.Rank)
}

func TestVectorTableKindsAreDistinct(t *testing.T) {
	vt := NewVectorTable()
	require.NoError(t, vt.Insert(F64(5), 1, 0))
	require.NoError(t, vt.Insert(U64(5), 2, 1))
	require.NoError(t, vt.Insert(String("5"), 3, 2))

	for _, tc := range []struct {
		key  OriginalValue
		want float64
	}{
		{F64(5), 1},
		{U64(5), 2},
		{String("5"), 3},
	} {
		got, ok := vt.Vector(tc.key)
		require.True(t, ok, tc.key.String())
		assert.Equal(t, tc.want, got, tc.key.String())
	}
}

func TestVectorTableReverse(t *testing.T) {
	vt := NewVectorTable()
	require.NoError(t, vt.Insert(String("b"), 0.5, 4))

	orig, ok := vt.Original(4)
	require.True(t, ok)
	assert.Equal(t, String("b"), orig)

	_, ok = vt.Original(5)
	assert.False(t, ok)
}

func TestVectorTableNil(t *testing.T) {
	var vt *VectorTable
	_, ok := vt.Vector(F64(1))
	assert.False(t, ok)
	assert.Equal(t, 0, vt.Len())
}

func TestBuildVectorTableSorted(t *testing.T) {
	vt := BuildVectorTable([]OriginalValue{
		String("b"), F64(3), U64(1), String("a"), F64(3), F64(-2),
	}, true)

	var got []OriginalValue
	vt.Range(func(v OriginalValue, e VectorEntry) bool {
		got = append(got, v)
		return true
	})
	assert.Equal(t, []OriginalValue{F64(-2), U64(1), F64(3), String("a"), String("b")}, got)

	e, ok := vt.Entry(F64(3))
	require.True(t, ok)
	assert.Equal(t, VectorEntry{Vector: 2, Rank: 2}, e)
}

func TestBuildVectorTableFirstSeen(t *testing.T) {
	vt := BuildVectorTable([]OriginalValue{String("z"), String("a"), String("z")}, false)
	e, ok := vt.Entry(String("z"))
	require.True(t, ok)
	assert.Equal(t, uint64(0), e.Rank)
	assert.Equal(t, 2, vt.Len())
}

func TestOriginalValueString(t *testing.T) {
	assert.Equal(t, "F64(2.5)", F64(2.5).String())
	assert.Equal(t, "U64(9)", U64(9).String())
	assert.Equal(t, `String("x")`, String("x").String())
}
