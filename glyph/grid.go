package glyph

// Grid builds a synthetic nx by nz dataset. The record at column x and
// row z has x_value = x, z_value = z, ranks equal to the values, glyph id
// x*nz+z and height height(x, z). The vector tables map F64(x) and F64(z)
// to their vectors. A nil height function yields x+z.
func Grid(nx, nz int, height func(x, z int) float32) Dataset {
	if height == nil {
		height = func(x, z int) float32 { return float32(x + z) }
	}

	xt := NewVectorTable()
	for x := 0; x < nx; x++ {
		_ = xt.Insert(F64(float64(x)), float64(x), uint64(x))
	}
	zt := NewVectorTable()
	for z := 0; z < nz; z++ {
		_ = zt.Insert(F64(float64(z)), float64(z), uint64(z))
	}

	records := make([]Record, 0, nx*nz)
	for x := 0; x < nx; x++ {
		for z := 0; z < nz; z++ {
			id := uint32(x*nz + z)
			records = append(records, Record{
				GlyphID: id,
				XRank:   uint32(x),
				XValue:  float32(x),
				YValue:  height(x, z),
				ZRank:   uint32(z),
				ZValue:  float32(z),
				RowIDs:  []uint32{id},
			})
		}
	}
	return NewDataset(records, xt, zt)
}
