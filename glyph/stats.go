package glyph

import (
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// PercentileLevels are the percentiles kept in Stats, in storage order.
var PercentileLevels = [...]int{
	0, 5, 10, 15, 20, 25, 30, 33, 35, 40, 45, 50,
	55, 60, 65, 67, 70, 75, 80, 85, 90, 95, 99,
}

// NumPercentiles is the length of Stats.Percentiles.
const NumPercentiles = len(PercentileLevels)

// Stats summarises one axis. Min and Max drive layout normalisation; the
// named statistics (mean, median, pct_N) are what filters can reference.
type Stats struct {
	Min         float64                 `json:"min"`
	Max         float64                 `json:"max"`
	Mean        float64                 `json:"mean"`
	Median      float64                 `json:"median"`
	Percentiles [NumPercentiles]float64 `json:"percentiles"`
}

var percentileIndex = func() map[int]int {
	m := make(map[int]int, NumPercentiles)
	for i, p := range PercentileLevels {
		m[p] = i
	}
	return m
}()

// StatNames returns every name Lookup recognises.
func StatNames() []string {
	names := []string{"mean", "median"}
	for _, p := range PercentileLevels {
		names = append(names, "pct_"+strconv.Itoa(p))
	}
	return names
}

// Lookup resolves a statistic by name. Names outside StatNames, and
// statistics that were never computed (NaN), report false.
func (s *Stats) Lookup(name string) (float64, bool) {
	var v float64
	switch name {
	case "mean":
		v = s.Mean
	case "median":
		v = s.Median
	default:
		rest, ok := strings.CutPrefix(name, "pct_")
		if !ok {
			return 0, false
		}
		p, err := strconv.Atoi(rest)
		if err != nil || strconv.Itoa(p) != rest {
			return 0, false
		}
		i, ok := percentileIndex[p]
		if !ok {
			return 0, false
		}
		v = s.Percentiles[i]
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Percentile returns the stored value for level p, if p is one of
// PercentileLevels.
func (s *Stats) Percentile(p int) (float64, bool) {
	i, ok := percentileIndex[p]
	if !ok {
		return 0, false
	}
	return s.Percentiles[i], true
}

// ComputeStats summarises values. Quantiles use the R8 estimator. An
// empty input yields NaN for every field.
func ComputeStats(values []float64) Stats {
	var st Stats
	if len(values) == 0 {
		nan := math.NaN()
		st.Min, st.Max, st.Mean, st.Median = nan, nan, nan, nan
		for i := range st.Percentiles {
			st.Percentiles[i] = nan
		}
		return st
	}

	xs := make([]float64, len(values))
	copy(xs, values)
	sample := stats.Sample{Xs: xs}
	sample.Sort()

	st.Min, st.Max = sample.Bounds()
	st.Mean = sample.Mean()
	st.Median = sample.Quantile(0.5)
	for i, p := range PercentileLevels {
		st.Percentiles[i] = sample.Quantile(float64(p) / 100)
	}
	return st
}
