package imaging

import (
	"math"

	"github.com/codahale/hdrhistogram"
)

// RawStats summarizes the distribution of counts in a numeric source.
type RawStats struct {
	Min     uint64  `json:"min"`
	Max     uint64  `json:"max"`
	Mean    float64 `json:"mean"`
	P50     int64   `json:"p50"`
	P99     int64   `json:"p99"`
	Nonzero int     `json:"nonzero"`
	Total   uint64  `json:"total"`
	Pixels  int     `json:"pixels"`
	AllZero bool    `json:"all_zero"`
}

// ComputeRawStats returns count statistics for a raw grid.
//
// Min, Max, Mean and Total are exact. The percentiles come from an HDR
// histogram with three significant figures, so they are approximate for
// large counts.
func ComputeRawStats(g *RawGrid) RawStats {
	st := RawStats{Pixels: len(g.Pix)}
	if len(g.Pix) == 0 {
		return st
	}

	st.Min = math.MaxUint64
	for _, v := range g.Pix {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		if v != 0 {
			st.Nonzero++
		}
		st.Total += v
	}
	st.Mean = float64(st.Total) / float64(len(g.Pix))
	st.AllZero = st.Max == 0

	highest := int64(st.Max)
	if st.Max > math.MaxInt64/2 {
		highest = math.MaxInt64 / 2
	}
	if highest < 2 {
		highest = 2
	}
	h := hdrhistogram.New(1, highest, 3)
	for _, v := range g.Pix {
		rv := int64(highest)
		if v < uint64(highest) {
			rv = int64(v)
		}
		// Values are clamped to the trackable range, so RecordValue cannot fail.
		_ = h.RecordValue(rv)
	}
	st.P50 = h.ValueAtQuantile(50)
	st.P99 = h.ValueAtQuantile(99)
	return st
}
