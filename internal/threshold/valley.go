package threshold

import (
	"fmt"
	"math"
)

// ValleyBins is the number of coarse bins scanned by FirstValleyCut.
const ValleyBins = 25

// coarse re-bins the populated range [lo, hi] of h into ValleyBins equal-width
// bins. The maximum value falls into the last bin.
func coarse(h *Histogram, lo, hi int) [ValleyBins]int {
	var bins [ValleyBins]int
	span := hi - lo
	for v := lo; v <= hi; v++ {
		if h[v] == 0 {
			continue
		}
		k := (v - lo) * ValleyBins / span
		if k >= ValleyBins {
			k = ValleyBins - 1
		}
		bins[k] += h[v]
	}
	return bins
}

// FirstValleyCut returns the lower edge of the first local minimum that
// follows the first local maximum in a 25-bin histogram spanning the
// populated value range.
//
// The bins are scanned in increasing order. Once the count has descended,
// the first bin whose count rises again marks the end of the valley; the
// bin before it is the valley bin. Its lower edge is rounded up so that every
// value in the valley bin and above is foreground.
//
// ErrDegenerateHistogram is returned when the range is empty or a single
// value, or when the counts never rise again after descending.
func FirstValleyCut(h Histogram) (uint8, error) {
	lo, hi, ok := h.Span()
	if !ok {
		return 0, fmt.Errorf("%w: no populated bins", ErrDegenerateHistogram)
	}
	if lo == hi {
		return 0, fmt.Errorf("%w: single populated bin %d", ErrDegenerateHistogram, lo)
	}

	bins := coarse(&h, lo, hi)
	width := float64(hi-lo) / ValleyBins

	descending := false
	for k := 1; k < ValleyBins; k++ {
		switch {
		case bins[k] < bins[k-1]:
			descending = true
		case bins[k] > bins[k-1] && descending:
			edge := float64(lo) + float64(k-1)*width
			return uint8(math.Ceil(edge)), nil
		}
	}

	return 0, fmt.Errorf("%w: no valley after the first peak", ErrDegenerateHistogram)
}
