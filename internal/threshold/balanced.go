package threshold

import (
	"errors"
	"fmt"
)

// ErrDegenerateHistogram is returned when a histogram has no usable cut point.
var ErrDegenerateHistogram = errors.New("degenerate histogram")

// BalancedCut performs balanced histogram thresholding.
//
// The populated range [start, end] is split at its midpoint and the mass on
// each side is tracked. The heavier side gives up its outermost bin until
// start and end meet; the meeting bin is the threshold. After every shrink
// the midpoint moves by at most one bin, transferring that bin's mass to the
// other side.
//
// The result always lies within the original populated range. At least two
// distinct populated bins are required.
func BalancedCut(h Histogram) (uint8, error) {
	start, end, ok := h.Span()
	if !ok {
		return 0, fmt.Errorf("%w: no populated bins", ErrDegenerateHistogram)
	}
	if start == end {
		return 0, fmt.Errorf("%w: single populated bin %d", ErrDegenerateHistogram, start)
	}

	mid := (start + end) / 2
	left := h.sum(start, mid)
	right := h.sum(mid+1, end)

	for start != end {
		if right > left {
			right -= h[end]
			end--
			if (start+end)/2 < mid {
				left -= h[mid]
				right += h[mid]
				mid--
			}
		} else {
			left -= h[start]
			start++
			if (start+end)/2 > mid {
				left += h[mid+1]
				right -= h[mid+1]
				mid++
			}
		}
	}

	return uint8(start), nil
}
