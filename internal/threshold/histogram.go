package threshold

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
)

// Bins is the number of bins in an 8-bit intensity histogram.
const Bins = 256

// Histogram counts pixels per 8-bit intensity value.
type Histogram [Bins]int

// NewHistogram counts the intensities of g.
func NewHistogram(g *image.Gray) Histogram {
	var h Histogram
	// A gray pixel converts to RGBA with R == G == B == Y.
	rgba := histogram.NewRGBAHistogram(g)
	copy(h[:], rgba.R.Bins)
	return h
}

// Span returns the first and last populated bins. ok is false when the
// histogram is empty.
func (h *Histogram) Span() (first, last int, ok bool) {
	first, last = -1, -1
	for i, n := range h {
		if n > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

// Total returns the number of pixels counted.
func (h *Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Populated returns the number of non-empty bins.
func (h *Histogram) Populated() int {
	n := 0
	for _, c := range h {
		if c > 0 {
			n++
		}
	}
	return n
}

// sum returns the mass of bins lo..hi inclusive.
func (h *Histogram) sum(lo, hi int) int {
	s := 0
	for i := lo; i <= hi; i++ {
		s += h[i]
	}
	return s
}
