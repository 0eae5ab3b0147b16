package imaging

import (
	"image"
	"math"
)

// RawGrid holds unscaled numeric counts at native precision.
//
// Pixels are stored row-major: the value at (x, y) is Pix[y*Width+x].
// A RawGrid always has the same shape as the intensity grid it is paired with.
type RawGrid struct {
	Width  int
	Height int
	Pix    []uint64
}

// NewRawGrid allocates a zeroed grid of the given shape.
func NewRawGrid(width, height int) *RawGrid {
	return &RawGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint64, width*height),
	}
}

// At returns the raw count at (x, y).
func (g *RawGrid) At(x, y int) uint64 {
	return g.Pix[y*g.Width+x]
}

// Set stores the raw count at (x, y).
func (g *RawGrid) Set(x, y int, v uint64) {
	g.Pix[y*g.Width+x] = v
}

// Bounds returns the grid rectangle anchored at the origin.
func (g *RawGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Max returns the largest count in the grid, or 0 for an empty grid.
func (g *RawGrid) Max() uint64 {
	var max uint64
	for _, v := range g.Pix {
		if v > max {
			max = v
		}
	}
	return max
}

// Rescale maps the grid linearly onto 0-255 so that its maximum becomes 255.
//
// The minimum is assumed to be 0 and results are truncated, so the mapping is
// monotonic but not strictly so: distinct counts may share an 8-bit value.
// An all-zero grid rescales to an all-zero image.
func (g *RawGrid) Rescale() *image.Gray {
	dst := image.NewGray(g.Bounds())
	max := g.Max()
	if max == 0 {
		return dst
	}
	for i, v := range g.Pix {
		dst.Pix[i] = scaleTo8Bit(v, max)
	}
	return dst
}

// scaleTo8Bit computes floor(v*255/max) without floating point rounding,
// falling back to float math only when v*255 would overflow.
func scaleTo8Bit(v, max uint64) uint8 {
	if v >= max {
		return 255
	}
	if v <= math.MaxUint64/255 {
		return uint8(v * 255 / max)
	}
	return uint8(float64(v) / float64(max) * 255)
}

// NewIntensityGrid allocates a zeroed 8-bit grid of the given shape.
func NewIntensityGrid(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// GridSize returns the (width, height) of an intensity grid as a point.
func GridSize(g *image.Gray) image.Point {
	return g.Bounds().Size()
}
