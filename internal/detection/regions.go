package detection

import (
	"fmt"
	"image"
	"math"
)

// DefaultMinAreaFraction is the share of the grid area a region must exceed
// to be kept.
const DefaultMinAreaFraction = 0.01

// Region is one contiguous plant region.
type Region struct {
	// Boundary is the compressed outer border, as pixel coordinates.
	Boundary []image.Point `json:"boundary"`

	// Holes are the compressed borders of background areas enclosed by
	// the region. They are reported for inspection only; the interior is
	// everything inside Boundary.
	Holes [][]image.Point `json:"holes,omitempty"`

	// Bounds is the bounding box of Boundary (Max exclusive).
	Bounds image.Rectangle `json:"bounds"`

	// Area is the polygon area enclosed by Boundary, in square pixels.
	Area float64 `json:"area"`
}

// Origin returns the top-left corner of the region's bounding box.
func (r Region) Origin() image.Point {
	return r.Bounds.Min
}

// Options tune segmentation.
type Options struct {
	// MinAreaFraction is the fraction of the grid area a region's
	// polygon area must exceed. Zero means DefaultMinAreaFraction.
	MinAreaFraction float64
}

// MinArea returns the area floor for a grid of the given size. Regions must
// be strictly larger than this value.
func (o Options) MinArea(size image.Point) int {
	frac := o.MinAreaFraction
	if frac <= 0 {
		frac = DefaultMinAreaFraction
	}
	return int(float64(size.X*size.Y) * frac)
}

// Binarize returns a 0/255 grid where every pixel at or above threshold is
// foreground.
func Binarize(g *image.Gray, threshold uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x] >= threshold {
				dst[x] = 255
			}
		}
	}
	return out
}

// Segment extracts the plant regions of g at the given threshold.
//
// Regions come back in trace order (top-to-bottom raster scan of their
// first border pixel); use Order for the reading order.
func Segment(g *image.Gray, threshold uint8, opts Options) ([]Region, error) {
	bin := Binarize(g, threshold)
	size := bin.Bounds().Size()
	return segmentBinary(bin.Pix, size, opts)
}

func segmentBinary(bin []uint8, size image.Point, opts Options) ([]Region, error) {
	if size.X == 0 || size.Y == 0 {
		return nil, nil
	}

	borders, err := traceBorders(bin, size.X, size.Y)
	if err != nil {
		return nil, fmt.Errorf("border tracing failed: %w", err)
	}

	floor := opts.MinArea(size)
	kept := make(map[int]int) // border index -> region index
	var regions []Region
	for i, b := range borders {
		if b.hole {
			continue
		}
		area := PolygonArea(b.points)
		if area <= float64(floor) {
			continue
		}
		kept[i] = len(regions)
		regions = append(regions, Region{
			Boundary: b.points,
			Bounds:   pointBounds(b.points),
			Area:     area,
		})
	}

	for _, b := range borders {
		if !b.hole || b.parent < 0 {
			continue
		}
		if ri, ok := kept[b.parent]; ok {
			regions[ri].Holes = append(regions[ri].Holes, b.points)
		}
	}
	return regions, nil
}

// PolygonArea returns the absolute shoelace area of a closed polygon.
func PolygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return math.Abs(float64(sum)) / 2
}

// pointBounds returns the smallest rectangle containing every point.
func pointBounds(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}
