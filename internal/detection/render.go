package detection

import (
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"

	"github.com/ironsheep/plantquant/internal/imaging"
)

// MaskOn is the value of a foreground pixel in rendered masks.
const MaskOn = 255

// RegionMask returns a 0/255 grid of the given size with everything inside
// r's outer boundary set, holes included.
func RegionMask(size image.Point, r Region) *image.Gray {
	m := image.NewGray(image.Rectangle{Max: size})
	FillRegion(m, r, MaskOn)
	return m
}

// RegionPixels returns the row-major offsets of every pixel covered by r in
// a grid of the given size.
func RegionPixels(size image.Point, r Region) []int {
	m := RegionMask(size, r)
	var px []int
	for y := r.Bounds.Min.Y; y < r.Bounds.Max.Y && y < size.Y; y++ {
		if y < 0 {
			continue
		}
		for x := r.Bounds.Min.X; x < r.Bounds.Max.X && x < size.X; x++ {
			if x >= 0 && m.Pix[y*m.Stride+x] != 0 {
				px = append(px, y*size.X+x)
			}
		}
	}
	return px
}

// FillRegion sets every pixel enclosed by r's outer boundary in dst to v.
// Enclosed background counts as part of the region.
func FillRegion(dst *image.Gray, r Region, v uint8) {
	fillPolygon(dst, r.Boundary, v)
}

// RenderMask returns the union of all region masks.
func RenderMask(size image.Point, regions []Region) *image.Gray {
	out := image.NewGray(image.Rectangle{Max: size})
	for _, r := range regions {
		FillRegion(out, r, MaskOn)
	}
	return out
}

// RenderDebug returns the combined mask with each region's position in
// regions stamped at its bounding-box origin.
func RenderDebug(size image.Point, regions []Region) *image.Gray {
	out := RenderMask(size, regions)
	for i, r := range regions {
		imaging.StampLabel(out, strconv.Itoa(i), r.Origin(), color.Gray{Y: imaging.LabelGray})
	}
	return out
}

// MaskArea returns the number of non-zero pixels in mask.
func MaskArea(mask *image.Gray) int {
	n := 0
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				n++
			}
		}
	}
	return n
}

// fillPolygon fills the even-odd interior of pts, sampled at pixel centres,
// and then draws its edges.
func fillPolygon(dst *image.Gray, pts []image.Point, v uint8) {
	n := len(pts)
	if n >= 3 {
		minY, maxY := pts[0].Y, pts[0].Y
		for _, p := range pts[1:] {
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}

		xs := make([]float64, 0, 8)
		for y := minY; y <= maxY; y++ {
			xs = xs[:0]
			for i, a := range pts {
				b := pts[(i+1)%n]
				if (a.Y <= y && b.Y > y) || (b.Y <= y && a.Y > y) {
					t := float64(y-a.Y) / float64(b.Y-a.Y)
					xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
				}
			}
			sort.Float64s(xs)
			for k := 0; k+1 < len(xs); k += 2 {
				x0 := int(math.Ceil(xs[k]))
				x1 := int(math.Floor(xs[k+1]))
				for x := x0; x <= x1; x++ {
					setClipped(dst, x, y, v)
				}
			}
		}
	}
	drawRing(dst, pts, v)
}

// drawRing draws the closed polyline through pts.
func drawRing(dst *image.Gray, pts []image.Point, v uint8) {
	n := len(pts)
	if n == 1 {
		setClipped(dst, pts[0].X, pts[0].Y, v)
		return
	}
	for i, a := range pts {
		drawLine(dst, a, pts[(i+1)%n], v)
	}
}

// drawLine draws a Bresenham line including both end points.
func drawLine(dst *image.Gray, a, b image.Point, v uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		setClipped(dst, x, y, v)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func setClipped(dst *image.Gray, x, y int, v uint8) {
	if !(image.Point{X: x, Y: y}.In(dst.Rect)) {
		return
	}
	dst.Pix[dst.PixOffset(x, y)] = v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
