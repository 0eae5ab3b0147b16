package detection

import (
	"image"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// overlayAlpha is the fill opacity of region shading in overlays.
const overlayAlpha = 0.4

// RegionColor returns the overlay colour of region i out of n, spread evenly
// around the hue wheel.
func RegionColor(i, n int) colorful.Color {
	if n < 1 {
		n = 1
	}
	return colorful.Hsv(float64(i%n)*360/float64(n), 0.8, 0.95)
}

// RenderOverlay draws each region over base: translucent fill of everything
// inside the outer border, solid outlines of the border and its holes, and
// the index label.
func RenderOverlay(base image.Image, regions []Region) image.Image {
	dc := gg.NewContextForImage(base)
	dc.SetLineWidth(1)

	for i, r := range regions {
		if len(r.Boundary) == 0 {
			continue
		}
		c := RegionColor(i, len(regions))

		dc.NewSubPath()
		tracePath(dc, r.Boundary)
		dc.SetRGBA(c.R, c.G, c.B, overlayAlpha)
		dc.FillPreserve()
		for _, h := range r.Holes {
			dc.NewSubPath()
			tracePath(dc, h)
		}
		dc.SetRGB(c.R, c.G, c.B)
		dc.Stroke()

		o := r.Origin()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(strconv.Itoa(i), float64(o.X)+1, float64(o.Y)+1, 0, 1)
	}
	return dc.Image()
}

// tracePath adds the closed ring through the pixel centres of pts.
func tracePath(dc *gg.Context, pts []image.Point) {
	dc.MoveTo(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
	}
	dc.ClosePath()
}
