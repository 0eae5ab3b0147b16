package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelGray is the gray level used for order-index labels on debug images.
// It stays readable on both the 0 background and the 255 region fill.
const LabelGray = 125

// labelFace is a fixed 7x13 bitmap face; it needs no font files at runtime.
var labelFace = basicfont.Face7x13

// StampLabel draws text with its top-left corner at origin.
//
// Text that falls outside dst is clipped. The face is a fixed-size bitmap
// face, so the label is the same size regardless of the grid dimensions.
func StampLabel(dst draw.Image, text string, origin image.Point, c color.Color) {
	ascent := labelFace.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.P(origin.X+1, origin.Y+ascent),
	}
	d.DrawString(text)
}

// LabelSize returns the pixel extent of text rendered by StampLabel.
func LabelSize(text string) image.Point {
	m := labelFace.Metrics()
	w := font.MeasureString(labelFace, text).Ceil()
	return image.Pt(w+1, (m.Ascent + m.Descent).Ceil())
}
