package detection

import "image"

// border is one traced boundary of a binary image.
type border struct {
	// points are the simplified boundary vertices in image coordinates.
	points []image.Point
	// hole is true for the boundary between a component and an enclosed
	// background area.
	hole bool
	// parent indexes the enclosing border in the traced slice, or -1 when the
	// border is enclosed only by the image frame.
	parent int
}

// tracer extracts all borders from a binary grid (non-zero = foreground)
// stored row-major with the given width and height.
type tracer func(bin []uint8, width, height int) ([]border, error)

// traceBorders is the active border tracer. Builds with the gocv tag replace
// it with the OpenCV implementation.
var traceBorders tracer = followBorders

// Neighbour offsets in clockwise order (image y grows downward), starting east.
var neighbours = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

// direction returns the index in neighbours of the step from a to b.
func direction(a, b image.Point) int {
	d := b.Sub(a)
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return -1
}

// borderInfo records the type and hierarchy of a sequential border number.
type borderInfo struct {
	hole   bool
	index  int // position in the output slice; -1 for the frame
	parent int
}

// followBorders implements topological border following (Suzuki and Abe,
// 1985) with 8-connected foreground. Borders are found in raster order, so
// the output is deterministic for a given input.
//
// Each border is compressed to the vertices where the chain direction
// changes; horizontal, vertical and diagonal runs keep only their end points.
func followBorders(bin []uint8, width, height int) ([]border, error) {
	// Pad with a one-pixel frame of background so neighbours never go out of range.
	pw := width + 2
	f := make([]int32, pw*(height+2))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if bin[y*width+x] != 0 {
				f[(y+1)*pw+x+1] = 1
			}
		}
	}

	at := func(p image.Point) *int32 { return &f[p.Y*pw+p.X] }

	// Border number 1 is the frame, which behaves as a hole border.
	infos := []borderInfo{{}, {hole: true, index: -1, parent: -1}}
	var borders []border
	nbd := int32(1)

	for y := 1; y <= height; y++ {
		lnbd := int32(1)
		for x := 1; x <= width; x++ {
			cur := image.Pt(x, y)
			v := *at(cur)
			if v == 0 {
				continue
			}

			var from image.Point
			isBorder := true
			hole := false
			switch {
			case v == 1 && f[y*pw+x-1] == 0:
				from = image.Pt(x-1, y)
			case v >= 1 && f[y*pw+x+1] == 0:
				from = image.Pt(x+1, y)
				hole = true
				if v > 1 {
					lnbd = v
				}
			default:
				isBorder = false
			}

			if isBorder {
				nbd++
				prev := infos[lnbd]
				parent := prev.index
				if hole == prev.hole {
					parent = prev.parent
				}

				chain := traceOne(f, pw, cur, from, nbd)
				infos = append(infos, borderInfo{hole: hole, index: len(borders), parent: parent})
				borders = append(borders, border{
					points: simplify(chain),
					hole:   hole,
					parent: parent,
				})
			}

			if w := *at(cur); w != 1 {
				if w < 0 {
					w = -w
				}
				lnbd = w
			}
		}
	}

	return borders, nil
}

// traceOne follows a single border starting at start, entering from the
// background or neighbour pixel from, and labels it with nbd. It returns the
// chain of border pixels in image (unpadded) coordinates.
func traceOne(f []int32, pw int, start, from image.Point, nbd int32) []image.Point {
	at := func(p image.Point) int32 { return f[p.Y*pw+p.X] }
	set := func(p image.Point, v int32) { f[p.Y*pw+p.X] = v }
	unpad := func(p image.Point) image.Point { return image.Pt(p.X-1, p.Y-1) }

	// Search clockwise around start for the first foreground neighbour.
	d0 := direction(start, from)
	first := image.Point{}
	found := false
	for k := 0; k < 8; k++ {
		q := start.Add(neighbours[(d0+k)%8])
		if at(q) != 0 {
			first = q
			found = true
			break
		}
	}
	if !found {
		// Isolated pixel.
		set(start, -nbd)
		return []image.Point{unpad(start)}
	}

	var chain []image.Point
	prev, cur := first, start
	for {
		// Search counter-clockwise around cur, starting just past prev.
		d := direction(cur, prev)
		eastZero := false
		var next image.Point
		for k := 1; k <= 8; k++ {
			dir := (d - k + 16) % 8
			q := cur.Add(neighbours[dir])
			if at(q) != 0 {
				next = q
				break
			}
			if dir == 0 {
				eastZero = true
			}
		}

		if eastZero {
			set(cur, -nbd)
		} else if at(cur) == 1 {
			set(cur, nbd)
		}
		chain = append(chain, unpad(cur))

		if next == start && cur == first {
			return chain
		}
		prev, cur = cur, next
	}
}

// simplify drops chain points whose incoming and outgoing steps have the
// same direction. The chain is treated as closed.
func simplify(chain []image.Point) []image.Point {
	n := len(chain)
	if n < 3 {
		return chain
	}
	out := make([]image.Point, 0, n/2+1)
	for i, p := range chain {
		in := p.Sub(chain[(i-1+n)%n])
		next := chain[(i+1)%n].Sub(p)
		if in != next {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		// A closed chain always turns somewhere; keep the input if it did not.
		return chain
	}
	return out
}
