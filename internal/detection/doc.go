// Package detection finds plant regions in a thresholded intensity grid and
// turns them back into masks.
//
// # Segmentation
//
// Segment binarizes a grid (a pixel is foreground when its intensity is at
// or above the threshold), traces every border with topological border
// following and keeps the outer borders whose enclosed polygon area exceeds
// a fraction of the total grid area. Holes traced inside a kept region are
// attached to it for inspection but stay part of its interior: a region
// covers everything its outer border encloses. Hole borders are never
// regions of their own.
//
// Boundaries are stored as compressed vertex lists: runs of pixels in one of
// the eight chain directions keep only their end points. The polygon through
// the vertex pixel centres is what Region.Area measures, so a solid w x h
// block reports (w-1)*(h-1).
//
// # Ordering
//
// Order sorts regions into a stable reading order: row bands of a fixed
// height, then left to right within a band. Ties are broken by top edge,
// then boundary geometry, so the result does not depend on input order.
//
// # Rendering
//
// RenderMask fills regions back into a binary grid (0 / 255), including the
// boundary pixels themselves. RenderDebug additionally stamps each region's
// order index at its bounding-box origin. RenderOverlay draws a coloured
// preview on top of an intensity grid.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Backends
//
// The default tracer is pure Go. Building with the gocv tag switches to
// OpenCV's findContours through gocv with the full border hierarchy, so both
// backends report the same regions and holes.
package detection
