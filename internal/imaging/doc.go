// Package imaging loads per-element source files into in-memory grids.
//
// Every element channel of a plant is normalized into a Source: an 8-bit
// display-normalized intensity grid (an *image.Gray) plus, for numeric
// sources, the raw unscaled counts as a RawGrid. Thresholding, segmentation
// and debug rendering work on the intensity grid; quantification prefers the
// raw grid when it is present.
//
// # Source Formats
//
// The format is resolved once, from the file suffix, into a Format value:
//   - Raster images (.tif, .tiff, .png, .jpg, .jpeg): decoded and converted
//     to single-channel 8-bit grayscale. No raw grid.
//   - Numeric text grids with a header line (.txt): the first line is of the
//     form "<tag>: <width> ... <height>" and is skipped; the remaining lines
//     are comma-delimited unsigned integers.
//   - Numeric text grids without a header (.csv): every line is data.
//
// Numeric grids are rescaled linearly so their maximum maps to 255 (the
// minimum is assumed to be 0). An all-zero grid rescales to all zeros.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Rectangles use an
// inclusive Min and an exclusive Max, as in the image package.
//
// # Thread Safety
//
// SourceCache is safe for concurrent use. Loaded sources are treated as
// immutable; callers must not modify a Source's grids while other goroutines
// may be reading them.
//
// # Error Handling
//
// Loading fails with ErrUnsupportedFormat for unknown suffixes and with
// ErrMalformedGrid for numeric files that are empty, ragged, or contain cells
// that are not unsigned integers. Both are fatal to the single load only.
package imaging
