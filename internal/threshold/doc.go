// Package threshold computes the scalar cut point that separates plant tissue
// from background in an 8-bit intensity grid.
//
// Three methods are available, selected with a Selection value:
//
//   - MethodBalanced: balanced histogram thresholding over the populated
//     range of a 256-bin histogram. It balances the two sides by total mass,
//     not by bin count, so it copes with skewed intensity distributions.
//   - MethodFirstValley: the first local minimum after the first local
//     maximum of a coarse 25-bin histogram. Intended for low-contrast images
//     where the balanced method over-segments.
//   - MethodManual: a caller-supplied cut.
//
// All methods are pure functions of the histogram. A pixel belongs to the
// foreground when its value is greater than or equal to the threshold.
//
// Histograms with no populated bins, or with every pixel in one bin, have no
// meaningful cut and yield ErrDegenerateHistogram.
package threshold
