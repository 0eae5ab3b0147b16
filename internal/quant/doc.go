// Package quant sums element channels inside plant regions.
//
// Aggregate takes the ordered regions of one plant and its element channels
// and produces a Table: one row per region, one column per element, each
// cell the channel's total inside that region. Numeric channels are summed
// at their native precision; raster channels use their 8-bit intensity.
//
// All channels of a plant must share the shape of the grid the regions were
// traced on; otherwise aggregation fails with ErrShapeMismatch. An empty
// region list is valid and yields a table with no rows.
//
// Summarize derives per-element totals, mean, standard deviation and
// per-region shares from a Table.
package quant
