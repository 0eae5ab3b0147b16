// Package plant groups element channel files by plant and runs the
// quantification pipeline for one plant at a time.
//
// Channel files are named "<plant> - <element>.<ext>", or with a leading
// batch prefix "<prefix> - <plant> - <element>.<ext>". GroupFiles, Scan and
// Collect build a Catalog of plant groups and report files they rejected.
//
// A Session holds the explicit context of working on one plant: its group,
// the threshold selection and reference channel, and the last segmentation.
// Segment runs Load, Threshold, Segment and Order on the reference channel;
// Quantify aggregates every channel of the plant over the resulting regions.
package plant
