// Package export persists quantification results: CSV tables, a SQLite
// database of regions and quantities, mask/debug/overlay images, and
// histogram plots of the reference channel.
package export
