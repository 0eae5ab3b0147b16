package quant

import (
	"fmt"
	"strconv"
)

// Table holds the total of every element channel inside every region.
// Rows are region indices in reading order; columns are element tags.
type Table struct {
	// Elements are the column tags, in channel order.
	Elements []string

	cells [][]uint64
	index map[string]int
}

// Entry is one cell of a Table.
type Entry struct {
	Region  int    `json:"region"`
	Element string `json:"element"`
	Total   uint64 `json:"total"`
}

// NewTable returns a zeroed table with the given columns and row count.
func NewTable(elements []string, regions int) (*Table, error) {
	t := &Table{
		Elements: append([]string(nil), elements...),
		cells:    make([][]uint64, regions),
		index:    make(map[string]int, len(elements)),
	}
	for i, el := range elements {
		if _, dup := t.index[el]; dup {
			return nil, fmt.Errorf("duplicate element %q", el)
		}
		t.index[el] = i
	}
	for r := range t.cells {
		t.cells[r] = make([]uint64, len(elements))
	}
	return t, nil
}

// Regions returns the number of rows.
func (t *Table) Regions() int {
	return len(t.cells)
}

// At returns the total of element in region. ok is false when either is not
// in the table.
func (t *Table) At(region int, element string) (total uint64, ok bool) {
	col, found := t.index[element]
	if !found || region < 0 || region >= len(t.cells) {
		return 0, false
	}
	return t.cells[region][col], true
}

// Row returns the totals of one region, in column order.
func (t *Table) Row(region int) []uint64 {
	return t.cells[region]
}

// Column returns one element's totals, in region order.
func (t *Table) Column(element string) ([]uint64, bool) {
	col, ok := t.index[element]
	if !ok {
		return nil, false
	}
	out := make([]uint64, len(t.cells))
	for r, row := range t.cells {
		out[r] = row[col]
	}
	return out, true
}

// RowLabels returns the row headers "0" through "N-1".
func (t *Table) RowLabels() []string {
	labels := make([]string, len(t.cells))
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

// Entries lists every cell, region-major.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.cells)*len(t.Elements))
	for r, row := range t.cells {
		for c, v := range row {
			out = append(out, Entry{Region: r, Element: t.Elements[c], Total: v})
		}
	}
	return out
}

func (t *Table) set(region, col int, v uint64) {
	t.cells[region][col] = v
}
