package quant

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ElementSummary describes one element's distribution across regions.
type ElementSummary struct {
	Element string  `json:"element"`
	Total   uint64  `json:"total"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	// Shares holds each region's fraction of Total; all zero when Total is 0.
	Shares []float64 `json:"shares"`
}

// Summarize returns per-element statistics for t, in column order.
// StdDev is the sample standard deviation and is 0 for fewer than two regions.
func Summarize(t *Table) []ElementSummary {
	out := make([]ElementSummary, 0, len(t.Elements))
	for _, el := range t.Elements {
		col, _ := t.Column(el)
		xs := make([]float64, len(col))
		var total uint64
		for i, v := range col {
			xs[i] = float64(v)
			total += v
		}

		s := ElementSummary{Element: el, Total: total, Shares: make([]float64, len(col))}
		switch len(xs) {
		case 0:
		case 1:
			s.Mean = xs[0]
		default:
			s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
		}
		if total > 0 {
			copy(s.Shares, xs)
			floats.Scale(1/float64(total), s.Shares)
		}
		out = append(out, s)
	}
	return out
}
