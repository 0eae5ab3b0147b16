package export

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/plantquant/internal/threshold"
)

// Plot size for histogram images.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// HistogramPlot charts a 256-bin histogram with the threshold marked by a
// vertical line.
func HistogramPlot(h threshold.Histogram, cut uint8, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Pixels"
	p.X.Min, p.X.Max = 0, threshold.Bins-1

	values := make(plotter.Values, threshold.Bins)
	peak := 0.0
	for i, c := range h {
		values[i] = float64(c)
		if values[i] > peak {
			peak = values[i]
		}
	}

	bars, err := plotter.NewBarChart(values, vg.Points(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build bars: %w", err)
	}
	bars.LineStyle.Width = 0
	bars.Color = color.Gray{Y: 90}
	p.Add(bars)

	line, err := plotter.NewLine(plotter.XYs{
		{X: float64(cut), Y: 0},
		{X: float64(cut), Y: peak},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build threshold line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 220, A: 255}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("threshold %d", cut), line)

	return p, nil
}

// HistogramPNG renders the histogram plot as PNG bytes.
func HistogramPNG(h threshold.Histogram, cut uint8, title string) ([]byte, error) {
	p, err := HistogramPlot(h, cut, title)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode plot: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveHistogramPlot writes the histogram plot to path; the extension picks
// the format (.png, .svg, .pdf).
func SaveHistogramPlot(path string, h threshold.Histogram, cut uint8, title string) error {
	p, err := HistogramPlot(h, cut, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return p.Save(plotWidth, plotHeight, path)
}
