package export

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/plantquant/internal/plant"
)

// Options select which outputs WriteResult produces.
type Options struct {
	CSV           bool
	SQLite        string
	Images        bool
	HistogramPlot bool
}

// Outputs lists the files WriteResult wrote. Empty fields were not requested.
type Outputs struct {
	CSV       string     `json:"csv,omitempty"`
	SQLite    string     `json:"sqlite,omitempty"`
	Images    *Artifacts `json:"images,omitempty"`
	Histogram string     `json:"histogram,omitempty"`
}

// WriteResult exports res into dir according to opts. base is the reference
// channel used for the overlay image and may be nil.
func WriteResult(ctx context.Context, dir string, res *plant.Result, base image.Image, opts Options) (Outputs, error) {
	var out Outputs

	if opts.CSV {
		path := filepath.Join(dir, ArtifactName(res.Plant, "quant", ".csv"))
		if err := SaveCSV(path, res.Table); err != nil {
			return out, err
		}
		out.CSV = path
	}

	if opts.SQLite != "" {
		if err := os.MkdirAll(filepath.Dir(opts.SQLite), 0o755); err != nil {
			return out, fmt.Errorf("failed to create directory: %w", err)
		}
		store, err := OpenStore(opts.SQLite)
		if err != nil {
			return out, fmt.Errorf("failed to open %s: %w", opts.SQLite, err)
		}
		err = store.SaveResult(ctx, res)
		store.Close()
		if err != nil {
			return out, err
		}
		out.SQLite = opts.SQLite
	}

	if opts.Images {
		a, err := WriteImages(dir, res.Segmentation, base)
		if err != nil {
			return out, err
		}
		out.Images = &a
	}

	if opts.HistogramPlot {
		path := filepath.Join(dir, ArtifactName(res.Plant, "histogram", ".png"))
		title := fmt.Sprintf("%s %s", res.Plant, res.Reference.Element)
		if err := SaveHistogramPlot(path, res.Threshold.Histogram, res.Threshold.Value, title); err != nil {
			return out, err
		}
		out.Histogram = path
	}

	return out, nil
}
