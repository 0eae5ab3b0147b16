package quant

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/imaging"
)

// ErrShapeMismatch is returned when a channel's grid does not have the
// shape the regions were traced on.
var ErrShapeMismatch = errors.New("channel shape mismatch")

// Channel is one element's file within a plant group.
type Channel struct {
	Element string `json:"element"`
	Path    string `json:"path"`
}

// Loader loads a channel's source. *imaging.SourceCache satisfies it.
type Loader interface {
	Load(path string) (*imaging.Source, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (*imaging.Source, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (*imaging.Source, error) { return f(path) }

// Options tune aggregation.
type Options struct {
	// Workers bounds concurrent loads and sums. Zero means runtime.NumCPU().
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Aggregate sums every channel inside every region.
//
// Regions are given in reading order and were traced on a grid of the given
// size; every channel must have that size or the whole aggregation fails
// with ErrShapeMismatch. Numeric channels contribute their raw counts,
// raster channels their 8-bit intensity.
//
// Each (region, channel) sum is independent and runs on a bounded worker
// pool. Cancelling ctx stops outstanding work and returns ctx's error.
func Aggregate(ctx context.Context, size image.Point, regions []detection.Region, channels []Channel, loader Loader, opts Options) (*Table, error) {
	elements := make([]string, len(channels))
	for i, ch := range channels {
		elements[i] = ch.Element
	}
	table, err := NewTable(elements, len(regions))
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 || len(channels) == 0 {
		return table, nil
	}

	// Load channels and trace region pixels.
	sources := make([]*imaging.Source, len(channels))
	pixels := make([][]int, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, ch := range channels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := loader.Load(ch.Path)
			if err != nil {
				return fmt.Errorf("failed to load %s channel: %w", ch.Element, err)
			}
			if got := src.Size(); got != size {
				return fmt.Errorf("%w: %s channel is %dx%d, regions were traced on %dx%d",
					ErrShapeMismatch, ch.Element, got.X, got.Y, size.X, size.Y)
			}
			sources[i] = src
			return nil
		})
	}
	for i, r := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pixels[i] = detection.RegionPixels(size, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for ri := range regions {
		for ci := range channels {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				table.set(ri, ci, sumPixels(sources[ci], pixels[ri]))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// sumPixels totals src over the given row-major offsets.
func sumPixels(src *imaging.Source, offsets []int) uint64 {
	var total uint64
	if src.Raw != nil {
		for _, off := range offsets {
			total += src.Raw.Pix[off]
		}
		return total
	}
	g := src.Intensity
	w := g.Rect.Dx()
	for _, off := range offsets {
		total += uint64(g.Pix[(off/w)*g.Stride+off%w])
	}
	return total
}
