package plant

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/quant"
	"github.com/ironsheep/plantquant/internal/threshold"
)

// Options configure a Session's pipeline.
type Options struct {
	// Selection chooses the thresholding method.
	Selection threshold.Selection

	// Reference is the element tag of the channel the mask is derived
	// from. Empty means the group's first channel.
	Reference string

	// Segment tunes region extraction.
	Segment detection.Options

	// RowTolerance is the reading-order row band height.
	RowTolerance int

	// Aggregate tunes the aggregation worker pool.
	Aggregate quant.Options

	// Verbose logs pipeline milestones.
	Verbose bool
}

// Segmentation is the outcome of thresholding and segmenting a plant's
// reference channel.
type Segmentation struct {
	Plant     string
	Reference File
	Threshold threshold.Result
	Size      image.Point
	// Regions are in reading order.
	Regions []detection.Region
}

// Mask returns the combined binary mask of all regions.
func (s *Segmentation) Mask() *image.Gray {
	return detection.RenderMask(s.Size, s.Regions)
}

// Debug returns the mask with each region's index stamped on it.
func (s *Segmentation) Debug() *image.Gray {
	return detection.RenderDebug(s.Size, s.Regions)
}

// MaskArea returns the number of foreground pixels in the mask.
func (s *Segmentation) MaskArea() int {
	return detection.MaskArea(s.Mask())
}

// RegionInfo describes one ordered region.
type RegionInfo struct {
	Index       int             `json:"index"`
	Bounds      image.Rectangle `json:"-"`
	X           int             `json:"x"`
	Y           int             `json:"y"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	PolygonArea float64         `json:"polygon_area"`
	PixelArea   int             `json:"pixel_area"`
}

// RegionInfo returns geometry and pixel areas of every region, in order.
func (s *Segmentation) RegionInfo() []RegionInfo {
	out := make([]RegionInfo, len(s.Regions))
	for i, r := range s.Regions {
		out[i] = RegionInfo{
			Index:       i,
			Bounds:      r.Bounds,
			X:           r.Bounds.Min.X,
			Y:           r.Bounds.Min.Y,
			Width:       r.Bounds.Dx(),
			Height:      r.Bounds.Dy(),
			PolygonArea: r.Area,
			PixelArea:   len(detection.RegionPixels(s.Size, r)),
		}
	}
	return out
}

// Result is a quantified plant.
type Result struct {
	*Segmentation
	Table   *quant.Table
	Summary []quant.ElementSummary
}

// Session carries the state of working on one plant: its files, the chosen
// options and the last segmentation. A Session is not safe for concurrent
// use.
type Session struct {
	Group Group

	opts   Options
	loader quant.Loader
	last   *Segmentation

	// defaultLogged is set once the fallback reference has been reported.
	defaultLogged bool
}

// NewSession returns a session for g loading sources through loader.
func NewSession(g Group, loader quant.Loader, opts Options) *Session {
	return &Session{Group: g, opts: opts, loader: loader}
}

// Options returns the session's current options.
func (s *Session) Options() Options {
	return s.opts
}

// SetOptions replaces the options and discards the last segmentation.
func (s *Session) SetOptions(opts Options) {
	s.opts = opts
	s.last = nil
}

// Last returns the most recent segmentation, or nil.
func (s *Session) Last() *Segmentation {
	return s.last
}

// Reference returns the channel the mask is derived from. Without a
// configured reference the first channel in element order is used, and the
// choice is logged once per session.
func (s *Session) Reference() (File, error) {
	if s.opts.Reference == "" {
		if len(s.Group.Files) == 0 {
			return File{}, fmt.Errorf("%w: plant %q has no channels", ErrUnknownElement, s.Group.Plant)
		}
		f := s.Group.Files[0]
		if !s.defaultLogged {
			log.Printf("%s: no reference element configured, using %s", s.Group.Plant, f.Element)
			s.defaultLogged = true
		}
		return f, nil
	}
	return s.Group.File(s.opts.Reference)
}

// Load returns the source for path, logging a header whose declared size
// disagrees with the grid.
func (s *Session) Load(path string) (*imaging.Source, error) {
	src, err := s.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if h := src.Header; h != nil {
		if size := src.Size(); h.Width != size.X || h.Height != size.Y {
			log.Printf("%s: header declares %dx%d, grid is %dx%d", path, h.Width, h.Height, size.X, size.Y)
		}
	}
	return src, nil
}

// Threshold loads the reference channel and computes its threshold.
func (s *Session) Threshold() (File, *imaging.Source, threshold.Result, error) {
	ref, err := s.Reference()
	if err != nil {
		return File{}, nil, threshold.Result{}, err
	}
	src, err := s.Load(ref.Path)
	if err != nil {
		return File{}, nil, threshold.Result{}, fmt.Errorf("failed to load reference %s: %w", ref.Element, err)
	}
	res, err := threshold.Compute(src.Intensity, s.opts.Selection)
	if err != nil {
		return File{}, nil, threshold.Result{}, fmt.Errorf("failed to threshold %s: %w", ref.Element, err)
	}
	if s.opts.Verbose {
		log.Printf("%s: %s threshold on %s = %d", s.Group.Plant, res.Method, ref.Element, res.Value)
	}
	return ref, src, res, nil
}

// Segment thresholds the reference channel and extracts ordered regions.
// The result becomes the session's last segmentation.
func (s *Session) Segment() (*Segmentation, error) {
	ref, src, res, err := s.Threshold()
	if err != nil {
		return nil, err
	}

	regions, err := detection.Segment(src.Intensity, res.Value, s.opts.Segment)
	if err != nil {
		return nil, fmt.Errorf("failed to segment %s: %w", ref.Element, err)
	}
	size := src.Size()
	seg := &Segmentation{
		Plant:     s.Group.Plant,
		Reference: ref,
		Threshold: res,
		Size:      size,
		Regions:   detection.Order(regions, size.X, s.opts.RowTolerance),
	}
	if s.opts.Verbose {
		log.Printf("%s: %d regions", s.Group.Plant, len(seg.Regions))
	}
	s.last = seg
	return seg, nil
}

// Quantify sums every channel of the plant inside the regions of the last
// segmentation, segmenting first if there is none.
func (s *Session) Quantify(ctx context.Context) (*Result, error) {
	seg := s.last
	if seg == nil {
		var err error
		if seg, err = s.Segment(); err != nil {
			return nil, err
		}
	}

	table, err := quant.Aggregate(ctx, seg.Size, seg.Regions, s.Group.Channels(), quant.LoaderFunc(s.Load), s.opts.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("failed to quantify %s: %w", s.Group.Plant, err)
	}
	if s.opts.Verbose {
		log.Printf("%s: table %d regions x %d elements", s.Group.Plant, table.Regions(), len(table.Elements))
	}
	return &Result{Segmentation: seg, Table: table, Summary: quant.Summarize(table)}, nil
}
