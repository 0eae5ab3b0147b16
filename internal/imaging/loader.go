package imaging

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned when a file suffix matches no known source format.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// Kind distinguishes raster sources from numeric grid sources.
type Kind int

const (
	// KindRaster is a decoded raster image; it carries no raw grid.
	KindRaster Kind = iota
	// KindNumericGrid is a comma-delimited text grid of unsigned counts.
	KindNumericGrid
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindNumericGrid:
		return "numeric-grid"
	default:
		return "unknown"
	}
}

// Format is the resolved encoding of a source file.
//
// HasHeader is only meaningful for KindNumericGrid.
type Format struct {
	Kind      Kind `json:"kind"`
	HasHeader bool `json:"has_header"`
}

// String returns a short description such as "numeric-grid+header".
func (f Format) String() string {
	if f.Kind == KindNumericGrid && f.HasHeader {
		return f.Kind.String() + "+header"
	}
	return f.Kind.String()
}

// rasterSuffixes are the raster extensions accepted as element channels.
var rasterSuffixes = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DetectFormat resolves a path's suffix into a Format.
//
// Suffix matching is case-insensitive. ".txt" is a numeric grid with a
// metadata header line and ".csv" is a numeric grid without one.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case rasterSuffixes[ext]:
		return Format{Kind: KindRaster}, nil
	case ext == ".txt":
		return Format{Kind: KindNumericGrid, HasHeader: true}, nil
	case ext == ".csv":
		return Format{Kind: KindNumericGrid}, nil
	default:
		return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupported reports whether path has a suffix the loader understands.
func IsSupported(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

// Source is one element channel loaded into memory.
type Source struct {
	// Path is the file the source was loaded from.
	Path string

	// Format is the encoding resolved at load time.
	Format Format

	// Intensity is the 8-bit display-normalized grid, anchored at the origin.
	Intensity *image.Gray

	// Raw holds the unscaled counts for numeric sources; nil for rasters.
	Raw *RawGrid

	// Header is the parsed metadata line of a headered numeric grid, if it
	// could be parsed. It is informational only.
	Header *GridHeader
}

// Size returns the grid shape as (width, height).
func (s *Source) Size() image.Point {
	return s.Intensity.Bounds().Size()
}

// HasRaw reports whether the source carries unscaled counts.
func (s *Source) HasRaw() bool {
	return s.Raw != nil
}

// Value returns the quantification value at (x, y): the raw count when
// present, otherwise the 8-bit intensity.
func (s *Source) Value(x, y int) uint64 {
	if s.Raw != nil {
		return s.Raw.At(x, y)
	}
	return uint64(s.Intensity.Pix[y*s.Intensity.Stride+x])
}

// LoadSource reads a single element channel from disk.
//
// Raster images are decoded and converted to 8-bit grayscale using luminance
// weights (0.299, 0.587, 0.114); 16-bit rasters keep their high byte.
// Numeric grids are parsed into a RawGrid and rescaled into the intensity grid.
func LoadSource(path string) (*Source, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format.Kind {
	case KindRaster:
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return &Source{
			Path:      path,
			Format:    format,
			Intensity: toGray(img),
		}, nil

	default:
		raw, header, err := ReadNumericGrid(path, format.HasHeader)
		if err != nil {
			return nil, err
		}
		return &Source{
			Path:      path,
			Format:    format,
			Intensity: raw.Rescale(),
			Raw:       raw,
			Header:    header,
		}, nil
	}
}

// toGray converts any decoded image into an origin-anchored 8-bit grid.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], g.Pix[off:off+b.Dx()])
		}
		return dst
	}

	// imaging.Grayscale always returns an origin-anchored NRGBA with R == G == B.
	gray := imaging.Grayscale(img)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = gray.Pix[y*gray.Stride+x*4]
		}
	}
	return dst
}

// SourceCache provides thread-safe caching of loaded sources keyed by path.
//
// Aggregation visits every channel of a plant once per region; the cache
// keeps each file decoded only once per pipeline invocation.
type SourceCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewSourceCache creates an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{
		sources: make(map[string]*Source),
	}
}

// Load retrieves a source from the cache or loads it from disk if not cached.
//
// The source is cached using the exact path string provided. Failed loads are
// not cached.
func (c *SourceCache) Load(path string) (*Source, error) {
	c.mu.RLock()
	if src, ok := c.sources[path]; ok {
		c.mu.RUnlock()
		return src, nil
	}
	c.mu.RUnlock()

	src, err := LoadSource(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.sources[path]; ok {
		src = cached
	} else {
		c.sources[path] = src
	}
	c.mu.Unlock()

	return src, nil
}

// Len returns the number of cached sources.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

// Clear removes all sources from the cache.
func (c *SourceCache) Clear() {
	c.mu.Lock()
	c.sources = make(map[string]*Source)
	c.mu.Unlock()
}
