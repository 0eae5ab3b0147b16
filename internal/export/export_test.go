package export

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/plant"
	"github.com/ironsheep/plantquant/internal/quant"
	"github.com/ironsheep/plantquant/internal/threshold"
)

// sampleResult quantifies a 10x10 plant with one 5x5 region at the origin;
// K holds 4 and Ca holds 9 inside the region.
func sampleResult(t *testing.T, name string) *plant.Result {
	t.Helper()

	mask := imaging.NewIntensityGrid(10, 10)
	k := imaging.NewRawGrid(10, 10)
	ca := imaging.NewRawGrid(10, 10)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			mask.Pix[y*mask.Stride+x] = 255
			k.Set(x, y, 4)
			ca.Set(x, y, 9)
		}
	}
	sources := map[string]*imaging.Source{
		"k":  {Path: "k", Intensity: k.Rescale(), Raw: k},
		"ca": {Path: "ca", Intensity: ca.Rescale(), Raw: ca},
	}
	loader := quant.LoaderFunc(func(path string) (*imaging.Source, error) { return sources[path], nil })

	regions, err := detection.Segment(mask, 128, detection.Options{})
	require.NoError(t, err)

	size := image.Pt(10, 10)
	channels := []quant.Channel{{Element: "K", Path: "k"}, {Element: "Ca", Path: "ca"}}
	table, err := quant.Aggregate(context.Background(), size, regions, channels, loader, quant.Options{})
	require.NoError(t, err)

	seg := &plant.Segmentation{
		Plant:     name,
		Reference: plant.File{Plant: name, Element: "K", Path: "k"},
		Threshold: threshold.Result{Method: threshold.MethodManual, Value: 128, Histogram: threshold.NewHistogram(mask)},
		Size:      size,
		Regions:   regions,
	}
	return &plant.Result{Segmentation: seg, Table: table, Summary: quant.Summarize(table)}
}

func TestWriteCSV(t *testing.T) {
	res := sampleResult(t, "PlantA")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Table))
	require.Equal(t, ",K,Ca\n0,100,225\n", buf.String())
}

func TestWriteCSV_NoRegions(t *testing.T) {
	table, err := quant.NewTable([]string{"K", "Ca"}, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	require.Equal(t, ",K,Ca\n", buf.String())
}

func TestSaveCSV(t *testing.T) {
	res := sampleResult(t, "PlantA")
	path := filepath.Join(t.TempDir(), "out", "PlantA.csv")

	require.NoError(t, SaveCSV(path, res.Table))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ",K,Ca\n0,100,225\n", string(data))
}

func TestStore_SaveResult(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "quant.db"))
	require.NoError(t, err)
	defer store.Close()

	res := sampleResult(t, "PlantA")
	require.NoError(t, store.SaveResult(ctx, res))
	// Saving again replaces rather than duplicates.
	require.NoError(t, store.SaveResult(ctx, res))
	require.NoError(t, store.SaveResult(ctx, sampleResult(t, "PlantB")))

	got, err := store.Quantities(ctx, "PlantA")
	require.NoError(t, err)
	require.Equal(t, []quant.Entry{
		{Region: 0, Element: "K", Total: 100},
		{Region: 0, Element: "Ca", Total: 225},
	}, got)

	var x, y, w, h, area int
	err = store.QueryRowContext(ctx,
		`SELECT x, y, width, height, area FROM regions WHERE plant = ? AND region = 0`, "PlantA",
	).Scan(&x, &y, &w, &h, &area)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 5, 5, 25}, []int{x, y, w, h, area})

	plants, err := store.Plants(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"PlantA", "PlantB"}, plants)
}

func TestWriteImages(t *testing.T) {
	res := sampleResult(t, "Plant A")
	dir := t.TempDir()

	base := imaging.NewIntensityGrid(10, 10)
	a, err := WriteImages(dir, res.Segmentation, base)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "Plant_A_mask.png"), a.Mask)

	f, err := os.Open(a.Mask)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	on := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r != 0 {
				on++
			}
		}
	}
	require.Equal(t, 25, on)

	require.FileExists(t, a.Debug)
	require.FileExists(t, a.Overlay)
}

func TestWriteImages_NoOverlay(t *testing.T) {
	a, err := WriteImages(t.TempDir(), sampleResult(t, "PlantA").Segmentation, nil)
	require.NoError(t, err)
	require.Empty(t, a.Overlay)
}

func TestHistogramPNG(t *testing.T) {
	var h threshold.Histogram
	h[10], h[200] = 500, 300

	data, err := HistogramPNG(h, 128, "PlantA K")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Greater(t, img.Bounds().Dx(), 0)
}

func TestSaveHistogramPlot(t *testing.T) {
	var h threshold.Histogram
	h[0], h[255] = 10, 10

	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, SaveHistogramPlot(path, h, 100, "test"))
	require.FileExists(t, path)
}

func TestWriteResult(t *testing.T) {
	res := sampleResult(t, "PlantA")
	dir := t.TempDir()
	opts := Options{
		CSV:           true,
		SQLite:        filepath.Join(dir, "db", "quant.db"),
		Images:        true,
		HistogramPlot: true,
	}

	out, err := WriteResult(context.Background(), dir, res, nil, opts)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "PlantA_quant.csv"), out.CSV)
	require.FileExists(t, out.CSV)
	require.FileExists(t, out.SQLite)
	require.NotNil(t, out.Images)
	require.Empty(t, out.Images.Overlay)
	require.Equal(t, filepath.Join(dir, "PlantA_histogram.png"), out.Histogram)
	require.FileExists(t, out.Histogram)
}

func TestWriteResult_Nothing(t *testing.T) {
	out, err := WriteResult(context.Background(), t.TempDir(), sampleResult(t, "PlantA"), nil, Options{})
	require.NoError(t, err)
	require.Equal(t, Outputs{}, out)
}
