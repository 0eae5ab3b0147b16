package export

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/plant"
)

// Artifacts lists the files written for one plant.
type Artifacts struct {
	Mask    string `json:"mask"`
	Debug   string `json:"debug"`
	Overlay string `json:"overlay,omitempty"`
}

// ArtifactName returns the file name for one of a plant's outputs. Names use
// underscores so exported files are never mistaken for channel files.
func ArtifactName(plantName, kind, ext string) string {
	safe := strings.NewReplacer(" ", "_", string(filepath.Separator), "_").Replace(plantName)
	return fmt.Sprintf("%s_%s%s", safe, kind, ext)
}

// WriteImages saves the mask and debug image of seg into dir, plus a colour
// overlay on base when base is not nil.
func WriteImages(dir string, seg *plant.Segmentation, base image.Image) (Artifacts, error) {
	a := Artifacts{
		Mask:  filepath.Join(dir, ArtifactName(seg.Plant, "mask", ".png")),
		Debug: filepath.Join(dir, ArtifactName(seg.Plant, "debug", ".png")),
	}
	if err := imaging.SaveImage(a.Mask, seg.Mask()); err != nil {
		return Artifacts{}, err
	}
	if err := imaging.SaveImage(a.Debug, seg.Debug()); err != nil {
		return Artifacts{}, err
	}
	if base != nil {
		a.Overlay = filepath.Join(dir, ArtifactName(seg.Plant, "overlay", ".png"))
		if err := imaging.SaveImage(a.Overlay, detection.RenderOverlay(base, seg.Regions)); err != nil {
			return Artifacts{}, err
		}
	}
	return a, nil
}
