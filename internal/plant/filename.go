package plant

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/quant"
)

// Separator splits the tokens of a channel filename.
const Separator = " - "

var (
	// ErrInvalidFilename is returned for names that are not
	// "<plant> - <element>.<ext>" or "<prefix> - <plant> - <element>.<ext>".
	ErrInvalidFilename = errors.New("invalid plant filename")

	// ErrUnknownPlant is returned when a plant is not in a catalog.
	ErrUnknownPlant = errors.New("unknown plant")

	// ErrUnknownElement is returned when a plant has no channel for an element.
	ErrUnknownElement = errors.New("unknown element")
)

// File is one element channel file with the provenance parsed from its name.
type File struct {
	Path    string `json:"path"`
	Prefix  string `json:"prefix,omitempty"`
	Plant   string `json:"plant"`
	Element string `json:"element"`
}

// Channel returns the file as an aggregation channel.
func (f File) Channel() quant.Channel {
	return quant.Channel{Element: f.Element, Path: f.Path}
}

// ParseFilename extracts plant and element from a channel path.
//
// The base name without extension must split on " - " into two tokens
// (plant, element) or three (prefix, plant, element), none empty, and the
// extension must be a supported source format.
func ParseFilename(path string) (File, error) {
	base := filepath.Base(path)
	if !imaging.IsSupported(base) {
		return File{}, fmt.Errorf("%w: %s: %w", ErrInvalidFilename, base, imaging.ErrUnsupportedFormat)
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, Separator)
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			return File{}, fmt.Errorf("%w: %s: empty name token", ErrInvalidFilename, base)
		}
	}

	f := File{Path: path}
	switch len(tokens) {
	case 2:
		f.Plant, f.Element = tokens[0], tokens[1]
	case 3:
		f.Prefix, f.Plant, f.Element = tokens[0], tokens[1], tokens[2]
	default:
		return File{}, fmt.Errorf("%w: %s: want 2 or 3 %q-separated tokens, got %d",
			ErrInvalidFilename, base, Separator, len(tokens))
	}
	return f, nil
}
