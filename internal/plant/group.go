package plant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/plantquant/internal/quant"
)

// Group is every channel file of one plant, sorted by element tag.
type Group struct {
	Plant string `json:"plant"`
	Files []File `json:"files"`
}

// Elements returns the group's element tags in file order.
func (g Group) Elements() []string {
	out := make([]string, len(g.Files))
	for i, f := range g.Files {
		out[i] = f.Element
	}
	return out
}

// File returns the channel for element. An exact match wins; otherwise the
// tag is matched case-insensitively.
func (g Group) File(element string) (File, error) {
	for _, f := range g.Files {
		if f.Element == element {
			return f, nil
		}
	}
	for _, f := range g.Files {
		if strings.EqualFold(f.Element, element) {
			return f, nil
		}
	}
	return File{}, fmt.Errorf("%w: plant %q has no %q channel", ErrUnknownElement, g.Plant, element)
}

// Channels returns the group's files as aggregation channels.
func (g Group) Channels() []quant.Channel {
	out := make([]quant.Channel, len(g.Files))
	for i, f := range g.Files {
		out[i] = f.Channel()
	}
	return out
}

// Rejection records a file that could not be grouped.
type Rejection struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Catalog is the result of grouping a file set.
type Catalog struct {
	Groups   []Group     `json:"groups"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// Plants returns the plant names in catalog order.
func (c *Catalog) Plants() []string {
	out := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		out[i] = g.Plant
	}
	return out
}

// Group returns the named plant's group.
func (c *Catalog) Group(plant string) (Group, error) {
	for _, g := range c.Groups {
		if g.Plant == plant {
			return g, nil
		}
	}
	return Group{}, fmt.Errorf("%w: %q", ErrUnknownPlant, plant)
}

// GroupFiles groups paths by plant. Files with invalid names, and second
// files for an element a plant already has, are rejected rather than
// failing the whole set. Groups are sorted by plant name.
func GroupFiles(paths []string) *Catalog {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	cat := &Catalog{}
	byPlant := make(map[string]*Group)
	var order []string
	for _, p := range sorted {
		f, err := ParseFilename(p)
		if err != nil {
			cat.Rejected = append(cat.Rejected, Rejection{Path: p, Reason: err.Error()})
			continue
		}

		g, ok := byPlant[f.Plant]
		if !ok {
			g = &Group{Plant: f.Plant}
			byPlant[f.Plant] = g
			order = append(order, f.Plant)
		}
		if dup := hasElement(g, f.Element); dup != "" {
			cat.Rejected = append(cat.Rejected, Rejection{
				Path:   p,
				Reason: fmt.Sprintf("duplicate %s channel for plant %q (already %s)", f.Element, f.Plant, dup),
			})
			continue
		}
		g.Files = append(g.Files, f)
	}

	sort.Strings(order)
	for _, name := range order {
		g := byPlant[name]
		sort.SliceStable(g.Files, func(i, j int) bool { return g.Files[i].Element < g.Files[j].Element })
		cat.Groups = append(cat.Groups, *g)
	}
	return cat
}

func hasElement(g *Group, element string) string {
	for _, f := range g.Files {
		if f.Element == element {
			return f.Path
		}
	}
	return ""
}

// Scan groups the regular files directly inside dir.
func Scan(dir string) (*Catalog, error) {
	paths, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	return GroupFiles(paths), nil
}

// Collect groups a mix of directories and files, scanning each directory
// non-recursively.
func Collect(args []string) (*Catalog, error) {
	var paths []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", a, err)
		}
		if !info.IsDir() {
			paths = append(paths, a)
			continue
		}
		found, err := listDir(a)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return GroupFiles(paths), nil
}

// listDir returns the visible regular files directly inside dir.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
