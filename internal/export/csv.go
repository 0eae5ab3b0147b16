package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/plantquant/internal/quant"
)

// WriteCSV writes t as a delimited table: a header row with a blank corner
// cell followed by the element tags, then one row per region labelled by
// its index.
func WriteCSV(w io.Writer, t *quant.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, t.Elements...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	labels := t.RowLabels()
	for r := 0; r < t.Regions(); r++ {
		row := make([]string, 0, len(t.Elements)+1)
		row = append(row, labels[r])
		for _, v := range t.Row(r) {
			row = append(row, strconv.FormatUint(v, 10))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write region %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes t to path, creating parent directories as needed.
func SaveCSV(path string, t *quant.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
