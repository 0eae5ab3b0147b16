package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plantquant/internal/config"
)

// writeGrid writes a headerless w x h numeric grid with a v-valued square of
// side size at the origin and zeros elsewhere.
func writeGrid(t *testing.T, dir, name string, w, h, size int, v uint64) {
	t.Helper()
	var b strings.Builder
	for y := 0; y < h; y++ {
		row := make([]string, w)
		for x := range row {
			row[x] = "0"
			if x < size && y < size {
				row[x] = fmt.Sprint(v)
			}
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644))
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Threshold.Method = "manual"
	cfg.Threshold.Value = 128
	cfg.Threshold.Reference = "K"
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestRunQuantify(t *testing.T) {
	in := t.TempDir()
	writeGrid(t, in, "Good - K.csv", 20, 20, 8, 10)
	writeGrid(t, in, "Good - Ca.csv", 20, 20, 20, 1)
	// Channels of different shapes cannot be aggregated.
	writeGrid(t, in, "Bad - K.csv", 20, 20, 8, 10)
	writeGrid(t, in, "Bad - Ca.csv", 10, 10, 10, 1)

	cfg := testConfig(t)
	cfg.Output.SQLite = filepath.Join(cfg.Output.Dir, "quant.db")
	cfg.Output.Images = true

	failed, err := runQuantify(context.Background(), cfg, []string{in})
	require.NoError(t, err)
	require.Equal(t, 1, failed)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Good_quant.csv"))
	require.NoError(t, err)
	require.Equal(t, ",Ca,K\n0,64,640\n", string(data))

	require.FileExists(t, filepath.Join(cfg.Output.Dir, "Good_mask.png"))
	require.FileExists(t, cfg.Output.SQLite)
	require.NoFileExists(t, filepath.Join(cfg.Output.Dir, "Bad_quant.csv"))
}

func TestRunQuantify_NoPlants(t *testing.T) {
	failed, err := runQuantify(context.Background(), testConfig(t), []string{t.TempDir()})
	require.NoError(t, err)
	require.Zero(t, failed)
}

func TestRunQuantify_MissingInput(t *testing.T) {
	_, err := runQuantify(context.Background(), testConfig(t), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestRunQuantify_Cancelled(t *testing.T) {
	in := t.TempDir()
	writeGrid(t, in, "P - K.csv", 10, 10, 5, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runQuantify(ctx, testConfig(t), []string{in})
	require.ErrorIs(t, err, context.Canceled)
}
