package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/plantquant/internal/threshold"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plantquant.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvOutputDir, "")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvOutputDir, "")

	path := writeConfig(t, `
log_level: debug
threshold:
  method: manual
  value: 90
  reference: Ca
segment:
  min_area_fraction: 0.02
aggregate:
  workers: 3
output:
  dir: out
  sqlite: out/q.db
  images: true
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.Debug() {
		t.Error("expected debug logging")
	}
	if c.Order.RowTolerance != 50 {
		t.Errorf("unset row_tolerance should keep default, got %d", c.Order.RowTolerance)
	}

	opts, err := c.SessionOptions()
	if err != nil {
		t.Fatalf("SessionOptions failed: %v", err)
	}
	if opts.Selection != threshold.Manual(90) {
		t.Errorf("selection: got %+v", opts.Selection)
	}
	if opts.Reference != "Ca" || opts.Segment.MinAreaFraction != 0.02 || opts.Aggregate.Workers != 3 || !opts.Verbose {
		t.Errorf("options: got %+v", opts)
	}
	if c.Output.Dir != "out" || c.Output.SQLite != "out/q.db" || !c.Output.Images || !c.Output.CSV {
		t.Errorf("output: got %+v", c.Output)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvWorkers, "7")
	t.Setenv(EnvOutputDir, "/tmp/pq")

	c, err := Load(writeConfig(t, "aggregate:\n  workers: 2\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Aggregate.Workers != 7 || c.Output.Dir != "/tmp/pq" || !c.Debug() {
		t.Errorf("env overrides not applied: %+v", c)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvOutputDir, "")

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "thresh:\n  method: balanced\n"},
		{"bad method", "threshold:\n  method: otsu\n"},
		{"value range", "threshold:\n  method: manual\n  value: 300\n"},
		{"fraction", "segment:\n  min_area_fraction: 1.5\n"},
		{"tolerance", "order:\n  row_tolerance: 0\n"},
		{"workers", "aggregate:\n  workers: -1\n"},
		{"syntax", "threshold: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestApplyEnv_BadWorkers(t *testing.T) {
	c := Default()
	env := map[string]string{EnvWorkers: "many"}
	if err := c.applyEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("expected error for non-numeric workers")
	}
}

func TestExportOptions(t *testing.T) {
	c := Default()
	c.Output.SQLite = "q.db"
	c.Output.HistogramPlot = true

	got := c.ExportOptions()
	if !got.CSV || got.Images || !got.HistogramPlot || got.SQLite != "q.db" {
		t.Errorf("unexpected export options: %+v", got)
	}
}
