// Package config loads plantquant settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/export"
	"github.com/ironsheep/plantquant/internal/plant"
	"github.com/ironsheep/plantquant/internal/quant"
	"github.com/ironsheep/plantquant/internal/threshold"
)

/* Example config file ...

log_level: debug
threshold:
  method: first-valley
  reference: K
segment:
  min_area_fraction: 0.01
order:
  row_tolerance: 50
aggregate:
  workers: 4
output:
  dir: results
  csv: true
  sqlite: results/quant.db
  images: true
  histogram_plot: true

*/

// Environment variables that override file settings.
const (
	EnvLogLevel  = "PLANTQUANT_LOG_LEVEL"
	EnvWorkers   = "PLANTQUANT_WORKERS"
	EnvOutputDir = "PLANTQUANT_OUTPUT_DIR"
)

// Threshold selects how the reference channel is binarized. Value is only
// used by the manual method; an empty Reference means the first element.
type Threshold struct {
	Method    string `yaml:"method"`
	Value     int    `yaml:"value"`
	Reference string `yaml:"reference"`
}

// Segment controls which traced regions are kept.
type Segment struct {
	MinAreaFraction float64 `yaml:"min_area_fraction"`
}

// Order sets the row band height used to sort regions into reading order.
type Order struct {
	RowTolerance int `yaml:"row_tolerance"`
}

// Aggregate bounds concurrent channel loads and sums.
type Aggregate struct {
	Workers int `yaml:"workers"`
}

// Output lists the exports written after quantification. An empty SQLite
// path disables the database.
type Output struct {
	Dir           string `yaml:"dir"`
	CSV           bool   `yaml:"csv"`
	SQLite        string `yaml:"sqlite"`
	Images        bool   `yaml:"images"`
	HistogramPlot bool   `yaml:"histogram_plot"`
}

// Config is the full set of settings.
type Config struct {
	LogLevel  string    `yaml:"log_level"`
	Threshold Threshold `yaml:"threshold"`
	Segment   Segment   `yaml:"segment"`
	Order     Order     `yaml:"order"`
	Aggregate Aggregate `yaml:"aggregate"`
	Output    Output    `yaml:"output"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Threshold: Threshold{Method: threshold.MethodBalanced.String()},
		Segment:   Segment{MinAreaFraction: detection.DefaultMinAreaFraction},
		Order:     Order{RowTolerance: detection.DefaultRowTolerance},
		Aggregate: Aggregate{Workers: runtime.NumCPU()},
		Output:    Output{Dir: ".", CSV: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read %q: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(b, &c); err != nil {
			return c, fmt.Errorf("parse %q: %w", path, err)
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Aggregate.Workers = n
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := threshold.ParseMethod(c.Threshold.Method); err != nil {
		return err
	}
	if c.Threshold.Value < 0 || c.Threshold.Value > 255 {
		return fmt.Errorf("threshold.value %d outside 0..255", c.Threshold.Value)
	}
	if f := c.Segment.MinAreaFraction; f <= 0 || f >= 1 {
		return fmt.Errorf("segment.min_area_fraction %v outside (0, 1)", f)
	}
	if c.Order.RowTolerance <= 0 {
		return fmt.Errorf("order.row_tolerance must be positive, got %d", c.Order.RowTolerance)
	}
	if c.Aggregate.Workers <= 0 {
		return fmt.Errorf("aggregate.workers must be positive, got %d", c.Aggregate.Workers)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Selection returns the configured threshold selection.
func (c Config) Selection() (threshold.Selection, error) {
	m, err := threshold.ParseMethod(c.Threshold.Method)
	if err != nil {
		return threshold.Selection{}, err
	}
	return threshold.Selection{Method: m, Value: uint8(c.Threshold.Value)}, nil
}

// SessionOptions converts the settings into pipeline options.
func (c Config) SessionOptions() (plant.Options, error) {
	sel, err := c.Selection()
	if err != nil {
		return plant.Options{}, err
	}
	return plant.Options{
		Selection:    sel,
		Reference:    c.Threshold.Reference,
		Segment:      detection.Options{MinAreaFraction: c.Segment.MinAreaFraction},
		RowTolerance: c.Order.RowTolerance,
		Aggregate:    quant.Options{Workers: c.Aggregate.Workers},
		Verbose:      c.Debug(),
	}, nil
}

// ExportOptions returns the configured output selection.
func (c Config) ExportOptions() export.Options {
	return export.Options{
		CSV:           c.Output.CSV,
		SQLite:        c.Output.SQLite,
		Images:        c.Output.Images,
		HistogramPlot: c.Output.HistogramPlot,
	}
}
