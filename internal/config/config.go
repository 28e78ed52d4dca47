// Package config holds the top-level Config record for a generation
// run, built from CLI flags and/or a config file via the teacher's
// cobra/viper wiring (internal/cmd), with a single Validate entry
// point in the dshills-dungo style of one fmt.Errorf per bad field.
package config

import (
	"fmt"

	"github.com/mhacking/topogen/internal/label"
	"github.com/mhacking/topogen/internal/layerplan"
	"github.com/mhacking/topogen/internal/mesh"
	"github.com/mhacking/topogen/internal/raster"
	"github.com/mhacking/topogen/internal/scaling"
)

// Config is the fully-resolved set of parameters for one generation
// run (spec §6).
type Config struct {
	InputPath string
	OutputDir string

	LayerStrategy  layerplan.Strategy
	NumLayers      int
	IntervalM      float64
	ExplicitLevels []float64

	MinElevationFilter *float64
	MaxElevationFilter *float64
	ElevationThreshold float64
	FixedElevation     *float64

	SimplifyToleranceM float64
	RemoveHoles        bool
	DedupeEpsilonM     float64
	InsetM             float64
	NestingLipM        float64
	OuterBoundariesOnly bool

	TerrainFollowing bool
	MeshQuality      mesh.Quality

	ScalingStrategy scaling.Strategy
	ScalingParams   scaling.Params

	Labels label.Config

	Formats         []string // "svg", "geojson", "shapefile", "png", "geotiff", "stl", "obj", "ply"
	FilenamePattern string
	OutputLayers    bool
	OutputStacked   bool

	RasterWidthPx, RasterHeightPx int
	PrintResolutionDPI            float64
	MarginMM                      float64
	AddRegistrationMarks          bool
	ColorScheme                   raster.ColorScheme
	RenderMode                    raster.RenderMode
	FontPath                      string

	ArchivePath string // layer-pack SQLite bundle path; empty disables

	Workers      int
	ShowProgress bool
	Verbose      bool
}

var validFormats = map[string]bool{
	"svg": true, "geojson": true, "shapefile": true, "png": true,
	"geotiff": true, "stl": true, "obj": true, "ply": true,
}

// Validate checks the config for internally-inconsistent or
// out-of-range values, returning the first violation found.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	switch c.LayerStrategy {
	case layerplan.Uniform:
		if c.NumLayers <= 0 {
			return fmt.Errorf("layer strategy uniform: NumLayers must be > 0, got %d", c.NumLayers)
		}
	case layerplan.Interval, layerplan.Filtered:
		if c.IntervalM <= 0 && c.NumLayers <= 0 {
			return fmt.Errorf("layer strategy interval: IntervalM must be > 0, got %f", c.IntervalM)
		}
	case layerplan.Explicit:
		if len(c.ExplicitLevels) == 0 {
			return fmt.Errorf("layer strategy explicit: ExplicitLevels cannot be empty")
		}
	default:
		return fmt.Errorf("unknown layer strategy %d", c.LayerStrategy)
	}

	if c.MinElevationFilter != nil && c.MaxElevationFilter != nil && *c.MinElevationFilter > *c.MaxElevationFilter {
		return fmt.Errorf("MinElevationFilter (%f) must be <= MaxElevationFilter (%f)", *c.MinElevationFilter, *c.MaxElevationFilter)
	}
	if c.ElevationThreshold < 0 {
		return fmt.Errorf("ElevationThreshold must be >= 0, got %f", c.ElevationThreshold)
	}

	if c.SimplifyToleranceM < 0 {
		return fmt.Errorf("SimplifyToleranceM must be >= 0, got %f", c.SimplifyToleranceM)
	}
	if c.InsetM < 0 {
		return fmt.Errorf("InsetM must be >= 0, got %f", c.InsetM)
	}
	if c.NestingLipM < 0 {
		return fmt.Errorf("NestingLipM must be >= 0, got %f", c.NestingLipM)
	}

	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one output format must be configured")
	}
	for _, f := range c.Formats {
		if !validFormats[f] {
			return fmt.Errorf("unsupported output format %q", f)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("Workers must be >= 0 (0 selects GOMAXPROCS), got %d", c.Workers)
	}

	if c.RasterWidthPx < 0 || c.RasterHeightPx < 0 {
		return fmt.Errorf("RasterWidthPx/RasterHeightPx must be >= 0")
	}

	return nil
}

// WithDefaults returns a copy of c with zero-valued raster/output fields
// filled in to the values the original implementation shipped with.
func (c Config) WithDefaults() Config {
	if c.RasterWidthPx == 0 {
		c.RasterWidthPx = 2048
	}
	if c.RasterHeightPx == 0 {
		c.RasterHeightPx = 2048
	}
	if c.MarginMM == 0 {
		c.MarginMM = 5
	}
	if c.FilenamePattern == "" {
		c.FilenamePattern = "%{b}_%{l}"
	}
	if !c.OutputLayers && !c.OutputStacked {
		c.OutputLayers = true
		c.OutputStacked = true
	}
	return c
}
