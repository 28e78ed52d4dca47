// Package export implements ExportDispatcher and the format-specific
// emitters (spec.md §4.9): SVG, GeoJSON, Shapefile, PNG, GeoTIFF, STL,
// OBJ, PLY. Each emitter is handed the same canonical layer stack and
// converts it into its own coordinate and encoding conventions.
package export

import (
	"fmt"

	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/label"
	"github.com/mhacking/topogen/internal/raster"
)

// Kind classifies a format by the canonical input it consumes.
type Kind int

const (
	Vector2D Kind = iota
	Raster2D
	Mesh3D
)

// Format names one of the eight supported output formats.
type Format string

const (
	SVG       Format = "svg"
	GeoJSON   Format = "geojson"
	Shapefile Format = "shapefile"
	PNG       Format = "png"
	GeoTIFF   Format = "geotiff"
	STL       Format = "stl"
	OBJ       Format = "obj"
	PLY       Format = "ply"
)

// KindOf reports whether a format is vector, raster, or mesh, or an
// error if the format name is unrecognized.
func KindOf(f Format) (Kind, error) {
	switch f {
	case SVG, GeoJSON, Shapefile:
		return Vector2D, nil
	case PNG, GeoTIFF:
		return Raster2D, nil
	case STL, OBJ, PLY:
		return Mesh3D, nil
	default:
		return 0, fmt.Errorf("export: unknown format %q", f)
	}
}

// LayerView is one canonical layer's geometry plus the labels placed
// on it, the exact input every 2D emitter receives. Mesh emitters
// instead consume a geomtypes.Mesh built upstream by internal/mesh.
type LayerView struct {
	LevelIndex int
	Elevation  float64
	Polygons   []geomtypes.Polygon
	Labels     []label.Placed
}

// GeoContext carries the georeferencing every emitter needs to relate
// its canonical (meter or degree) coordinates back to a map.
type GeoContext struct {
	Bounds       geomtypes.BoundingBox // geographic degrees
	CenterLatDeg float64
	GeoTransform [6]float64 // pixel-to-geo affine, for GeoTIFF
}

// Options bundles the per-run settings every emitter may need; only
// the fields relevant to a given format are read.
type Options struct {
	OutputDir        string
	BaseName         string
	FilenamePattern  string
	OutputLayers     bool
	OutputStacked    bool
	ScaleFactorXY    float64 // mm per meter, SVG/print emitters
	SubstrateSizeMM  float64
	MarginMM         float64
	WidthPx, HeightPx int
	PrintResolutionDPI float64
	AddRegistrationMarks bool
	RasterOptions    raster.Options
	AnnotatorOptions raster.AnnotatorOptions
	GlobalMinElevM, GlobalMaxElevM float64
}

// FileResult records the outcome of emitting one file.
type FileResult struct {
	Path       string
	Format     Format
	LayerIndex int // -1 for stacked/combined
	Err        error
}

// Summary aggregates every emitted file's outcome for one dispatch.
type Summary struct {
	Files   []FileResult
	Success bool // logical-AND of every FileResult succeeding
}
