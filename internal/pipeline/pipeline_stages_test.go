package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhacking/topogen/internal/config"
	"github.com/mhacking/topogen/internal/grid"
	"github.com/mhacking/topogen/internal/layerplan"
)

// syntheticCone builds a radially-symmetric elevation grid (a cone
// rising toward the center) so contour extraction always yields one
// nested ring per level, independent of any real DEM input.
func syntheticCone(width, height int) *grid.Grid {
	g := grid.New(width, height, grid.GeoTransform{0, 1, 0, 0, 0, -1})
	cx, cy := float64(width)/2, float64(height)/2
	maxDist := cx
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			dx, dy := float64(col)-cx, float64(row)-cy
			dist := dx*dx + dy*dy
			elev := 100.0 * (1 - (dist / (maxDist * maxDist)))
			if elev < 0 {
				elev = 0
			}
			g.Set(col, row, float32(elev))
		}
	}
	return g
}

func TestGeneratorProducesOutputsAcrossStages(t *testing.T) {
	outDir := t.TempDir()
	g := syntheticCone(40, 40)

	cfg := config.Config{
		InputPath:     "cone.tif",
		OutputDir:     outDir,
		LayerStrategy: layerplan.Uniform,
		NumLayers:     4,
		Formats:       []string{"svg", "geojson"},
		Workers:       2,
	}

	gen := NewGenerator(nil)
	result, err := gen.Generate(context.Background(), g, cfg)
	require.NoError(t, err)
	require.True(t, result.Summary.Success, "expected export summary to succeed")
	require.NotEmpty(t, result.Summary.Files, "expected at least one output file")

	for _, f := range result.Summary.Files {
		require.FileExists(t, f.Path)
	}

	report := result.Tracker.TimingReport()
	require.NotEmpty(t, report, "expected a non-empty stage timing report")
}

func TestGeneratorRejectsInvalidConfig(t *testing.T) {
	g := syntheticCone(10, 10)
	gen := NewGenerator(nil)

	_, err := gen.Generate(context.Background(), g, config.Config{})
	require.Error(t, err, "expected an error for an empty config")
}

func TestGeneratorBuildsMeshOutputsWhenRequested(t *testing.T) {
	outDir := t.TempDir()
	g := syntheticCone(30, 30)

	cfg := config.Config{
		InputPath:     "cone.tif",
		OutputDir:     outDir,
		LayerStrategy: layerplan.Uniform,
		NumLayers:     3,
		Formats:       []string{"stl", "obj"},
		Workers:       1,
	}

	gen := NewGenerator(nil)
	result, err := gen.Generate(context.Background(), g, cfg)
	require.NoError(t, err)
	require.True(t, result.Summary.Success, "expected mesh export to succeed")

	var sawSTL, sawOBJ bool
	for _, f := range result.Summary.Files {
		switch filepath.Ext(f.Path) {
		case ".stl":
			sawSTL = true
		case ".obj":
			sawOBJ = true
		}
	}
	require.True(t, sawSTL, "expected an .stl output")
	require.True(t, sawOBJ, "expected an .obj output")
}

func TestGeneratorWritesArchiveWhenConfigured(t *testing.T) {
	outDir := t.TempDir()
	g := syntheticCone(24, 24)
	archivePath := filepath.Join(outDir, "layers.archive")

	cfg := config.Config{
		InputPath:     "cone.tif",
		OutputDir:     outDir,
		LayerStrategy: layerplan.Uniform,
		NumLayers:     3,
		Formats:       []string{"svg"},
		Workers:       1,
		ArchivePath:   archivePath,
	}

	gen := NewGenerator(nil)
	_, err := gen.Generate(context.Background(), g, cfg)
	require.NoError(t, err)
	require.FileExists(t, archivePath)

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
