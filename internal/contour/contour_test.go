package contour

import (
	"math"
	"testing"

	"github.com/mhacking/topogen/internal/grid"
)

func flatGrid(w, h int, fill func(col, row int) float32) *grid.Grid {
	g := grid.New(w, h, grid.GeoTransform{0, 1, 0, 0, 0, 1})
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			g.Set(col, row, fill(col, row))
		}
	}
	return g
}

// A flat plateau above the threshold should extract as a single square
// ring covering the whole grid.
func TestExtractFlatRegionSingleSquare(t *testing.T) {
	g := flatGrid(5, 5, func(col, row int) float32 { return 100 })

	layers, err := Extract(g, []float64{50}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(layers))
	}
	if len(layers[0].Polygons) != 1 {
		t.Fatalf("expected 1 polygon for flat plateau, got %d", len(layers[0].Polygons))
	}
}

// A conical elevation should produce one closed ring per level, with
// higher levels producing smaller enclosed area (concentric rings).
func TestExtractConeConcentricRings(t *testing.T) {
	const size = 21
	cx, cy := float64(size)/2, float64(size)/2
	g := flatGrid(size, size, func(col, row int) float32 {
		dx := float64(col) - cx
		dy := float64(row) - cy
		d := dx*dx + dy*dy
		maxD := cx * cx
		v := 100 * (1 - d/maxD)
		if v < 0 {
			v = 0
		}
		return float32(v)
	})

	layers, err := Extract(g, []float64{10, 50, 80}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}

	var areas []float64
	for _, l := range layers {
		if len(l.Polygons) == 0 {
			t.Errorf("level %v produced no polygons", l.Elevation)
			continue
		}
		areas = append(areas, l.Area)
	}
	for i := 1; i < len(areas); i++ {
		if areas[i] >= areas[i-1] {
			t.Errorf("expected strictly decreasing area with increasing elevation, got %v", areas)
		}
	}
}

// Two separated peaks below the merge threshold should extract as two
// distinct polygons at a high level.
func TestExtractTwoPeaksSeparate(t *testing.T) {
	const w, h = 40, 20
	peak := func(px, py float64) func(col, row int) float32 {
		return func(col, row int) float32 {
			dx := float64(col) - px
			dy := float64(row) - py
			d := dx*dx + dy*dy
			return float32(100 * math.Exp(-d/20))
		}
	}
	p1 := peak(10, 10)
	p2 := peak(30, 10)
	g := flatGrid(w, h, func(col, row int) float32 {
		v1 := p1(col, row)
		v2 := p2(col, row)
		if v1 > v2 {
			return v1
		}
		return v2
	})

	layers, err := Extract(g, []float64{70}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(layers[0].Polygons) != 2 {
		t.Errorf("expected 2 separate polygons at high level, got %d", len(layers[0].Polygons))
	}
}

