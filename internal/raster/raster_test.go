package raster

import (
	"image/color"
	"testing"

	"github.com/mhacking/topogen/internal/geomtypes"
)

func square(x0, y0, x1, y1 float64) geomtypes.Polygon {
	return geomtypes.Polygon{Exterior: geomtypes.Ring{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func TestRasterizeLayersFillsBackground(t *testing.T) {
	bounds := geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	opts := Options{
		WidthPx: 100, HeightPx: 100, MarginPx: 5,
		BackgroundColor: color.NRGBA{R: 10, G: 20, B: 30, A: 255},
		Scheme:          Terrain,
		GlobalMinM:      0, GlobalMaxM: 100,
	}
	b := NewBuilder(bounds, opts)

	img := b.RasterizeLayers(nil)
	c := img.NRGBAAt(0, 0)
	if c.R != 10 || c.G != 20 || c.B != 30 {
		t.Errorf("expected background color at corner, got %+v", c)
	}
}

func TestRasterizeLayersPaintsPolygonInterior(t *testing.T) {
	bounds := geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	opts := Options{
		WidthPx: 100, HeightPx: 100, MarginPx: 0,
		BackgroundColor: color.NRGBA{A: 255},
		Scheme:          Terrain,
		GlobalMinM:      0, GlobalMaxM: 10,
	}
	b := NewBuilder(bounds, opts)

	layers := []LayerInput{{ElevationM: 5, Polygons: []geomtypes.Polygon{square(2, 2, 8, 8)}}}
	img := b.RasterizeLayers(layers)

	center := img.NRGBAAt(50, 50)
	corner := img.NRGBAAt(0, 0)
	if center == corner {
		t.Errorf("expected interior fill to differ from untouched background, got equal %+v", center)
	}
}

func TestRasterizeLayersMonochromeSkipsFill(t *testing.T) {
	bounds := geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	bg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	opts := Options{
		WidthPx: 50, HeightPx: 50, MarginPx: 0,
		BackgroundColor: bg,
		Mode:            Monochrome,
	}
	b := NewBuilder(bounds, opts)

	layers := []LayerInput{{ElevationM: 5, Polygons: []geomtypes.Polygon{square(1, 1, 9, 9)}}}
	img := b.RasterizeLayers(layers)

	center := img.NRGBAAt(25, 25)
	if center != bg {
		t.Errorf("expected monochrome mode to leave fills untouched, got %+v", center)
	}
}

func TestNewBuilderFitsAspectRatio(t *testing.T) {
	bounds := geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}
	opts := Options{WidthPx: 200, HeightPx: 200, MarginPx: 0}
	b := NewBuilder(bounds, opts)

	if b.scale <= 0 {
		t.Fatal("expected positive scale")
	}
	x, y := b.toPixel(geomtypes.Point{X: 0, Y: 50})
	if x < -1 || x > 1 {
		t.Errorf("expected top-left corner to map near x=0, got %v", x)
	}
	if y < -1 || y > 1 {
		t.Errorf("expected top-left corner to map near y=0, got %v", y)
	}
}
