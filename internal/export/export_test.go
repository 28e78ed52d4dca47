package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/label"
	"github.com/mhacking/topogen/internal/raster"
)

func squarePolygon(x0, y0, x1, y1 float64) geomtypes.Polygon {
	return geomtypes.Polygon{Exterior: geomtypes.Ring{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func testLayers() []LayerView {
	return []LayerView{
		{LevelIndex: 0, Elevation: 100, Polygons: []geomtypes.Polygon{squarePolygon(0, 0, 10, 10)}},
		{LevelIndex: 1, Elevation: 200, Polygons: []geomtypes.Polygon{squarePolygon(2, 2, 8, 8)}},
	}
}

func testGeo() GeoContext {
	return GeoContext{
		Bounds:       geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		GeoTransform: [6]float64{0, 1, 0, 10, 0, -1},
	}
}

func TestWriteSVGProducesPathsAndViewBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	opts := Options{ScaleFactorXY: 2, MarginMM: 5}
	if err := writeSVG(path, testLayers(), opts, testGeo()); err != nil {
		t.Fatalf("writeSVG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "viewBox") {
		t.Errorf("expected an svg root with viewBox, got: %s", s)
	}
	if strings.Count(s, "<path") != 2 {
		t.Errorf("expected one path per layer, got %d", strings.Count(s, "<path"))
	}
}

func TestWriteSVGFillsNoneInMonochrome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	opts := Options{ScaleFactorXY: 2, MarginMM: 5, RasterOptions: raster.Options{Mode: raster.Monochrome}}
	if err := writeSVG(path, testLayers(), opts, testGeo()); err != nil {
		t.Fatalf("writeSVG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `fill="none"`) {
		t.Errorf("expected fill=none in monochrome mode, got: %s", data)
	}
}

func TestWriteSVGFillsColorOutsideMonochrome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	opts := Options{
		ScaleFactorXY: 2, MarginMM: 5,
		RasterOptions:  raster.Options{Scheme: raster.Terrain},
		GlobalMinElevM: 0, GlobalMaxElevM: 200,
	}
	if err := writeSVG(path, testLayers(), opts, testGeo()); err != nil {
		t.Fatalf("writeSVG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), `fill="none"`) {
		t.Errorf("expected a resolved fill color outside monochrome, got: %s", data)
	}
}

func TestWriteSVGEmitsTextPathForCurvedLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	layers := testLayers()
	layers[0].Labels = []label.Placed{
		{Text: "100m", Color: "#000", FontSizeMM: 3, Path: &label.TextPath{SVGPathD: "M 0 0 L 10 10"}},
	}
	opts := Options{ScaleFactorXY: 2, MarginMM: 5}
	if err := writeSVG(path, layers, opts, testGeo()); err != nil {
		t.Fatalf("writeSVG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "<defs>") || !strings.Contains(s, "<textPath") {
		t.Errorf("expected a <defs> path and <textPath> for a curved label, got: %s", s)
	}
}

func TestWriteGeoJSONProducesOneFeaturePerPolygon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geojson")
	if err := writeGeoJSON(path, testLayers(), testGeo()); err != nil {
		t.Fatalf("writeGeoJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	if strings.Count(s, `"type": "Feature"`) != 2 {
		t.Errorf("expected 2 features, got body: %s", s)
	}
	if !strings.Contains(s, `"elevation_m": 100`) {
		t.Errorf("expected elevation property, got: %s", s)
	}
}

func TestWriteShapefileProducesSidecarFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.shp")
	if err := writeShapefile(path, testLayers(), testGeo()); err != nil {
		t.Fatalf("writeShapefile: %v", err)
	}
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shp", ".dbf", ".prj"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("expected %s to exist: %v", ext, err)
		}
	}
}

func TestKindOfClassifiesFormats(t *testing.T) {
	cases := map[Format]Kind{
		SVG: Vector2D, GeoJSON: Vector2D, Shapefile: Vector2D,
		PNG: Raster2D, GeoTIFF: Raster2D,
		STL: Mesh3D, OBJ: Mesh3D, PLY: Mesh3D,
	}
	for f, want := range cases {
		got, err := KindOf(f)
		if err != nil {
			t.Fatalf("KindOf(%s): %v", f, err)
		}
		if got != want {
			t.Errorf("KindOf(%s) = %v, want %v", f, got, want)
		}
	}
	if _, err := KindOf("bogus"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDispatchAggregatesSuccessAcrossEmitters(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		OutputDir: dir, BaseName: "run", FilenamePattern: "%{b}_%{l}",
		ScaleFactorXY: 1, OutputLayers: true,
	}
	d := New(opts, testGeo(), nil)
	sum := d.Dispatch([]string{"svg", "geojson"}, testLayers(), geomtypes.Mesh{}, nil)
	if !sum.Success {
		for _, r := range sum.Files {
			if r.Err != nil {
				t.Logf("file error: %v", r.Err)
			}
		}
		t.Fatal("expected dispatch to succeed")
	}
	if len(sum.Files) == 0 {
		t.Fatal("expected at least one file result")
	}
}

func TestWriteOBJAndSTLAndPLYProduceNonEmptyFiles(t *testing.T) {
	m := geomtypes.Mesh{
		Vertices: []geomtypes.Vertex{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Faces:    []geomtypes.Face{{A: 0, B: 1, C: 2}},
	}
	opts := Options{ScaleFactorXY: 1, GlobalMinElevM: 0, GlobalMaxElevM: 100}

	for name, fn := range map[string]func(string, geomtypes.Mesh, Options) error{
		"mesh.stl": writeSTL, "mesh.obj": writeOBJ, "mesh.ply": writePLY,
	} {
		path := filepath.Join(t.TempDir(), name)
		if err := fn(path, m, opts); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: expected non-empty file", name)
		}
	}
}
