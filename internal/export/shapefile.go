package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/mhacking/topogen/internal/geomtypes"
)

// wgs84WKT is the well-known-text projection string written to the
// .prj sidecar, the convention observed in the pack's one shapefile
// writer (spatialmodel/inmap, which writes its own WKT alongside the
// .shp/.dbf pair rather than relying on go-shp for it).
const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

// writeShapefile emits one .shp/.shx/.dbf triple plus a .prj sidecar,
// passing geometry through in WGS84 lon/lat per spec.md §4.9. Polygon
// rings become a single multi-part POLYGON shape per feature, with
// elevation and layer index recorded as DBF attribute fields.
func writeShapefile(path string, layers []LayerView, geo GeoContext) error {
	base := strings.TrimSuffix(path, ".shp")

	writer, err := shp.Create(base+".shp", shp.POLYGON)
	if err != nil {
		return fmt.Errorf("shapefile: create: %w", err)
	}
	defer writer.Close()

	fields := []shp.Field{
		shp.NumberField("LAYER_IDX", 6),
		shp.FloatField("ELEV_M", 12, 3),
	}
	if err := writer.SetFields(fields); err != nil {
		return fmt.Errorf("shapefile: set fields: %w", err)
	}

	row := 0
	for _, lv := range layers {
		for _, poly := range lv.Polygons {
			shape := polygonToShpPolygon(poly)
			if _, err := writer.Write(shape); err != nil {
				return fmt.Errorf("shapefile: write geometry: %w", err)
			}
			if err := writer.WriteAttribute(row, 0, lv.LevelIndex); err != nil {
				return fmt.Errorf("shapefile: write attribute: %w", err)
			}
			if err := writer.WriteAttribute(row, 1, lv.Elevation); err != nil {
				return fmt.Errorf("shapefile: write attribute: %w", err)
			}
			row++
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("shapefile: close: %w", err)
	}

	return os.WriteFile(base+".prj", []byte(wgs84WKT), 0o644)
}

// polygonToShpPolygon flattens a polygon-with-holes into go-shp's
// multi-part ring representation: each ring (exterior, then holes)
// becomes one part, with Parts holding the starting index of each
// part into the flattened Points slice.
func polygonToShpPolygon(p geomtypes.Polygon) *shp.Polygon {
	rings := append([]geomtypes.Ring{p.Exterior}, p.Holes...)

	var points []shp.Point
	parts := make([]int32, 0, len(rings))
	box := shp.Box{MinX: p.Bounds().MinX, MinY: p.Bounds().MinY, MaxX: p.Bounds().MaxX, MaxY: p.Bounds().MaxY}

	for _, r := range rings {
		parts = append(parts, int32(len(points)))
		for _, pt := range r {
			points = append(points, shp.Point{X: pt.X, Y: pt.Y})
		}
	}

	return &shp.Polygon{
		Box:       box,
		NumParts:  int32(len(parts)),
		NumPoints: int32(len(points)),
		Parts:     parts,
		Points:    points,
	}
}
