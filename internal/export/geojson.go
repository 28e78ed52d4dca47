package export

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mhacking/topogen/internal/geomtypes"
)

// writeGeoJSON serializes layers as a GeoJSON FeatureCollection, one
// Feature per polygon, passed through in WGS84 lon/lat (spec.md
// §4.9 — GeoJSON/Shapefile do not transform coordinates). Adapted from
// the teacher's internal/geojson.ToGeoJSON, which built the same
// orb/geojson.FeatureCollection from OSM features; here the geometry
// comes from a contour layer instead of an OSM feature set.
func writeGeoJSON(path string, layers []LayerView, geo GeoContext) error {
	fc := geojson.NewFeatureCollection()

	for _, lv := range layers {
		for i, poly := range lv.Polygons {
			feature := geojson.NewFeature(toOrbPolygon(poly))
			feature.Properties = map[string]interface{}{
				"layer_index":   lv.LevelIndex,
				"elevation_m":   lv.Elevation,
				"polygon_index": i,
			}
			fc.Append(feature)
		}
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func toOrbPolygon(p geomtypes.Polygon) orb.Polygon {
	poly := make(orb.Polygon, 0, 1+len(p.Holes))
	poly = append(poly, toOrbRing(p.Exterior))
	for _, h := range p.Holes {
		poly = append(poly, toOrbRing(h))
	}
	return poly
}

func toOrbRing(r geomtypes.Ring) orb.Ring {
	ring := make(orb.Ring, len(r))
	for i, pt := range r {
		ring[i] = orb.Point{pt.X, pt.Y}
	}
	return ring
}
