// Package polygon implements PolygonProcessor: the simplify / hole /
// inset / dedupe / orient pipeline applied to each contour layer's
// polygons before meshing, plus the inward nesting-lip inset applied
// across a layer stack so upper layers seat into the layer below them.
package polygon

import (
	"github.com/go-clipper/clipper2"

	"github.com/mhacking/topogen/internal/errs"
	"github.com/mhacking/topogen/internal/geomtypes"
)

// clipperScale converts floating-point geographic/local coordinates to
// the fixed-precision int64 lattice clipper2 operates on. 1e4 gives
// sub-millimeter precision for coordinates expressed in meters.
const clipperScale = 1e4

// Options configures the per-polygon processing pipeline, applied in
// the order: Simplify, RemoveHoles, DedupeVertices, Inset, Orient.
type Options struct {
	SimplifyToleranceM float64
	RemoveHoles        bool
	DedupeEpsilonM     float64
	InsetM             float64 // positive insets inward, 0 disables
}

// Process runs the full per-polygon pipeline on one polygon.
func Process(p geomtypes.Polygon, opts Options) (geomtypes.Polygon, error) {
	out := p.Clone()

	if opts.SimplifyToleranceM > 0 {
		out.Exterior = Simplify(out.Exterior, opts.SimplifyToleranceM)
		for i, h := range out.Holes {
			out.Holes[i] = Simplify(h, opts.SimplifyToleranceM)
		}
	}

	if opts.RemoveHoles {
		out.Holes = nil
	}

	eps := opts.DedupeEpsilonM
	if eps <= 0 {
		eps = 1e-6
	}
	out.Exterior = DedupeVertices(out.Exterior, eps)
	for i, h := range out.Holes {
		out.Holes[i] = DedupeVertices(h, eps)
	}

	if opts.InsetM != 0 {
		inset, err := Inset(out, opts.InsetM)
		if err != nil {
			return geomtypes.Polygon{}, err
		}
		out = inset
	}

	out.Exterior = orient(out.Exterior, true)
	for i, h := range out.Holes {
		out.Holes[i] = orient(h, false)
	}

	if out.Exterior.Degenerate() {
		return geomtypes.Polygon{}, errs.ErrInconsistentGeometry
	}
	return out, nil
}

// Simplify reduces the ring's vertex count with Douglas-Peucker
// simplification at the given tolerance, preserving the closing point.
func Simplify(r geomtypes.Ring, tolerance float64) geomtypes.Ring {
	if len(r) < 4 {
		return r
	}
	closed := r.Closed()
	pts := []geomtypes.Point(r)
	if closed {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return r
	}
	kept := douglasPeucker(pts, tolerance)
	if closed {
		kept = append(kept, kept[0])
	}
	return geomtypes.Ring(kept)
}

func douglasPeucker(pts []geomtypes.Point, tolerance float64) []geomtypes.Point {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]

	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := geomtypes.PerpendicularDistance(pts[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []geomtypes.Point{first, last}
	}

	left := douglasPeucker(pts[:maxIdx+1], tolerance)
	right := douglasPeucker(pts[maxIdx:], tolerance)
	return append(left[:len(left)-1], right...)
}

// DedupeVertices removes consecutive points closer than epsilon,
// collapsing runs produced by marching-squares cells that happen to
// cross at (near-)identical positions.
func DedupeVertices(r geomtypes.Ring, epsilon float64) geomtypes.Ring {
	if len(r) < 2 {
		return r
	}
	out := make(geomtypes.Ring, 0, len(r))
	out = append(out, r[0])
	for _, p := range r[1:] {
		if !p.Equal(out[len(out)-1], epsilon) {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0].Equal(out[len(out)-1], epsilon) {
		out[len(out)-1] = out[0]
	}
	return out
}

// orient returns r forced to the requested winding (true=CCW/exterior,
// false=CW/hole), matching the convention documented on Polygon.
func orient(r geomtypes.Ring, ccw bool) geomtypes.Ring {
	if len(r) == 0 || r.CCW() == ccw {
		return r
	}
	return r.Reversed()
}

// Inset offsets every ring of p inward by distanceM meters (positive
// shrinks the exterior and grows holes), via clipper2's polygon
// offsetting. A negative distanceM outsets instead. Rings that vanish
// under the offset are dropped from the result.
func Inset(p geomtypes.Polygon, distanceM float64) (geomtypes.Polygon, error) {
	extPaths, err := offsetRing(p.Exterior, -distanceM)
	if err != nil {
		return geomtypes.Polygon{}, err
	}
	if len(extPaths) == 0 {
		return geomtypes.Polygon{}, errs.ErrInconsistentGeometry
	}

	out := geomtypes.Polygon{Exterior: largestRing(extPaths)}

	for _, h := range p.Holes {
		// Holes are offset with the opposite sign, so a hole grows
		// outward by the same distance the exterior shrinks inward.
		holePaths, err := offsetRing(h, distanceM)
		if err != nil {
			continue
		}
		for _, hp := range holePaths {
			out.Holes = append(out.Holes, hp)
		}
	}
	return out, nil
}

// offsetRing runs clipper2's path offsetting on a single ring and
// returns the resulting rings converted back to float coordinates.
func offsetRing(r geomtypes.Ring, delta float64) ([]geomtypes.Ring, error) {
	path := toPath64(r)
	if len(path) < 3 {
		return nil, errs.ErrInconsistentGeometry
	}
	solution := clipper.InflatePaths(
		clipper.Paths64{path},
		delta*clipperScale,
		clipper.Miter,
		clipper.ClosedPolygon,
		clipper.OffsetOptions{MiterLimit: 2, ArcTolerance: 0.25},
	)
	rings := make([]geomtypes.Ring, 0, len(solution))
	for _, p := range solution {
		rings = append(rings, fromPath64(p))
	}
	return rings, nil
}

func toPath64(r geomtypes.Ring) clipper.Path64 {
	pts := []geomtypes.Point(r)
	if r.Closed() && len(pts) > 1 {
		pts = pts[:len(pts)-1]
	}
	path := make(clipper.Path64, len(pts))
	for i, p := range pts {
		path[i] = clipper.Point64{X: int64(p.X * clipperScale), Y: int64(p.Y * clipperScale)}
	}
	return path
}

func fromPath64(path clipper.Path64) geomtypes.Ring {
	ring := make(geomtypes.Ring, 0, len(path)+1)
	for _, pt := range path {
		ring = append(ring, geomtypes.Point{
			X: float64(pt.X) / clipperScale,
			Y: float64(pt.Y) / clipperScale,
		})
	}
	return ring.Close()
}

func largestRing(rings []geomtypes.Ring) geomtypes.Ring {
	best := rings[0]
	bestArea := best.Area()
	for _, r := range rings[1:] {
		if a := r.Area(); a > bestArea {
			best, bestArea = r, a
		}
	}
	return best
}

// NestingLip insets every layer in a stack except the bottommost by
// lipM, so that printing the stack bottom-first leaves each upper
// layer's footprint seated inside a shallow shoulder on the layer
// below it. Layers are assumed ordered bottom to top.
func NestingLip(layers [][]geomtypes.Polygon, lipM float64) ([][]geomtypes.Polygon, error) {
	if lipM <= 0 || len(layers) < 2 {
		return layers, nil
	}
	out := make([][]geomtypes.Polygon, len(layers))
	out[0] = layers[0]
	for i := 1; i < len(layers); i++ {
		insetPolys := make([]geomtypes.Polygon, 0, len(layers[i]))
		for _, poly := range layers[i] {
			inset, err := Inset(poly, lipM)
			if err != nil {
				insetPolys = append(insetPolys, poly)
				continue
			}
			insetPolys = append(insetPolys, inset)
		}
		out[i] = insetPolys
	}
	return out, nil
}
