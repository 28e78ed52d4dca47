// Package geomtypes implements the pure value types shared by every stage
// of the contour pipeline: 2D points, rings, polygons-with-holes,
// bounding boxes, and the 3D mesh vertex/face representation. Types here
// carry geometric predicates (area, containment, orientation) but no
// I/O or format-specific behavior — that belongs to internal/export.
package geomtypes

import "math"

// Point is a 2D coordinate. Depending on the pipeline stage it holds
// either geographic degrees or projected meters; callers must track
// which via the surrounding type (BoundingBox carries the same
// ambiguity, per spec).
type Point struct {
	X, Y float64
}

// Vertex is a 3D mesh vertex in meters, pre-scale.
type Vertex struct {
	X, Y, Z float64
}

// Sub returns a-b.
func (a Point) Sub(b Point) Point { return Point{a.X - b.X, a.Y - b.Y} }

// Add returns a+b.
func (a Point) Add(b Point) Point { return Point{a.X + b.X, a.Y + b.Y} }

// Scale returns a scaled by s.
func (a Point) Scale(s float64) Point { return Point{a.X * s, a.Y * s} }

// Dist returns the Euclidean distance between a and b.
func (a Point) Dist(b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Equal reports whether a and b are within tol of each other.
func (a Point) Equal(b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Normal returns the unit normal of the directed segment a->b, rotated
// 90 degrees clockwise (i.e. to the right of travel). For a
// counter-clockwise exterior ring this points outward; negate it for
// inward offsets.
func (a Point) Normal(b Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Point{}
	}
	return Point{dy / length, -dx / length}
}
