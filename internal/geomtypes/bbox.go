package geomtypes

import "fmt"

// BoundingBox is (min_x, min_y, max_x, max_y) in either geographic
// degrees or projected meters depending on the pipeline stage; it
// carries no unit tag, matching spec — the consumer must know which
// stage produced it. Adapted from the teacher's WGS84 tile
// BoundingBox, generalized beyond lon/lat.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBoundingBox builds a box from two corner points, normalizing
// min/max regardless of argument order.
func NewBoundingBox(a, b Point) BoundingBox {
	bb := BoundingBox{MinX: a.X, MinY: a.Y, MaxX: a.X, MaxY: a.Y}
	return bb.ExpandPoint(b)
}

// String renders a human-readable representation.
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(%.6f,%.6f,%.6f,%.6f)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Width returns MaxX-MinX.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY-MinY.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point {
	return Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Empty reports whether the box has non-positive width or height.
func (b BoundingBox) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// ExpandPoint returns a box grown to include p.
func (b BoundingBox) ExpandPoint(p Point) BoundingBox {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return b.ExpandPoint(Point{o.MinX, o.MinY}).ExpandPoint(Point{o.MaxX, o.MaxY})
}

// Contains reports whether p lies within the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Intersects reports whether b and o overlap.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}
