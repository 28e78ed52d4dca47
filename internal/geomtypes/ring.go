package geomtypes

import "math"

// Ring is an ordered sequence of points with identical first and last
// element (explicitly closed). By convention exterior rings are
// counter-clockwise and holes are clockwise (signed area sign); see
// Orientation. A ring must have at least 4 points once closed (a
// triangle plus its closing point).
type Ring []Point

// Closed reports whether the ring's first and last points coincide.
func (r Ring) Closed() bool {
	if len(r) < 2 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// Close appends the first point to the end if the ring isn't already
// closed. It never mutates the input slice's backing array beyond its
// current length.
func (r Ring) Close() Ring {
	if r.Closed() || len(r) == 0 {
		return r
	}
	out := make(Ring, len(r), len(r)+1)
	copy(out, r)
	return append(out, r[0])
}

// SignedArea computes twice the shoelace-formula area (positive for
// CCW, negative for CW), matching the usual planar polygon convention.
// The ring is treated as closed regardless of whether r.Closed().
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// Area returns the absolute value of SignedArea.
func (r Ring) Area() float64 { return math.Abs(r.SignedArea()) }

// CCW reports whether the ring winds counter-clockwise.
func (r Ring) CCW() bool { return r.SignedArea() > 0 }

// Reversed returns a new ring with point order reversed.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i := range r {
		out[i] = r[len(r)-1-i]
	}
	return out
}

// UniqueVertexCount returns the number of distinct vertices, ignoring
// the closing duplicate, used to detect degenerate rings (plateaus
// collapsing to fewer than 3 unique points).
func (r Ring) UniqueVertexCount() int {
	pts := r
	if r.Closed() && len(r) > 1 {
		pts = r[:len(r)-1]
	}
	seen := make([]Point, 0, len(pts))
	for _, p := range pts {
		dup := false
		for _, s := range seen {
			if s == p {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, p)
		}
	}
	return len(seen)
}

// Degenerate reports whether the ring has fewer than 3 unique vertices
// or fewer than 4 points once closed (spec minimum ring length).
func (r Ring) Degenerate() bool {
	return r.UniqueVertexCount() < 3 || len(r.Close()) < 4
}

// Bounds computes the axis-aligned bounding box of the ring's points.
func (r Ring) Bounds() BoundingBox {
	if len(r) == 0 {
		return BoundingBox{}
	}
	bb := BoundingBox{MinX: r[0].X, MinY: r[0].Y, MaxX: r[0].X, MaxY: r[0].Y}
	for _, p := range r[1:] {
		if p.X < bb.MinX {
			bb.MinX = p.X
		}
		if p.Y < bb.MinY {
			bb.MinY = p.Y
		}
		if p.X > bb.MaxX {
			bb.MaxX = p.X
		}
		if p.Y > bb.MaxY {
			bb.MaxY = p.Y
		}
	}
	return bb
}

// ContainsPoint implements a standard even-odd ray casting test against
// the ring treated as closed. Points exactly on the boundary may return
// either result; callers needing exact boundary semantics should test
// separately.
func (r Ring) ContainsPoint(p Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := r[i].X, r[i].Y
		xj, yj := r[j].X, r[j].Y
		if ((yi > p.Y) != (yj > p.Y)) &&
			(p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// SelfIntersects reports whether any two non-adjacent edges of the
// ring cross. O(n^2); acceptable for the modest vertex counts produced
// by contour tracing and post-simplification.
func (r Ring) SelfIntersects() bool {
	n := len(r)
	if n < 4 {
		return false
	}
	closed := r.Close()
	m := len(closed) - 1
	for i := 0; i < m; i++ {
		a0, a1 := closed[i], closed[i+1]
		for j := i + 1; j < m; j++ {
			if j == i+1 || (i == 0 && j == m-1) {
				continue // adjacent edges share an endpoint, not a crossing
			}
			b0, b1 := closed[j], closed[j+1]
			if segmentsIntersect(a0, a1, b0, b1) {
				return true
			}
		}
	}
	return false
}

func orientation(p, q, r Point) int {
	val := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	switch {
	case val > 0:
		return 1
	case val < 0:
		return 2
	default:
		return 0
	}
}

func onSegment(p, q, r Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// segmentsIntersect reports whether segment p1p2 crosses segment p3p4.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	o1 := orientation(p1, p2, p3)
	o2 := orientation(p1, p2, p4)
	o3 := orientation(p3, p4, p1)
	o4 := orientation(p3, p4, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p3, p2) {
		return true
	}
	if o2 == 0 && onSegment(p1, p4, p2) {
		return true
	}
	if o3 == 0 && onSegment(p3, p1, p4) {
		return true
	}
	if o4 == 0 && onSegment(p3, p2, p4) {
		return true
	}
	return false
}

// PerpendicularDistance returns the distance from p to the line
// through a and b (or to a, if a==b).
func PerpendicularDistance(p, a, b Point) float64 {
	if a == b {
		return p.Dist(a)
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	norm := math.Hypot(dx, dy)
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / norm
}
