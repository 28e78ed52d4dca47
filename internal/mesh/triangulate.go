package mesh

import (
	"github.com/mhacking/topogen/internal/errs"
	"github.com/mhacking/topogen/internal/geomtypes"
)

// flattenRings concatenates the open (non-closing-duplicate) vertices
// of every ring in order, giving the index layout shared by
// triangulate's face indices and extrudeOne's per-ring top/bottom
// vertex allocation.
func flattenRings(rings []geomtypes.Ring) []geomtypes.Point {
	var out []geomtypes.Point
	for _, r := range rings {
		n := len(r)
		if r.Closed() {
			n--
		}
		out = append(out, []geomtypes.Point(r)[:n]...)
	}
	return out
}

// triangulate produces a triangle fan covering a polygon with holes by
// bridging each hole to the exterior with a zero-width seam (the
// standard technique turning a multiply-connected polygon into a
// simple one), then ear-clipping the result. Face indices reference
// the same flattened [exterior..., hole0..., hole1...] vertex order
// used by flattenRings, so callers can share one vertex buffer between
// the top and bottom caps.
func triangulate(p geomtypes.Polygon) ([]geomtypes.Face, error) {
	rings := append([]geomtypes.Ring{p.Exterior}, p.Holes...)
	offsets := make([]int, len(rings))
	offset := 0
	for i, r := range rings {
		offsets[i] = offset
		n := len(r)
		if r.Closed() {
			n--
		}
		offset += n
	}

	pts := flattenRings(rings)
	loop, err := bridgeHoles(rings, offsets)
	if err != nil {
		return nil, err
	}

	faces, err := earClip(pts, loop)
	if err != nil {
		return nil, err
	}
	return faces, nil
}

// bridgeHoles returns a single index loop (into the flattened vertex
// buffer) visiting the exterior and splicing in each hole at its
// nearest exterior vertex, connected by a pair of coincident-looking
// bridge edges so ear-clipping can treat the whole thing as simple.
func bridgeHoles(rings []geomtypes.Ring, offsets []int) ([]int, error) {
	ext := rings[0]
	n := len(ext)
	if ext.Closed() {
		n--
	}
	loop := make([]int, n)
	for i := range loop {
		loop[i] = i
	}

	for hi := 1; hi < len(rings); hi++ {
		hole := rings[hi]
		hn := len(hole)
		if hole.Closed() {
			hn--
		}
		if hn < 3 {
			return nil, errs.ErrMeshInvalid
		}

		// Find the exterior-loop position and hole vertex minimizing
		// bridge length.
		bestLoopPos, bestHoleIdx := 0, 0
		bestDist := -1.0
		for lp, extIdx := range loop {
			ep := pointAt(rings, extIdx, offsets)
			for hidx := 0; hidx < hn; hidx++ {
				hp := hole[hidx]
				d := ep.Dist(hp)
				if bestDist < 0 || d < bestDist {
					bestDist = d
					bestLoopPos = lp
					bestHoleIdx = hidx
				}
			}
		}

		holeLoop := make([]int, 0, hn+1)
		for k := 0; k <= hn; k++ {
			holeLoop = append(holeLoop, offsets[hi]+(bestHoleIdx+k)%hn)
		}

		bridgePoint := loop[bestLoopPos]
		newLoop := make([]int, 0, len(loop)+len(holeLoop)+2)
		newLoop = append(newLoop, loop[:bestLoopPos+1]...)
		newLoop = append(newLoop, holeLoop...)
		newLoop = append(newLoop, bridgePoint)
		newLoop = append(newLoop, loop[bestLoopPos+1:]...)
		loop = newLoop
	}

	return loop, nil
}

func pointAt(rings []geomtypes.Ring, flatIdx int, offsets []int) geomtypes.Point {
	for i := len(offsets) - 1; i >= 0; i-- {
		if flatIdx >= offsets[i] {
			local := flatIdx - offsets[i]
			return rings[i][local]
		}
	}
	return geomtypes.Point{}
}

// earClip triangulates a simple polygon (given as a loop of indices
// into pts) via repeated ear removal. O(n^2); adequate for the vertex
// counts produced after simplification.
func earClip(pts []geomtypes.Point, loop []int) ([]geomtypes.Face, error) {
	remaining := append([]int(nil), loop...)
	var faces []geomtypes.Face

	guard := 0
	maxIter := len(remaining) * len(remaining) * 2
	for len(remaining) > 3 {
		guard++
		if guard > maxIter+16 {
			return nil, errs.ErrMeshInvalid
		}
		earFound := false
		for i := 0; i < len(remaining); i++ {
			prev := remaining[(i-1+len(remaining))%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]

			if !isConvex(pts[prev], pts[cur], pts[next]) {
				continue
			}
			if triangleContainsAny(pts, prev, cur, next, remaining) {
				continue
			}

			faces = append(faces, geomtypes.Face{A: prev, B: cur, C: next})
			remaining = append(remaining[:i], remaining[i+1:]...)
			earFound = true
			break
		}
		if !earFound {
			// Degenerate/self-intersecting input; close out with a
			// fan from the first remaining vertex rather than failing
			// the whole mesh.
			break
		}
	}

	if len(remaining) >= 3 {
		for i := 1; i < len(remaining)-1; i++ {
			faces = append(faces, geomtypes.Face{A: remaining[0], B: remaining[i], C: remaining[i+1]})
		}
	}

	return faces, nil
}

func isConvex(a, b, c geomtypes.Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return cross > 0
}

func triangleContainsAny(pts []geomtypes.Point, ia, ib, ic int, loop []int) bool {
	a, b, c := pts[ia], pts[ib], pts[ic]
	for _, idx := range loop {
		if idx == ia || idx == ib || idx == ic {
			continue
		}
		if pointInTriangle(pts[idx], a, b, c) {
			return true
		}
	}
	return false
}

func pointInTriangle(p, a, b, c geomtypes.Point) bool {
	sign := func(p1, p2, p3 geomtypes.Point) float64 {
		return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
	}
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
