// Package contour implements ContourExtractor: tracing closed,
// oriented, hole-bearing polygons from a sampled elevation grid at a
// set of target levels, using an in-tree marching-squares tracer
// (spec §4.2 permits delegating level-set tracing to an external
// library; this implementation satisfies the same contract in-tree).
package contour

import (
	"fmt"
	"sort"

	"github.com/mhacking/topogen/internal/errs"
	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/grid"
)

// Layer is one planned elevation band's extracted geometry.
type Layer struct {
	Elevation  float64
	LevelIndex int
	Polygons   []geomtypes.Polygon
	Area       float64
	IsClosed   bool
}

// Options controls extraction.
type Options struct {
	// OuterBoundariesOnly discards holes produced by odd-depth nesting,
	// keeping only even-depth (exterior) rings.
	OuterBoundariesOnly bool
}

// pointKey quantizes a grid-space point to a hashable key so that
// crossing points computed identically by neighboring cells (which
// share the same corner values and interpolation formula) collide.
type pointKey struct {
	c, r int64
}

const quantScale = 1e6

func keyOf(p geomtypes.Point) pointKey {
	return pointKey{int64(p.X * quantScale), int64(p.Y * quantScale)}
}

type segment struct {
	a, b geomtypes.Point
}

// Extract produces one Layer per requested level. Each layer's polygon
// interiors satisfy elevation(x,y) >= level (within grid resolution).
func Extract(g *grid.Grid, levels []float64, opts Options) ([]Layer, error) {
	if g == nil || g.Width < 2 || g.Height < 2 {
		return nil, errs.ErrNoElevationData
	}

	out := make([]Layer, 0, len(levels))
	for idx, level := range levels {
		rings, err := traceLevel(g, level)
		if err != nil {
			return nil, fmt.Errorf("level %v: %w", level, err)
		}
		polys := polygonize(rings, opts.OuterBoundariesOnly)

		area := 0.0
		for _, p := range polys {
			area += p.Area()
		}

		out = append(out, Layer{
			Elevation:  level,
			LevelIndex: idx,
			Polygons:   polys,
			Area:       area,
			IsClosed:   true,
		})
	}
	return out, nil
}

// traceLevel runs marching squares over every grid cell at the given
// threshold and assembles the resulting edge crossings into closed
// rings in grid-space (fractional column/row), already mapped to
// geographic coordinates via the grid's geotransform.
func traceLevel(g *grid.Grid, level float64) ([]geomtypes.Ring, error) {
	var segs []segment

	for row := 0; row < g.Height-1; row++ {
		for col := 0; col < g.Width-1; col++ {
			tl := float64(g.At(col, row))
			tr := float64(g.At(col+1, row))
			br := float64(g.At(col+1, row+1))
			bl := float64(g.At(col, row+1))

			segs = append(segs, cellSegments(col, row, tl, tr, br, bl, level)...)
		}
	}

	rings, openChains := assembleChains(segs)
	rings = append(rings, closeBoundaryChains(g, level, openChains)...)

	// No contour reaches the grid edge, so the whole edge lies on one
	// side of the level; if that side is at or above it, the grid
	// boundary itself encloses the region.
	if len(openChains) == 0 && float64(g.At(0, 0)) >= level {
		w, h := float64(g.Width-1), float64(g.Height-1)
		rings = append(rings, geomtypes.Ring{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}, {X: 0, Y: 0}})
	}

	// Map grid-space (col, row) to geographic coordinates.
	geoRings := make([]geomtypes.Ring, 0, len(rings))
	for _, r := range rings {
		if r.Degenerate() {
			continue // discard small degenerate rings (plateau artifacts)
		}
		geo := make(geomtypes.Ring, len(r))
		for i, p := range r {
			x, y := g.Transform.ToGeo(p.X, p.Y)
			geo[i] = geomtypes.Point{X: x, Y: y}
		}
		geoRings = append(geoRings, geo)
	}
	return geoRings, nil
}

// edge names for cell boundary crossing points.
const (
	edgeN = iota // between TL and TR (top)
	edgeE        // between TR and BR (right)
	edgeS        // between BL and BR (bottom)
	edgeW        // between TL and BL (left)
)

func edgePoint(col, row int, which int, tl, tr, br, bl float64, level float64) geomtypes.Point {
	lerp := func(v0, v1 float64) float64 {
		if v1 == v0 {
			return 0.5
		}
		t := (level - v0) / (v1 - v0)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		return t
	}
	cf, rf := float64(col), float64(row)
	switch which {
	case edgeN:
		t := lerp(tl, tr)
		return geomtypes.Point{X: cf + t, Y: rf}
	case edgeE:
		t := lerp(tr, br)
		return geomtypes.Point{X: cf + 1, Y: rf + t}
	case edgeS:
		t := lerp(bl, br)
		return geomtypes.Point{X: cf + t, Y: rf + 1}
	case edgeW:
		t := lerp(tl, bl)
		return geomtypes.Point{X: cf, Y: rf + t}
	}
	panic("unreachable edge")
}

// cellSegments returns the marching-squares line segments for one
// cell, given its four corner elevations and the threshold level.
// Corner/edge naming: TL/TR/BR/BL corners, N/E/S/W edges between them.
func cellSegments(col, row int, tl, tr, br, bl, level float64) []segment {
	bit := func(v float64) int {
		if v >= level {
			return 1
		}
		return 0
	}
	caseIdx := bit(tl)<<3 | bit(tr)<<2 | bit(br)<<1 | bit(bl)

	pt := func(which int) geomtypes.Point {
		return edgePoint(col, row, which, tl, tr, br, bl, level)
	}

	seg := func(e0, e1 int) segment {
		return segment{pt(e0), pt(e1)}
	}

	switch caseIdx {
	case 0, 15:
		return nil
	case 1:
		return []segment{seg(edgeW, edgeS)}
	case 2:
		return []segment{seg(edgeS, edgeE)}
	case 3:
		return []segment{seg(edgeW, edgeE)}
	case 4:
		return []segment{seg(edgeN, edgeE)}
	case 10:
		// Saddle: TL,BR inside; TR,BL outside. Disambiguate via the
		// average of the four corners (asymptotic decider).
		if (tl+tr+br+bl)/4 >= level {
			return []segment{seg(edgeN, edgeE), seg(edgeW, edgeS)}
		}
		return []segment{seg(edgeW, edgeN), seg(edgeS, edgeE)}
	case 6:
		return []segment{seg(edgeN, edgeS)}
	case 7:
		return []segment{seg(edgeW, edgeN)}
	case 8:
		return []segment{seg(edgeW, edgeN)}
	case 9:
		return []segment{seg(edgeN, edgeS)}
	case 5:
		// Saddle: TR,BL inside; TL,BR outside.
		if (tl+tr+br+bl)/4 >= level {
			return []segment{seg(edgeW, edgeN), seg(edgeS, edgeE)}
		}
		return []segment{seg(edgeN, edgeE), seg(edgeW, edgeS)}
	case 11:
		return []segment{seg(edgeN, edgeE)}
	case 12:
		return []segment{seg(edgeW, edgeE)}
	case 13:
		return []segment{seg(edgeS, edgeE)}
	case 14:
		return []segment{seg(edgeW, edgeS)}
	}
	return nil
}

// assembleChains links segments sharing an endpoint into polylines.
// Closed loops become rings directly; chains that never close (because
// they run off the edge of the grid) are returned separately for
// boundary closure.
func assembleChains(segs []segment) (rings []geomtypes.Ring, openChains [][]geomtypes.Point) {
	type endpoint struct {
		segIdx int
		isA    bool
	}
	byPoint := make(map[pointKey][]endpoint)
	for i, s := range segs {
		byPoint[keyOf(s.a)] = append(byPoint[keyOf(s.a)], endpoint{i, true})
		byPoint[keyOf(s.b)] = append(byPoint[keyOf(s.b)], endpoint{i, false})
	}

	used := make([]bool, len(segs))

	nextFrom := func(p geomtypes.Point, excludeSeg int) (geomtypes.Point, int, bool) {
		for _, ep := range byPoint[keyOf(p)] {
			if ep.segIdx == excludeSeg || used[ep.segIdx] {
				continue
			}
			used[ep.segIdx] = true
			s := segs[ep.segIdx]
			if ep.isA {
				return s.b, ep.segIdx, true
			}
			return s.a, ep.segIdx, true
		}
		return geomtypes.Point{}, -1, false
	}

	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []geomtypes.Point{segs[i].a, segs[i].b}
		current := segs[i].b
		lastSeg := i
		closed := false
		for {
			next, segIdx, ok := nextFrom(current, lastSeg)
			if !ok {
				break
			}
			chain = append(chain, next)
			current = next
			lastSeg = segIdx
			if keyOf(current) == keyOf(chain[0]) {
				closed = true
				break
			}
		}
		if !closed {
			// Extend backward from the first point too, so an open
			// polyline is kept whole from one grid-edge end to the other.
			current, lastSeg = chain[0], i
			for {
				prev, segIdx, ok := nextFrom(current, lastSeg)
				if !ok {
					break
				}
				chain = append([]geomtypes.Point{prev}, chain...)
				current, lastSeg = prev, segIdx
			}
		}
		if closed && len(chain) >= 4 {
			rings = append(rings, geomtypes.Ring(chain))
		} else {
			openChains = append(openChains, chain)
		}
	}
	return rings, openChains
}

// closeBoundaryChains pairs up open chains whose endpoints lie on the
// grid's outer edge and closes them by walking along the boundary
// between the exit and entry points, per spec §4.2's grid-boundary
// edge case. Chains are paired by nearest-boundary-position greedy
// matching.
func closeBoundaryChains(g *grid.Grid, level float64, chains [][]geomtypes.Point) []geomtypes.Ring {
	if len(chains) == 0 {
		return nil
	}
	perimeter := 2 * float64(g.Width-1+g.Height-1)

	type endRef struct {
		chainIdx int
		atStart  bool
		s        float64
	}
	var ends []endRef
	for i, c := range chains {
		ends = append(ends, endRef{i, true, boundaryParam(g, c[0])})
		ends = append(ends, endRef{i, false, boundaryParam(g, c[len(c)-1])})
	}
	sort.Slice(ends, func(i, j int) bool { return ends[i].s < ends[j].s })

	used := make([]bool, len(chains))
	var rings []geomtypes.Ring

	for _, e := range ends {
		if used[e.chainIdx] {
			continue
		}
		// Find the nearest other unused endpoint along the boundary.
		var best *endRef
		bestDist := perimeter + 1
		for i := range ends {
			o := ends[i]
			if o.chainIdx == e.chainIdx || used[o.chainIdx] {
				continue
			}
			d := boundaryArcLength(e.s, o.s, perimeter)
			if d < bestDist {
				bestDist = d
				oc := o
				best = &oc
			}
		}
		if best == nil {
			continue
		}

		used[e.chainIdx] = true
		used[best.chainIdx] = true

		a := chains[e.chainIdx]
		b := chains[best.chainIdx]
		if !e.atStart {
			a = reversePoints(a)
		}
		if best.atStart {
			b = reversePoints(b)
		}

		ring := append([]geomtypes.Point{}, a...)
		ring = append(ring, boundaryWalk(g, boundaryParam(g, a[len(a)-1]), boundaryParam(g, b[0]))...)
		ring = append(ring, b...)
		ring = append(ring, ring[0])
		rings = append(rings, geomtypes.Ring(ring))
	}
	return rings
}

func reversePoints(p []geomtypes.Point) []geomtypes.Point {
	out := make([]geomtypes.Point, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// boundaryParam maps a point known to lie on the grid's outer edge to
// a 1D parameter in [0, perimeter) walking clockwise from (0,0).
func boundaryParam(g *grid.Grid, p geomtypes.Point) float64 {
	w := float64(g.Width - 1)
	h := float64(g.Height - 1)
	switch {
	case p.Y <= 0.0001:
		return p.X
	case p.X >= w-0.0001:
		return w + p.Y
	case p.Y >= h-0.0001:
		return w + h + (w - p.X)
	default:
		return w + h + w + (h - p.Y)
	}
}

func boundaryArcLength(a, b, perimeter float64) float64 {
	d := b - a
	if d < 0 {
		d += perimeter
	}
	return d
}

// boundaryWalk returns the grid-corner points encountered walking
// clockwise along the boundary from parameter a to parameter b.
func boundaryWalk(g *grid.Grid, a, b float64) []geomtypes.Point {
	w := float64(g.Width - 1)
	h := float64(g.Height - 1)
	perimeter := 2 * (w + h)

	corners := []struct {
		s float64
		p geomtypes.Point
	}{
		{0, geomtypes.Point{X: 0, Y: 0}},
		{w, geomtypes.Point{X: w, Y: 0}},
		{w + h, geomtypes.Point{X: w, Y: h}},
		{w + h + w, geomtypes.Point{X: 0, Y: h}},
	}

	var out []geomtypes.Point
	span := boundaryArcLength(a, b, perimeter)
	for _, c := range corners {
		rel := boundaryArcLength(a, c.s, perimeter)
		if rel > 0 && rel < span {
			out = append(out, c.p)
		}
	}
	return out
}

// polygonize groups traced rings into exterior/hole polygons by
// containment nesting: even nesting depth is exterior, odd is hole
// (spec §4.2 step 2).
func polygonize(rings []geomtypes.Ring, outerOnly bool) []geomtypes.Polygon {
	type node struct {
		ring  geomtypes.Ring
		depth int
	}
	nodes := make([]node, len(rings))
	for i, r := range rings {
		nodes[i] = node{ring: r}
	}

	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			if len(nodes[j].ring) == 0 {
				continue
			}
			if ringContainsRing(nodes[j].ring, nodes[i].ring) {
				nodes[i].depth++
			}
		}
	}

	var exteriors []node
	holesByDepth := make(map[int][]node)
	for _, n := range nodes {
		if n.depth%2 == 0 {
			exteriors = append(exteriors, n)
		} else {
			holesByDepth[n.depth] = append(holesByDepth[n.depth], n)
		}
	}

	polys := make([]geomtypes.Polygon, 0, len(exteriors))
	for _, ext := range exteriors {
		ring := orientRing(ext.ring, true)
		poly := geomtypes.Polygon{Exterior: ring}
		if !outerOnly {
			for depth, holes := range holesByDepth {
				_ = depth
				for _, h := range holes {
					if ringContainsRing(ext.ring, h.ring) && h.depth == ext.depth+1 {
						poly.Holes = append(poly.Holes, orientRing(h.ring, false))
					}
				}
			}
		}
		if ring.Degenerate() {
			continue
		}
		polys = append(polys, poly)
	}
	return polys
}

func ringContainsRing(outer, inner geomtypes.Ring) bool {
	if len(inner) == 0 {
		return false
	}
	// A point safely inside `inner` (its first vertex) tested against
	// `outer` is sufficient for non-self-intersecting contour rings.
	return outer.ContainsPoint(inner[0])
}

// orientRing returns a ring forced to the requested orientation (true
// = CCW/exterior convention, false = CW/hole convention).
func orientRing(r geomtypes.Ring, ccw bool) geomtypes.Ring {
	if r.CCW() == ccw {
		return r
	}
	return r.Reversed()
}
