// Package mesh implements MeshBuilder: turning a stack of per-layer
// polygons into a 3D triangle mesh, either as vertical-sided prismatic
// relief bands between layer z-bounds, or as a terrain-following
// draped surface sampled directly from the elevation grid.
package mesh

import (
	"github.com/mhacking/topogen/internal/errs"
	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/grid"
)

// Quality selects the lattice resolution used by terrain-following
// meshing; prismatic extrusion is unaffected since its vertex count is
// governed by the polygon's own vertex count.
type Quality int

const (
	Draft Quality = iota
	Medium
	High
	Ultra
)

// cellSizeM returns the terrain-following sampling lattice spacing in
// meters for each quality preset.
func (q Quality) cellSizeM() float64 {
	switch q {
	case Draft:
		return 4.0
	case Medium:
		return 2.0
	case High:
		return 1.0
	case Ultra:
		return 0.5
	default:
		return 2.0
	}
}

// ExtrudePrism builds a vertical-sided solid between baseZ and topZ for
// every polygon of a single layer: a flat top cap at topZ, a flat
// bottom cap at baseZ, and quad side walls following the exterior and
// every hole boundary. The result is watertight as long as the input
// polygons satisfy geomtypes.Polygon.Valid.
func ExtrudePrism(polys []geomtypes.Polygon, baseZ, topZ float64) (geomtypes.Mesh, error) {
	if topZ <= baseZ {
		return geomtypes.Mesh{}, errs.ErrMeshInvalid
	}
	var out geomtypes.Mesh
	for _, p := range polys {
		m, err := extrudeOne(p, baseZ, topZ)
		if err != nil {
			return geomtypes.Mesh{}, err
		}
		out.Merge(m)
	}
	return out, nil
}

func extrudeOne(p geomtypes.Polygon, baseZ, topZ float64) (geomtypes.Mesh, error) {
	if !p.Valid() {
		return geomtypes.Mesh{}, errs.ErrMeshInvalid
	}
	var m geomtypes.Mesh

	topFaces, err := triangulate(p)
	if err != nil {
		return geomtypes.Mesh{}, err
	}

	rings := append([]geomtypes.Ring{p.Exterior}, p.Holes...)
	flat := flattenRings(rings)

	topIdx := make([]int, len(flat))
	botIdx := make([]int, len(flat))
	for i, pt := range flat {
		topIdx[i] = m.AddVertex(geomtypes.Vertex{X: pt.X, Y: pt.Y, Z: topZ})
	}
	for i, pt := range flat {
		botIdx[i] = m.AddVertex(geomtypes.Vertex{X: pt.X, Y: pt.Y, Z: baseZ})
	}

	for _, f := range topFaces {
		m.AddFace(topIdx[f.A], topIdx[f.B], topIdx[f.C])
	}
	for _, f := range topFaces {
		// Reverse winding for the downward-facing bottom cap.
		m.AddFace(botIdx[f.A], botIdx[f.C], botIdx[f.B])
	}

	offset := 0
	for _, r := range rings {
		n := len(r)
		if r.Closed() {
			n--
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			a, b := offset+i, offset+j
			m.AddFace(topIdx[a], botIdx[a], botIdx[b])
			m.AddFace(topIdx[a], botIdx[b], topIdx[b])
		}
		offset += n
	}

	return m, nil
}

// DrapeTerrain samples the elevation grid over a regular lattice
// clipped to each polygon's bounding box and restricted to points
// inside the polygon, producing a surface mesh following the terrain
// rather than a flat cap, with a vertical skirt down to baseZ along
// the polygon boundary.
func DrapeTerrain(g *grid.Grid, polys []geomtypes.Polygon, baseZ float64, q Quality) (geomtypes.Mesh, error) {
	var out geomtypes.Mesh
	cell := q.cellSizeM()
	if cell <= 0 {
		return geomtypes.Mesh{}, errs.ErrMeshInvalid
	}

	for _, p := range polys {
		m, err := drapeOne(g, p, baseZ, cell)
		if err != nil {
			return geomtypes.Mesh{}, err
		}
		out.Merge(m)
	}
	return out, nil
}

func drapeOne(g *grid.Grid, p geomtypes.Polygon, baseZ, cell float64) (geomtypes.Mesh, error) {
	if !p.Valid() {
		return geomtypes.Mesh{}, errs.ErrMeshInvalid
	}
	bb := p.Bounds()
	nx := int((bb.Width())/cell) + 2
	ny := int((bb.Height())/cell) + 2
	if nx < 2 || ny < 2 {
		return extrudeOne(p, baseZ, baseZ+cell)
	}

	var m geomtypes.Mesh
	idx := make([][]int, ny)
	for j := range idx {
		idx[j] = make([]int, nx)
		for i := range idx[j] {
			idx[j][i] = -1
		}
	}

	sample := func(i, j int) (geomtypes.Point, bool) {
		x := bb.MinX + float64(i)*cell
		y := bb.MinY + float64(j)*cell
		pt := geomtypes.Point{X: x, Y: y}
		if !p.ContainsPoint(pt) {
			return pt, false
		}
		col, row := geoToGridApprox(g, x, y)
		z := float64(g.SampleBilinear(col, row))
		idx[j][i] = m.AddVertex(geomtypes.Vertex{X: x, Y: y, Z: z})
		return pt, true
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			sample(i, j)
		}
	}

	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			a, b, c, d := idx[j][i], idx[j][i+1], idx[j+1][i+1], idx[j+1][i]
			if a < 0 || b < 0 || c < 0 || d < 0 {
				continue
			}
			m.AddFace(a, b, c)
			m.AddFace(a, c, d)
		}
	}

	skirt, err := skirtMesh(p, baseZ, &m, func(pt geomtypes.Point) float64 {
		col, row := geoToGridApprox(g, pt.X, pt.Y)
		return float64(g.SampleBilinear(col, row))
	})
	if err != nil {
		return geomtypes.Mesh{}, err
	}
	m.Merge(skirt)

	return m, nil
}

// geoToGridApprox inverts a north-up, shear-free geotransform to
// recover fractional (col, row) for bilinear sampling. Non-north-up
// transforms are not supported by terrain-following draping.
func geoToGridApprox(g *grid.Grid, x, y float64) (col, row float64) {
	gt := g.Transform
	if gt[1] == 0 || gt[5] == 0 {
		return 0, 0
	}
	col = (x - gt[0]) / gt[1]
	row = (y - gt[3]) / gt[5]
	return
}

// skirtMesh builds the vertical wall from each boundary ring's drape
// height down to baseZ, closing the terrain-following surface.
func skirtMesh(p geomtypes.Polygon, baseZ float64, built *geomtypes.Mesh, elevAt func(geomtypes.Point) float64) (geomtypes.Mesh, error) {
	var m geomtypes.Mesh
	rings := append([]geomtypes.Ring{p.Exterior}, p.Holes...)
	for _, r := range rings {
		n := len(r)
		if r.Closed() {
			n--
		}
		topIdx := make([]int, n)
		botIdx := make([]int, n)
		for i := 0; i < n; i++ {
			pt := r[i]
			z := elevAt(pt)
			topIdx[i] = m.AddVertex(geomtypes.Vertex{X: pt.X, Y: pt.Y, Z: z})
			botIdx[i] = m.AddVertex(geomtypes.Vertex{X: pt.X, Y: pt.Y, Z: baseZ})
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			m.AddFace(topIdx[i], botIdx[i], botIdx[j])
			m.AddFace(topIdx[i], botIdx[j], topIdx[j])
		}
	}
	return m, nil
}

// Validate reports whether a mesh is combinatorially manifold: every
// edge is shared by exactly two triangles (watertight, no cracks). It
// does not check for self-intersection or degenerate triangles.
func Validate(m geomtypes.Mesh) error {
	type edgeKey struct{ a, b int }
	canon := func(a, b int) edgeKey {
		if a > b {
			a, b = b, a
		}
		return edgeKey{a, b}
	}
	count := make(map[edgeKey]int)
	for _, f := range m.Faces {
		count[canon(f.A, f.B)]++
		count[canon(f.B, f.C)]++
		count[canon(f.C, f.A)]++
	}
	for _, c := range count {
		if c != 2 {
			return errs.ErrMeshInvalid
		}
	}
	return nil
}
