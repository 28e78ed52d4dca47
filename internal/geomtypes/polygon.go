package geomtypes

// Polygon is an exterior ring plus zero or more hole rings. Invariants
// (enforced by internal/polygon, not by this type itself):
//   - holes lie strictly inside the exterior
//   - rings do not self-intersect
//   - holes do not overlap each other
//   - signed area of exterior > 0; each hole's signed area > 0 in
//     magnitude but opposite orientation
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// Area returns the polygon's net area: the exterior's area minus the
// area of each hole.
func (p Polygon) Area() float64 {
	area := p.Exterior.Area()
	for _, h := range p.Holes {
		area -= h.Area()
	}
	if area < 0 {
		return 0
	}
	return area
}

// Bounds returns the bounding box of the exterior ring (holes are
// contained within it by invariant).
func (p Polygon) Bounds() BoundingBox {
	return p.Exterior.Bounds()
}

// ContainsPoint reports whether p lies in the polygon's interior: inside
// the exterior and outside every hole.
func (p Polygon) ContainsPoint(pt Point) bool {
	if !p.Exterior.ContainsPoint(pt) {
		return false
	}
	for _, h := range p.Holes {
		if h.ContainsPoint(pt) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers may mutate it (e.g. coordinate
// transforms during emission) without affecting the canonical stack.
func (p Polygon) Clone() Polygon {
	ext := make(Ring, len(p.Exterior))
	copy(ext, p.Exterior)
	holes := make([]Ring, len(p.Holes))
	for i, h := range p.Holes {
		hc := make(Ring, len(h))
		copy(hc, h)
		holes[i] = hc
	}
	return Polygon{Exterior: ext, Holes: holes}
}

// Valid reports whether the polygon satisfies the closure, minimum
// vertex count, and orientation invariants of spec §3. It does not
// check hole containment (an O(n*m) check left to internal/polygon,
// which has the post-processing context to repair or drop violators).
func (p Polygon) Valid() bool {
	if p.Exterior.Degenerate() || !p.Exterior.Closed() {
		return false
	}
	if p.Exterior.SignedArea() <= 0 {
		return false
	}
	for _, h := range p.Holes {
		if h.Degenerate() || !h.Closed() {
			return false
		}
		if h.SignedArea() >= 0 {
			return false
		}
	}
	return true
}

// Mesh is a vertex-and-face structure. Faces are triangles referencing
// three vertex indices into Vertices. No per-face attributes are
// required by the core; emitters may synthesize normals and colors.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face
}

// Face is a triangle referencing three indices into a Mesh's Vertices.
type Face struct {
	A, B, C int
}

// AddVertex appends v and returns its index.
func (m *Mesh) AddVertex(v Vertex) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddFace appends a triangular face referencing existing vertex indices.
func (m *Mesh) AddFace(a, b, c int) {
	m.Faces = append(m.Faces, Face{a, b, c})
}

// Merge appends another mesh's vertices and faces, offsetting face
// indices so they remain valid.
func (m *Mesh) Merge(other Mesh) {
	offset := len(m.Vertices)
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, f := range other.Faces {
		m.Faces = append(m.Faces, Face{f.A + offset, f.B + offset, f.C + offset})
	}
}
