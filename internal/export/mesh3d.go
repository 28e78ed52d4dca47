package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/mhacking/topogen/internal/geomtypes"
)

// writeSTL emits a binary STL: an 80-byte header, a uint32 triangle
// count, then 50 bytes per triangle (normal + 3 vertices + attribute
// byte count), scaled by the 3D factor per spec.md §4.9.
func writeSTL(path string, m geomtypes.Mesh, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: create: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var header [80]byte
	copy(header[:], "topogen contour relief")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	sx, sy, sz := scaleOf(opts)

	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return err
	}
	for _, face := range m.Faces {
		a := scaleVertex(m.Vertices[face.A], sx, sy, sz)
		b := scaleVertex(m.Vertices[face.B], sx, sy, sz)
		c := scaleVertex(m.Vertices[face.C], sx, sy, sz)
		n := triangleNormal(a, b, c)

		if err := writeVec(w, n); err != nil {
			return err
		}
		for _, v := range [3]geomtypes.Vertex{a, b, c} {
			if err := writeVec(w, v); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeOBJ emits a text Wavefront OBJ: "v" lines for vertices, "f"
// lines for 1-indexed triangle faces.
func writeOBJ(path string, m geomtypes.Mesh, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("obj: create: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	sx, sy, sz := scaleOf(opts)

	fmt.Fprintln(w, "# topogen contour relief mesh")
	for _, v := range m.Vertices {
		sv := scaleVertex(v, sx, sy, sz)
		fmt.Fprintf(w, "v %.6f %.6f %.6f\n", sv.X, sv.Y, sv.Z)
	}
	for _, face := range m.Faces {
		fmt.Fprintf(w, "f %d %d %d\n", face.A+1, face.B+1, face.C+1)
	}
	return w.Flush()
}

// writePLY emits an ASCII PLY with per-vertex position and, when a
// color scheme is configured, per-vertex RGB derived from the
// elevation color map (spec.md §4.9's "optionally include per-vertex
// color").
func writePLY(path string, m geomtypes.Mesh, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ply: create: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	sx, sy, sz := scaleOf(opts)
	hasColor := opts.GlobalMaxElevM > opts.GlobalMinElevM

	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format ascii 1.0")
	fmt.Fprintf(w, "element vertex %d\n", len(m.Vertices))
	fmt.Fprintln(w, "property float x")
	fmt.Fprintln(w, "property float y")
	fmt.Fprintln(w, "property float z")
	if hasColor {
		fmt.Fprintln(w, "property uchar red")
		fmt.Fprintln(w, "property uchar green")
		fmt.Fprintln(w, "property uchar blue")
	}
	fmt.Fprintf(w, "element face %d\n", len(m.Faces))
	fmt.Fprintln(w, "property list uchar int vertex_indices")
	fmt.Fprintln(w, "end_header")

	for _, v := range m.Vertices {
		sv := scaleVertex(v, sx, sy, sz)
		if hasColor {
			t := (v.Z - opts.GlobalMinElevM) / (opts.GlobalMaxElevM - opts.GlobalMinElevM)
			r, g, b := elevationRGB(t)
			fmt.Fprintf(w, "%.6f %.6f %.6f %d %d %d\n", sv.X, sv.Y, sv.Z, r, g, b)
		} else {
			fmt.Fprintf(w, "%.6f %.6f %.6f\n", sv.X, sv.Y, sv.Z)
		}
	}
	for _, face := range m.Faces {
		fmt.Fprintf(w, "3 %d %d %d\n", face.A, face.B, face.C)
	}
	return w.Flush()
}

func scaleOf(opts Options) (float64, float64, float64) {
	sxy := opts.ScaleFactorXY
	if sxy <= 0 {
		sxy = 1
	}
	return sxy, sxy, sxy
}

func scaleVertex(v geomtypes.Vertex, sx, sy, sz float64) geomtypes.Vertex {
	return geomtypes.Vertex{X: v.X * sx, Y: v.Y * sy, Z: v.Z * sz}
}

func writeVec(w *bufio.Writer, v geomtypes.Vertex) error {
	for _, f32 := range [3]float32{float32(v.X), float32(v.Y), float32(v.Z)} {
		if err := binary.Write(w, binary.LittleEndian, f32); err != nil {
			return err
		}
	}
	return nil
}

func triangleNormal(a, b, c geomtypes.Vertex) geomtypes.Vertex {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if length == 0 {
		return geomtypes.Vertex{}
	}
	return geomtypes.Vertex{X: nx / length, Y: ny / length, Z: nz / length}
}

// elevationRGB maps t in [0,1] to a PLY vertex color through a fixed
// green-brown-white ramp; it does not use the Terrain scheme's stops,
// so vertex colors differ from the PNG/SVG renders.
func elevationRGB(t float64) (r, g, b uint8) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	// Simple green-to-brown-to-white ramp independent of the raster
	// package's stop tables, since mesh emission has no dependency on
	// internal/raster.
	switch {
	case t < 0.5:
		u := t / 0.5
		return lerp(34, 139, u), lerp(139, 90, u), lerp(34, 43, u)
	default:
		u := (t - 0.5) / 0.5
		return lerp(139, 255, u), lerp(90, 255, u), lerp(43, 255, u)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
