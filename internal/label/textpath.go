package label

import (
	"fmt"
	"math"
	"strings"

	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/polygon"
)

// PathConfig mirrors TextPathConfig.
type PathConfig struct {
	InsetRatio            float64
	MinPathLengthRatio    float64
	SplineSamplePoints    int
	SegmentAngleThreshold float64
	MinSegmentLengthRatio float64
}

func DefaultPathConfig() PathConfig {
	return PathConfig{
		InsetRatio:            0.75,
		MinPathLengthRatio:    0.8,
		SplineSamplePoints:    50,
		SegmentAngleThreshold: 90.0,
		MinSegmentLengthRatio: 0.6,
	}
}

// TextPath is a sampled spline suitable for curved text rendering.
type TextPath struct {
	ControlPoints []geomtypes.Point
	SamplePoints  []geomtypes.Point
	TangentAngles []float64 // degrees
	TotalLength   float64
	SVGPathD      string
}

// TextPathGenerator fits curved text paths to a layer's polygon
// footprint, following original_source's TextPathGenerator.
type TextPathGenerator struct {
	cfg PathConfig
}

func NewTextPathGenerator(cfg PathConfig) *TextPathGenerator {
	return &TextPathGenerator{cfg: cfg}
}

// GeneratePathFromPolygons finds the largest polygon, insets it, picks
// the best boundary segment near (centerX, centerY), fits a
// Catmull-Rom spline to it, and samples the result.
func (g *TextPathGenerator) GeneratePathFromPolygons(polys []geomtypes.Polygon, textWidth, fontHeight, centerX, centerY float64) (TextPath, bool) {
	idx := g.FindLargestPolygon(polys)
	if idx < 0 {
		return TextPath{}, false
	}

	ring := polys[idx].Exterior
	inset, err := polygon.Inset(geomtypes.Polygon{Exterior: ring}, fontHeight*g.cfg.InsetRatio)
	if err == nil && len(inset.Exterior) >= 4 {
		ring = inset.Exterior
	}

	minLength := textWidth * g.cfg.MinPathLengthRatio
	start, end := g.extractBestSegment(ring, minLength, centerX, centerY)
	if start == end {
		return TextPath{}, false
	}

	control := g.fitSplineToSegment(ring, start, end)
	if len(control) < 2 {
		return TextPath{}, false
	}

	samples, tangents := g.sampleSpline(control, g.cfg.SplineSamplePoints)
	length := g.pathLength(samples)

	return TextPath{
		ControlPoints: control,
		SamplePoints:  samples,
		TangentAngles: tangents,
		TotalLength:   length,
		SVGPathD:      g.svgPathD(control),
	}, true
}

// FindLargestPolygon returns the index of the polygon with the
// greatest area, or -1 if polys is empty.
func (g *TextPathGenerator) FindLargestPolygon(polys []geomtypes.Polygon) int {
	best := -1
	bestArea := -1.0
	for i, p := range polys {
		if a := p.Area(); a > bestArea {
			bestArea, best = a, i
		}
	}
	return best
}

func (g *TextPathGenerator) extractBestSegment(ring geomtypes.Ring, minLength, centerX, centerY float64) (int, int) {
	n := len(ring)
	if ring.Closed() {
		n--
	}
	if n < 4 {
		return 0, 0
	}

	target := geomtypes.Point{X: centerX, Y: centerY}
	nearest := 0
	nearestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		if d := ring[i].Dist(target); d < nearestDist {
			nearestDist, nearest = d, i
		}
	}

	// Walk forward from the nearest vertex until accumulated length
	// reaches minLength or we've covered half the ring.
	length := 0.0
	end := nearest
	for steps := 0; steps < n/2; steps++ {
		next := (end + 1) % n
		length += ring[end].Dist(ring[next])
		end = next
		if length >= minLength {
			break
		}
	}
	if end == nearest {
		end = (nearest + n/2) % n
	}
	return nearest, end
}

func (g *TextPathGenerator) fitSplineToSegment(ring geomtypes.Ring, start, end int) []geomtypes.Point {
	n := len(ring)
	if ring.Closed() {
		n--
	}
	var pts []geomtypes.Point
	i := start
	for {
		pts = append(pts, ring[i])
		if i == end {
			break
		}
		i = (i + 1) % n
	}
	return pts
}

// sampleSpline evaluates a Catmull-Rom spline through control and
// returns numSamples evenly-spaced points plus the tangent angle in
// degrees at each.
func (g *TextPathGenerator) sampleSpline(control []geomtypes.Point, numSamples int) ([]geomtypes.Point, []float64) {
	if numSamples < 2 {
		numSamples = 2
	}
	segments := len(control) - 1
	if segments < 1 {
		return control, make([]float64, len(control))
	}

	at := func(i int) geomtypes.Point {
		if i < 0 {
			return control[0]
		}
		if i >= len(control) {
			return control[len(control)-1]
		}
		return control[i]
	}

	samples := make([]geomtypes.Point, 0, numSamples)
	tangents := make([]float64, 0, numSamples)
	for s := 0; s < numSamples; s++ {
		u := float64(s) / float64(numSamples-1) * float64(segments)
		seg := int(u)
		if seg >= segments {
			seg = segments - 1
		}
		t := u - float64(seg)

		p0, p1, p2, p3 := at(seg-1), at(seg), at(seg+1), at(seg+2)
		samples = append(samples, catmullRom(p0, p1, p2, p3, t))
		tan := catmullRomTangent(p0, p1, p2, p3, t)
		tangents = append(tangents, math.Atan2(tan.Y, tan.X)*180/math.Pi)
	}
	return samples, tangents
}

func catmullRom(p0, p1, p2, p3 geomtypes.Point, t float64) geomtypes.Point {
	t2 := t * t
	t3 := t2 * t
	blend := func(v0, v1, v2, v3 float64) float64 {
		return 0.5 * ((2 * v1) +
			(-v0+v2)*t +
			(2*v0-5*v1+4*v2-v3)*t2 +
			(-v0+3*v1-3*v2+v3)*t3)
	}
	return geomtypes.Point{
		X: blend(p0.X, p1.X, p2.X, p3.X),
		Y: blend(p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

func catmullRomTangent(p0, p1, p2, p3 geomtypes.Point, t float64) geomtypes.Point {
	t2 := t * t
	blend := func(v0, v1, v2, v3 float64) float64 {
		return 0.5 * ((-v0 + v2) +
			2*(2*v0-5*v1+4*v2-v3)*t +
			3*(-v0+3*v1-3*v2+v3)*t2)
	}
	dx := blend(p0.X, p1.X, p2.X, p3.X)
	dy := blend(p0.Y, p1.Y, p2.Y, p3.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return geomtypes.Point{X: 1}
	}
	return geomtypes.Point{X: dx / length, Y: dy / length}
}

func (g *TextPathGenerator) pathLength(pts []geomtypes.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i].Dist(pts[i-1])
	}
	return total
}

func (g *TextPathGenerator) svgPathD(control []geomtypes.Point) string {
	if len(control) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %f %f", control[0].X, control[0].Y)
	for _, p := range control[1:] {
		fmt.Fprintf(&b, " L %f %f", p.X, p.Y)
	}
	return b.String()
}
