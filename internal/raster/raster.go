// Package raster implements RasterBuilder and Annotator: an in-tree
// scanline polygon rasterizer (no external renderer process, per
// spec.md §4.7) producing an elevation-colored RGBA pixel buffer, and
// a pixel-space annotator for registration marks, borders, and
// glyph-rendered labels. Adapted from the teacher's
// internal/raster.Renderer, which rasterized OSM GeoJSON feature
// layers with golang.org/x/image/vector the same way.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/mhacking/topogen/internal/geomtypes"
	"golang.org/x/image/vector"
)

// RenderMode selects how much of the elevation color mapping is
// applied.
type RenderMode int

const (
	FullColor RenderMode = iota
	GrayscaleMode
	Monochrome
)

// Options configures a Builder.
type Options struct {
	WidthPx, HeightPx int
	MarginPx          int
	CenterLatDeg      float64 // 0 disables aspect correction (projected-meter bounds)

	Scheme     ColorScheme
	Custom     CustomPalette
	Mode       RenderMode
	GlobalMinM float64 // color-mapping domain floor, shared across all per-layer rasters
	GlobalMaxM float64

	BackgroundColor color.NRGBA

	OutlineEnabled bool
	OutlineColor   color.NRGBA
	OutlineWidthPx int
}

// LayerInput is one elevation band's polygons, ready to rasterize.
type LayerInput struct {
	ElevationM float64
	Polygons   []geomtypes.Polygon
}

// Builder rasterizes a layer stack against a fixed geographic-to-pixel
// transform.
type Builder struct {
	opts   Options
	bounds geomtypes.BoundingBox
	cosLat float64
	scale  float64 // pixels per unit (after aspect correction on x)
}

// NewBuilder derives the pixel transform from bounds and opts,
// fitting bounds inside the canvas minus margins with aspect-ratio
// correction (meters in x shrink by cos(center_lat) when bounds are
// geographic degrees; set CenterLatDeg to 0 for already-projected
// bounds).
func NewBuilder(bounds geomtypes.BoundingBox, opts Options) *Builder {
	cosLat := 1.0
	if opts.CenterLatDeg != 0 {
		cosLat = math.Cos(opts.CenterLatDeg * math.Pi / 180.0)
		if cosLat <= 0 {
			cosLat = 1.0
		}
	}

	innerW := float64(opts.WidthPx - 2*opts.MarginPx)
	innerH := float64(opts.HeightPx - 2*opts.MarginPx)
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}

	effW := bounds.Width() * cosLat
	if effW <= 0 {
		effW = 1
	}
	effH := bounds.Height()
	if effH <= 0 {
		effH = 1
	}

	scale := math.Min(innerW/effW, innerH/effH)
	if scale <= 0 {
		scale = 1
	}

	return &Builder{opts: opts, bounds: bounds, cosLat: cosLat, scale: scale}
}

// toPixel maps a geographic/projected point to canvas pixel space.
// Origin sits at (min_x - margin/scale, max_y + margin/scale) and y is
// inverted, per spec.md §4.7.
func (b *Builder) toPixel(p geomtypes.Point) (float64, float64) {
	px := float64(b.opts.MarginPx) + (p.X-b.bounds.MinX)*b.cosLat*b.scale
	py := float64(b.opts.MarginPx) + (b.bounds.MaxY-p.Y)*b.scale
	return px, py
}

// ToPixel exposes the geographic-to-pixel transform for callers
// outside the package (Annotator.DrawText, export emitters) that must
// place text at the same coordinates RasterizeLayers used.
func (b *Builder) ToPixel(x, y float64) (float64, float64) {
	return b.toPixel(geomtypes.Point{X: x, Y: y})
}

// RasterizeLayers fills one RGBA buffer from the full layer stack,
// lowest elevation first so higher bands paint over lower ones,
// matching the nested-ring convention of the contour stack.
func (b *Builder) RasterizeLayers(layers []LayerInput) *image.NRGBA {
	bounds := image.Rect(0, 0, b.opts.WidthPx, b.opts.HeightPx)
	dst := image.NewNRGBA(bounds)
	bg := b.opts.BackgroundColor
	if bg.A == 0 && bg.R == 0 && bg.G == 0 && bg.B == 0 {
		bg = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	fillBackground(dst, bg)

	for _, layer := range layers {
		if fill, ok := FillColor(b.opts, layer.ElevationM); ok {
			for _, poly := range layer.Polygons {
				b.fillPolygon(dst, poly, fill)
			}
		}

		if b.opts.OutlineEnabled {
			width := b.opts.OutlineWidthPx
			if width <= 0 {
				width = 1
			}
			for _, poly := range layer.Polygons {
				b.strokeRing(dst, poly.Exterior, width, b.opts.OutlineColor)
				for _, h := range poly.Holes {
					b.strokeRing(dst, h, width, b.opts.OutlineColor)
				}
			}
		}
	}

	return dst
}

func fillBackground(dst *image.NRGBA, c color.NRGBA) {
	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
}

// fillPolygon rasterizes the exterior and holes of p using the
// non-zero coverage behavior of vector.Rasterizer: the exterior is
// wound one way and holes the other, so overlapping coverage cancels.
func (b *Builder) fillPolygon(dst *image.NRGBA, p geomtypes.Polygon, fill color.NRGBA) {
	ras := vector.NewRasterizer(b.opts.WidthPx, b.opts.HeightPx)

	b.addRing(ras, p.Exterior)
	for _, h := range p.Holes {
		b.addRing(ras, h)
	}

	src := image.NewUniform(fill)
	ras.Draw(dst, dst.Bounds(), src, image.Point{})
}

func (b *Builder) addRing(ras *vector.Rasterizer, r geomtypes.Ring) {
	if len(r) < 3 {
		return
	}
	first := true
	for _, pt := range r {
		x, y := b.toPixel(pt)
		if first {
			ras.MoveTo(float32(x), float32(y))
			first = false
		} else {
			ras.LineTo(float32(x), float32(y))
		}
	}
	ras.ClosePath()
}

// strokeRing widens every edge of r into a chain of discs of the
// given pixel width, matching the teacher's strokeLineString/drawDisc
// Bresenham-by-discs approach.
func (b *Builder) strokeRing(dst *image.NRGBA, r geomtypes.Ring, width int, c color.NRGBA) {
	if len(r) < 2 {
		return
	}
	radius := float64(width) / 2.0
	step := 0.75
	if width >= 5 {
		step = 0.9
	}

	for i := 0; i < len(r)-1; i++ {
		x0, y0 := b.toPixel(r[i])
		x1, y1 := b.toPixel(r[i+1])

		dx, dy := x1-x0, y1-y0
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			drawDisc(dst, x0, y0, radius, c)
			continue
		}

		steps := int(math.Ceil(segLen / step))
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			drawDisc(dst, x0+dx*t, y0+dy*t, radius, c)
		}
	}
}

func drawDisc(dst *image.NRGBA, cx, cy, radius float64, c color.NRGBA) {
	bounds := dst.Bounds()
	minX := int(math.Floor(cx - radius))
	maxX := int(math.Ceil(cx + radius))
	minY := int(math.Floor(cy - radius))
	maxY := int(math.Ceil(cy + radius))

	if minX < bounds.Min.X {
		minX = bounds.Min.X
	}
	if minY < bounds.Min.Y {
		minY = bounds.Min.Y
	}
	if maxX >= bounds.Max.X {
		maxX = bounds.Max.X - 1
	}
	if maxY >= bounds.Max.Y {
		maxY = bounds.Max.Y - 1
	}

	r2 := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			ddx := (float64(x) + 0.5) - cx
			ddy := (float64(y) + 0.5) - cy
			if ddx*ddx+ddy*ddy <= r2 {
				dst.SetNRGBA(x, y, c)
			}
		}
	}
}
