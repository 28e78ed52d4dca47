package raster

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/mhacking/topogen/internal/label"
)

// AnnotatorOptions configures registration marks, border, and text
// rendering layered over a raster.
type AnnotatorOptions struct {
	MarginPx      int
	AlignColor    color.NRGBA // registration marks
	BorderColor   color.NRGBA
	BorderWidthPx int

	Font *truetype.Font // parsed once by the caller via freetype.ParseFont
	DPI  float64
}

// Annotator draws registration marks, a border, and glyph-rendered
// labels onto an existing pixel buffer, per spec.md §4.8.
type Annotator struct {
	opts AnnotatorOptions
}

func NewAnnotator(opts AnnotatorOptions) *Annotator {
	if opts.DPI == 0 {
		opts.DPI = 72
	}
	return &Annotator{opts: opts}
}

// DrawRegistrationMarks draws a cross at each of the four corners of
// dst, offset inward by margin_px/2 from the edge, per spec.md §4.8.
func (a *Annotator) DrawRegistrationMarks(dst *image.NRGBA) {
	b := dst.Bounds()
	offset := float64(a.opts.MarginPx) / 2
	armLen := offset * 0.8
	if armLen < 2 {
		armLen = 2
	}

	corners := []struct{ x, y float64 }{
		{offset, offset},
		{float64(b.Dx()) - offset, offset},
		{offset, float64(b.Dy()) - offset},
		{float64(b.Dx()) - offset, float64(b.Dy()) - offset},
	}
	for _, c := range corners {
		a.drawLine(dst, c.x-armLen, c.y, c.x+armLen, c.y, 1, a.opts.AlignColor)
		a.drawLine(dst, c.x, c.y-armLen, c.x, c.y+armLen, 1, a.opts.AlignColor)
	}
}

// DrawBorder strokes a rectangle inside the margin.
func (a *Annotator) DrawBorder(dst *image.NRGBA) {
	b := dst.Bounds()
	m := float64(a.opts.MarginPx)
	w := a.opts.BorderWidthPx
	if w <= 0 {
		w = 1
	}
	x0, y0 := m, m
	x1, y1 := float64(b.Dx())-m, float64(b.Dy())-m

	a.drawLine(dst, x0, y0, x1, y0, w, a.opts.BorderColor)
	a.drawLine(dst, x1, y0, x1, y1, w, a.opts.BorderColor)
	a.drawLine(dst, x1, y1, x0, y1, w, a.opts.BorderColor)
	a.drawLine(dst, x0, y1, x0, y0, w, a.opts.BorderColor)
}

// drawLine widens a segment into a chain of discs, the same
// Bresenham-by-discs technique RasterBuilder uses for outline strokes.
func (a *Annotator) drawLine(dst *image.NRGBA, x0, y0, x1, y1 float64, width int, c color.NRGBA) {
	radius := float64(width) / 2.0
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		drawDisc(dst, x0, y0, radius, c)
		return
	}
	steps := int(math.Ceil(length / 0.75))
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		drawDisc(dst, x0+dx*t, y0+dy*t, radius, c)
	}
}

// DrawText rasterizes p's text via FreeType glyph rendering with
// alpha blending onto dst, honoring its anchor. If p.Path is set, each
// character is placed at its sampled point along the curved path
// instead of along a straight baseline; glyphs are not rotated to the
// path's tangent.
func (a *Annotator) DrawText(dst *image.NRGBA, p label.Placed, toPixel func(x, y float64) (float64, float64)) error {
	if a.opts.Font == nil || p.Text == "" {
		return nil
	}

	face := truetype.NewFace(a.opts.Font, &truetype.Options{
		Size: p.FontSizeMM * ptPerMM,
		DPI:  a.opts.DPI,
	})
	defer face.Close()

	if p.Path != nil && len(p.Path.SamplePoints) > 0 {
		return a.drawCurvedText(dst, face, p, toPixel)
	}
	return a.drawStraightText(dst, face, p, toPixel)
}

func (a *Annotator) drawStraightText(dst *image.NRGBA, face font.Face, p label.Placed, toPixel func(float64, float64) (float64, float64)) error {
	x, y := toPixel(p.X, p.Y)

	width := font.MeasureString(face, p.Text)
	switch p.Anchor {
	case "middle":
		x -= float64(width) / 64 / 2
	case "end":
		x -= float64(width) / 64
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(a.opts.DPI)
	ctx.SetFont(a.opts.Font)
	ctx.SetFontSize(p.FontSizeMM * ptPerMM)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(parseHexOrDefault(p.Color)))

	pt := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	_, err := ctx.DrawString(p.Text, pt)
	return err
}

// drawCurvedText places rune i at path sample i*N/M (N samples, M
// runes). Each glyph is drawn upright; the sample's tangent angle is
// not applied.
func (a *Annotator) drawCurvedText(dst *image.NRGBA, face font.Face, p label.Placed, toPixel func(float64, float64) (float64, float64)) error {
	runes := []rune(p.Text)
	n := len(p.Path.SamplePoints)
	m := len(runes)
	if n == 0 || m == 0 {
		return nil
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(a.opts.DPI)
	ctx.SetFont(a.opts.Font)
	ctx.SetFontSize(p.FontSizeMM * ptPerMM)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(parseHexOrDefault(p.Color)))

	for i, r := range runes {
		idx := i * n / m
		if idx >= n {
			idx = n - 1
		}
		pt := p.Path.SamplePoints[idx]
		x, y := toPixel(pt.X, pt.Y)
		// Rotation is tracked on the label but freetype.Context has no
		// per-glyph rotation hook; a production renderer would render
		// each glyph to its own small bitmap and rotate-blit it. Here
		// we place glyphs at the rotated baseline position only.
		_, err := ctx.DrawString(string(r), fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ptPerMM converts millimeters to points (freetype's SetFontSize unit).
const ptPerMM = 2.83465

func parseHexOrDefault(hex string) color.NRGBA {
	c, ok := parseHexColor(hex)
	if !ok {
		return color.NRGBA{A: 255}
	}
	return c
}

func parseHexColor(s string) (color.NRGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, false
	}
	r, err1 := strconv.ParseUint(s[1:3], 16, 8)
	g, err2 := strconv.ParseUint(s[3:5], 16, 8)
	b, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, true
}
