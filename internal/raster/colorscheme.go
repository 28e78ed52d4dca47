package raster

import "image/color"

// ColorScheme selects the elevation-to-color mapping function used by
// RasterBuilder when filling layer polygons.
type ColorScheme int

const (
	Terrain ColorScheme = iota
	Grayscale
	Rainbow
	Topographic
	Hypsometric
	Custom
)

// stop is one control point of a piecewise-linear gradient: t in [0,1]
// maps to rgb.
type stop struct {
	t        float64
	r, g, b uint8
}

var terrainStops = []stop{
	{0.0, 40, 120, 60},    // lowland green
	{0.3, 120, 160, 70},
	{0.55, 200, 180, 100}, // foothill tan
	{0.75, 160, 120, 80},  // mid-elevation brown
	{0.9, 200, 200, 200},  // near-peak gray
	{1.0, 255, 255, 255},  // snowcap
}

var hypsometricStops = []stop{
	{0.0, 0, 97, 71},
	{0.2, 112, 163, 87},
	{0.45, 208, 198, 122},
	{0.7, 170, 130, 90},
	{0.9, 200, 170, 160},
	{1.0, 255, 255, 255},
}

var rainbowStops = []stop{
	{0.0, 0, 0, 200},
	{0.2, 0, 180, 220},
	{0.4, 0, 200, 80},
	{0.6, 230, 220, 0},
	{0.8, 230, 120, 0},
	{1.0, 200, 0, 0},
}

var topographicStops = []stop{
	{0.0, 10, 80, 140},
	{0.5, 90, 150, 90},
	{0.8, 190, 170, 120},
	{1.0, 240, 240, 235},
}

// MapColor returns the fill color for an elevation normalized to
// [0,1] against the global [min,max] of the layer stack, per the
// selected scheme. Custom schemes must be handled by the caller via
// CustomPalette before this is reached; MapColor falls back to the
// Terrain gradient if asked to map Custom directly.
func MapColor(scheme ColorScheme, t float64) color.NRGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch scheme {
	case Grayscale:
		v := uint8(t * 255)
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	case Rainbow:
		return gradient(rainbowStops, t)
	case Topographic:
		return gradient(topographicStops, t)
	case Hypsometric:
		return gradient(hypsometricStops, t)
	default: // Terrain, Custom-without-palette
		return gradient(terrainStops, t)
	}
}

func gradient(stops []stop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return color.NRGBA{A: 255}
	}
	if t <= stops[0].t {
		s := stops[0]
		return color.NRGBA{R: s.r, G: s.g, B: s.b, A: 255}
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].t {
			a, b := stops[i-1], stops[i]
			span := b.t - a.t
			f := 0.5
			if span > 0 {
				f = (t - a.t) / span
			}
			return color.NRGBA{
				R: lerp8(a.r, b.r, f),
				G: lerp8(a.g, b.g, f),
				B: lerp8(a.b, b.b, f),
				A: 255,
			}
		}
	}
	last := stops[len(stops)-1]
	return color.NRGBA{R: last.r, G: last.g, B: last.b, A: 255}
}

func lerp8(a, b uint8, f float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*f
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// FillColor resolves the fill color a layer at elevationM should use
// under opts, given the stack's global elevation range. ok is false in
// Monochrome mode, where fills are skipped entirely.
func FillColor(opts Options, elevationM float64) (c color.NRGBA, ok bool) {
	if opts.Mode == Monochrome {
		return color.NRGBA{}, false
	}
	if opts.Scheme == Custom && len(opts.Custom) > 0 {
		return opts.Custom.Map(elevationM), true
	}
	if opts.Mode == GrayscaleMode {
		return MapColor(Grayscale, normalize(elevationM, opts.GlobalMinM, opts.GlobalMaxM)), true
	}
	return MapColor(opts.Scheme, normalize(elevationM, opts.GlobalMinM, opts.GlobalMaxM)), true
}

func normalize(v, min, max float64) float64 {
	span := max - min
	if span <= 0 {
		return 0.5
	}
	return (v - min) / span
}

// CustomPalette maps an elevation through an explicit list of
// (elevation, color) breakpoints supplied by configuration, used when
// ColorScheme is Custom.
type CustomPalette []struct {
	ElevationM float64
	Color      color.NRGBA
}

// Map returns the interpolated color for elevationM, clamping to the
// first/last breakpoint outside the palette's range.
func (p CustomPalette) Map(elevationM float64) color.NRGBA {
	if len(p) == 0 {
		return color.NRGBA{A: 255}
	}
	if elevationM <= p[0].ElevationM {
		return p[0].Color
	}
	for i := 1; i < len(p); i++ {
		if elevationM <= p[i].ElevationM {
			a, b := p[i-1], p[i]
			span := b.ElevationM - a.ElevationM
			f := 0.5
			if span > 0 {
				f = (elevationM - a.ElevationM) / span
			}
			return color.NRGBA{
				R: lerp8(a.Color.R, b.Color.R, f),
				G: lerp8(a.Color.G, b.Color.G, f),
				B: lerp8(a.Color.B, b.Color.B, f),
				A: 255,
			}
		}
	}
	return p[len(p)-1].Color
}
