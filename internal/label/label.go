// Package label implements the label rendering subsystem: pattern
// substitution over "%{token}" templates, placement in a layer's
// visible or hidden bounding box, and the adaptive TextFitter /
// TextPathGenerator pipeline for fitting labels into the space a
// contour layer actually leaves available. Ported from the original
// implementation's LabelRenderer/TextFitter/TextPathGenerator
// (original_source/include/LabelRenderer.hpp and siblings).
package label

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mhacking/topogen/internal/geomtypes"
)

// Units selects the unit system used when substituting distance and
// coordinate patterns.
type Units int

const (
	Metric Units = iota
	Imperial
)

// Config mirrors the original's LabelConfig: label templates, unit
// preferences, and the visual/adaptive-fitting parameters threaded
// down into TextFitter.Config and TextPathConfig.
type Config struct {
	BaseLabelVisible  string
	BaseLabelHidden   string
	LayerLabelVisible string
	LayerLabelHidden  string

	LabelUnits Units

	VisibleColor    string
	HiddenColor     string
	BaseFontSizeMM  float64
	LayerFontSizeMM float64

	Fitter   FitterConfig
	TextPath PathConfig
}

// DefaultConfig returns the original's documented defaults.
func DefaultConfig() Config {
	return Config{
		VisibleColor:    "#000000",
		HiddenColor:     "#666666",
		BaseFontSizeMM:  4.0,
		LayerFontSizeMM: 3.0,
		Fitter:          DefaultFitterConfig(),
		TextPath:        DefaultPathConfig(),
	}
}

// Context carries the per-layer values pattern substitution and
// placement need.
type Context struct {
	LayerNumber      int
	ElevationM       float64
	ScaleRatio       float64
	ContourHeightM   float64
	GeographicBounds geomtypes.BoundingBox
	SubstrateSizeMM  float64

	ContentBBox geomtypes.BoundingBox
	HiddenBBox  geomtypes.BoundingBox

	// NextLayerPolygons, when set, lets generate*Label produce a
	// curved path fit to the next layer up's footprint.
	NextLayerPolygons []geomtypes.Polygon
}

// Placed is a fully-resolved label ready for an emitter.
type Placed struct {
	Text       string
	X, Y       float64
	FontSizeMM float64
	Color      string
	Anchor     string // "start", "middle", "end"
	IsHidden   bool

	Fit Fitted

	Path *TextPath // non-nil when curved text placement succeeded
}

// Renderer generates labels from Config templates.
type Renderer struct {
	cfg    Config
	fitter *TextFitter
	paths  *TextPathGenerator
}

// New constructs a Renderer.
func New(cfg Config) *Renderer {
	return &Renderer{
		cfg:    cfg,
		fitter: NewTextFitter(cfg.Fitter),
		paths:  NewTextPathGenerator(cfg.TextPath),
	}
}

var patternRe = regexp.MustCompile(`%%?\{([A-Za-z]+)\}`)

// SubstitutePatterns replaces every %{token} occurrence in template
// with its value from ctx; a %% escape ("%%{s}") produces a literal
// "%{s}" instead of substituting.
func (r *Renderer) SubstitutePatterns(template string, ctx Context) string {
	return patternRe.ReplaceAllStringFunc(template, func(match string) string {
		if strings.HasPrefix(match, "%%") {
			return match[1:]
		}
		token := patternRe.FindStringSubmatch(match)[1]
		return r.resolveToken(token, ctx)
	})
}

func (r *Renderer) resolveToken(token string, ctx Context) string {
	switch token {
	case "s":
		return fmt.Sprintf("%.0f", ctx.ScaleRatio)
	case "c":
		return r.formatDistance(ctx.ContourHeightM, false)
	case "n":
		return fmt.Sprintf("%d", ctx.LayerNumber)
	case "l":
		return fmt.Sprintf("%02d", ctx.LayerNumber)
	case "e":
		return fmt.Sprintf("%.0f", ctx.ElevationM)
	case "x":
		return fmt.Sprintf("%.6f", ctx.GeographicBounds.Center().X)
	case "y":
		return fmt.Sprintf("%.6f", ctx.GeographicBounds.Center().Y)
	case "w":
		return r.formatDistance(ctx.GeographicBounds.Width(), false)
	case "h":
		return r.formatDistance(ctx.GeographicBounds.Height(), false)
	case "W", "H":
		return r.formatDistance(ctx.SubstrateSizeMM/1000, true)
	case "C":
		c := ctx.GeographicBounds.Center()
		return fmt.Sprintf("(%.6f, %.6f)", c.Y, c.X)
	case "UL":
		return fmt.Sprintf("(%.6f, %.6f)", ctx.GeographicBounds.MaxY, ctx.GeographicBounds.MinX)
	case "UR":
		return fmt.Sprintf("(%.6f, %.6f)", ctx.GeographicBounds.MaxY, ctx.GeographicBounds.MaxX)
	case "LL":
		return fmt.Sprintf("(%.6f, %.6f)", ctx.GeographicBounds.MinY, ctx.GeographicBounds.MinX)
	case "LR":
		return fmt.Sprintf("(%.6f, %.6f)", ctx.GeographicBounds.MinY, ctx.GeographicBounds.MaxX)
	default:
		return "%{" + token + "}"
	}
}

func (r *Renderer) formatDistance(valueM float64, isPrint bool) string {
	if r.cfg.LabelUnits == Imperial {
		if isPrint {
			return fmt.Sprintf("%.2fin", valueM*39.3701)
		}
		return fmt.Sprintf("%.1fft", valueM*3.28084)
	}
	if isPrint {
		return fmt.Sprintf("%.1fmm", valueM*1000)
	}
	return fmt.Sprintf("%.1fm", valueM)
}

// SubstituteFilenamePattern replaces the filename-specific %{b} (base
// name), %{l}/%{n} (zero-padded layer number), and %{e} (integer
// elevation) tokens.
func SubstituteFilenamePattern(pattern, basename string, layerNumber int, elevationM float64) string {
	out := strings.ReplaceAll(pattern, "%{b}", basename)
	out = strings.ReplaceAll(out, "%{l}", fmt.Sprintf("%02d", layerNumber))
	out = strings.ReplaceAll(out, "%{n}", fmt.Sprintf("%02d", layerNumber))
	out = strings.ReplaceAll(out, "%{e}", fmt.Sprintf("%.0f", elevationM))
	return out
}

// GenerateBaseVisibleLabel renders the base layer's visible label, if
// configured.
func (r *Renderer) GenerateBaseVisibleLabel(ctx Context) (Placed, bool) {
	return r.generate(r.cfg.BaseLabelVisible, ctx, true, false)
}

// GenerateBaseHiddenLabel renders the base layer's hidden label.
func (r *Renderer) GenerateBaseHiddenLabel(ctx Context) (Placed, bool) {
	return r.generate(r.cfg.BaseLabelHidden, ctx, true, true)
}

// GenerateLayerVisibleLabel renders a non-base layer's visible label.
func (r *Renderer) GenerateLayerVisibleLabel(ctx Context) (Placed, bool) {
	return r.generate(r.cfg.LayerLabelVisible, ctx, false, false)
}

// GenerateLayerHiddenLabel renders a non-base layer's hidden label.
func (r *Renderer) GenerateLayerHiddenLabel(ctx Context) (Placed, bool) {
	return r.generate(r.cfg.LayerLabelHidden, ctx, false, true)
}

func (r *Renderer) generate(template string, ctx Context, isBase, isHidden bool) (Placed, bool) {
	if strings.TrimSpace(template) == "" {
		return Placed{}, false
	}
	text := r.SubstitutePatterns(template, ctx)

	fontSize := r.cfg.LayerFontSizeMM
	color := r.cfg.VisibleColor
	if isBase {
		fontSize = r.cfg.BaseFontSizeMM
	}
	if isHidden {
		color = r.cfg.HiddenColor
	}

	bbox := ctx.ContentBBox
	if isHidden {
		bbox = ctx.HiddenBBox
	}

	// Visible labels anchor to a content_bbox corner (base -> lower-left,
	// other layers -> lower-right); hidden labels center in hidden_bbox.
	var anchorX, anchorY float64
	anchor := "middle"
	switch {
	case isHidden:
		c := bbox.Center()
		anchorX, anchorY = c.X, c.Y
	case isBase:
		anchorX, anchorY = bbox.MinX, bbox.MinY
		anchor = "start"
	default:
		anchorX, anchorY = bbox.MaxX, bbox.MinY
		anchor = "end"
	}

	fit := r.fitter.FitText(text, anchorX, anchorY, fontSize, bbox, anchor)

	placed := Placed{
		Text:       fit.Text,
		X:          fit.X,
		Y:          fit.Y,
		FontSizeMM: fit.FontSizeMM,
		Color:      color,
		Anchor:     anchor,
		IsHidden:   isHidden,
		Fit:        fit,
	}

	if len(ctx.NextLayerPolygons) > 0 {
		width := r.fitter.estimateTextWidth(text, fontSize)
		if path, ok := r.paths.GeneratePathFromPolygons(ctx.NextLayerPolygons, width, fontSize, anchorX, anchorY); ok {
			placed.Path = &path
		}
	}

	return placed, true
}
