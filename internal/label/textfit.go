package label

import (
	"math"
	"strings"

	"github.com/mhacking/topogen/internal/geomtypes"
)

// FitterConfig mirrors TextFitter::Config.
type FitterConfig struct {
	MaxBendAngleDeg  float64
	MinScaleFactor   float64
	MaxSplitParts    int
	MinLegibleSizeMM float64
	CharWidthRatio   float64
	MarginMM         float64
}

// DefaultFitterConfig returns the original's documented defaults.
func DefaultFitterConfig() FitterConfig {
	return FitterConfig{
		MaxBendAngleDeg:  15.0,
		MinScaleFactor:   0.5,
		MaxSplitParts:    3,
		MinLegibleSizeMM: 1.5,
		CharWidthRatio:   0.6,
		MarginMM:         0.5,
	}
}

// Fitted is the result of TextFitter.FitText.
type Fitted struct {
	Text         string
	X, Y         float64
	FontSizeMM   float64
	BendAngleDeg float64
	SplitParts   []string

	WasBent      bool
	WasScaled    bool
	WasSplit     bool
	WasTruncated bool
	Warning      string
}

// TextFitter implements the four-stage adaptive fitting algorithm:
// straight, bend, scale, split, then truncate as a last resort.
type TextFitter struct {
	cfg FitterConfig
}

func NewTextFitter(cfg FitterConfig) *TextFitter {
	return &TextFitter{cfg: cfg}
}

// FitText tries straight placement, then bending, then scaling, then
// splitting, then truncation, returning the first strategy that fits
// (or the truncated result if nothing else does).
func (f *TextFitter) FitText(text string, x, y, fontSizeMM float64, bbox geomtypes.BoundingBox, anchor string) Fitted {
	if f.CheckFit(text, x, y, fontSizeMM, 0, bbox, anchor) {
		return Fitted{Text: text, X: x, Y: y, FontSizeMM: fontSizeMM}
	}

	if bent, ok := f.tryBend(text, x, y, fontSizeMM, bbox, anchor); ok {
		return bent
	}
	if scaled, ok := f.tryScale(text, x, y, fontSizeMM, bbox, anchor); ok {
		return scaled
	}
	if split, ok := f.trySplit(text, x, y, fontSizeMM, bbox, anchor); ok {
		return split
	}
	return f.truncate(text, x, y, fontSizeMM, bbox, anchor)
}

func (f *TextFitter) tryBend(text string, x, y, fontSizeMM float64, bbox geomtypes.BoundingBox, anchor string) (Fitted, bool) {
	for angle := 5.0; angle <= f.cfg.MaxBendAngleDeg; angle += 5.0 {
		if f.CheckFit(text, x, y, fontSizeMM, angle, bbox, anchor) {
			return Fitted{
				Text: text, X: x, Y: y, FontSizeMM: fontSizeMM,
				BendAngleDeg: angle, WasBent: true,
				Warning: "text bent to fit available space",
			}, true
		}
	}
	return Fitted{}, false
}

func (f *TextFitter) tryScale(text string, x, y, fontSizeMM float64, bbox geomtypes.BoundingBox, anchor string) (Fitted, bool) {
	for scale := 0.9; scale >= f.cfg.MinScaleFactor; scale -= 0.1 {
		size := fontSizeMM * scale
		if size < f.cfg.MinLegibleSizeMM {
			break
		}
		if f.CheckFit(text, x, y, size, 0, bbox, anchor) {
			return Fitted{
				Text: text, X: x, Y: y, FontSizeMM: size,
				WasScaled: true,
				Warning:   "text scaled down to fit available space",
			}, true
		}
	}
	return Fitted{}, false
}

func (f *TextFitter) trySplit(text string, x, y, fontSizeMM float64, bbox geomtypes.BoundingBox, anchor string) (Fitted, bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return Fitted{}, false
	}
	for parts := 2; parts <= f.cfg.MaxSplitParts && parts <= len(words); parts++ {
		chunks := splitWords(words, parts)
		fits := true
		lineHeight := fontSizeMM * 1.2
		for i, chunk := range chunks {
			ly := y + (float64(i)-float64(len(chunks)-1)/2)*lineHeight
			if !f.CheckFit(chunk, x, ly, fontSizeMM, 0, bbox, anchor) {
				fits = false
				break
			}
		}
		if fits {
			return Fitted{
				Text: text, X: x, Y: y, FontSizeMM: fontSizeMM,
				SplitParts: chunks, WasSplit: true,
				Warning: "text split across multiple lines to fit available space",
			}, true
		}
	}
	return Fitted{}, false
}

func splitWords(words []string, parts int) []string {
	out := make([]string, 0, parts)
	perPart := (len(words) + parts - 1) / parts
	for i := 0; i < len(words); i += perPart {
		end := i + perPart
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

func (f *TextFitter) truncate(text string, x, y, fontSizeMM float64, bbox geomtypes.BoundingBox, anchor string) Fitted {
	size := fontSizeMM
	if size < f.cfg.MinLegibleSizeMM {
		size = f.cfg.MinLegibleSizeMM
	}
	maxWidth := bbox.Width() - 2*f.cfg.MarginMM
	runes := []rune(text)
	for len(runes) > 1 {
		candidate := string(runes) + "…"
		if f.estimateTextWidth(candidate, size) <= maxWidth {
			return Fitted{
				Text: candidate, X: x, Y: y, FontSizeMM: size,
				WasTruncated: true,
				Warning:      "text truncated to fit available space",
			}
		}
		runes = runes[:len(runes)-1]
	}
	return Fitted{Text: string(runes), X: x, Y: y, FontSizeMM: size, WasTruncated: true}
}

// CheckFit reports whether text at the given placement and bend angle
// fits within bbox.
func (f *TextFitter) CheckFit(text string, x, y, fontSizeMM, bendAngleDeg float64, bbox geomtypes.BoundingBox, anchor string) bool {
	tb := f.EstimateTextBBox(text, x, y, fontSizeMM, bendAngleDeg, anchor)
	return bbox.MinX <= tb.MinX && tb.MaxX <= bbox.MaxX && bbox.MinY <= tb.MinY && tb.MaxY <= bbox.MaxY
}

// EstimateTextBBox approximates the bounding box text would occupy.
// Bending lays the (fixed-length) text along a circular arc subtending
// bendAngleDeg, so its horizontal chord shrinks below the flat width
// while its vertical extent grows by the arc's sagitta.
func (f *TextFitter) EstimateTextBBox(text string, x, y, fontSizeMM, bendAngleDeg float64, anchor string) geomtypes.BoundingBox {
	width := f.estimateTextWidth(text, fontSizeMM)
	height := fontSizeMM

	if bendAngleDeg > 0 {
		angleRad := bendAngleDeg * math.Pi / 180.0
		radius := width / angleRad
		width = 2 * radius * math.Sin(angleRad/2)
		height += radius * (1 - math.Cos(angleRad/2))
	}

	var minX, maxX float64
	switch anchor {
	case "start":
		minX, maxX = x, x+width
	case "end":
		minX, maxX = x-width, x
	default: // middle
		minX, maxX = x-width/2, x+width/2
	}
	return geomtypes.BoundingBox{MinX: minX, MaxX: maxX, MinY: y - height/2, MaxY: y + height/2}
}

func (f *TextFitter) estimateTextWidth(text string, fontSizeMM float64) float64 {
	return float64(len([]rune(text))) * fontSizeMM * f.cfg.CharWidthRatio
}
