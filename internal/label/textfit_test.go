package label

import (
	"testing"

	"github.com/mhacking/topogen/internal/geomtypes"
)

func TestFitTextStraightWhenItAlreadyFits(t *testing.T) {
	f := NewTextFitter(DefaultFitterConfig())
	bbox := geomtypes.BoundingBox{MinX: -50, MinY: -10, MaxX: 50, MaxY: 10}

	fit := f.FitText("ok", 0, 0, 4, bbox, "middle")
	if fit.WasBent || fit.WasScaled || fit.WasSplit || fit.WasTruncated {
		t.Errorf("expected straight fit, got %+v", fit)
	}
}

func TestFitTextAdaptsWhenTooWide(t *testing.T) {
	f := NewTextFitter(DefaultFitterConfig())
	bbox := geomtypes.BoundingBox{MinX: -6, MinY: -4, MaxX: 6, MaxY: 4}

	fit := f.FitText("Mount Everest Ridge", 0, 0, 6, bbox, "middle")
	if !fit.WasScaled && !fit.WasSplit && !fit.WasTruncated {
		t.Errorf("expected long text to require fitting, got %+v", fit)
	}
}

func TestFitTextSplitsMultiWordText(t *testing.T) {
	cfg := DefaultFitterConfig()
	cfg.MaxBendAngleDeg = 0 // force past bend stage
	f := NewTextFitter(cfg)
	bbox := geomtypes.BoundingBox{MinX: -14, MinY: -20, MaxX: 14, MaxY: 20}

	fit := f.FitText("Blue Ridge Mountains", 0, 0, 5, bbox, "middle")
	if !fit.WasSplit || len(fit.SplitParts) < 2 {
		t.Errorf("expected a split into at least 2 parts, got %+v", fit)
	}
}

func TestFitTextTruncatesAsLastResort(t *testing.T) {
	f := NewTextFitter(DefaultFitterConfig())
	bbox := geomtypes.BoundingBox{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2}

	fit := f.FitText("ThisLabelCannotPossiblyFitAnywhere", 0, 0, 5, bbox, "middle")
	if !fit.WasTruncated {
		t.Errorf("expected truncation for impossible fit, got %+v", fit)
	}
}

func TestCheckFitRespectsAnchor(t *testing.T) {
	f := NewTextFitter(DefaultFitterConfig())
	bbox := geomtypes.BoundingBox{MinX: 0, MinY: -5, MaxX: 20, MaxY: 5}

	if !f.CheckFit("abc", 0, 0, 4, 0, bbox, "start") {
		t.Error("expected start-anchored short text to fit")
	}
	if f.CheckFit("abc", 18, 0, 4, 0, bbox, "start") {
		t.Error("expected start-anchored text near the right edge to overflow")
	}
}

func TestEstimateTextBBoxNarrowsAndHeightensWithBendAngle(t *testing.T) {
	f := NewTextFitter(DefaultFitterConfig())
	straight := f.EstimateTextBBox("sample", 0, 0, 5, 0, "middle")
	bent := f.EstimateTextBBox("sample", 0, 0, 5, 15, "middle")
	if bent.Height() <= straight.Height() {
		t.Errorf("expected bent bbox taller than straight, got %v vs %v", bent.Height(), straight.Height())
	}
	if bent.Width() >= straight.Width() {
		t.Errorf("expected bent bbox narrower than straight (arc chord < flat width), got %v vs %v", bent.Width(), straight.Width())
	}
}

func TestTryBendCanRescueHorizontalOverflow(t *testing.T) {
	cfg := DefaultFitterConfig()
	cfg.MaxBendAngleDeg = 60
	f := NewTextFitter(cfg)

	// A box just under the straight width but wide enough for the arc
	// chord a moderate bend angle produces.
	text := "Ridge"
	straightWidth := f.estimateTextWidth(text, 5)
	halfWidth := straightWidth * 0.489
	bbox := geomtypes.BoundingBox{MinX: -halfWidth, MinY: -10, MaxX: halfWidth, MaxY: 10}

	fit := f.FitText(text, 0, 0, 5, bbox, "middle")
	if !fit.WasBent {
		t.Errorf("expected bending to rescue a horizontally-overflowing label, got %+v", fit)
	}
}
