package label

import (
	"strings"
	"testing"

	"github.com/mhacking/topogen/internal/geomtypes"
)

func testContext() Context {
	return Context{
		LayerNumber:      3,
		ElevationM:       120.5,
		ScaleRatio:       25000,
		ContourHeightM:   10,
		GeographicBounds: geomtypes.BoundingBox{MinX: -122.5, MinY: 37.7, MaxX: -122.4, MaxY: 37.8},
		SubstrateSizeMM:  200,
		ContentBBox:      geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		HiddenBBox:       geomtypes.BoundingBox{MinX: 0, MinY: 0, MaxX: 20, MaxY: 10},
	}
}

func TestSubstitutePatternsReplacesTokens(t *testing.T) {
	r := New(DefaultConfig())
	out := r.SubstitutePatterns("Layer %{n} at 1:%{s}", testContext())
	if !strings.Contains(out, "Layer 3") {
		t.Errorf("expected layer number substituted, got %q", out)
	}
	if !strings.Contains(out, "25000") {
		t.Errorf("expected scale substituted, got %q", out)
	}
}

func TestSubstitutePatternsEscapesDoublePercent(t *testing.T) {
	r := New(DefaultConfig())
	out := r.SubstitutePatterns("literal %%{n} token", testContext())
	if out != "literal %{n} token" {
		t.Errorf("expected escaped literal, got %q", out)
	}
}

func TestSubstitutePatternsLeavesUnknownTokenAlone(t *testing.T) {
	r := New(DefaultConfig())
	out := r.SubstitutePatterns("%{zzz}", testContext())
	if out != "%{zzz}" {
		t.Errorf("expected unknown token left verbatim, got %q", out)
	}
}

func TestSubstituteFilenamePattern(t *testing.T) {
	out := SubstituteFilenamePattern("%{b}_layer%{l}_%{e}m.svg", "ridge", 7, 342)
	if out != "ridge_layer07_342m.svg" {
		t.Errorf("unexpected filename %q", out)
	}
}

func TestResolveTokenLAndE(t *testing.T) {
	r := New(DefaultConfig())
	ctx := testContext()
	ctx.ElevationM = 342
	out := r.SubstitutePatterns("layer %{l} @ %{e}m", ctx)
	if out != "layer 03 @ 342m" {
		t.Errorf("unexpected substitution %q", out)
	}
}

func TestGenerateLayerVisibleLabelEmptyTemplateSkips(t *testing.T) {
	r := New(DefaultConfig())
	if _, ok := r.GenerateLayerVisibleLabel(testContext()); ok {
		t.Error("expected no label for empty template")
	}
}

func TestGenerateLayerVisibleLabelProducesVisibleText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LayerLabelVisible = "L%{n}"
	r := New(cfg)

	placed, ok := r.GenerateLayerVisibleLabel(testContext())
	if !ok {
		t.Fatal("expected label to be generated")
	}
	if placed.Text == "" {
		t.Error("expected non-empty text")
	}
	if placed.IsHidden {
		t.Error("visible label should not be marked hidden")
	}
}

func TestGenerateBaseHiddenLabelUsesHiddenColorAndBBox(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseLabelHidden = "%{n}"
	r := New(cfg)

	placed, ok := r.GenerateBaseHiddenLabel(testContext())
	if !ok {
		t.Fatal("expected hidden label to be generated")
	}
	if placed.Color != cfg.HiddenColor {
		t.Errorf("expected hidden color %q, got %q", cfg.HiddenColor, placed.Color)
	}
	if !placed.IsHidden {
		t.Error("expected IsHidden true")
	}
}
