package scaling

import (
	"strings"
	"testing"
)

func TestComputeBedSizePreservesAspect(t *testing.T) {
	in := Input{WidthM: 100, DepthM: 200}
	p := Params{Strategy: BedSize, BedWidthMM: 220, BedDepthMM: 220, MarginMM: 10}
	f, explanation, err := Compute(in, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if f.X != f.Y || f.Y != f.Z {
		t.Errorf("expected uniform scale from BedSize, got %+v", f)
	}
	if f.X*200 > 200.0001 {
		t.Errorf("expected depth to fit within usable bed, got scaled depth %v", f.X*200)
	}
	if explanation == "" {
		t.Error("expected a non-empty explanation")
	}
}

func TestComputePrintHeight(t *testing.T) {
	in := Input{MinElevM: 0, MaxElevM: 500}
	p := Params{Strategy: PrintHeight, TargetHeightMM: 50}
	f, explanation, err := Compute(in, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if f.Z != 0.1 {
		t.Errorf("expected Z factor 0.1, got %v", f.Z)
	}
	if !strings.Contains(explanation, "print-height") {
		t.Errorf("expected explanation to name the strategy, got %q", explanation)
	}
}

func TestComputeAutoFallsBackToIdentity(t *testing.T) {
	in := Input{WidthM: 10, DepthM: 10}
	f, explanation, err := Compute(in, Params{Strategy: Auto})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if f != (Factor{1, 1, 1}) {
		t.Errorf("expected identity factor, got %+v", f)
	}
	if explanation == "" {
		t.Error("expected a non-empty explanation")
	}
}

func TestComputeExplicitRejectsNonPositive(t *testing.T) {
	_, _, err := Compute(Input{}, Params{Strategy: Explicit, FactorX: 1, FactorY: 0, FactorZ: 1})
	if err == nil {
		t.Error("expected error for zero FactorY")
	}
}
