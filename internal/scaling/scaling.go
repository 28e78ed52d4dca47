// Package scaling implements ScalingCalculator: deriving the
// millimeters-per-meter factor applied when converting a mesh from its
// real-world unit (meters) to print-ready model units.
package scaling

import (
	"fmt"

	"github.com/mhacking/topogen/internal/errs"
)

// Strategy selects how the mm/m factor is derived.
type Strategy int

const (
	// Auto picks BedSize if a bed is configured, else UniformXYZ(1).
	Auto Strategy = iota
	// BedSize scales the footprint to fit within BedWidthMM x BedDepthMM
	// with Margin applied, preserving aspect ratio.
	BedSize
	// MaterialThickness derives the Z scale from LayerHeightMM /
	// (per-layer real-world thickness), then scales X/Y uniformly by
	// the same factor.
	MaterialThickness
	// Layers derives the Z scale so NumLayers bands span TargetHeightMM.
	Layers
	// PrintHeight derives a uniform scale so the model's real-world
	// elevation range maps to TargetHeightMM tall.
	PrintHeight
	// UniformXYZ applies Factor uniformly to all three axes.
	UniformXYZ
	// Explicit applies independent X, Y, Z factors.
	Explicit
)

// Input describes the real-world extent being scaled.
type Input struct {
	WidthM, DepthM     float64 // footprint extent
	MinElevM, MaxElevM float64
	NumLayers          int
}

// Params configures the chosen Strategy; only the fields relevant to
// the selected strategy need be set.
type Params struct {
	Strategy Strategy

	BedWidthMM, BedDepthMM float64
	MarginMM               float64

	LayerHeightMM  float64
	MaterialThickM float64

	TargetHeightMM float64

	Factor float64

	FactorX, FactorY, FactorZ float64
}

// Factor is the resulting per-axis scale in mm per real-world meter.
type Factor struct {
	X, Y, Z float64
}

// Compute derives the scale factor for the given input and params,
// along with a human-readable explanation of how it was derived.
func Compute(in Input, p Params) (Factor, string, error) {
	switch p.Strategy {
	case Auto:
		if p.BedWidthMM > 0 && p.BedDepthMM > 0 {
			f, err := computeBedSize(in, p)
			if err != nil {
				return Factor{}, "", err
			}
			return f, fmt.Sprintf("auto: bed configured (%.0fx%.0fmm), fit footprint to bed at %.4fx", p.BedWidthMM, p.BedDepthMM, f.X), nil
		}
		return Factor{1, 1, 1}, "auto: no bed configured, using identity scale (1x)", nil

	case BedSize:
		f, err := computeBedSize(in, p)
		if err != nil {
			return Factor{}, "", err
		}
		return f, fmt.Sprintf("bed-size: fit %.1fx%.1fm footprint within %.0fx%.0fmm bed (margin %.1fmm) at %.4fx", in.WidthM, in.DepthM, p.BedWidthMM, p.BedDepthMM, p.MarginMM, f.X), nil

	case MaterialThickness:
		if p.MaterialThickM <= 0 || p.LayerHeightMM <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		f := p.LayerHeightMM / p.MaterialThickM
		return Factor{f, f, f}, fmt.Sprintf("material-thickness: %.2fmm layer height / %.4fm material thickness = %.4fx", p.LayerHeightMM, p.MaterialThickM, f), nil

	case Layers:
		if in.NumLayers <= 0 || p.TargetHeightMM <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		span := in.MaxElevM - in.MinElevM
		if span <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		f := p.TargetHeightMM / span
		return Factor{f, f, f}, fmt.Sprintf("layers: %d layers spanning %.1fm scaled to %.1fmm target height = %.4fx", in.NumLayers, span, p.TargetHeightMM, f), nil

	case PrintHeight:
		span := in.MaxElevM - in.MinElevM
		if span <= 0 || p.TargetHeightMM <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		f := p.TargetHeightMM / span
		return Factor{f, f, f}, fmt.Sprintf("print-height: %.1fm elevation range scaled to %.1fmm target height = %.4fx", span, p.TargetHeightMM, f), nil

	case UniformXYZ:
		if p.Factor <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		return Factor{p.Factor, p.Factor, p.Factor}, fmt.Sprintf("uniform-xyz: explicit %.4fx applied to all axes", p.Factor), nil

	case Explicit:
		if p.FactorX <= 0 || p.FactorY <= 0 || p.FactorZ <= 0 {
			return Factor{}, "", errs.ErrConfiguration
		}
		return Factor{p.FactorX, p.FactorY, p.FactorZ}, fmt.Sprintf("explicit: x=%.4f y=%.4f z=%.4f", p.FactorX, p.FactorY, p.FactorZ), nil
	}
	return Factor{}, "", errs.ErrConfiguration
}

func computeBedSize(in Input, p Params) (Factor, error) {
	if p.BedWidthMM <= 0 || p.BedDepthMM <= 0 || in.WidthM <= 0 || in.DepthM <= 0 {
		return Factor{}, errs.ErrConfiguration
	}
	usableW := p.BedWidthMM - 2*p.MarginMM
	usableD := p.BedDepthMM - 2*p.MarginMM
	if usableW <= 0 || usableD <= 0 {
		return Factor{}, errs.ErrConfiguration
	}
	fx := usableW / in.WidthM
	fy := usableD / in.DepthM
	f := fx
	if fy < f {
		f = fy
	}
	return Factor{f, f, f}, nil
}
