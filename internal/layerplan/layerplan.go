// Package layerplan implements LayerPlanner: turning an elevation range
// and a banding strategy into an ordered, monotonically increasing
// vector of level values, each carrying its 0-based index in the plan.
package layerplan

import (
	"math"
	"sort"

	"github.com/mhacking/topogen/internal/errs"
)

// Strategy selects how levels are derived from the elevation range.
type Strategy int

const (
	// Uniform partitions [min, max] into NumLayers equal-width bands.
	Uniform Strategy = iota
	// Interval steps by Interval starting at the smallest multiple
	// of Interval >= min.
	Interval
	// Explicit uses ExplicitLevels verbatim (still filtered and sorted)
	// when NumLayers is 0; a positive NumLayers takes precedence.
	Explicit
	// Filtered is planned exactly like Interval. The min/max/threshold
	// filters apply to every strategy alike, and a zero threshold
	// drops nothing.
	Filtered
)

// Plan configures LayerPlanner; call Compute to derive the levels.
type Plan struct {
	MinElev, MaxElev float64
	NumLayers        int     // spec: nonzero takes precedence over Interval
	IntervalM        float64 // meters
	Strategy         Strategy
	ExplicitLevels   []float64

	MinElevationFilter *float64
	MaxElevationFilter *float64
	ElevationThreshold float64

	// FixedElevation, when non-nil, is always included as a level
	// regardless of strategy — restores the original's water-body
	// fixed-elevation band (SPEC_FULL §C.3).
	FixedElevation *float64
}

// Level is one planned band: its elevation value and its position in
// the planned sequence (assigned before any extraction-driven pruning).
type Level struct {
	Elevation  float64
	LevelIndex int // index into the planned level vector
}

// Compute produces levels in increasing elevation order. Per spec.md §4.1:
// NumLayers > 0 takes precedence over IntervalM. MaxElev <= MinElev
// collapses to a single layer at MinElev.
func (p Plan) Compute() ([]Level, error) {
	if p.MaxElev <= p.MinElev {
		return []Level{{Elevation: p.MinElev, LevelIndex: 0}}, nil
	}

	var levels []float64
	switch {
	case p.NumLayers > 0:
		levels = uniformLevels(p.MinElev, p.MaxElev, p.NumLayers)
	case p.Strategy == Explicit:
		levels = append([]float64(nil), p.ExplicitLevels...)
	case p.IntervalM > 0:
		levels = intervalLevels(p.MinElev, p.MaxElev, p.IntervalM)
	default:
		return nil, errs.ErrConfiguration
	}

	levels = filterLevels(levels, p.MinElevationFilter, p.MaxElevationFilter, p.ElevationThreshold, p.MinElev, p.MaxElev)

	if p.FixedElevation != nil {
		levels = append(levels, *p.FixedElevation)
	}

	sort.Float64s(levels)
	levels = dedupeSorted(levels)

	if len(levels) == 0 {
		return nil, errs.ErrNoElevationData
	}

	out := make([]Level, len(levels))
	for i, lv := range levels {
		out[i] = Level{Elevation: lv, LevelIndex: i}
	}
	return out, nil
}

// uniformLevels partitions [min,max] into n equal-width bands, taking
// the lower boundary of each band as its level.
func uniformLevels(min, max float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	width := (max - min) / float64(n)
	levels := make([]float64, n)
	for i := 0; i < n; i++ {
		levels[i] = min + float64(i)*width
	}
	return levels
}

// intervalLevels starts at the smallest multiple of interval >= min
// and steps by interval up to (and including, if exact) max.
func intervalLevels(min, max, interval float64) []float64 {
	start := math.Ceil(min/interval) * interval
	var levels []float64
	for v := start; v <= max+1e-9; v += interval {
		levels = append(levels, v)
	}
	return levels
}

func filterLevels(levels []float64, minF, maxF *float64, threshold, dataMin, dataMax float64) []float64 {
	out := levels[:0:0]
	for _, v := range levels {
		if minF != nil && v < *minF {
			continue
		}
		if maxF != nil && v > *maxF {
			continue
		}
		if threshold > 0 && (v < dataMin+threshold || v > dataMax-threshold) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupeSorted(levels []float64) []float64 {
	if len(levels) == 0 {
		return levels
	}
	out := levels[:1]
	for _, v := range levels[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
