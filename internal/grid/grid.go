// Package grid holds the elevation grid input type: a 2D array of
// sampled elevations plus the affine geotransform mapping pixel space
// to geographic space, and the no-data repair pass that must run
// before contouring.
package grid

import (
	"math"

	"github.com/mhacking/topogen/internal/errs"
)

// GeoTransform is the six-coefficient affine mapping from pixel
// (col, row) to geographic (x, y):
//
//	x = GT[0] + col*GT[1] + row*GT[2]
//	y = GT[3] + col*GT[4] + row*GT[5]
type GeoTransform [6]float64

// ToGeo converts pixel-space (col, row) to geographic (x, y).
func (gt GeoTransform) ToGeo(col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return
}

// NorthUp reports whether the grid is stored north-to-south with no
// shear (gt[2]==gt[4]==0, gt[5]<0), the common case for SRTM-style
// tiles. Extraction does not require this, but callers may use it to
// sanity-check input.
func (gt GeoTransform) NorthUp() bool {
	return gt[2] == 0 && gt[4] == 0 && gt[5] < 0
}

// Grid is a 2D array of single-precision elevation samples, stored
// row-major, top-to-bottom (north-to-south when GeoTransform.NorthUp).
type Grid struct {
	Width, Height int
	Data          []float32 // len == Width*Height
	Transform     GeoTransform
	NoData        float32
	HasNoData     bool
}

// New allocates a grid of the given dimensions.
func New(width, height int, transform GeoTransform) *Grid {
	return &Grid{
		Width:     width,
		Height:    height,
		Data:      make([]float32, width*height),
		Transform: transform,
	}
}

// At returns the sample at (col, row). Out-of-range indices panic, as
// callers are expected to stay within the grid's own bounds.
func (g *Grid) At(col, row int) float32 {
	return g.Data[row*g.Width+col]
}

// Set assigns the sample at (col, row).
func (g *Grid) Set(col, row int, v float32) {
	g.Data[row*g.Width+col] = v
}

// IsNoData reports whether v should be treated as a no-data sentinel:
// either NaN or, when HasNoData is set, equal to NoData.
func (g *Grid) IsNoData(v float32) bool {
	if math.IsNaN(float64(v)) {
		return true
	}
	return g.HasNoData && v == g.NoData
}

// MinMax returns the minimum and maximum valid (non-no-data) sample
// values. Returns errs.ErrNoElevationData if every sample is no-data.
func (g *Grid) MinMax() (min, max float32, err error) {
	min = float32(math.Inf(1))
	max = float32(math.Inf(-1))
	found := false
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		found = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !found {
		return 0, 0, errs.ErrNoElevationData
	}
	return min, max, nil
}

// RepairNoData replaces every no-data sentinel with the elevation of
// its nearest valid neighbor, using a multi-source breadth-first
// expansion so the result is deterministic regardless of scan order.
// Per spec §4.2, the choice of repair strategy (vs. treating no-data
// as -inf during tracing) must be applied consistently within one run;
// this pipeline always repairs before extraction.
func (g *Grid) RepairNoData() error {
	n := g.Width * g.Height
	if n == 0 {
		return errs.ErrNoElevationData
	}

	valid := make([]bool, n)
	anyValid := false
	for i, v := range g.Data {
		if !g.IsNoData(v) {
			valid[i] = true
			anyValid = true
		}
	}
	if !anyValid {
		return errs.ErrNoElevationData
	}

	// Multi-source BFS from every valid cell simultaneously: the first
	// time a no-data cell is reached, it is assigned the elevation of
	// the source that reached it, which is guaranteed to be a nearest
	// valid neighbor in 4-connected grid distance.
	type cell struct{ col, row int }
	queue := make([]cell, 0, n)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if valid[row*g.Width+col] {
				queue = append(queue, cell{col, row})
			}
		}
	}

	visited := make([]bool, n)
	copy(visited, valid)

	for head := 0; head < len(queue); head++ {
		c := queue[head]
		idx := c.row*g.Width + c.col
		elev := g.Data[idx]
		neighbors := [4]cell{
			{c.col - 1, c.row}, {c.col + 1, c.row},
			{c.col, c.row - 1}, {c.col, c.row + 1},
		}
		for _, nb := range neighbors {
			if nb.col < 0 || nb.col >= g.Width || nb.row < 0 || nb.row >= g.Height {
				continue
			}
			nidx := nb.row*g.Width + nb.col
			if visited[nidx] {
				continue
			}
			visited[nidx] = true
			g.Data[nidx] = elev
			queue = append(queue, nb)
		}
	}

	g.HasNoData = false
	return nil
}

// SampleBilinear samples elevation at fractional pixel coordinates
// using bilinear interpolation, used by MeshBuilder's terrain-following
// mode to sample a regular lattice independent of the native grid
// resolution.
func (g *Grid) SampleBilinear(col, row float64) float32 {
	c0 := int(math.Floor(col))
	r0 := int(math.Floor(row))
	c1, r1 := c0+1, r0+1

	clampC := func(c int) int {
		if c < 0 {
			return 0
		}
		if c >= g.Width {
			return g.Width - 1
		}
		return c
	}
	clampR := func(r int) int {
		if r < 0 {
			return 0
		}
		if r >= g.Height {
			return g.Height - 1
		}
		return r
	}

	fc := col - float64(c0)
	fr := row - float64(r0)

	v00 := g.At(clampC(c0), clampR(r0))
	v10 := g.At(clampC(c1), clampR(r0))
	v01 := g.At(clampC(c0), clampR(r1))
	v11 := g.At(clampC(c1), clampR(r1))

	top := float64(v00)*(1-fc) + float64(v10)*fc
	bot := float64(v01)*(1-fc) + float64(v11)*fc
	return float32(top*(1-fr) + bot*fr)
}
