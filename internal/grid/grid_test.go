package grid

import (
	"math"
	"testing"
)

func TestRepairNoDataNearestNeighbor(t *testing.T) {
	g := New(3, 1, GeoTransform{0, 1, 0, 0, 0, -1})
	g.HasNoData = true
	g.NoData = -9999
	g.Set(0, 0, 10)
	g.Set(1, 0, -9999)
	g.Set(2, 0, 20)

	if err := g.RepairNoData(); err != nil {
		t.Fatalf("RepairNoData: %v", err)
	}
	mid := g.At(1, 0)
	if mid != 10 && mid != 20 {
		t.Errorf("expected repaired value to match a neighbor, got %v", mid)
	}
	if g.HasNoData {
		t.Error("expected HasNoData to be cleared after repair")
	}
}

func TestRepairNoDataAllInvalid(t *testing.T) {
	g := New(2, 2, GeoTransform{})
	for i := range g.Data {
		g.Data[i] = float32(math.NaN())
	}
	if err := g.RepairNoData(); err == nil {
		t.Error("expected error when every sample is no-data")
	}
}

func TestMinMax(t *testing.T) {
	g := New(2, 2, GeoTransform{})
	g.Data = []float32{1, 2, 3, 4}
	min, max, err := g.MinMax()
	if err != nil {
		t.Fatalf("MinMax: %v", err)
	}
	if min != 1 || max != 4 {
		t.Errorf("MinMax() = %v,%v, want 1,4", min, max)
	}
}

func TestGeoTransformToGeo(t *testing.T) {
	gt := GeoTransform{100, 0.5, 0, 200, 0, -0.5}
	x, y := gt.ToGeo(10, 10)
	if x != 105 || y != 195 {
		t.Errorf("ToGeo() = %v,%v, want 105,195", x, y)
	}
}

func TestSampleBilinear(t *testing.T) {
	g := New(2, 2, GeoTransform{})
	g.Data = []float32{0, 10, 0, 10}
	got := g.SampleBilinear(0.5, 0)
	if math.Abs(float64(got)-5) > 1e-6 {
		t.Errorf("SampleBilinear() = %v, want 5", got)
	}
}
