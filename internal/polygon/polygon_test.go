package polygon

import (
	"testing"

	"github.com/mhacking/topogen/internal/geomtypes"
)

func square(x0, y0, x1, y1 float64) geomtypes.Ring {
	return geomtypes.Ring{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}
}

func TestSimplifyCollinearPoints(t *testing.T) {
	r := geomtypes.Ring{
		{X: 0, Y: 0}, {X: 1, Y: 0.01}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0},
	}
	simplified := Simplify(r, 0.1)
	if len(simplified) >= len(r) {
		t.Errorf("expected simplification to reduce vertex count, got %d -> %d", len(r), len(simplified))
	}
}

func TestDedupeVertices(t *testing.T) {
	r := geomtypes.Ring{
		{X: 0, Y: 0}, {X: 0, Y: 0.0000001}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0},
	}
	out := DedupeVertices(r, 1e-4)
	if len(out) != 4 {
		t.Errorf("expected duplicate near-identical point removed, got %d points: %+v", len(out), out)
	}
}

func TestOrientForcesWinding(t *testing.T) {
	cw := square(0, 0, 1, 1).Reversed()
	if cw.CCW() {
		t.Fatal("test fixture should be CW")
	}
	ccw := orient(cw, true)
	if !ccw.CCW() {
		t.Error("expected orient(true) to force CCW")
	}
}

func TestProcessRemovesHoles(t *testing.T) {
	p := geomtypes.Polygon{
		Exterior: square(0, 0, 10, 10),
		Holes:    []geomtypes.Ring{square(2, 2, 4, 4).Reversed()},
	}
	out, err := Process(p, Options{RemoveHoles: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Holes) != 0 {
		t.Errorf("expected holes removed, got %d", len(out.Holes))
	}
}

func TestProcessExteriorIsCCW(t *testing.T) {
	p := geomtypes.Polygon{Exterior: square(0, 0, 10, 10).Reversed()}
	out, err := Process(p, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !out.Exterior.CCW() {
		t.Error("expected processed exterior to be CCW")
	}
}
