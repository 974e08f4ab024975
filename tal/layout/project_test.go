package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"

	"nyiyui.ca/hato/railroad/geom"
)

func TestProject(t *testing.T) {
	y := testLayout(t, [][]int{{0}, {1}})
	frames := Project(y)
	dx := 300 * math.Sin(Degrees(15))
	dy := 300 * (1 - math.Cos(Degrees(15)))
	want := Frames{
		0:    {Origin: orb.Point{0, 2.5}},
		1:    {Origin: orb.Point{75, 2.5}},
		2:    {Origin: orb.Point{75 + dx, 2.5 + dy}, Heading: Degrees(15)},
		3:    {Origin: orb.Point{75 + 77.645, 2.5}},
		4:    {Origin: orb.Point{75 + 2*dx, 2.5 + 2*dy}},
		5:    {Origin: orb.Point{75 + 2*77.645, 2.5}},
		1000: {Origin: orb.Point{75 + 2*77.645, 2.5}},
		1001: {Origin: orb.Point{0, 2.5}},
		1002: {Origin: orb.Point{75 + 2*dx, 2.5 + 2*dy}},
	}
	if diff := cmp.Diff(want, frames, approx); diff != "" {
		t.Fatalf("frames (-want +got):\n%s", diff)
	}
	if got := CheckLoops(y, frames, 1e-6); len(got) != 0 {
		t.Fatalf("tree layout reported loops: %v", got)
	}
}

func TestProjectUnreachable(t *testing.T) {
	g := Graph{}.InsertEdgeData(0, 1, Straight{Length: 5}).InsertEdgeData(7, 8, Straight{Length: 5})
	y, err := New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	frames := Project(y)
	if _, ok := frames[7]; ok {
		t.Fatalf("unreachable node projected")
	}
	if _, ok := frames.PointAt(y, Location{Edge{7, 8}, 1, Aligned}); ok {
		t.Fatalf("PointAt on unprojected edge succeeded")
	}
}

func TestPointAt(t *testing.T) {
	y := testLayout(t, [][]int{{0}, {1}})
	frames := Project(y)
	got, ok := frames.PointAt(y, Location{Edge{0, 1}, 10, Reversed})
	if !ok {
		t.Fatalf("PointAt failed")
	}
	if diff := cmp.Diff(geom.AtPoint(10, 2.5), got, approx); diff != "" {
		t.Fatalf("straight (-want +got):\n%s", diff)
	}
	// Halfway round the first curve the heading has turned half the sweep.
	half := Length(Curved{Radius: 300, Sweep: Degrees(15)}) / 2
	got, ok = frames.PointAt(y, Location{Edge{1, 2}, half, Aligned})
	if !ok {
		t.Fatalf("PointAt curve failed")
	}
	if diff := cmp.Diff(Degrees(7.5), got.Heading, approx); diff != "" {
		t.Fatalf("curve heading (-want +got):\n%s", diff)
	}
	b := frames.Bound()
	if b.Min[0] != 0 || b.Min[1] != 0 || b.Max[0] < 230 {
		t.Fatalf("bound: %v", b)
	}
}

func TestCheckLoops(t *testing.T) {
	g := Graph{}.
		InsertEdgeData(0, 1, Straight{Length: 10}).
		InsertEdgeData(1, 2, Straight{Length: 10}).
		InsertEdgeData(0, 2, Straight{Length: 25})
	y, err := New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	got := CheckLoops(y, Project(y), 0.01)
	if len(got) != 1 || got[0].Edge != (Edge{0, 2}) {
		t.Fatalf("CheckLoops: %v", got)
	}

	// Meeting a node head-on is fine.
	g = Graph{}.
		InsertEdgeData(0, 1, Straight{Length: 10}).
		InsertEdgeData(2, 1, Straight{Length: 10}).
		InsertEdgeData(1, 2, Straight{Length: 10})
	y, err = New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	frames := ProjectFrom(y, 0, geom.Frame{})
	frames[2] = geom.Frame{Origin: orb.Point{20, 0}, Heading: math.Pi}
	if got := CheckLoops(y, frames, 0.01); len(got) != 0 {
		t.Fatalf("head-on: %v", got)
	}
}
