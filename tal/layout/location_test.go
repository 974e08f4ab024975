package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
)

// orb.Point has an exact Equal method, which cmp would prefer over EquateApprox.
var approx = cmp.Options{
	cmpopts.EquateApprox(0, 1e-9),
	cmp.Comparer(func(a, b orb.Point) bool {
		return math.Abs(a.X()-b.X()) <= 1e-9 && math.Abs(a.Y()-b.Y()) <= 1e-9
	}),
}

func straightPair(t *testing.T, successor bool) *Layout {
	t.Helper()
	g := Graph{}.InsertEdgeData(0, 1, Straight{Length: 75})
	if successor {
		g = g.InsertEdgeData(1, 2, Straight{Length: 100})
	}
	y, err := New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	return y
}

func TestNormalize(t *testing.T) {
	pair := straightPair(t, true)
	single := straightPair(t, false)
	junction := testLayout(t, [][]int{{0}, {1}})
	type setup struct {
		name string
		y    *Layout
		ss   SwitchState
		loc  Location
		want Location
		ok   bool
	}
	for _, s := range []setup{
		{"in-bounds", pair, nil, Location{Edge{0, 1}, 70, Aligned}, Location{Edge{0, 1}, 70, Aligned}, true},
		{"end-inclusive", pair, nil, Location{Edge{0, 1}, 75, Aligned}, Location{Edge{0, 1}, 75, Aligned}, true},
		{"forward-onto-successor", pair, nil, Location{Edge{0, 1}, 80, Aligned}, Location{Edge{1, 2}, 5, Aligned}, true},
		{"forward-two-edges", pair, nil, Location{Edge{0, 1}, 75 + 100 + 1, Aligned}, Location{}, false},
		{"forward-no-successor", single, nil, Location{Edge{0, 1}, 80, Aligned}, Location{}, false},
		{"backing-aligned", pair, nil, Location{Edge{1, 2}, -5, Aligned}, Location{Edge{0, 1}, 70, Aligned}, true},
		{"reversed-forward", pair, nil, Location{Edge{1, 2}, -5, Reversed}, Location{Edge{0, 1}, 70, Reversed}, true},
		{"reversed-backing", pair, nil, Location{Edge{0, 1}, 80, Reversed}, Location{Edge{1, 2}, 5, Reversed}, true},
		{"off-start", pair, nil, Location{Edge{0, 1}, -1, Aligned}, Location{}, false},
		{"unknown-edge", pair, nil, Location{Edge{5, 6}, 1, Aligned}, Location{}, false},
		{"reverse-of-edge", pair, nil, Location{Edge{1, 0}, 1, Aligned}, Location{}, false},
		{"nan", pair, nil, Location{Edge{0, 1}, math.NaN(), Aligned}, Location{}, false},
		{"switch-straight", junction, SwitchState{1}, Location{Edge{0, 1}, 80, Aligned}, Location{Edge{1, 3}, 5, Aligned}, true},
		{"switch-curve", junction, SwitchState{0}, Location{Edge{0, 1}, 80, Aligned}, Location{Edge{1, 2}, 5, Aligned}, true},
		{"switch-blocked", junction, SwitchState{7}, Location{Edge{0, 1}, 80, Aligned}, Location{}, false},
		{"trailing-through", junction, SwitchState{1}, Location{Edge{1, 3}, -5, Aligned}, Location{Edge{0, 1}, 70, Aligned}, true},
		{"trailing-set-against", junction, SwitchState{0}, Location{Edge{1, 3}, -5, Aligned}, Location{}, false},
		{"into-exit", junction, SwitchState{1}, Location{Edge{3, 5}, 80, Aligned}, Location{Edge{5, 1000}, 80 - 77.645, Aligned}, true},
		{"exit-is-sink", junction, SwitchState{1}, Location{Edge{5, 1000}, 1e12, Aligned}, Location{Edge{5, 1000}, 1e12, Aligned}, true},
		{"back-out-of-exit", junction, SwitchState{1}, Location{Edge{5, 1000}, -2, Aligned}, Location{Edge{3, 5}, 77.645 - 2, Aligned}, true},
		{"behind-start", junction, SwitchState{1}, Location{Edge{0, 1}, -3, Aligned}, Location{Edge{0, 1001}, 3, Reversed}, true},
	} {
		t.Run(s.name, func(t *testing.T) {
			got, ok := Normalize(s.loc, s.y, s.ss)
			if ok != s.ok {
				t.Fatalf("ok: got %t, want %t (loc %s)", ok, s.ok, got)
			}
			if diff := cmp.Diff(s.want, got, approx); diff != "" {
				t.Fatalf("location (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeInvariants(t *testing.T) {
	y := testLayout(t, [][]int{{0}, {1}})
	for _, ss := range []SwitchState{{0}, {1}} {
		for _, te := range y.Graph.EdgesWithData() {
			if _, ok := te.Track.(MapExit); ok {
				continue
			}
			for _, o := range []Orientation{Aligned, Reversed} {
				for _, pos := range []float64{-200, -80, -1, 0, 30, 77.645, 90, 160, 400} {
					loc := Location{Edge: te.Edge, Pos: pos, Orientation: o}
					t.Run(fmt.Sprintf("%v/%s", ss, loc), func(t *testing.T) {
						got, ok := Normalize(loc, y, ss)
						if !ok {
							return
						}
						tr, found := y.TrackAt(got.Edge)
						if !found {
							t.Fatalf("result on unknown edge %s", got.Edge)
						}
						if got.Pos < 0 || got.Pos > Length(tr) {
							t.Fatalf("out of bounds: %s (length %g)", got, Length(tr))
						}
						again, ok := Normalize(got, y, ss)
						if !ok || again != got {
							t.Fatalf("not idempotent: %s → %s (%t)", got, again, ok)
						}
					})
				}
			}
		}
	}
}

func TestAmbiguousJunction(t *testing.T) {
	// Both branches connected at once.
	y := testLayout(t, [][]int{{0, 1}})
	ss := SwitchState{0}
	loc := Location{Edge{0, 1}, 70, Aligned}
	if got, ok := NextTrack(loc, y, ss); ok {
		t.Fatalf("NextTrack resolved ambiguous junction to %s", got)
	}
	if got, ok := PreviousTrack(loc.Invert(), y, ss); ok {
		t.Fatalf("PreviousTrack resolved ambiguous junction to %s", got)
	}
	if got, ok := Normalize(Location{Edge{0, 1}, 80, Aligned}, y, ss); ok {
		t.Fatalf("Normalize resolved ambiguous junction to %s", got)
	}
}

func TestNextPreviousTrack(t *testing.T) {
	y := testLayout(t, [][]int{{0}, {1}})
	ss := SwitchState{1}
	next, ok := NextTrack(Location{Edge{0, 1}, 10, Aligned}, y, ss)
	if !ok {
		t.Fatalf("NextTrack failed")
	}
	if diff := cmp.Diff(Location{Edge{1, 3}, 0, Aligned}, next); diff != "" {
		t.Fatalf("NextTrack (-want +got):\n%s", diff)
	}
	prev, ok := PreviousTrack(Location{Edge{1, 3}, 10, Aligned}, y, ss)
	if !ok {
		t.Fatalf("PreviousTrack failed")
	}
	if diff := cmp.Diff(Location{Edge{0, 1}, 75, Aligned}, prev); diff != "" {
		t.Fatalf("PreviousTrack (-want +got):\n%s", diff)
	}
	prev, ok = PreviousTrack(Location{Edge{1, 3}, 10, Reversed}, y, ss)
	if !ok {
		t.Fatalf("PreviousTrack reversed failed")
	}
	if diff := cmp.Diff(Location{Edge{3, 5}, 0, Reversed}, prev); diff != "" {
		t.Fatalf("PreviousTrack reversed (-want +got):\n%s", diff)
	}
}

func TestNormalizeHopBound(t *testing.T) {
	// A tiny ring: running far enough forward exhausts the hop bound.
	g := Graph{}.
		InsertEdgeData(0, 1, Straight{Length: 1e-3}).
		InsertEdgeData(1, 0, Straight{Length: 1e-3})
	y, err := New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	if _, ok := Normalize(Location{Edge{0, 1}, 1e-3 * 2.5, Aligned}, y, nil); ok {
		// 1→0 is the reverse of 0→1, so the ring is a dead end.
		t.Fatalf("reverse edge used as continuation")
	}
	g = Graph{}.
		InsertEdgeData(0, 1, Straight{Length: 1e-3}).
		InsertEdgeData(1, 2, Straight{Length: 1e-3}).
		InsertEdgeData(2, 0, Straight{Length: 1e-3})
	y, err = New(g, nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	got, ok := Normalize(Location{Edge{0, 1}, 1e-3 * 2.5, Aligned}, y, nil)
	if !ok {
		t.Fatalf("short run around ring failed")
	}
	if diff := cmp.Diff(Location{Edge{2, 0}, 0.5e-3, Aligned}, got, approx); diff != "" {
		t.Fatalf("ring (-want +got):\n%s", diff)
	}
	if _, ok := Normalize(Location{Edge{0, 1}, 1e-3 * (MaxNormalizeHops + 5), Aligned}, y, nil); ok {
		t.Fatalf("hop bound not enforced")
	}
}

func TestOrientationText(t *testing.T) {
	for _, o := range []Orientation{Aligned, Reversed} {
		b, err := o.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %s", err)
		}
		var o2 Orientation
		if err := o2.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText: %s", err)
		}
		if o2 != o {
			t.Fatalf("round trip: got %s, want %s", o2, o)
		}
	}
	var o Orientation
	if err := o.UnmarshalText([]byte("sideways")); err == nil {
		t.Fatalf("accepted sideways")
	}
}
