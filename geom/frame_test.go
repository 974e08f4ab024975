package geom

import (
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

func TestTranslate(t *testing.T) {
	f := AtPoint(0, 2.5).Rotate(math.Pi / 2).Translate(10)
	expected := Frame{Origin: orb.Point{0, 12.5}, Heading: math.Pi / 2}
	if !cmp.Equal(f, expected, approx) {
		t.Fatalf("diff: %s", cmp.Diff(expected, f, approx))
	}
}

func TestArc(t *testing.T) {
	type setup struct {
		name     string
		radius   float64
		sweep    float64
		expected Frame
	}
	setups := []setup{
		{"quarter-left", 10, math.Pi / 2, Frame{Origin: orb.Point{10, 10}, Heading: math.Pi / 2}},
		{"quarter-right", 10, -math.Pi / 2, Frame{Origin: orb.Point{10, -10}, Heading: -math.Pi / 2}},
		{"half-left", 5, math.Pi, Frame{Origin: orb.Point{0, 10}, Heading: math.Pi}},
		{"none", 300, 0, Frame{}},
	}
	for _, s := range setups {
		t.Run(s.name, func(t *testing.T) {
			got := Frame{}.Arc(s.radius, s.sweep)
			if !cmp.Equal(got, s.expected, approx) {
				t.Fatalf("diff: %s", cmp.Diff(s.expected, got, approx))
			}
		})
	}
}

func TestArcChord(t *testing.T) {
	// chord of a 15° arc of radius 300 m is 2r·sin(θ/2)
	f := AtPoint(3, 4).Rotate(0.3)
	sweep := 15 * math.Pi / 180
	got := Distance(f, f.Arc(300, sweep))
	expected := 2 * 300 * math.Sin(sweep/2)
	if math.Abs(got-expected) > 1e-9 {
		t.Fatalf("expected chord %f, got %f", expected, got)
	}
}

func TestHeadingDiff(t *testing.T) {
	a := Frame{Heading: math.Pi - 0.1}
	b := Frame{Heading: -math.Pi + 0.1}
	if got := HeadingDiff(a, b); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected 0.2, got %f", got)
	}
}

func TestBound(t *testing.T) {
	b := Bound([]Frame{AtPoint(-1, 2), AtPoint(5, -3)})
	expected := orb.Bound{Min: orb.Point{-1, -3}, Max: orb.Point{5, 2}}
	if !cmp.Equal(b, expected) {
		t.Fatalf("diff: %s", cmp.Diff(expected, b))
	}
}
