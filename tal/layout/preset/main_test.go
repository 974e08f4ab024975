package preset

import (
	_ "embed"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/layout"
)

//go:embed testdata/initial.hcl
var initialHCL []byte

func TestPresets(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Lookup(name)
			if err != nil {
				t.Fatalf("Lookup: %s", err)
			}
			if err := s.Validate(); err != nil {
				t.Fatalf("Validate: %s", err)
			}
			frames := layout.Project(s.Layout)
			if got := layout.CheckLoops(s.Layout, frames, 1e-6); len(got) != 0 {
				t.Fatalf("inconsistent loops: %v", got)
			}
			for _, n := range s.Layout.Graph.Nodes() {
				if _, ok := frames[n]; !ok {
					t.Fatalf("node %d not projected", n)
				}
			}
			for _, train := range s.Trains {
				if _, err := tal.DefaultPlacer.Cars(train, s.Layout, s.SwitchState, frames); err != nil {
					t.Fatalf("placing %s: %s", train.Name, err)
				}
			}
		})
	}
	if _, err := Lookup("nonexistent"); err == nil {
		t.Fatalf("unknown preset found")
	}
}

func TestPassingLoopRoutes(t *testing.T) {
	s := PassingLoop()
	path, ok := layout.PathTo(s.Layout, 0, 1000)
	if !ok {
		t.Fatalf("no path through the loop")
	}
	train := s.Trains[0]
	// Round the siding and out the far end: both switches thrown.
	siding := []layout.Edge{{From: 1, To: 4}, {From: 7, To: 2}}
	ss, err := layout.AlignRoute(s.Layout, s.SwitchState, siding)
	if err != nil {
		t.Fatalf("AlignRoute: %s", err)
	}
	if diff := cmp.Diff(layout.SwitchState{1, 1}, ss); diff != "" {
		t.Fatalf("switch state (-want +got):\n%s", diff)
	}
	for i := 0; i < 100 && !train.Derailed(); i++ {
		train = tal.Advance(1, train, s.Layout, ss)
		if !train.Derailed() && train.Location.Edge == (layout.Edge{From: 3, To: 1000}) {
			break
		}
	}
	if train.Derailed() || train.Location.Edge != (layout.Edge{From: 3, To: 1000}) {
		t.Fatalf("did not leave through the east exit: %s (main path %v)", train, path)
	}

	// Siding entered but the far switch set for the main line: the train derails at the merge.
	ss = layout.SwitchState{1, 0}
	train = s.Trains[0]
	for i := 0; i < 100 && !train.Derailed(); i++ {
		train = tal.Advance(1, train, s.Layout, ss)
	}
	if !train.Derailed() {
		t.Fatalf("ran through a switch set against it: %s", train)
	}
}

func TestParseHCL(t *testing.T) {
	got, err := ParseHCL(initialHCL, "initial.hcl")
	if err != nil {
		t.Fatalf("ParseHCL: %s", err)
	}
	want := Initial()
	if diff := cmp.Diff(want.Layout.Graph.Edges(), got.Layout.Graph.Edges()); diff != "" {
		t.Fatalf("edges (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Layout.Switches, got.Layout.Switches); diff != "" {
		t.Fatalf("switches (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.SwitchState, got.SwitchState); diff != "" {
		t.Fatalf("switch state (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Trains, got.Trains); diff != "" {
		t.Fatalf("trains (-want +got):\n%s", diff)
	}
}

func TestParseHCLErrors(t *testing.T) {
	type setup struct {
		name string
		src  string
		is   error
	}
	for _, s := range []setup{
		{"syntax", `edge {`, nil},
		{"two-shapes", `edge {
  from   = 0
  to     = 1
  length = 5
  exit   = true
}`, nil},
		{"no-shape", `edge {
  from = 0
  to   = 1
}`, nil},
		{"switch-state-length", `edge {
  from   = 0
  to     = 1
  length = 5
}
switch_states = [0]`, layout.ErrSwitchStateLength},
		{"bad-config", `edge {
  from   = 0
  to     = 1
  length = 5
}
switch {
  edges   = [[0, 1]]
  configs = [[1]]
}`, layout.ErrConfigIndex},
		{"train-off-layout", `edge {
  from   = 0
  to     = 1
  length = 5
}
train "lost" {
  cars = [1]
  edge = [1, 2]
}`, layout.ErrUnknownEdge},
		{"orientation", `edge {
  from   = 0
  to     = 1
  length = 5
}
train "dizzy" {
  cars        = [1]
  edge        = [0, 1]
  orientation = "sideways"
}`, nil},
	} {
		t.Run(s.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(s.src), s.name+".hcl")
			if err == nil {
				t.Fatalf("accepted")
			}
			if s.is != nil && !errors.Is(err, s.is) {
				t.Fatalf("got %v, want %v", err, s.is)
			}
		})
	}
}
