package preset

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/cars"
	"nyiyui.ca/hato/railroad/tal/layout"
)

// hclFile is the top level of a scenario file.
type hclFile struct {
	Edges        []hclEdge   `hcl:"edge,block"`
	Switches     []hclSwitch `hcl:"switch,block"`
	Trains       []hclTrain  `hcl:"train,block"`
	SwitchStates []int       `hcl:"switch_states,optional"`
}

// hclEdge carries exactly one of length (straight), radius and sweep (curved), or exit.
type hclEdge struct {
	From   int      `hcl:"from"`
	To     int      `hcl:"to"`
	Length *float64 `hcl:"length,optional"`
	Radius *float64 `hcl:"radius,optional"`
	// Sweep in degrees.
	Sweep *float64 `hcl:"sweep,optional"`
	Exit  bool     `hcl:"exit,optional"`
}

type hclSwitch struct {
	Edges   [][]int `hcl:"edges"`
	Configs [][]int `hcl:"configs"`
}

type hclTrain struct {
	Name        string    `hcl:"name,label"`
	Cars        []float64 `hcl:"cars"`
	Edge        []int     `hcl:"edge"`
	Pos         float64   `hcl:"pos,optional"`
	Orientation *string   `hcl:"orientation,optional"`
	Speed       float64   `hcl:"speed,optional"`
}

// ParseHCL reads a scenario from HCL source. filename is only used in diagnostics.
func ParseHCL(src []byte, filename string) (tal.Scenario, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return tal.Scenario{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var parsed hclFile
	diags = gohcl.DecodeBody(f.Body, nil, &parsed)
	if diags.HasErrors() {
		return tal.Scenario{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	s, err := parsed.scenario()
	if err != nil {
		return tal.Scenario{}, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// ParseHCLFile is ParseHCL on the contents of path.
func ParseHCLFile(path string) (tal.Scenario, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return tal.Scenario{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return ParseHCL(f.Bytes, path)
}

func (e hclEdge) track() (layout.Track, error) {
	switch {
	case e.Exit && e.Length == nil && e.Radius == nil && e.Sweep == nil:
		return layout.MapExit{}, nil
	case !e.Exit && e.Length != nil && e.Radius == nil && e.Sweep == nil:
		return layout.Straight{Length: *e.Length}, nil
	case !e.Exit && e.Length == nil && e.Radius != nil && e.Sweep != nil:
		return layout.Curved{Radius: *e.Radius, Sweep: layout.Degrees(*e.Sweep)}, nil
	default:
		return nil, errors.New("edge needs exactly one of length, radius and sweep, or exit")
	}
}

func pair(xs []int) (layout.Edge, error) {
	if len(xs) != 2 {
		return layout.Edge{}, fmt.Errorf("edge %v must be [from, to]", xs)
	}
	return layout.Edge{From: layout.NodeID(xs[0]), To: layout.NodeID(xs[1])}, nil
}

func (f hclFile) scenario() (tal.Scenario, error) {
	var g layout.Graph
	for i, e := range f.Edges {
		t, err := e.track()
		if err != nil {
			return tal.Scenario{}, fmt.Errorf("edge %d (%d→%d): %w", i, e.From, e.To, err)
		}
		g = g.InsertEdgeData(layout.NodeID(e.From), layout.NodeID(e.To), t)
	}
	switches := make([]layout.Switch, len(f.Switches))
	for i, s := range f.Switches {
		for _, xs := range s.Edges {
			e, err := pair(xs)
			if err != nil {
				return tal.Scenario{}, fmt.Errorf("switch %d: %w", i, err)
			}
			switches[i].Edges = append(switches[i].Edges, e)
		}
		switches[i].Configs = s.Configs
	}
	y, err := layout.New(g, switches)
	if err != nil {
		return tal.Scenario{}, err
	}
	ss := y.DefaultSwitchState()
	if f.SwitchStates != nil {
		ss = layout.SwitchState(f.SwitchStates)
	}
	trains := make([]tal.TrainState, len(f.Trains))
	for i, t := range f.Trains {
		e, err := pair(t.Edge)
		if err != nil {
			return tal.Scenario{}, fmt.Errorf("train %s: %w", t.Name, err)
		}
		loc := layout.Location{Edge: e, Pos: t.Pos}
		if t.Orientation != nil {
			if err := loc.Orientation.UnmarshalText([]byte(*t.Orientation)); err != nil {
				return tal.Scenario{}, fmt.Errorf("train %s: %w", t.Name, err)
			}
		}
		form := cars.Form{Comment: t.Name}
		for _, l := range t.Cars {
			form.Cars = append(form.Cars, cars.Car{Length: l})
		}
		trains[i] = tal.NewTrain(t.Name, form, t.Speed, loc)
	}
	s := tal.Scenario{Layout: y, SwitchState: ss, Trains: trains}
	if err := s.Validate(); err != nil {
		return tal.Scenario{}, err
	}
	return s, nil
}
