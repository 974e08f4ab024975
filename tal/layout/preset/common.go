// Package preset provides ready-made scenarios and reads scenarios written in HCL.
package preset

import (
	"fmt"
	"math"
	"sort"

	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/cars"
	"nyiyui.ca/hato/railroad/tal/layout"
	"nyiyui.ca/hato/railroad/tal/layout/preset/kato"
)

// KmH converts km/h to m/s.
func KmH(a float64) float64 {
	return a * 1000 / (60 * 60)
}

var presets = map[string]func() tal.Scenario{
	"initial":      Initial,
	"passing-loop": PassingLoop,
}

// Lookup returns the named preset.
func Lookup(name string) (tal.Scenario, error) {
	f, ok := presets[name]
	if !ok {
		return tal.Scenario{}, fmt.Errorf("unknown preset %q (have %v)", name, Names())
	}
	return f(), nil
}

// Names lists the presets.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustLayout(g layout.Graph, switches []layout.Switch) *layout.Layout {
	y, err := layout.New(g, switches)
	if err != nil {
		panic(fmt.Sprintf("preset layout: %s", err))
	}
	return y
}

// Initial is a single junction: a lead-in, then either a reverse curve or a straight run.
func Initial() tal.Scenario {
	var g layout.Graph
	g = g.InsertEdgeData(0, 1, layout.Straight{Length: 75})
	g = g.InsertEdgeData(1, 2, layout.Curved{Radius: 300, Sweep: layout.Degrees(15)})
	g = g.InsertEdgeData(2, 4, layout.Curved{Radius: 300, Sweep: layout.Degrees(-15)})
	g = g.InsertEdgeData(1, 3, layout.Straight{Length: 77.645})
	g = g.InsertEdgeData(3, 5, layout.Straight{Length: 77.645})
	g = g.InsertEdgeData(5, 1000, layout.MapExit{})
	g = g.InsertEdgeData(0, 1001, layout.MapExit{})
	g = g.InsertEdgeData(4, 1002, layout.MapExit{})
	y := mustLayout(g, []layout.Switch{{
		Edges:   []layout.Edge{{From: 1, To: 2}, {From: 1, To: 3}},
		Configs: [][]int{{0}, {1}},
	}})
	return tal.Scenario{
		Layout:      y,
		SwitchState: y.DefaultSwitchState(),
		Trains: []tal.TrainState{
			tal.NewTrain("Happy Train", cars.Uniform("Happy Train", 5, 10), 10, layout.Location{
				Edge: layout.Edge{From: 0, To: 1},
				Pos:  55,
			}),
		},
	}
}

// PassingLoop is a straight main line with a siding alongside it, laid from Unitrack pieces.
// Both ends of the siding leave through EP481-15 turnouts.
func PassingLoop() tal.Scenario {
	b := layout.NewBuilder(0)
	start := b.Node()
	west := b.Line(start, kato.Straight(kato.S248))
	// the main line runs the length of both reverse curves plus the siding
	mainMM := 4*kato.R481*math.Sin(layout.Degrees(15)) + kato.S248
	east := b.Line(west, kato.Straight(mainMM))
	end := b.Line(east, kato.Straight(kato.S248))
	siding := b.Line(west, kato.Curve(kato.R481, 15), kato.Curve(kato.R481, -15), kato.Straight(kato.S248))
	b.LineTo(siding, east, kato.Curve(kato.R481, -15), kato.Curve(kato.R481, 15))
	b.Join(end, 1000, layout.MapExit{})
	b.Join(start, 1001, layout.MapExit{})
	g := b.Graph()

	sidingIn := layout.Edge{From: west, To: g.Outgoing(west)[1]}
	sidingOut := layout.Edge{From: g.Incoming(east)[1], To: east}
	mainLine := layout.Edge{From: west, To: east}
	y := mustLayout(g, []layout.Switch{
		{Edges: []layout.Edge{mainLine, sidingIn}, Configs: [][]int{{0}, {1}}},
		{Edges: []layout.Edge{mainLine, sidingOut}, Configs: [][]int{{0}, {1}}},
	})
	return tal.Scenario{
		Layout:      y,
		SwitchState: y.DefaultSwitchState(),
		Trains: []tal.TrainState{
			tal.NewTrain("Local", cars.Uniform("Local", 3, 20), KmH(45), layout.Location{
				Edge: layout.Edge{From: start, To: west},
				Pos:  30,
			}),
		},
	}
}
