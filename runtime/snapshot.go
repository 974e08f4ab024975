package runtime

import (
	"math"

	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/geom"
	"nyiyui.ca/hato/railroad/sim"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/layout"
)

// edgeSampleSpacing is the distance between points drawn along an edge, in metres.
const edgeSampleSpacing = 0.5

const maxEdgeSamples = 64

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FramePoint is a node's frame, heading in degrees.
type FramePoint struct {
	Point
	Heading float64 `json:"heading"`
}

type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

type EdgeView struct {
	From   int  `json:"from"`
	To     int  `json:"to"`
	Usable bool `json:"usable"`
	Exit   bool `json:"exit"`
	// Path is empty for exits and for edges away from the projected part of the layout.
	Path []Point `json:"path"`
}

type CarView struct {
	Train  string `json:"train"`
	Index  int    `json:"index"`
	Front  Point  `json:"front"`
	Back   Point  `json:"back"`
	Hidden bool   `json:"hidden"`
}

// Snapshot is what a client needs to draw the model.
type Snapshot struct {
	Doc     doc.Document       `json:"doc"`
	Frames  map[int]FramePoint `json:"frames"`
	Bounds  Bounds             `json:"bounds"`
	Edges   []EdgeView         `json:"edges"`
	Cars    []CarView          `json:"cars"`
	Running bool               `json:"running"`
	Message string             `json:"message"`
}

func toPoint(f geom.Frame) Point {
	return Point{X: f.Origin.X(), Y: f.Origin.Y()}
}

// geometry is the part of a snapshot that only depends on the layout.
type geometry struct {
	layout *layout.Layout
	frames layout.Frames
	views  map[int]FramePoint
	bounds Bounds
	paths  map[layout.Edge][]Point
}

func newGeometry(y *layout.Layout) *geometry {
	frames := layout.Project(y)
	g := &geometry{
		layout: y,
		frames: frames,
		views:  make(map[int]FramePoint, len(frames)),
		paths:  map[layout.Edge][]Point{},
	}
	for n, f := range frames {
		g.views[int(n)] = FramePoint{Point: toPoint(f), Heading: f.Heading * 180 / math.Pi}
	}
	b := frames.Bound()
	g.bounds = Bounds{
		Min: Point{X: b.Min.X(), Y: b.Min.Y()},
		Max: Point{X: b.Max.X(), Y: b.Max.Y()},
	}
	for _, te := range y.Graph.EdgesWithData() {
		if _, ok := te.Track.(layout.MapExit); ok {
			continue
		}
		origin, ok := frames[te.From]
		if !ok {
			continue
		}
		l := layout.Length(te.Track)
		n := int(math.Ceil(l/edgeSampleSpacing)) + 1
		if n > maxEdgeSamples {
			n = maxEdgeSamples
		}
		path := make([]Point, n)
		for i := range path {
			path[i] = toPoint(layout.ProjectPosition(te.Track, origin, l*float64(i)/float64(n-1)))
		}
		g.paths[te.Edge] = path
	}
	return g
}

func (g *geometry) snapshot(m sim.Model, placer tal.Placer) Snapshot {
	s := Snapshot{
		Doc:     doc.FromScenario(m.Scenario),
		Frames:  g.views,
		Bounds:  g.bounds,
		Running: m.Running,
		Message: m.Message,
	}
	p := layout.Partition(m.Layout, m.SwitchState)
	for gi, group := range [][]layout.TrackEdge{p.Usable, p.Unusable} {
		for _, te := range group {
			_, exit := te.Track.(layout.MapExit)
			s.Edges = append(s.Edges, EdgeView{
				From:   int(te.From),
				To:     int(te.To),
				Usable: gi == 0,
				Exit:   exit,
				Path:   g.paths[te.Edge],
			})
		}
	}
	for _, t := range m.Trains {
		placements, err := placer.Cars(t, m.Layout, m.SwitchState, g.frames)
		if err != nil {
			zap.S().Debugw("incomplete car placement", "train", t.Name, "err", err)
		}
		for i, c := range placements {
			s.Cars = append(s.Cars, CarView{
				Train:  t.Name,
				Index:  i,
				Front:  toPoint(c.FrontPoint),
				Back:   toPoint(c.BackPoint),
				Hidden: c.Hidden,
			})
		}
	}
	return s
}
