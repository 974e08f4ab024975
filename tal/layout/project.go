package layout

import (
	"math"

	"github.com/paulmach/orb"
	"nyiyui.ca/hato/railroad/geom"
)

// RootNode is where Project starts.
const RootNode NodeID = 0

// RootFrame is the frame given to RootNode.
var RootFrame = geom.AtPoint(0, 2.5)

// Frames holds the drawing frame of each node.
type Frames map[NodeID]geom.Frame

// Project assigns a frame to every node reachable from RootNode.
func Project(y *Layout) Frames {
	return ProjectFrom(y, RootNode, RootFrame)
}

// ProjectFrom walks the full graph depth-first from root, ignoring switch state. A node keeps
// the first frame it is reached with.
func ProjectFrom(y *Layout, root NodeID, origin geom.Frame) Frames {
	frames := Frames{}
	var visit func(n NodeID, f geom.Frame)
	visit = func(n NodeID, f geom.Frame) {
		if _, ok := frames[n]; ok {
			return
		}
		frames[n] = f
		for _, to := range y.Graph.Outgoing(n) {
			t, ok := y.Graph.EdgeData(n, to)
			if !ok {
				continue
			}
			visit(to, AdvanceFrame(t, f))
		}
	}
	visit(root, origin)
	return frames
}

// PointAt returns the frame at loc, or false if its edge or starting node has no frame.
func (f Frames) PointAt(y *Layout, loc Location) (geom.Frame, bool) {
	t, ok := y.TrackAt(loc.Edge)
	if !ok {
		return geom.Frame{}, false
	}
	origin, ok := f[loc.Edge.From]
	if !ok {
		return geom.Frame{}, false
	}
	return ProjectPosition(t, origin, loc.Pos), true
}

// Bound is the bounding box of every frame and the origin.
func (f Frames) Bound() orb.Bound {
	frames := make([]geom.Frame, 0, len(f))
	for _, fr := range f {
		frames = append(frames, fr)
	}
	return geom.Bound(frames)
}

// LoopMismatch is an edge whose far end lands away from the frame its destination was given.
type LoopMismatch struct {
	Edge     Edge
	Expected geom.Frame
	Got      geom.Frame
}

// CheckLoops reports edges that disagree with the projected frames by more than tol metres,
// or by more than tol radians of heading. An edge meeting its node facing the opposite way is
// consistent. MapExit edges and unprojected nodes are skipped.
func CheckLoops(y *Layout, frames Frames, tol float64) []LoopMismatch {
	var res []LoopMismatch
	for _, te := range y.Graph.EdgesWithData() {
		if _, ok := te.Track.(MapExit); ok {
			continue
		}
		from, ok := frames[te.From]
		if !ok {
			continue
		}
		to, ok := frames[te.To]
		if !ok {
			continue
		}
		got := AdvanceFrame(te.Track, from)
		dh := math.Abs(geom.HeadingDiff(got, to))
		if dh > math.Pi/2 {
			dh = math.Pi - dh
		}
		if geom.Distance(got, to) > tol || dh > tol {
			res = append(res, LoopMismatch{Edge: te.Edge, Expected: to, Got: got})
		}
	}
	return res
}
