package layout

// Partitioning splits the data-bearing edges of a layout into those a train may currently
// use and those blocked by a switch.
type Partitioning struct {
	Usable   []TrackEdge
	Unusable []TrackEdge
}

// Partition classifies every edge that carries a track. Edges without a track are left out.
// Switches without a state, and states without a switch, contribute nothing.
func Partition(y *Layout, ss SwitchState) Partitioning {
	inactive := map[Edge]struct{}{}
	for i, state := range ss {
		if i >= len(y.Switches) {
			break
		}
		for _, e := range y.Switches[i].InactiveEdges(state) {
			inactive[e] = struct{}{}
		}
	}
	var p Partitioning
	for _, te := range y.Graph.EdgesWithData() {
		if _, ok := inactive[te.Edge]; ok {
			p.Unusable = append(p.Unusable, te)
		} else {
			p.Usable = append(p.Usable, te)
		}
	}
	return p
}

// IsUsable reports whether e is in the usable set.
func (p Partitioning) IsUsable(e Edge) bool {
	for _, te := range p.Usable {
		if te.Edge == e {
			return true
		}
	}
	return false
}
