package layout

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// NodeID identifies a vertex of the track graph.
type NodeID int

// Edge is a directed connection between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

func (e Edge) String() string {
	return fmt.Sprintf("%d→%d", e.From, e.To)
}

// Reverse returns the edge in the opposite direction.
func (e Edge) Reverse() Edge {
	return Edge{From: e.To, To: e.From}
}

func (e Edge) less(f Edge) bool {
	if e.From != f.From {
		return e.From < f.From
	}
	return e.To < f.To
}

// TrackEdge is an edge and the track on it. Track is nil for edges without data.
type TrackEdge struct {
	Edge
	Track Track
}

type node struct {
	// outgoing maps the destination to the track; nil means the edge carries no data.
	outgoing map[NodeID]Track
	incoming map[NodeID]struct{}
}

func (n *node) clone() *node {
	n2 := &node{
		outgoing: make(map[NodeID]Track, len(n.outgoing)),
		incoming: make(map[NodeID]struct{}, len(n.incoming)),
	}
	for k, v := range n.outgoing {
		n2.outgoing[k] = v
	}
	for k := range n.incoming {
		n2.incoming[k] = struct{}{}
	}
	return n2
}

// Graph is a directed graph of nodes whose edges may carry a Track.
// The zero value is an empty graph. Graphs are never modified: every insert returns a new
// Graph that shares the nodes it did not touch.
type Graph struct {
	nodes map[NodeID]*node
}

// edit returns a copy of g whose node table can be changed, with the given nodes cloned (or
// created) so they can be changed as well.
func (g Graph) edit(ids ...NodeID) Graph {
	g2 := Graph{nodes: make(map[NodeID]*node, len(g.nodes)+len(ids))}
	for k, v := range g.nodes {
		g2.nodes[k] = v
	}
	for _, id := range ids {
		if n, ok := g2.nodes[id]; ok {
			g2.nodes[id] = n.clone()
		} else {
			g2.nodes[id] = &node{outgoing: map[NodeID]Track{}, incoming: map[NodeID]struct{}{}}
		}
	}
	return g2
}

// InsertNode returns g with the node added. Inserting an existing node is a no-op.
func (g Graph) InsertNode(id NodeID) Graph {
	if g.Has(id) {
		return g
	}
	return g.edit(id)
}

// InsertEdge returns g with an edge from → to. Data already on the edge is kept.
func (g Graph) InsertEdge(from, to NodeID) Graph {
	if g.HasEdge(from, to) {
		return g
	}
	g2 := g.edit(from, to)
	g2.nodes[from].outgoing[to] = nil
	g2.nodes[to].incoming[from] = struct{}{}
	return g2
}

// InsertEdgeData returns g with an edge from → to carrying t.
func (g Graph) InsertEdgeData(from, to NodeID, t Track) Graph {
	g2 := g.edit(from, to)
	g2.nodes[from].outgoing[to] = t
	g2.nodes[to].incoming[from] = struct{}{}
	return g2
}

// Has reports whether the node exists.
func (g Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether the edge exists, with or without data.
func (g Graph) HasEdge(from, to NodeID) bool {
	n, ok := g.nodes[from]
	if !ok {
		return false
	}
	_, ok = n.outgoing[to]
	return ok
}

// EdgeData returns the track on an edge. ok is false if the edge is missing or has no data.
func (g Graph) EdgeData(from, to NodeID) (t Track, ok bool) {
	n, ok := g.nodes[from]
	if !ok {
		return nil, false
	}
	t = n.outgoing[to]
	return t, t != nil
}

// Len returns the number of nodes.
func (g Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns every node in ascending order.
func (g Graph) Nodes() []NodeID {
	ids := maps.Keys(g.nodes)
	slices.Sort(ids)
	return ids
}

// Outgoing returns the nodes that id has an edge to, in ascending order.
func (g Graph) Outgoing(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	ids := maps.Keys(n.outgoing)
	slices.Sort(ids)
	return ids
}

// Incoming returns the nodes that have an edge to id, in ascending order.
func (g Graph) Incoming(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	ids := maps.Keys(n.incoming)
	slices.Sort(ids)
	return ids
}

// Edges returns every edge ordered by (From, To), including edges without data.
func (g Graph) Edges() []TrackEdge {
	res := make([]TrackEdge, 0, len(g.nodes))
	for _, from := range g.Nodes() {
		for _, to := range g.Outgoing(from) {
			res = append(res, TrackEdge{Edge: Edge{from, to}, Track: g.nodes[from].outgoing[to]})
		}
	}
	return res
}

// EdgesWithData is Edges without the edges that carry no track.
func (g Graph) EdgesWithData() []TrackEdge {
	all := g.Edges()
	res := all[:0]
	for _, te := range all {
		if te.Track != nil {
			res = append(res, te)
		}
	}
	return res
}
