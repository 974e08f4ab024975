package layout

import (
	"errors"
	"fmt"
)

var ErrNoRoute = errors.New("no switch config connects the route")

// PathTo returns the shortest run of edges (by edge count) from one node to another, following
// edge direction over every edge with a track. Switch state is ignored; use AlignRoute to set
// the switches for the result.
func PathTo(y *Layout, from, goal NodeID) (path []Edge, ok bool) {
	if from == goal {
		return nil, true
	}
	if !y.Graph.Has(from) || !y.Graph.Has(goal) {
		return nil, false
	}
	using := map[NodeID]NodeID{}
	visited := map[NodeID]bool{from: true}
	queue := []NodeID{from}
	for len(queue) > 0 && !visited[goal] {
		current := queue[0]
		queue = queue[1:]
		for _, next := range y.Graph.Outgoing(current) {
			if visited[next] {
				continue
			}
			if _, ok := y.Graph.EdgeData(current, next); !ok {
				continue
			}
			visited[next] = true
			using[next] = current
			queue = append(queue, next)
		}
	}
	if !visited[goal] {
		return nil, false
	}
	for n := goal; n != from; n = using[n] {
		path = append(path, Edge{From: using[n], To: n})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// AlignRoute returns ss with each switch that controls an edge of path set to its first config
// connecting all of those edges. Switches the path does not touch are left alone.
func AlignRoute(y *Layout, ss SwitchState, path []Edge) (SwitchState, error) {
	if err := y.ValidateSwitchState(ss); err != nil {
		return nil, err
	}
	onPath := map[Edge]bool{}
	for _, e := range path {
		onPath[e] = true
	}
	ss2 := ss.Clone()
	for i, s := range y.Switches {
		var needed []Edge
		for _, e := range s.Edges {
			if onPath[e] {
				needed = append(needed, e)
			}
		}
		if len(needed) == 0 {
			continue
		}
		chosen := -1
	configs:
		for ci := range s.Configs {
			active := s.ActiveEdges(ci)
			for _, e := range needed {
				if !containsEdge(active, e) {
					continue configs
				}
			}
			chosen = ci
			break
		}
		if chosen == -1 {
			return nil, fmt.Errorf("switch %d over %v: %w", i, needed, ErrNoRoute)
		}
		ss2[i] = chosen
	}
	return ss2, nil
}

func containsEdge(es []Edge, e Edge) bool {
	for _, e2 := range es {
		if e2 == e {
			return true
		}
	}
	return false
}
