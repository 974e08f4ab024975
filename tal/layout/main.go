// Package layout models a rail network as a directed graph of tracks gated by switches, and
// resolves train locations on it.
package layout

import (
	"errors"
	"fmt"
)

var (
	ErrSwitchStateLength = errors.New("switch state length does not match switch count")
	ErrConfigIndex       = errors.New("config index out of range")
	ErrUnknownEdge       = errors.New("edge has no track")
)

// Switch selects which of its edges are connected.
type Switch struct {
	// Edges are the physical edges this switch controls.
	Edges []Edge
	// Configs lists, per selectable position, the indices into Edges that are connected.
	Configs [][]int
}

// ActiveEdges returns the edges connected when the switch is set to state.
// An out-of-range state connects nothing.
func (s Switch) ActiveEdges(state int) []Edge {
	if state < 0 || state >= len(s.Configs) {
		return nil
	}
	res := make([]Edge, 0, len(s.Configs[state]))
	for _, i := range s.Configs[state] {
		if i < 0 || i >= len(s.Edges) {
			continue
		}
		res = append(res, s.Edges[i])
	}
	return res
}

// InactiveEdges returns the controlled edges that are not connected in state.
func (s Switch) InactiveEdges(state int) []Edge {
	active := s.ActiveEdges(state)
	res := make([]Edge, 0, len(s.Edges))
outer:
	for _, e := range s.Edges {
		for _, a := range active {
			if a == e {
				continue outer
			}
		}
		res = append(res, e)
	}
	return res
}

func (s Switch) validate(g Graph) error {
	if len(s.Configs) == 0 {
		return errors.New("no configs")
	}
	for _, e := range s.Edges {
		if _, ok := g.EdgeData(e.From, e.To); !ok {
			return fmt.Errorf("edge %s: %w", e, ErrUnknownEdge)
		}
	}
	for ci, c := range s.Configs {
		for _, i := range c {
			if i < 0 || i >= len(s.Edges) {
				return fmt.Errorf("config %d: index %d of %d edges: %w", ci, i, len(s.Edges), ErrConfigIndex)
			}
		}
	}
	return nil
}

// Layout is the immutable topology of a network. It is replaced whole, never edited.
type Layout struct {
	Graph    Graph
	Switches []Switch
}

// New returns a validated Layout.
func New(g Graph, switches []Switch) (*Layout, error) {
	y := &Layout{Graph: g, Switches: switches}
	if err := y.Validate(); err != nil {
		return nil, err
	}
	return y, nil
}

// Validate checks every track shape and every switch.
func (y *Layout) Validate() error {
	for _, te := range y.Graph.EdgesWithData() {
		if err := checkTrack(te.Track); err != nil {
			return fmt.Errorf("edge %s: %w", te.Edge, err)
		}
	}
	for i, s := range y.Switches {
		if err := s.validate(y.Graph); err != nil {
			return fmt.Errorf("switch %d: %w", i, err)
		}
	}
	return nil
}

// TrackAt returns the track on e.
func (y *Layout) TrackAt(e Edge) (Track, bool) {
	return y.Graph.EdgeData(e.From, e.To)
}

// SwitchState holds the selected config of each switch, index-aligned with Layout.Switches.
type SwitchState []int

// DefaultSwitchState sets every switch to its first config.
func (y *Layout) DefaultSwitchState() SwitchState {
	return make(SwitchState, len(y.Switches))
}

// ValidateSwitchState checks that ss fits y.
func (y *Layout) ValidateSwitchState(ss SwitchState) error {
	if len(ss) != len(y.Switches) {
		return fmt.Errorf("%d states for %d switches: %w", len(ss), len(y.Switches), ErrSwitchStateLength)
	}
	for i, state := range ss {
		if n := len(y.Switches[i].Configs); state < 0 || state >= n {
			return fmt.Errorf("switch %d: state %d of %d configs: %w", i, state, n, ErrConfigIndex)
		}
	}
	return nil
}

// Toggle returns a copy of ss with switch i moved to its next config, wrapping around.
func (ss SwitchState) Toggle(y *Layout, i int) (SwitchState, error) {
	if i < 0 || i >= len(y.Switches) || i >= len(ss) {
		return nil, fmt.Errorf("switch %d of %d: %w", i, len(y.Switches), ErrConfigIndex)
	}
	n := len(y.Switches[i].Configs)
	if n == 0 {
		return nil, fmt.Errorf("switch %d has no configs", i)
	}
	ss2 := make(SwitchState, len(ss))
	copy(ss2, ss)
	ss2[i] = (ss[i] + 1) % n
	if ss2[i] < 0 {
		ss2[i] = 0
	}
	return ss2, nil
}

// Clone returns an independent copy.
func (ss SwitchState) Clone() SwitchState {
	if ss == nil {
		return nil
	}
	ss2 := make(SwitchState, len(ss))
	copy(ss2, ss)
	return ss2
}
