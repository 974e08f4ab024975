// Package doc converts scenarios to and from the JSON document used for saving, loading, and
// transport. Lengths are metres, speeds metres per second, and curve sweeps degrees.
package doc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/cars"
	"nyiyui.ca/hato/railroad/tal/layout"
)

var ErrMissingField = errors.New("missing required field")

const (
	TypeStraight = "straight"
	TypeCurved   = "curved"
	TypeMapExit  = "map-exit"
)

type Document struct {
	Layout       Layout  `json:"layout" jsonschema:"required"`
	Trains       []Train `json:"trains" jsonschema:"required"`
	SwitchStates []int   `json:"switchStates" jsonschema:"required,description=Selected config per switch; one entry per switch"`
}

type Layout struct {
	Edges    []Edge   `json:"edges" jsonschema:"required"`
	Switches []Switch `json:"switches" jsonschema:"required"`
}

type Edge struct {
	From  *int   `json:"from" jsonschema:"required,minimum=0"`
	To    *int   `json:"to" jsonschema:"required,minimum=0"`
	Track *Track `json:"track" jsonschema:"required"`
}

// Track is one of the three shapes. Type may be left out when the other fields make it clear.
type Track struct {
	Type   string   `json:"type,omitempty" jsonschema:"enum=straight,enum=curved,enum=map-exit"`
	Length *float64 `json:"length,omitempty" jsonschema:"description=Length of a straight in metres"`
	Radius *float64 `json:"radius,omitempty" jsonschema:"description=Radius of a curve in metres"`
	Sweep  *float64 `json:"sweep,omitempty" jsonschema:"description=Sweep of a curve in degrees; positive turns left"`
}

type EdgeRef struct {
	From *int `json:"from" jsonschema:"required,minimum=0"`
	To   *int `json:"to" jsonschema:"required,minimum=0"`
}

type Switch struct {
	Edges   []EdgeRef `json:"edges" jsonschema:"required"`
	Configs [][]int   `json:"configs" jsonschema:"required"`
}

type Train struct {
	ID          string   `json:"id,omitempty" jsonschema:"format=uuid"`
	Name        string   `json:"name" jsonschema:"required"`
	Composition []Car    `json:"composition" jsonschema:"required"`
	Speed       *float64 `json:"speed" jsonschema:"required,minimum=0"`
	// Loc is null for a derailed train.
	Loc *Location `json:"loc" jsonschema:"required"`
}

type Car struct {
	Comment string   `json:"comment,omitempty"`
	Length  *float64 `json:"length" jsonschema:"required"`
}

type Location struct {
	Edge        *EdgeRef `json:"edge" jsonschema:"required"`
	Pos         *float64 `json:"pos" jsonschema:"required"`
	Orientation string   `json:"orientation" jsonschema:"required,enum=aligned,enum=reversed"`
}

func intp(n layout.NodeID) *int {
	i := int(n)
	return &i
}

func floatp(f float64) *float64 {
	return &f
}

func edgeRef(e layout.Edge) EdgeRef {
	return EdgeRef{From: intp(e.From), To: intp(e.To)}
}

// FromScenario builds the document for s.
func FromScenario(s tal.Scenario) Document {
	var d Document
	for _, te := range s.Layout.Graph.EdgesWithData() {
		t := fromTrack(te.Track)
		d.Layout.Edges = append(d.Layout.Edges, Edge{From: intp(te.From), To: intp(te.To), Track: &t})
	}
	if d.Layout.Edges == nil {
		d.Layout.Edges = []Edge{}
	}
	d.Layout.Switches = make([]Switch, len(s.Layout.Switches))
	for i, sw := range s.Layout.Switches {
		d.Layout.Switches[i].Configs = sw.Configs
		d.Layout.Switches[i].Edges = make([]EdgeRef, len(sw.Edges))
		for j, e := range sw.Edges {
			d.Layout.Switches[i].Edges[j] = edgeRef(e)
		}
	}
	d.Trains = make([]Train, len(s.Trains))
	for i, t := range s.Trains {
		d.Trains[i] = Train{
			Name:        t.Name,
			Composition: make([]Car, len(t.Composition)),
			Speed:       floatp(t.Speed),
		}
		if t.ID != uuid.Nil {
			d.Trains[i].ID = t.ID.String()
		}
		for j, c := range t.Composition {
			d.Trains[i].Composition[j] = Car{Comment: c.Comment, Length: floatp(c.Length)}
		}
		if t.Location != nil {
			ref := edgeRef(t.Location.Edge)
			d.Trains[i].Loc = &Location{
				Edge:        &ref,
				Pos:         floatp(t.Location.Pos),
				Orientation: t.Location.Orientation.String(),
			}
		}
	}
	d.SwitchStates = append([]int{}, s.SwitchState...)
	return d
}

func fromTrack(t layout.Track) Track {
	switch t := t.(type) {
	case layout.Straight:
		return Track{Type: TypeStraight, Length: floatp(t.Length)}
	case layout.Curved:
		return Track{Type: TypeCurved, Radius: floatp(t.Radius), Sweep: floatp(t.Sweep * 180 / math.Pi)}
	case layout.MapExit:
		return Track{Type: TypeMapExit}
	default:
		panic(fmt.Sprintf("unknown track %T", t))
	}
}

// Encode serialises s.
func Encode(s tal.Scenario) ([]byte, error) {
	return json.Marshal(FromScenario(s))
}

// Decode parses and validates a document. Nothing is returned unless the whole document is valid.
func Decode(data []byte) (tal.Scenario, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var d Document
	if err := dec.Decode(&d); err != nil {
		return tal.Scenario{}, fmt.Errorf("decode: %w", err)
	}
	return d.Scenario()
}

func missing(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

func (r *EdgeRef) edge(field string) (layout.Edge, error) {
	if r == nil {
		return layout.Edge{}, missing(field)
	}
	if r.From == nil {
		return layout.Edge{}, missing(field + ".from")
	}
	if r.To == nil {
		return layout.Edge{}, missing(field + ".to")
	}
	if *r.From < 0 || *r.To < 0 {
		return layout.Edge{}, fmt.Errorf("%s: negative node", field)
	}
	return layout.Edge{From: layout.NodeID(*r.From), To: layout.NodeID(*r.To)}, nil
}

func (t *Track) track() (layout.Track, error) {
	typ := t.Type
	if typ == "" {
		switch {
		case t.Length != nil && t.Radius == nil && t.Sweep == nil:
			typ = TypeStraight
		case t.Length == nil && t.Radius != nil && t.Sweep != nil:
			typ = TypeCurved
		case t.Length == nil && t.Radius == nil && t.Sweep == nil:
			typ = TypeMapExit
		default:
			return nil, errors.New("cannot infer track type")
		}
	}
	switch typ {
	case TypeStraight:
		if t.Length == nil {
			return nil, missing("length")
		}
		return layout.Straight{Length: *t.Length}, nil
	case TypeCurved:
		if t.Radius == nil {
			return nil, missing("radius")
		}
		if t.Sweep == nil {
			return nil, missing("sweep")
		}
		return layout.Curved{Radius: *t.Radius, Sweep: layout.Degrees(*t.Sweep)}, nil
	case TypeMapExit:
		return layout.MapExit{}, nil
	default:
		return nil, fmt.Errorf("unknown track type %q", t.Type)
	}
}

// Scenario converts and validates d.
func (d Document) Scenario() (tal.Scenario, error) {
	switch {
	case d.Layout.Edges == nil:
		return tal.Scenario{}, missing("layout.edges")
	case d.Layout.Switches == nil:
		return tal.Scenario{}, missing("layout.switches")
	case d.Trains == nil:
		return tal.Scenario{}, missing("trains")
	case d.SwitchStates == nil:
		return tal.Scenario{}, missing("switchStates")
	}
	var g layout.Graph
	for i, e := range d.Layout.Edges {
		edge, err := (&EdgeRef{From: e.From, To: e.To}).edge(fmt.Sprintf("layout.edges[%d]", i))
		if err != nil {
			return tal.Scenario{}, err
		}
		if e.Track == nil {
			return tal.Scenario{}, missing(fmt.Sprintf("layout.edges[%d].track", i))
		}
		t, err := e.Track.track()
		if err != nil {
			return tal.Scenario{}, fmt.Errorf("layout.edges[%d].track: %w", i, err)
		}
		if _, dup := g.EdgeData(edge.From, edge.To); dup {
			return tal.Scenario{}, fmt.Errorf("layout.edges[%d]: duplicate edge %s", i, edge)
		}
		g = g.InsertEdgeData(edge.From, edge.To, t)
	}
	switches := make([]layout.Switch, len(d.Layout.Switches))
	for i, sw := range d.Layout.Switches {
		for j, ref := range sw.Edges {
			ref := ref
			e, err := ref.edge(fmt.Sprintf("layout.switches[%d].edges[%d]", i, j))
			if err != nil {
				return tal.Scenario{}, err
			}
			switches[i].Edges = append(switches[i].Edges, e)
		}
		if sw.Configs == nil {
			return tal.Scenario{}, missing(fmt.Sprintf("layout.switches[%d].configs", i))
		}
		switches[i].Configs = sw.Configs
	}
	y, err := layout.New(g, switches)
	if err != nil {
		return tal.Scenario{}, fmt.Errorf("layout: %w", err)
	}
	trains := make([]tal.TrainState, len(d.Trains))
	for i, t := range d.Trains {
		trains[i], err = t.train(fmt.Sprintf("trains[%d]", i))
		if err != nil {
			return tal.Scenario{}, err
		}
	}
	s := tal.Scenario{Layout: y, SwitchState: layout.SwitchState(d.SwitchStates), Trains: trains}
	if err := s.Validate(); err != nil {
		return tal.Scenario{}, err
	}
	return s, nil
}

func (t Train) train(field string) (tal.TrainState, error) {
	var ts tal.TrainState
	if t.ID != "" {
		id, err := uuid.Parse(t.ID)
		if err != nil {
			return ts, fmt.Errorf("%s.id: %w", field, err)
		}
		ts.ID = id
	} else {
		ts.ID = tal.TrainID(t.Name)
	}
	ts.Name = t.Name
	if t.Speed == nil {
		return ts, missing(field + ".speed")
	}
	ts.Speed = *t.Speed
	if t.Composition == nil {
		return ts, missing(field + ".composition")
	}
	for j, c := range t.Composition {
		if c.Length == nil {
			return ts, missing(fmt.Sprintf("%s.composition[%d].length", field, j))
		}
		ts.Composition = append(ts.Composition, cars.Car{Comment: c.Comment, Length: *c.Length})
	}
	if t.Loc == nil {
		return ts, nil
	}
	e, err := t.Loc.Edge.edge(field + ".loc.edge")
	if err != nil {
		return ts, err
	}
	if t.Loc.Pos == nil {
		return ts, missing(field + ".loc.pos")
	}
	loc := layout.Location{Edge: e, Pos: *t.Loc.Pos}
	if t.Loc.Orientation == "" {
		return ts, missing(field + ".loc.orientation")
	}
	if err := loc.Orientation.UnmarshalText([]byte(t.Loc.Orientation)); err != nil {
		return ts, fmt.Errorf("%s.loc: %w", field, err)
	}
	ts.Location = &loc
	return ts, nil
}
