package layout

import (
	"fmt"
	"math"
)

// MaxNormalizeHops bounds the number of junctions Normalize crosses in one call.
const MaxNormalizeHops = 10000

// Orientation is the sense of a Location relative to its edge.
type Orientation int

const (
	// Aligned means increasing Pos moves toward Edge.To.
	Aligned Orientation = iota
	// Reversed means increasing Pos moves toward Edge.From.
	Reversed
)

func (o Orientation) String() string {
	switch o {
	case Aligned:
		return "aligned"
	case Reversed:
		return "reversed"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Invert returns the opposite orientation.
func (o Orientation) Invert() Orientation {
	if o == Aligned {
		return Reversed
	}
	return Aligned
}

func (o Orientation) MarshalText() ([]byte, error) {
	switch o {
	case Aligned, Reversed:
		return []byte(o.String()), nil
	default:
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
}

func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "aligned":
		*o = Aligned
	case "reversed":
		*o = Reversed
	default:
		return fmt.Errorf("invalid orientation %q", b)
	}
	return nil
}

// Location is a point on an edge, Pos metres from Edge.From, with a direction sense.
type Location struct {
	Edge        Edge
	Pos         float64
	Orientation Orientation
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%.3f(%s)", l.Edge, l.Pos, l.Orientation)
}

// Invert returns l facing the other way.
func (l Location) Invert() Location {
	l.Orientation = l.Orientation.Invert()
	return l
}

// ahead is the node the location faces.
func (l Location) ahead() NodeID {
	if l.Orientation == Aligned {
		return l.Edge.To
	}
	return l.Edge.From
}

// PreviousTrack returns where a location continues when it runs off the end behind it.
// ok is false at a dead end and at an ambiguous junction.
func PreviousTrack(loc Location, y *Layout, ss SwitchState) (Location, bool) {
	return previousTrack(loc, Partition(y, ss))
}

// NextTrack returns where a location continues when it runs off the end ahead of it.
func NextTrack(loc Location, y *Layout, ss SwitchState) (Location, bool) {
	return nextTrack(loc, Partition(y, ss))
}

func nextTrack(loc Location, p Partitioning) (Location, bool) {
	prev, ok := previousTrack(loc.Invert(), p)
	if !ok {
		return Location{}, false
	}
	return prev.Invert(), true
}

func previousTrack(loc Location, p Partitioning) (Location, bool) {
	junction := loc.Edge.From
	if loc.Orientation == Reversed {
		junction = loc.Edge.To
	}
	var (
		found     Location
		candidate int
	)
	for _, te := range p.Usable {
		if te.Edge == loc.Edge || te.Edge == loc.Edge.Reverse() {
			continue
		}
		if te.From == junction {
			// leaving the junction: the location backs onto it from its start
			found = Location{Edge: te.Edge, Pos: 0, Orientation: Reversed}
			candidate++
		}
		if te.To == junction {
			found = Location{Edge: te.Edge, Pos: Length(te.Track), Orientation: Aligned}
			candidate++
		}
	}
	if candidate != 1 {
		return Location{}, false
	}
	return found, true
}

// Normalize re-expresses loc so that its Pos lies within its edge, walking across junctions
// as needed. ok is false when the location runs off the usable network.
//
// Pos beyond the length leaves through To and a negative Pos through From, whatever the
// orientation. The excess is measured from the node left through: it becomes the Pos on a
// continuation starting there and Length minus the excess on one ending there.
func Normalize(loc Location, y *Layout, ss SwitchState) (Location, bool) {
	if math.IsNaN(loc.Pos) {
		return Location{}, false
	}
	var p *Partitioning
	for hop := 0; ; hop++ {
		t, ok := y.TrackAt(loc.Edge)
		if !ok {
			return Location{}, false
		}
		l := Length(t)
		if loc.Pos >= 0 && loc.Pos <= l {
			return loc, true
		}
		if hop >= MaxNormalizeHops {
			return Location{}, false
		}
		if p == nil {
			p2 := Partition(y, ss)
			p = &p2
		}
		var (
			excess float64
			exited NodeID
		)
		if loc.Pos > l {
			excess, exited = loc.Pos-l, loc.Edge.To
		} else {
			excess, exited = -loc.Pos, loc.Edge.From
		}
		var next Location
		if exited == loc.ahead() {
			next, ok = nextTrack(loc, *p)
		} else {
			next, ok = previousTrack(loc, *p)
		}
		if !ok {
			return Location{}, false
		}
		if next.Edge.From == exited {
			next.Pos = excess
		} else {
			t2, _ := y.TrackAt(next.Edge)
			next.Pos = Length(t2) - excess
		}
		loc = next
	}
}
