package layout

import (
	"fmt"
	"math"

	"nyiyui.ca/hato/railroad/geom"
)

// Track is the shape of one edge: Straight, Curved, or MapExit.
// The set is closed; every function over tracks switches on all three.
type Track interface {
	fmt.Stringer
	isTrack()
}

// Straight is a straight piece of track.
type Straight struct {
	// Length in metres.
	Length float64
}

// Curved is a constant-radius piece of track.
type Curved struct {
	// Radius in metres.
	Radius float64
	// Sweep in radians. Positive turns left (counter-clockwise).
	Sweep float64
}

// MapExit marks where track leaves the modelled area. It is infinitely long, so a train that
// enters one never leaves through its far end.
type MapExit struct{}

func (Straight) isTrack() {}
func (Curved) isTrack()   {}
func (MapExit) isTrack()  {}

func (s Straight) String() string { return fmt.Sprintf("straight(%gm)", s.Length) }
func (c Curved) String() string {
	return fmt.Sprintf("curved(r%gm %g°)", c.Radius, c.Sweep*180/math.Pi)
}
func (MapExit) String() string { return "map-exit" }

// Degrees converts degrees to radians, for writing Curved literals.
func Degrees(d float64) float64 {
	return d * math.Pi / 180
}

// Length returns the length along the track in metres.
func Length(t Track) float64 {
	switch t := t.(type) {
	case Straight:
		return t.Length
	case Curved:
		return math.Abs(t.Radius * t.Sweep)
	case MapExit:
		return math.Inf(1)
	default:
		panic(fmt.Sprintf("unknown track %T", t))
	}
}

// ProjectPosition returns the frame reached by moving pos metres along t from origin.
func ProjectPosition(t Track, origin geom.Frame, pos float64) geom.Frame {
	switch t := t.(type) {
	case Straight:
		return origin.Translate(pos)
	case Curved:
		l := Length(t)
		if l == 0 {
			return origin
		}
		return origin.Arc(t.Radius, t.Sweep*pos/l)
	case MapExit:
		return origin.Translate(pos)
	default:
		panic(fmt.Sprintf("unknown track %T", t))
	}
}

// AdvanceFrame returns the frame at the far end of t. A MapExit has no far end, so origin is
// returned unchanged.
func AdvanceFrame(t Track, origin geom.Frame) geom.Frame {
	switch t := t.(type) {
	case Straight:
		return origin.Translate(t.Length)
	case Curved:
		return origin.Arc(t.Radius, t.Sweep)
	case MapExit:
		return origin
	default:
		panic(fmt.Sprintf("unknown track %T", t))
	}
}

// checkTrack reports tracks that cannot be normalised through.
func checkTrack(t Track) error {
	switch t := t.(type) {
	case Straight:
		if !(t.Length > 0) || math.IsInf(t.Length, 0) {
			return fmt.Errorf("straight length %g must be positive and finite", t.Length)
		}
	case Curved:
		if !(t.Radius > 0) || math.IsInf(t.Radius, 0) {
			return fmt.Errorf("curve radius %g must be positive and finite", t.Radius)
		}
		if t.Sweep == 0 || math.IsNaN(t.Sweep) || math.IsInf(t.Sweep, 0) {
			return fmt.Errorf("curve sweep %g must be non-zero and finite", t.Sweep)
		}
	case MapExit:
	default:
		panic(fmt.Sprintf("unknown track %T", t))
	}
	return nil
}
