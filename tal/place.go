package tal

import (
	"errors"
	"fmt"
	"math"

	"nyiyui.ca/hato/railroad/geom"
	"nyiyui.ca/hato/railroad/tal/layout"
)

var (
	ErrOffNetwork   = errors.New("trailing end is off the network")
	ErrNotConverged = errors.New("car placement did not converge")
	ErrNoFrame      = errors.New("location has no projected frame")
)

// Placer finds where the trailing end of a car sits so that the straight line between its ends
// is as long as the car, including when the car spans a curve.
type Placer struct {
	MaxIterations int
	// Tolerance in metres.
	Tolerance float64
}

var DefaultPlacer = Placer{MaxIterations: 50, Tolerance: 0.05}

// EndLocation returns the location target metres (straight-line) behind lead, where behind is
// against lead's direction of travel.
func (p Placer) EndLocation(target float64, y *layout.Layout, ss layout.SwitchState, frames layout.Frames, lead layout.Location) (layout.Location, error) {
	p1, ok := frames.PointAt(y, lead)
	if !ok {
		return layout.Location{}, fmt.Errorf("lead %s: %w", lead, ErrNoFrame)
	}
	var correction float64
	for i := 0; i < p.MaxIterations; i++ {
		offset := target + correction
		cand := lead
		if lead.Orientation == layout.Aligned {
			cand.Pos -= offset
		} else {
			cand.Pos += offset
		}
		cand, ok = layout.Normalize(cand, y, ss)
		if !ok {
			return layout.Location{}, fmt.Errorf("%gm behind %s: %w", offset, lead, ErrOffNetwork)
		}
		if isExit(y, cand.Edge) {
			// exits have no drawn shape, so along-track distance stands in
			return cand, nil
		}
		p2, ok := frames.PointAt(y, cand)
		if !ok {
			return layout.Location{}, fmt.Errorf("candidate %s: %w", cand, ErrNoFrame)
		}
		actual := geom.Distance(p1, p2)
		if math.Abs(actual-target) <= p.Tolerance {
			return cand, nil
		}
		correction += target - actual
	}
	return layout.Location{}, fmt.Errorf("%gm behind %s after %d iterations: %w", target, lead, p.MaxIterations, ErrNotConverged)
}

// CarPlacement is where one car sits.
type CarPlacement struct {
	Front, Back           layout.Location
	FrontPoint, BackPoint geom.Frame
	// Hidden is set when the whole car is on a single MapExit edge, beyond the drawn area.
	Hidden bool
}

// Cars places every car of t front to back; each car's front is the previous car's back.
// A derailed train has no placements.
func (p Placer) Cars(t TrainState, y *layout.Layout, ss layout.SwitchState, frames layout.Frames) ([]CarPlacement, error) {
	if t.Location == nil {
		return nil, nil
	}
	res := make([]CarPlacement, 0, len(t.Composition))
	front := *t.Location
	for i, c := range t.Composition {
		back, err := p.EndLocation(c.Length, y, ss, frames, front)
		if err != nil {
			return res, fmt.Errorf("car %d: %w", i, err)
		}
		fp, _ := frames.PointAt(y, front)
		bp, _ := frames.PointAt(y, back)
		res = append(res, CarPlacement{
			Front:      front,
			Back:       back,
			FrontPoint: fp,
			BackPoint:  bp,
			Hidden:     front.Edge == back.Edge && isExit(y, front.Edge),
		})
		front = back
	}
	return res, nil
}

func isExit(y *layout.Layout, e layout.Edge) bool {
	t, ok := y.TrackAt(e)
	if !ok {
		return false
	}
	_, ok = t.(layout.MapExit)
	return ok
}
