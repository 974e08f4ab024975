package tal

import (
	"nyiyui.ca/hato/railroad/tal/layout"
)

// Advance moves t for dt seconds at its speed. A train that cannot be normalised afterwards
// loses its location and stops; a train without a location is returned as is.
func Advance(dt float64, t TrainState, y *layout.Layout, ss layout.SwitchState) TrainState {
	if t.Location == nil {
		return t
	}
	loc := *t.Location
	d := t.Speed * dt
	if loc.Orientation == layout.Aligned {
		loc.Pos += d
	} else {
		loc.Pos -= d
	}
	loc, ok := layout.Normalize(loc, y, ss)
	if !ok {
		t.Location = nil
		t.Speed = 0
		return t
	}
	t.Location = &loc
	return t
}

// AdvanceAll advances every train and returns the new states plus the indices of trains that
// derailed during this step.
func AdvanceAll(dt float64, ts []TrainState, y *layout.Layout, ss layout.SwitchState) (res []TrainState, derailed []int) {
	res = make([]TrainState, len(ts))
	for i, t := range ts {
		res[i] = Advance(dt, t, y, ss)
		if !t.Derailed() && res[i].Derailed() {
			derailed = append(derailed, i)
		}
	}
	return res, derailed
}
