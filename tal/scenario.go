package tal

import (
	"errors"
	"fmt"

	"nyiyui.ca/hato/railroad/tal/layout"
)

// Scenario is everything the engine steps: a layout, its switch positions, and the trains on it.
type Scenario struct {
	Layout      *layout.Layout
	SwitchState layout.SwitchState
	Trains      []TrainState
}

// Validate checks that the scenario can be run as is.
func (s Scenario) Validate() error {
	if s.Layout == nil {
		return errors.New("no layout")
	}
	if err := s.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := s.Layout.ValidateSwitchState(s.SwitchState); err != nil {
		return fmt.Errorf("switch state: %w", err)
	}
	for i, t := range s.Trains {
		if err := t.validate(s.Layout); err != nil {
			return fmt.Errorf("train %d (%s): %w", i, t.Name, err)
		}
	}
	return nil
}

func (t TrainState) validate(y *layout.Layout) error {
	if !(t.Speed >= 0) {
		return fmt.Errorf("speed %g must not be negative", t.Speed)
	}
	if len(t.Composition) == 0 {
		return errors.New("no cars")
	}
	for i, c := range t.Composition {
		if !(c.Length > 0) {
			return fmt.Errorf("car %d: length %g must be positive", i, c.Length)
		}
	}
	if t.Location == nil {
		return nil
	}
	tr, ok := y.TrackAt(t.Location.Edge)
	if !ok {
		return fmt.Errorf("location %s: %w", t.Location, layout.ErrUnknownEdge)
	}
	if l := layout.Length(tr); t.Location.Pos < 0 || t.Location.Pos > l {
		return fmt.Errorf("location %s outside track of length %g", t.Location, l)
	}
	return nil
}

// Clone copies the parts of s that change while running.
func (s Scenario) Clone() Scenario {
	s2 := s
	s2.SwitchState = s.SwitchState.Clone()
	s2.Trains = append([]TrainState(nil), s.Trains...)
	return s2
}

// Train returns the index of the train with the given name.
func (s Scenario) Train(name string) (int, bool) {
	for i, t := range s.Trains {
		if t.Name == name {
			return i, true
		}
	}
	return 0, false
}
