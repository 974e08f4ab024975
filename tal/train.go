// Package tal moves trains along a layout and places their cars.
package tal

import (
	"fmt"

	"github.com/google/uuid"
	"nyiyui.ca/hato/railroad/tal/cars"
	"nyiyui.ca/hato/railroad/tal/layout"
)

// TrainState is one train. A nil Location means the train has derailed or left the network;
// such a train stays inert until it is replaced.
type TrainState struct {
	ID          uuid.UUID
	Name        string
	Composition []cars.Car
	// Speed in metres per second, never negative. Direction comes from the orientation.
	Speed    float64
	Location *layout.Location
}

var trainNamespace = uuid.MustParse("6f1e1c8e-64a7-4c55-9d5c-2b1f3b1f0e51")

// TrainID derives a stable ID from a train name, so that reset, reloaded and replayed
// scenarios keep their IDs.
func TrainID(name string) uuid.UUID {
	return uuid.NewSHA1(trainNamespace, []byte(name))
}

// NewTrain places a formation at loc. Its ID is TrainID(name).
func NewTrain(name string, form cars.Form, speed float64, loc layout.Location) TrainState {
	return TrainState{
		ID:          TrainID(name),
		Name:        name,
		Composition: form.Cars,
		Speed:       speed,
		Location:    &loc,
	}
}

func (t TrainState) String() string {
	if t.Location == nil {
		return fmt.Sprintf("%s (derailed)", t.Name)
	}
	return fmt.Sprintf("%s %s %.1fm/s", t.Name, t.Location, t.Speed)
}

// Derailed reports whether the train is off the network.
func (t TrainState) Derailed() bool {
	return t.Location == nil
}

// Length is the sum of the car lengths.
func (t TrainState) Length() float64 {
	return cars.Form{Cars: t.Composition}.Length()
}

// Reverse returns the train facing the other way at the same spot.
func (t TrainState) Reverse() TrainState {
	if t.Location == nil {
		return t
	}
	loc := t.Location.Invert()
	t.Location = &loc
	return t
}
