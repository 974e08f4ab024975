// Package cars describes rolling stock and the formations it is run in.
package cars

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Data is a catalogue of formations keyed by ID.
type Data struct {
	Forms map[uuid.UUID]Form `json:"sets"` // json struct tag isn't actually used but kept for docs purposes
}

type dataJSON struct {
	Sets map[string]Form `json:"sets"`
}

func (d Data) MarshalJSON() ([]byte, error) {
	d3 := dataJSON{Sets: map[string]Form{}}
	for key, cs := range d.Forms {
		d3.Sets[key.String()] = cs
	}
	return json.Marshal(d3)
}

func (d *Data) UnmarshalJSON(data []byte) error {
	var d3 dataJSON
	err := json.Unmarshal(data, &d3)
	if err != nil {
		return err
	}
	d2 := Data{Forms: map[uuid.UUID]Form{}}
	for key, cs := range d3.Sets {
		u2, err := uuid.Parse(key)
		if err != nil {
			return fmt.Errorf("key %s: parse key as UUID: %w", key, err)
		}
		if err := cs.Validate(); err != nil {
			return fmt.Errorf("form %s: %w", key, err)
		}
		d2.Forms[u2] = cs
	}
	*d = d2
	return nil
}

// Lookup finds a formation by its comment. This is for the CLI, where IDs are unwieldy.
func (d Data) Lookup(comment string) (uuid.UUID, Form, bool) {
	for id, f := range d.Forms {
		if f.Comment == comment {
			return id, f, true
		}
	}
	return uuid.UUID{}, Form{}, false
}

// Form represents a single formation.
type Form struct {
	Comment string `json:"comment"`
	// Cars is the list of cars in this formation, front to back when running aligned.
	Cars []Car `json:"cars"`
}

// Length is the sum of the car lengths in metres.
func (f Form) Length() float64 {
	var sum float64
	for _, c := range f.Cars {
		sum += c.Length
	}
	return sum
}

func (f Form) Validate() error {
	if len(f.Cars) == 0 {
		return errors.New("formation has no cars")
	}
	for i, c := range f.Cars {
		if !(c.Length > 0) {
			return fmt.Errorf("car %d (%s): length %g must be positive", i, c.Comment, c.Length)
		}
	}
	return nil
}

// Uniform returns a formation of n identical cars.
func Uniform(comment string, n int, length float64) Form {
	f := Form{Comment: comment, Cars: make([]Car, n)}
	for i := range f.Cars {
		f.Cars[i] = Car{Length: length}
	}
	return f
}

// Car is one unit of rolling stock, measured coupler to coupler.
type Car struct {
	Comment string `json:"comment,omitempty"`
	// Length of the car in metres.
	Length float64 `json:"length"`
}
