package sim

import (
	"encoding/json"
	"fmt"
	"strconv"

	"nyiyui.ca/hato/railroad/tal/layout"
)

// Msg is a request to change the model. Every Msg has a JSON form with a "type" field, used
// by traces and by remote control.
type Msg interface {
	Type() string
}

// Tick advances a running simulation by the host's elapsed time.
type Tick struct {
	DeltaMS float64 `json:"delta-ms"`
}

// Step advances a paused simulation by the configured step duration.
type Step struct{}

// Toggle pauses or resumes.
type Toggle struct{}

// Reset returns to the initial scenario, paused.
type Reset struct{}

// ChangeSwitch moves a switch to its next config.
type ChangeSwitch struct {
	Index int `json:"index"`
}

// Load replaces the model with a document.
type Load struct {
	Doc json.RawMessage `json:"doc"`
}

type SetSpeed struct {
	Train string  `json:"train"`
	Speed float64 `json:"speed"`
}

// Reverse turns a train around in place.
type Reverse struct {
	Train string `json:"train"`
}

// Spawn places a new train from the formation catalogue.
type Spawn struct {
	Name        string             `json:"name"`
	Formation   string             `json:"formation"`
	From        layout.NodeID      `json:"from"`
	To          layout.NodeID      `json:"to"`
	Pos         float64            `json:"pos"`
	Orientation layout.Orientation `json:"orientation"`
	Speed       float64            `json:"speed"`
}

// SetRoute sets the switches along the shortest path between two nodes.
type SetRoute struct {
	From layout.NodeID `json:"from"`
	To   layout.NodeID `json:"to"`
}

func (Tick) Type() string         { return "tick" }
func (Step) Type() string         { return "step" }
func (Toggle) Type() string       { return "toggle" }
func (Reset) Type() string        { return "reset" }
func (ChangeSwitch) Type() string { return "change-switch" }
func (Load) Type() string         { return "load" }
func (SetSpeed) Type() string     { return "set-speed" }
func (Reverse) Type() string      { return "reverse" }
func (Spawn) Type() string        { return "spawn" }
func (SetRoute) Type() string     { return "set-route" }

// MarshalMsg encodes msg with its type alongside its fields.
func MarshalMsg(msg Msg) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(strconv.Quote(msg.Type()))
	return json.Marshal(fields)
}

func decodeAs[M Msg](data []byte) (Msg, error) {
	var m M
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Type(), err)
	}
	return m, nil
}

// UnmarshalMsg decodes what MarshalMsg encodes.
func UnmarshalMsg(data []byte) (Msg, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "tick":
		return decodeAs[Tick](data)
	case "step":
		return decodeAs[Step](data)
	case "toggle":
		return decodeAs[Toggle](data)
	case "reset":
		return decodeAs[Reset](data)
	case "change-switch":
		return decodeAs[ChangeSwitch](data)
	case "load":
		return decodeAs[Load](data)
	case "set-speed":
		return decodeAs[SetSpeed](data)
	case "reverse":
		return decodeAs[Reverse](data)
	case "spawn":
		return decodeAs[Spawn](data)
	case "set-route":
		return decodeAs[SetRoute](data)
	default:
		return nil, fmt.Errorf("unknown message type %q", head.Type)
	}
}
