// Package sim is the step function of a running railroad: a Model, the messages that change
// it, and Update.
package sim

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/cars"
	"nyiyui.ca/hato/railroad/tal/layout"
)

// Model is the whole simulation state. Update never modifies a Model in place.
type Model struct {
	tal.Scenario
	Running bool
	// Message is shown to the operator; it is replaced by the next message that has something
	// to say.
	Message string
}

// Env is what Update needs besides the model.
type Env struct {
	// Initial builds the scenario Reset returns to.
	Initial      func() tal.Scenario
	StepDuration time.Duration
	// Formations are the trains Spawn can place.
	Formations cars.Data
}

// Init is the model Reset produces: the initial scenario, paused.
func Init(env Env) Model {
	return Model{Scenario: env.Initial().Clone()}
}

// Update applies msg to m.
func Update(env Env, m Model, msg Msg) Model {
	switch msg := msg.(type) {
	case Tick:
		if !m.Running {
			return m
		}
		return advance(m, time.Duration(msg.DeltaMS*float64(time.Millisecond)))
	case Step:
		if m.Running {
			return m
		}
		return advance(m, env.StepDuration)
	case Toggle:
		m.Running = !m.Running
		m.Message = ""
		return m
	case Reset:
		return Init(env)
	case ChangeSwitch:
		ss, err := m.SwitchState.Toggle(m.Layout, msg.Index)
		if err != nil {
			m.Message = fmt.Sprintf("change switch: %s", err)
			return m
		}
		m.Scenario = m.Scenario.Clone()
		m.SwitchState = ss
		m.Message = ""
		return m
	case Load:
		s, err := doc.Decode(msg.Doc)
		if err != nil {
			zap.S().Warnw("rejected load", "err", err)
			m.Message = fmt.Sprintf("load failed: %s", err)
			return m
		}
		warnLoops(s.Layout)
		return Model{Scenario: s, Message: "loaded"}
	case SetSpeed:
		if !(msg.Speed >= 0) {
			m.Message = fmt.Sprintf("speed %g must not be negative", msg.Speed)
			return m
		}
		return m.withTrain(msg.Train, func(t tal.TrainState) tal.TrainState {
			t.Speed = msg.Speed
			return t
		})
	case Reverse:
		return m.withTrain(msg.Train, tal.TrainState.Reverse)
	case Spawn:
		return spawn(env, m, msg)
	case SetRoute:
		path, ok := layout.PathTo(m.Layout, msg.From, msg.To)
		if !ok {
			m.Message = fmt.Sprintf("no route from %d to %d", msg.From, msg.To)
			return m
		}
		ss, err := layout.AlignRoute(m.Layout, m.SwitchState, path)
		if err != nil {
			m.Message = fmt.Sprintf("route %d to %d: %s", msg.From, msg.To, err)
			return m
		}
		m.Scenario = m.Scenario.Clone()
		m.SwitchState = ss
		m.Message = ""
		return m
	default:
		panic(fmt.Sprintf("unknown message %T", msg))
	}
}

func advance(m Model, d time.Duration) Model {
	before := m.Trains
	trains, derailed := tal.AdvanceAll(d.Seconds(), m.Trains, m.Layout, m.SwitchState)
	m.Scenario = m.Scenario.Clone()
	m.Trains = trains
	if len(derailed) == 0 {
		return m
	}
	names := make([]string, len(derailed))
	for i, ti := range derailed {
		names[i] = trains[ti].Name
		zap.S().Infow("train derailed", "train", trains[ti].Name, "id", trains[ti].ID, "was", before[ti].Location)
	}
	m.Running = false
	m.Message = fmt.Sprintf("derailed: %s", strings.Join(names, ", "))
	return m
}

func (m Model) withTrain(name string, f func(tal.TrainState) tal.TrainState) Model {
	i, ok := m.Train(name)
	if !ok {
		m.Message = fmt.Sprintf("no train %q", name)
		return m
	}
	m.Scenario = m.Scenario.Clone()
	m.Trains[i] = f(m.Trains[i])
	m.Message = ""
	return m
}

func spawn(env Env, m Model, msg Spawn) Model {
	if _, exists := m.Train(msg.Name); exists || msg.Name == "" {
		m.Message = fmt.Sprintf("spawn: name %q is taken or empty", msg.Name)
		return m
	}
	_, form, ok := env.Formations.Lookup(msg.Formation)
	if !ok {
		m.Message = fmt.Sprintf("spawn: no formation %q", msg.Formation)
		return m
	}
	loc, ok := layout.Normalize(layout.Location{
		Edge:        layout.Edge{From: msg.From, To: msg.To},
		Pos:         msg.Pos,
		Orientation: msg.Orientation,
	}, m.Layout, m.SwitchState)
	if !ok {
		m.Message = fmt.Sprintf("spawn: %d→%d at %gm is not on the network", msg.From, msg.To, msg.Pos)
		return m
	}
	if !(msg.Speed >= 0) {
		m.Message = fmt.Sprintf("spawn: speed %g must not be negative", msg.Speed)
		return m
	}
	t := tal.NewTrain(msg.Name, form, msg.Speed, loc)
	m.Scenario = m.Scenario.Clone()
	m.Trains = append(m.Trains, t)
	m.Message = ""
	return m
}

func warnLoops(y *layout.Layout) {
	for _, lm := range layout.CheckLoops(y, layout.Project(y), 1e-3) {
		zap.S().Warnw("layout loop does not close", "edge", lm.Edge, "expected", lm.Expected, "got", lm.Got)
	}
}
