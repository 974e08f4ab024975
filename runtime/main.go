// Package runtime runs a simulation: it owns the model, applies messages to it one at a
// time, ticks it while running and publishes a Snapshot after every change.
package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/config"
	"nyiyui.ca/hato/railroad/notify"
	"nyiyui.ca/hato/railroad/sim"
	"nyiyui.ca/hato/railroad/tal"
)

type Instance struct {
	env          sim.Env
	placer       tal.Placer
	tickInterval time.Duration
	msgs         chan sim.Msg

	// Snapshots receives a snapshot after every applied message.
	Snapshots *notify.Multiplexer[Snapshot]
	// Trace, when set before Run, records every applied message.
	Trace *Tracer

	lock     sync.Mutex
	model    sim.Model
	geometry *geometry
	latest   Snapshot
}

func NewInstance(env sim.Env, c config.Config) *Instance {
	i := &Instance{
		env: env,
		placer: tal.Placer{
			MaxIterations: c.Placement.MaxIterations,
			Tolerance:     c.Placement.Tolerance,
		},
		tickInterval: c.TickInterval,
		msgs:         make(chan sim.Msg, 16),
		Snapshots:    notify.NewMultiplexer[Snapshot]("snapshots"),
		model:        sim.Init(env),
	}
	i.latest = i.snapshot()
	return i
}

// Send queues msg for Run. It returns early if ctx is done first.
func (i *Instance) Send(ctx context.Context, msg sim.Msg) error {
	select {
	case i.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply updates the model with msg immediately and publishes the result. Calls made while
// Run is active race with it for the order of published snapshots.
func (i *Instance) Apply(msg sim.Msg) Snapshot {
	i.lock.Lock()
	i.model = sim.Update(i.env, i.model, msg)
	s := i.snapshot()
	i.latest = s
	i.lock.Unlock()
	if i.Trace != nil {
		if err := i.Trace.Record(msg); err != nil {
			zap.S().Warnw("trace record failed", "type", msg.Type(), "err", err)
		}
	}
	i.Snapshots.Send(s)
	return s
}

// Latest is the snapshot of the current model.
func (i *Instance) Latest() Snapshot {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.latest
}

func (i *Instance) Model() sim.Model {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.model
}

func (i *Instance) running() bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.model.Running
}

// snapshot must be called with lock held.
func (i *Instance) snapshot() Snapshot {
	if i.geometry == nil || i.geometry.layout != i.model.Layout {
		i.geometry = newGeometry(i.model.Layout)
	}
	return i.geometry.snapshot(i.model, i.placer)
}

// Run applies sent messages and, while the model is running, ticks it with the time that
// actually passed. It returns when ctx is done.
func (i *Instance) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.tickInterval)
	defer ticker.Stop()
	last := time.Now()
	zap.S().Infow("runtime started", "tick", i.tickInterval)
	for {
		select {
		case <-ctx.Done():
			zap.S().Info("runtime stopped")
			return ctx.Err()
		case msg := <-i.msgs:
			zap.S().Debugw("apply", "type", msg.Type())
			i.Apply(msg)
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if !i.running() {
				continue
			}
			i.Apply(sim.Tick{DeltaMS: float64(delta) / float64(time.Millisecond)})
		}
	}
}
