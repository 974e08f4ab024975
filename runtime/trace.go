package runtime

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"nyiyui.ca/hato/railroad/sim"
)

// Tracer writes one message per line, in the form sim.MarshalMsg produces. Ticks carry their
// own elapsed time, so replaying a trace reproduces the run exactly.
type Tracer struct {
	lock sync.Mutex
	w    io.Writer
}

func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

func (t *Tracer) Record(msg sim.Msg) error {
	data, err := sim.MarshalMsg(msg)
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	_, err = t.w.Write(append(data, '\n'))
	return err
}

// ReadTrace parses a trace. Blank lines are skipped.
func ReadTrace(r io.Reader) ([]sim.Msg, error) {
	var msgs []sim.Msg
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		msg, err := sim.UnmarshalMsg(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		msgs = append(msgs, msg)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Replay applies every message of a trace in order and returns the final snapshot.
func (i *Instance) Replay(r io.Reader) (Snapshot, error) {
	msgs, err := ReadTrace(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("trace: %w", err)
	}
	s := i.Latest()
	for _, msg := range msgs {
		s = i.Apply(msg)
	}
	return s, nil
}
