package runtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/railroad/config"
	"nyiyui.ca/hato/railroad/sim"
	"nyiyui.ca/hato/railroad/tal/layout/preset"
)

func testInstance(t *testing.T) *Instance {
	t.Helper()
	c := config.Default()
	c.TickInterval = 5 * time.Millisecond
	env := sim.Env{Initial: preset.Initial, StepDuration: time.Second}
	return NewInstance(env, c)
}

func leadPos(t *testing.T, s Snapshot) float64 {
	t.Helper()
	require.Len(t, s.Doc.Trains, 1)
	require.NotNil(t, s.Doc.Trains[0].Loc)
	return *s.Doc.Trains[0].Loc.Pos
}

func TestInitialSnapshot(t *testing.T) {
	s := testInstance(t).Latest()
	require.False(t, s.Running)
	require.Equal(t, 55.0, leadPos(t, s))
	require.Len(t, s.Cars, 5)
	for i, c := range s.Cars {
		require.Equal(t, "Happy Train", c.Train)
		require.Equal(t, i, c.Index)
		require.False(t, c.Hidden)
		// every car of the lead-in is on the straight y = 2.5
		require.InDelta(t, 2.5, c.Front.Y, 1e-9)
		require.InDelta(t, 10, c.Front.X-c.Back.X, 0.05)
	}
	require.Equal(t, FramePoint{Point: Point{X: 0, Y: 2.5}}, s.Frames[0])
	require.Len(t, s.Edges, 8)
	var exits, usable int
	for _, e := range s.Edges {
		if e.Exit {
			exits++
			require.Empty(t, e.Path)
		} else {
			require.NotEmpty(t, e.Path)
		}
		if e.Usable {
			usable++
		}
	}
	require.Equal(t, 3, exits)
	// 1→3 is blocked by the default switch state
	require.Equal(t, 7, usable)
	require.LessOrEqual(t, s.Bounds.Min.X, 0.0)
	require.Greater(t, s.Bounds.Max.X, 150.0)
}

func TestApplyPublishes(t *testing.T) {
	i := testInstance(t)
	ch := make(chan Snapshot, 1)
	i.Snapshots.Subscribe("test", ch)
	defer i.Snapshots.Unsubscribe(ch)
	i.Apply(sim.Toggle{})
	s := <-ch
	require.True(t, s.Running)
	require.Equal(t, s, i.Latest())
	i.Apply(sim.Tick{DeltaMS: 1000})
	s = <-ch
	require.InDelta(t, 65, leadPos(t, s), 1e-9)
	require.True(t, i.Model().Running)
}

func TestRun(t *testing.T) {
	i := testInstance(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan Snapshot, 8)
	i.Snapshots.Subscribe("test", ch)
	defer i.Snapshots.Unsubscribe(ch)
	done := make(chan error, 1)
	go func() { done <- i.Run(ctx) }()

	require.NoError(t, i.Send(ctx, sim.Toggle{}))
	deadline := time.After(5 * time.Second)
	for moved := false; !moved; {
		select {
		case s := <-ch:
			moved = s.Running && leadPos(t, s) > 55
		case <-deadline:
			t.Fatalf("train did not move")
		}
	}
	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
}

func TestRunDoesNotTickPaused(t *testing.T) {
	i := testInstance(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, i.Run(ctx), context.DeadlineExceeded)
	require.Equal(t, 55.0, leadPos(t, i.Latest()))
}

func TestTraceReplay(t *testing.T) {
	var buf bytes.Buffer
	a := testInstance(t)
	a.Trace = NewTracer(&buf)
	for _, msg := range []sim.Msg{
		sim.Toggle{},
		sim.Tick{DeltaMS: 1000},
		sim.ChangeSwitch{Index: 0},
		sim.SetSpeed{Train: "Happy Train", Speed: 4},
		sim.Tick{DeltaMS: 500},
	} {
		a.Apply(msg)
	}
	require.Equal(t, 5, strings.Count(buf.String(), "\n"))

	b := testInstance(t)
	s, err := b.Replay(&buf)
	require.NoError(t, err)
	require.Equal(t, a.Latest(), s)
	require.InDelta(t, 67, leadPos(t, s), 1e-9)
	require.Equal(t, []int{1}, s.Doc.SwitchStates)
}

func TestReadTraceErrors(t *testing.T) {
	msgs, err := ReadTrace(strings.NewReader("{\"type\":\"toggle\"}\n\n{\"type\":\"bogus\"}\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
	require.Nil(t, msgs)
}
