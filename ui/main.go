// Package ui is a terminal dashboard for a running instance.
package ui

import (
	"context"
	"fmt"
	"image"
	"math"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/drawille"
	"github.com/gizak/termui/v3/widgets"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/runtime"
	"nyiyui.ca/hato/railroad/sim"
)

const help = "space run/pause  s step  r reset  1-9 switch  q quit"

// keyMsg maps a key press to the message it sends.
func keyMsg(id string) (sim.Msg, bool) {
	switch id {
	case "<Space>":
		return sim.Toggle{}, true
	case "s":
		return sim.Step{}, true
	case "r":
		return sim.Reset{}, true
	}
	if len(id) == 1 && id[0] >= '1' && id[0] <= '9' {
		return sim.ChangeSwitch{Index: int(id[0] - '1')}, true
	}
	return nil, false
}

func formatLoc(l *doc.Location) (edge, pos, orientation string) {
	if l == nil {
		return "derailed", "", ""
	}
	return fmt.Sprintf("%d→%d", *l.Edge.From, *l.Edge.To), fmt.Sprintf("%.2f", *l.Pos), l.Orientation
}

func trainRows(s runtime.Snapshot) [][]string {
	rows := [][]string{{"train", "edge", "pos (m)", "facing", "km/h", "cars"}}
	for _, t := range s.Doc.Trains {
		edge, pos, orientation := formatLoc(t.Loc)
		rows = append(rows, []string{
			t.Name,
			edge,
			pos,
			orientation,
			fmt.Sprintf("%.1f", *t.Speed*3.6),
			fmt.Sprint(len(t.Composition)),
		})
	}
	return rows
}

func switchRows(s runtime.Snapshot) []string {
	rows := make([]string, len(s.Doc.Layout.Switches))
	for i, sw := range s.Doc.Layout.Switches {
		state := -1
		if i < len(s.Doc.SwitchStates) {
			state = s.Doc.SwitchStates[i]
		}
		rows[i] = fmt.Sprintf("[%d] config %d of %d", i+1, state, len(sw.Configs))
	}
	return rows
}

func status(s runtime.Snapshot) string {
	state := "paused"
	if s.Running {
		state = "running"
	}
	if s.Message == "" {
		return state
	}
	return state + ": " + s.Message
}

// toCanvas maps a world point into a canvas of w×h dots; y grows downwards on screen.
func toCanvas(b runtime.Bounds, w, h int, p runtime.Point) image.Point {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	scale := math.Inf(1)
	if dx > 0 {
		scale = float64(w-1) / dx
	}
	if dy > 0 {
		scale = math.Min(scale, float64(h-1)/dy)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	return image.Pt(
		int(math.Round((p.X-b.Min.X)*scale)),
		h-1-int(math.Round((p.Y-b.Min.Y)*scale)),
	)
}

type dashboard struct {
	layout   *ui.Canvas
	trains   *widgets.Table
	switches *widgets.List
	status   *widgets.Paragraph
}

func newDashboard() *dashboard {
	d := &dashboard{
		layout:   ui.NewCanvas(),
		trains:   widgets.NewTable(),
		switches: widgets.NewList(),
		status:   widgets.NewParagraph(),
	}
	d.layout.Title = "layout"
	d.trains.Title = "trains"
	d.trains.RowSeparator = false
	d.switches.Title = "switches"
	d.status.Title = help
	d.resize(ui.TerminalDimensions())
	return d
}

func (d *dashboard) resize(w, h int) {
	d.layout.SetRect(0, 0, w, h*3/5)
	d.trains.SetRect(0, h*3/5, w*2/3, h-3)
	d.switches.SetRect(w*2/3, h*3/5, w, h-3)
	d.status.SetRect(0, h-3, w, h)
}

func (d *dashboard) update(s runtime.Snapshot) {
	d.layout.Canvas = *drawille.NewCanvas()
	inner := d.layout.Inner
	w, h := inner.Dx()*2, inner.Dy()*4
	if w > 0 && h > 0 {
		for _, e := range s.Edges {
			color := ui.ColorWhite
			if !e.Usable {
				color = ui.ColorRed
			}
			for i := 1; i < len(e.Path); i++ {
				d.layout.SetLine(
					toCanvas(s.Bounds, w, h, e.Path[i-1]).Add(image.Pt(inner.Min.X*2, inner.Min.Y*4)),
					toCanvas(s.Bounds, w, h, e.Path[i]).Add(image.Pt(inner.Min.X*2, inner.Min.Y*4)),
					color,
				)
			}
		}
		for _, c := range s.Cars {
			if c.Hidden {
				continue
			}
			d.layout.SetLine(
				toCanvas(s.Bounds, w, h, c.Front).Add(image.Pt(inner.Min.X*2, inner.Min.Y*4)),
				toCanvas(s.Bounds, w, h, c.Back).Add(image.Pt(inner.Min.X*2, inner.Min.Y*4)),
				ui.ColorGreen,
			)
		}
	}
	d.trains.Rows = trainRows(s)
	d.switches.Rows = switchRows(s)
	d.status.Text = status(s)
	ui.Render(d.layout, d.trains, d.switches, d.status)
}

// Main shows i until q is pressed or ctx is done. Keys are sent to i as messages.
func Main(ctx context.Context, i *runtime.Instance) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("termui init: %w", err)
	}
	defer ui.Close()
	d := newDashboard()
	snaps := make(chan runtime.Snapshot, 1)
	i.Snapshots.Subscribe("ui", snaps)
	defer i.Snapshots.Unsubscribe(snaps)
	last := i.Latest()
	d.update(last)
	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-snaps:
			last = s
			d.update(s)
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				ui.Clear()
				d.resize(payload.Width, payload.Height)
				d.update(last)
				continue
			}
			msg, ok := keyMsg(e.ID)
			if !ok {
				continue
			}
			if err := i.Send(ctx, msg); err != nil {
				return nil
			}
		}
	}
}
