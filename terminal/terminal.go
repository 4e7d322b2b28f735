// Package terminal renders the simulation into a termbox cell grid and maps
// keyboard input onto the simulation's lifecycle controls.
package terminal

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/push04/FlowForge/export"
	flow "github.com/push04/FlowForge/flow-engine"
)

// Speed shading, slowest to fastest.
var shades = []rune{'·', '∙', '•', '●', '█'}

type Terminal struct {
	backbuf  []termbox.Cell
	bbw, bbh int
	logfile  *os.File
	fn       string

	sim    *flow.Simulation
	frames chan flow.Frame
	last   flow.Frame
	paused bool
}

// New wires a terminal frontend into the simulation's frame stream. It must
// be called before the simulation starts running.
func New(sim *flow.Simulation) *Terminal {
	t := new(Terminal)
	t.fn = "debug.log"
	t.logfile, _ = os.OpenFile(t.fn, os.O_CREATE|os.O_RDWR, 0755)
	t.sim = sim
	t.frames = make(chan flow.Frame, 1)
	sim.OnFrame(t.capture)

	return t
}

// capture runs on the simulation goroutine. The frame's particle slice is a
// one-tick borrow, so it is copied before crossing to the render goroutine.
// A stale undelivered frame is dropped in favor of the fresh one.
func (t *Terminal) capture(f flow.Frame) {
	particles := make([]flow.Particle, len(f.Particles))
	copy(particles, f.Particles)
	f.Particles = particles
	for {
		select {
		case t.frames <- f:
			return
		default:
			select {
			case <-t.frames:
			default:
			}
		}
	}
}

// Render owns the screen until Esc is pressed.
func (t *Terminal) Render() error {
	defer t.logfile.Close()

	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)
	t.reallocBackBuffer(termbox.Size())

	events := make(chan termbox.Event)
	go func() {
		for {
			events <- termbox.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc {
					return nil
				}
				t.handleKey(ev)
			case termbox.EventResize:
				t.reallocBackBuffer(ev.Width, ev.Height)
			}
		case f := <-t.frames:
			t.last = f
			t.paused = !f.Running
			t.redraw(f)
		}
	}
}

func (t *Terminal) handleKey(ev termbox.Event) {
	switch {
	case ev.Key == termbox.KeySpace:
		if t.paused {
			t.sim.Resume()
		} else {
			t.sim.Pause()
		}
		t.paused = !t.paused
	case ev.Ch == 'r':
		t.sim.Reset()
	case ev.Ch >= '1' && ev.Ch <= '5':
		t.sim.SetMode(flow.Mode(ev.Ch - '1'))
	case ev.Ch == '+' || ev.Ch == '=':
		t.sim.SetParam("flowSpeed", clamp(t.last.Params.FlowSpeed+0.05, 0.05, 6))
	case ev.Ch == '-':
		t.sim.SetParam("flowSpeed", clamp(t.last.Params.FlowSpeed-0.05, 0.05, 6))
	case ev.Ch == ']':
		t.sim.SetParam("viscosity", clamp(t.last.Params.Viscosity*1.5, 1e-5, 1))
	case ev.Ch == '[':
		t.sim.SetParam("viscosity", clamp(t.last.Params.Viscosity/1.5, 1e-5, 1))
	case ev.Ch == 's':
		t.snapshot()
	}
}

// snapshot writes a PNG of the particle state and a CSV of the readout
// history next to the binary. Failures are reported to the log file, never
// to the screen.
func (t *Terminal) snapshot() {
	snap := t.sim.Snapshot()
	stamp := snap.Taken.Format("20060102-150405")

	img, err := os.Create("snapshot-" + stamp + ".png")
	if err == nil {
		err = export.WritePNG(img, snap)
		img.Close()
	}
	if err != nil {
		t.log(t.logfile, "snapshot failed: %v\n", err)
		return
	}

	csvf, err := os.Create("readouts-" + stamp + ".csv")
	if err == nil {
		err = export.WriteCSV(csvf, snap)
		csvf.Close()
	}
	if err != nil {
		t.log(t.logfile, "readout export failed: %v\n", err)
		return
	}
	t.log(t.logfile, "snapshot %s written\n", stamp)
}

func (t *Terminal) reallocBackBuffer(w, h int) {
	t.bbw, t.bbh = w, h
	t.backbuf = make([]termbox.Cell, w*h)
}

func (t *Terminal) redraw(f flow.Frame) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	for i := range t.backbuf {
		t.backbuf[i] = termbox.Cell{Ch: ' '}
	}

	t.drawApparatus(f)
	t.drawParticles(f)
	copy(termbox.CellBuffer(), t.backbuf)
	t.drawStatus(f)
	termbox.Flush()
}

// cell maps a pixel-space position to a backbuffer coordinate. The top row
// is reserved for the status line.
func (t *Terminal) cell(x, y, w, h float64) (int, int, bool) {
	if t.bbh <= 1 {
		return 0, 0, false
	}
	cx := int(x / w * float64(t.bbw))
	cy := 1 + int(y/h*float64(t.bbh-1))
	if cx < 0 || cx >= t.bbw || cy < 1 || cy >= t.bbh {
		return 0, 0, false
	}
	return cx, cy, true
}

func (t *Terminal) set(cx, cy int, ch rune, fg termbox.Attribute) {
	t.backbuf[t.bbw*cy+cx] = termbox.Cell{Ch: ch, Fg: fg}
}

func (t *Terminal) drawParticles(f flow.Frame) {
	peak := f.Params.FlowSpeed * 1.6
	if peak <= 0 {
		peak = 1
	}
	for i := range f.Particles {
		p := &f.Particles[i]
		cx, cy, ok := t.cell(p.X, p.Y, f.Width, f.Height)
		if !ok {
			continue
		}
		frac := p.Speed() / peak
		idx := int(frac * float64(len(shades)))
		if idx >= len(shades) {
			idx = len(shades) - 1
		} else if idx < 0 {
			idx = 0
		}
		t.set(cx, cy, shades[idx], termbox.ColorCyan)
	}
}

// drawApparatus sketches the mode-specific geometry behind the particles.
func (t *Terminal) drawApparatus(f flow.Frame) {
	if t.bbh <= 2 {
		return
	}
	top, bottom := 1, t.bbh-1
	switch f.Params.Mode {
	case flow.ModePipeProfile:
		for cx := 0; cx < t.bbw; cx++ {
			t.set(cx, top, '═', termbox.ColorWhite)
			t.set(cx, bottom-1, '═', termbox.ColorWhite)
		}
	case flow.ModeOpenChannel:
		for cx := 0; cx < t.bbw; cx++ {
			t.set(cx, top, '~', termbox.ColorBlue)
			t.set(cx, bottom-1, '═', termbox.ColorWhite)
		}
	case flow.ModeVenturi:
		hw := flow.ThroatHalfWidth(f.Params.Diameter) / f.Width * float64(t.bbw)
		mid := float64(t.bbw) / 2
		rows := t.bbh - 2
		for cx := 0; cx < t.bbw; cx++ {
			dx := (float64(cx) - mid) / hw
			depth := int(0.3 * float64(rows) / 2 * bump(dx))
			for d := 0; d <= depth; d++ {
				t.set(cx, top+d, '▒', termbox.ColorWhite)
				t.set(cx, bottom-1-d, '▒', termbox.ColorWhite)
			}
		}
	case flow.ModeCylinder:
		r := flow.CylinderRadius(f.Params.Diameter)
		ccx, ccy, ok := t.cell(f.Width/2, f.Height/2, f.Width, f.Height)
		if !ok {
			return
		}
		rx := r / f.Width * float64(t.bbw)
		ry := r / f.Height * float64(t.bbh-1)
		for cy := 1; cy < t.bbh; cy++ {
			for cx := 0; cx < t.bbw; cx++ {
				dx := float64(cx-ccx) / rx
				dy := float64(cy-ccy) / ry
				if dx*dx+dy*dy <= 1 {
					t.set(cx, cy, '█', termbox.ColorWhite)
				}
			}
		}
	}
}

func (t *Terminal) drawStatus(f flow.Frame) {
	state := "running"
	if !f.Running {
		state = "paused"
	}
	status := fmt.Sprintf(" %s [%s]  V=%.2f m/s  μ=%.4g Pa·s  ρ=%.0f  D=%.2f m  Re=%d  q=%.3f kPa  n=%d ",
		f.Params.Mode, state, f.Params.FlowSpeed, f.Params.Viscosity,
		f.Params.Density, f.Params.Diameter, f.Readouts.Reynolds,
		f.Readouts.DynamicPressure, len(f.Particles))
	col := 0
	for _, r := range status {
		if col >= t.bbw {
			break
		}
		termbox.SetCell(col, 0, r, termbox.ColorBlack, termbox.ColorWhite)
		col++
	}
	for ; col < t.bbw; col++ {
		termbox.SetCell(col, 0, ' ', termbox.ColorBlack, termbox.ColorWhite)
	}
}

func (t *Terminal) log(f io.Writer, format string, vals ...interface{}) {
	fmt.Fprintf(f, time.Now().Format("15:04:05 ")+format, vals...)
}

func bump(x float64) float64 {
	return 1 / (1 + x*x)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
