package flow

import (
	"context"
	"math/rand"
	"time"
)

const (
	DefaultWidth  = 960.0
	DefaultHeight = 560.0

	frameInterval = time.Second / 60
	readoutEvery  = 15 // integrator ticks between periodic readout refreshes
	maxTickDt     = 0.1
	historyCap    = 4096
)

// DefaultParams is a water-like uniform-flow starting point.
func DefaultParams() Params {
	return Params{
		Mode:          ModeUniform,
		FlowSpeed:     1.0,
		Viscosity:     0.001,
		Density:       998,
		Diameter:      0.2,
		ParticleCount: 400,
		TrailFade:     0.35,
	}
}

// Frame is what the simulation hands each observer once per tick. The
// particle slice is a borrow of live state and must not be retained past
// the callback.
type Frame struct {
	Tick      uint64
	Running   bool
	Width     float64
	Height    float64
	Params    Params
	Particles []Particle
	Readouts  Readouts
}

// FrameFunc consumes one frame. It runs on the simulation goroutine, so it
// must return quickly.
type FrameFunc func(Frame)

// Sample is one timestamped readout record kept for the CSV exporter.
type Sample struct {
	Taken    time.Time
	Params   Params
	Readouts Readouts
}

// Snapshot is a detached copy of the simulation state, safe to hold and
// serialize outside the loop.
type Snapshot struct {
	Taken     time.Time
	Running   bool
	Width     float64
	Height    float64
	Params    Params
	Particles []Particle
	Readouts  Readouts
	History   []Sample
}

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdReset
	cmdResize
	cmdSetMode
	cmdSetParam
	cmdSetParams
	cmdSnapshot
)

type command struct {
	kind   cmdKind
	mode   Mode
	name   string
	value  float64
	params Params
	n      int
	reply  chan Snapshot
}

// Simulation owns the particle store, the flow field and the integrator,
// and runs the per-frame loop on a single goroutine. Control calls are
// delivered through a command queue and take effect on or before the next
// tick; there is no other shared state, so no locking is needed.
type Simulation struct {
	store  *Store
	field  *Field
	integ  *Integrator
	params Params

	readouts Readouts
	history  []Sample

	running   bool
	tick      uint64
	cmds      chan command
	observers []FrameFunc
}

// NewSimulation builds a simulation over a w×h pixel domain with the given
// starting parameters. A nil random source is seeded from the clock; tests
// inject a fixed source to pin down the wake perturbation and spawn jitter.
func NewSimulation(w, h float64, p Params, src rand.Source) *Simulation {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	seeder := rand.New(src)
	field := NewField(rand.NewSource(seeder.Int63()))
	store := NewStore(w, h, rand.NewSource(seeder.Int63()))
	s := &Simulation{
		store:   store,
		field:   field,
		integ:   NewIntegrator(field),
		params:  p,
		running: true,
		cmds:    make(chan command, 64),
	}
	s.store.Reset(p.ParticleCount, p)
	s.readouts = ComputeReadouts(p)
	return s
}

// OnFrame registers an observer. Observers must be registered before Run.
func (s *Simulation) OnFrame(fn FrameFunc) {
	s.observers = append(s.observers, fn)
}

// Run drives the loop at the display cadence until the context is
// cancelled. Each iteration applies pending commands, advances the
// integrator once and hands the frame to every observer.
func (s *Simulation) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			s.handle(cmd)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > maxTickDt {
				// A suspended tab or a stalled host came back with a stale
				// clock; treat it as a single ordinary frame.
				dt = maxTickDt
			}
			s.drain()
			s.step(dt)
			s.emit()
		}
	}
}

// Pause suspends particle advection. Parameter edits still apply while
// paused and show up once resumed.
func (s *Simulation) Pause() { s.cmds <- command{kind: cmdPause} }

// Resume restarts particle advection.
func (s *Simulation) Resume() { s.cmds <- command{kind: cmdResume} }

// Reset clears the population and respawns it at the current target size.
func (s *Simulation) Reset() { s.cmds <- command{kind: cmdReset} }

// Resize changes the target population. Values below zero mean an empty
// population; readouts keep refreshing regardless.
func (s *Simulation) Resize(n int) { s.cmds <- command{kind: cmdResize, n: n} }

// SetMode switches the experiment and fully resets the particle state.
func (s *Simulation) SetMode(m Mode) { s.cmds <- command{kind: cmdSetMode, mode: m} }

// SetParam updates a single named parameter. Unknown names are dropped.
func (s *Simulation) SetParam(name string, value float64) {
	s.cmds <- command{kind: cmdSetParam, name: name, value: value}
}

// SetParams replaces the whole parameter snapshot.
func (s *Simulation) SetParams(p Params) { s.cmds <- command{kind: cmdSetParams, params: p} }

// Snapshot returns a detached copy of the current state, waiting for the
// loop to service the request.
func (s *Simulation) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	s.cmds <- command{kind: cmdSnapshot, reply: reply}
	return <-reply
}

func (s *Simulation) drain() {
	for {
		select {
		case cmd := <-s.cmds:
			s.handle(cmd)
		default:
			return
		}
	}
}

func (s *Simulation) step(dt float64) {
	if !s.running {
		return
	}
	s.integ.Step(s.store, s.params, dt)
	s.tick++
	if s.tick%readoutEvery == 0 {
		s.refreshReadouts()
	}
}

func (s *Simulation) emit() {
	w, h := s.store.Domain()
	frame := Frame{
		Tick:      s.tick,
		Running:   s.running,
		Width:     w,
		Height:    h,
		Params:    s.params,
		Particles: s.store.Particles(),
		Readouts:  s.readouts,
	}
	for _, fn := range s.observers {
		fn(frame)
	}
}

func (s *Simulation) handle(cmd command) {
	switch cmd.kind {
	case cmdPause:
		s.running = false
	case cmdResume:
		s.running = true
	case cmdReset:
		s.store.Reset(s.params.ParticleCount, s.params)
	case cmdResize:
		n := cmd.n
		if n < 0 {
			n = 0
		}
		s.params.ParticleCount = n
		s.store.Resize(n, s.params)
	case cmdSetMode:
		if cmd.mode != s.params.Mode {
			s.params.Mode = cmd.mode
			s.store.Reset(s.params.ParticleCount, s.params)
			s.refreshReadouts()
		}
	case cmdSetParam:
		s.setParam(cmd.name, cmd.value)
	case cmdSetParams:
		s.applyParams(cmd.params)
	case cmdSnapshot:
		cmd.reply <- s.snapshot()
	}
}

func (s *Simulation) setParam(name string, value float64) {
	switch name {
	case "flowSpeed":
		s.params.FlowSpeed = value
	case "viscosity":
		s.params.Viscosity = value
	case "density":
		s.params.Density = value
	case "diameter":
		// The characteristic diameter defines the apparatus geometry, so
		// in-flight particle state is discarded, not migrated.
		s.params.Diameter = value
		s.store.Reset(s.params.ParticleCount, s.params)
	case "particleCount":
		n := int(value)
		if n < 0 {
			n = 0
		}
		s.params.ParticleCount = n
		s.store.Resize(n, s.params)
	case "trailFade":
		s.params.TrailFade = value
	case "showStreamlines":
		s.params.ShowStreamlines = value != 0
	case "reynoldsOverride":
		s.params.ReynoldsOverride = value
	default:
		return
	}
	s.refreshReadouts()
}

func (s *Simulation) applyParams(p Params) {
	reset := p.Mode != s.params.Mode || p.Diameter != s.params.Diameter
	resize := p.ParticleCount != s.params.ParticleCount
	if p.ParticleCount < 0 {
		p.ParticleCount = 0
	}
	s.params = p
	if reset {
		s.store.Reset(p.ParticleCount, p)
	} else if resize {
		s.store.Resize(p.ParticleCount, p)
	}
	s.refreshReadouts()
}

func (s *Simulation) refreshReadouts() {
	s.readouts = ComputeReadouts(s.params)
	s.history = append(s.history, Sample{
		Taken:    time.Now(),
		Params:   s.params,
		Readouts: s.readouts,
	})
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
}

func (s *Simulation) snapshot() Snapshot {
	particles := make([]Particle, len(s.store.Particles()))
	copy(particles, s.store.Particles())
	history := make([]Sample, len(s.history))
	copy(history, s.history)
	w, h := s.store.Domain()
	return Snapshot{
		Taken:     time.Now(),
		Running:   s.running,
		Width:     w,
		Height:    h,
		Params:    s.params,
		Particles: particles,
		Readouts:  s.readouts,
		History:   history,
	}
}
