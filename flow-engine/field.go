package flow

import (
	"fmt"
	"math"
	"math/rand"
)

// Mode selects which analytic flow-field branch is active.
type Mode int

const (
	ModeUniform Mode = iota
	ModeVenturi
	ModeCylinder
	ModePipeProfile
	ModeOpenChannel
)

var modeNames = map[Mode]string{
	ModeUniform:     "uniform",
	ModeVenturi:     "venturi",
	ModeCylinder:    "cylinder",
	ModePipeProfile: "pipe-profile",
	ModeOpenChannel: "open-channel",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "uniform"
}

// ParseMode maps a mode name to its Mode value.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeUniform, fmt.Errorf("unknown experiment mode %q", s)
}

// Params is the current parameter snapshot shared by the field, the
// integrator and the readout computer. It is passed by value into every
// call so the core holds no ambient state of its own.
type Params struct {
	Mode             Mode
	FlowSpeed        float64 // m/s
	Viscosity        float64 // Pa·s
	Density          float64 // kg/m³
	Diameter         float64 // m, characteristic diameter
	ParticleCount    int
	TrailFade        float64
	ShowStreamlines  bool
	ReynoldsOverride float64 // > 0 replaces the computed Reynolds number
}

const (
	// Geometry constants, pixel space.
	venturiWidthScale = 4.8  // throat half-width = venturiWidthScale / diameter
	venturiPeakGain   = 0.6  // throat center velocity = flowSpeed·(1 + peakGain)
	venturiShear      = 0.35 // vertical convergence toward the centerline
	pipePeakGain      = 1.2  // centerline velocity = flowSpeed·pipePeakGain
	wallFloor         = 0.02 // m/s, particles never fully stall at a wall
	channelBase       = 0.35 // open-channel velocity fraction at the bed
	channelSpan       = 0.85 // extra fraction gained toward the free surface
	cylRadiusScale    = 320  // radius px per meter of diameter
	cylMinRadius      = 24
	cylMaxRadius      = 88
	wakeGain          = 0.3 // wake perturbation amplitude relative to flowSpeed
)

// Field evaluates the analytic velocity field of the active experiment.
// Evaluation is a pure function of position and parameters except for the
// cylinder wake, which draws from the injected random source.
type Field struct {
	rng *rand.Rand
}

// NewField builds a field over the given random source. A nil source means
// the wake perturbation is disabled, which keeps evaluation fully
// deterministic.
func NewField(src rand.Source) *Field {
	f := &Field{}
	if src != nil {
		f.rng = rand.New(src)
	}
	return f
}

// CylinderRadius is the obstacle radius in pixels for the given diameter,
// clamped to stay visually reasonable on any canvas.
func CylinderRadius(diameter float64) float64 {
	r := diameter * cylRadiusScale
	if r < cylMinRadius {
		return cylMinRadius
	}
	if r > cylMaxRadius {
		return cylMaxRadius
	}
	return r
}

// ThroatHalfWidth is the venturi throat half-width in pixels. A narrower
// characteristic diameter gives a narrower, sharper throat.
func ThroatHalfWidth(diameter float64) float64 {
	if diameter < minDiameter {
		diameter = minDiameter
	}
	hw := venturiWidthScale / diameter
	if hw < 8 {
		return 8
	}
	if hw > 160 {
		return 160
	}
	return hw
}

// Evaluate returns the local velocity in m/s at pixel position (x, y) of a
// w×h domain. The integrator converts to pixel displacement.
func (f *Field) Evaluate(x, y, w, h float64, p Params) (vx, vy float64) {
	switch p.Mode {
	case ModeVenturi:
		return f.venturi(x, y, w, h, p)
	case ModeCylinder:
		return f.cylinder(x, y, w, h, p)
	case ModePipeProfile:
		return f.pipeProfile(y, h, p)
	case ModeOpenChannel:
		return f.openChannel(y, h, p)
	default:
		return p.FlowSpeed, 0
	}
}

func (f *Field) venturi(x, y, w, h float64, p Params) (float64, float64) {
	dx := x - w*0.5
	dy := y - h*0.5
	hw := ThroatHalfWidth(p.Diameter)
	gauss := math.Exp(-(dx * dx) / (hw * hw))
	vx := p.FlowSpeed * (1 + venturiPeakGain*gauss)
	vy := -dy / (h * 0.5) * venturiShear * p.FlowSpeed * gauss
	return vx, vy
}

func (f *Field) cylinder(x, y, w, h float64, p Params) (float64, float64) {
	dx := x - w*0.5
	dy := y - h*0.5
	r := CylinderRadius(p.Diameter)
	r2 := dx*dx + dy*dy
	if r2 < r*r {
		// Solid body: the flow cannot enter the obstacle.
		return 0, 0
	}
	// Uniform stream plus dipole, the classical potential-flow solution:
	// u = U(1 − R²/r²·cos2θ), v = −U·R²/r²·sin2θ.
	cos2t := (dx*dx - dy*dy) / r2
	sin2t := 2 * dx * dy / r2
	k := r * r / r2
	vx := p.FlowSpeed * (1 - k*cos2t)
	vy := -p.FlowSpeed * k * sin2t
	if dx > 0 && math.Abs(dy) < r*1.5 {
		// Downstream of the obstacle the potential solution is too clean;
		// attenuate and jitter to suggest the wake.
		fade := math.Exp(-dx / (r * 4))
		vx *= 1 - 0.3*fade
		if f.rng != nil {
			vx += (f.rng.Float64() - 0.5) * wakeGain * p.FlowSpeed * fade
			vy += (f.rng.Float64() - 0.5) * wakeGain * p.FlowSpeed * fade
		}
	}
	return vx, vy
}

func (f *Field) pipeProfile(y, h float64, p Params) (float64, float64) {
	radius := h * 0.5
	dy := y - radius
	u := pipePeakGain * p.FlowSpeed * (1 - (dy/radius)*(dy/radius))
	if u < wallFloor {
		u = wallFloor
	}
	return u, 0
}

func (f *Field) openChannel(y, h float64, p Params) (float64, float64) {
	surface := 1 - y/h // 1 at the free surface, 0 at the bed
	if surface < 0 {
		surface = 0
	} else if surface > 1 {
		surface = 1
	}
	return p.FlowSpeed * (channelBase + channelSpan*surface), 0
}
