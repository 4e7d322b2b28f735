package flow

import "math"

const (
	// MaxAge is the particle lifetime ceiling in simulated seconds.
	MaxAge = 18.0

	blendRate     = 0.08 // responsiveness of a particle to the local field
	dampingScale  = 200  // viscosity damping exponent scale
	pixelsPerUnit = 52.0 // converts field velocity (m/s) to pixel advance
	boundsMargin  = 16.0 // recycle once this far past the visible domain
)

// Integrator advances the particle population through the flow field one
// tick at a time. It is a closed numeric loop: inputs are clamped and it
// never fails.
type Integrator struct {
	field *Field
}

// NewIntegrator wraps the given field.
func NewIntegrator(field *Field) *Integrator {
	return &Integrator{field: field}
}

// Step advances every particle by dt seconds and recycles the ones that
// left the domain or aged out, keeping the population size constant.
// A zero or negative dt is a transient clock artifact and skips the tick.
func (it *Integrator) Step(store *Store, p Params, dt float64) {
	if dt <= 0 {
		return
	}
	w, h := store.Domain()
	damping := math.Exp(-dampingScale * p.Viscosity * dt)
	particles := store.Particles()
	for i := range particles {
		pt := &particles[i]
		fx, fy := it.field.Evaluate(pt.X, pt.Y, w, h, p)
		pt.VX = pt.VX*damping + (fx-pt.VX)*blendRate
		pt.VY = pt.VY*damping + (fy-pt.VY)*blendRate
		pt.X += pt.VX * dt * pixelsPerUnit
		pt.Y += pt.VY * dt * pixelsPerUnit
		pt.Age += dt
		if it.expired(pt, w, h) {
			store.Recycle(i, p)
		}
	}
}

// expired reports whether the particle left the domain past the outflow,
// top or bottom margin, or exceeded the lifetime ceiling. The inflow side
// is exempt since fresh particles spawn slightly off-canvas there.
func (it *Integrator) expired(pt *Particle, w, h float64) bool {
	if pt.Age > MaxAge {
		return true
	}
	return pt.X > w+boundsMargin || pt.Y < -boundsMargin || pt.Y > h+boundsMargin
}
