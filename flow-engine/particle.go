package flow

import "math"

// Particle is a visual tracer advected through the flow field. Particles are
// owned by the Store; renderers only borrow them for the duration of one
// frame's draw pass.
type Particle struct {
	ID  uint64  `json:"-"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	VX  float64 `json:"vx"`
	VY  float64 `json:"vy"`
	Age float64 `json:"-"` // simulated seconds since spawn
}

// Speed is the particle's velocity magnitude in m/s.
func (p *Particle) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}
