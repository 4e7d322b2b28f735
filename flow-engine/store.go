package flow

import "math/rand"

const (
	spawnDepth  = 24.0  // how far off the inflow edge fresh particles appear
	jitterBase  = 0.7   // horizontal spawn velocity = flowSpeed·(0.7…1.3)
	jitterSpan  = 0.6
	spawnDriftY = 0.025 // nominal vertical spawn velocity, ± either way
)

// Store owns the particle population of one simulation. It keeps the
// population at the last configured target size; the integrator mutates
// particles in place and recycles through the store.
type Store struct {
	particles []Particle
	nextID    uint64
	rng       *rand.Rand
	w, h      float64
}

// NewStore builds an empty store over a w×h pixel domain. The random source
// drives spawn placement and jitter; a nil source falls back to a fixed seed.
func NewStore(w, h float64, src rand.Source) *Store {
	if src == nil {
		src = rand.NewSource(1)
	}
	return &Store{
		rng: rand.New(src),
		w:   w,
		h:   h,
	}
}

// Len is the current population size.
func (s *Store) Len() int {
	return len(s.particles)
}

// Particles exposes the population for one frame's read-only pass.
func (s *Store) Particles() []Particle {
	return s.particles
}

// Domain reports the pixel-space extent the store spawns into.
func (s *Store) Domain() (w, h float64) {
	return s.w, s.h
}

// Reset discards all particle state and respawns to the target population.
func (s *Store) Reset(target int, p Params) {
	if target < 0 {
		target = 0
	}
	s.particles = s.particles[:0]
	for i := 0; i < target; i++ {
		s.particles = append(s.particles, s.spawn(p))
	}
}

// Resize grows or shrinks toward a new target population, preserving
// existing particles when shrinking.
func (s *Store) Resize(target int, p Params) {
	if target < 0 {
		target = 0
	}
	if target < len(s.particles) {
		s.particles = s.particles[:target]
		return
	}
	for len(s.particles) < target {
		s.particles = append(s.particles, s.spawn(p))
	}
}

// Recycle replaces the particle at index i with a freshly spawned one.
func (s *Store) Recycle(i int, p Params) {
	s.particles[i] = s.spawn(p)
}

// spawn places a new particle just off the inflow edge at a random height.
// The velocity jitter keeps particles from marching in visible rows.
func (s *Store) spawn(p Params) Particle {
	s.nextID++
	return Particle{
		ID: s.nextID,
		X:  -s.rng.Float64() * spawnDepth,
		Y:  s.rng.Float64() * s.h,
		VX: p.FlowSpeed * (jitterBase + s.rng.Float64()*jitterSpan),
		VY: (s.rng.Float64() - 0.5) * 2 * spawnDriftY,
	}
}
