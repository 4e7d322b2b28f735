package flow

import (
	"math/rand"
	"testing"
)

func TestResetIdempotence(t *testing.T) {
	s := NewStore(DefaultWidth, DefaultHeight, rand.NewSource(7))
	p := testParams(ModeUniform)

	s.Reset(100, p)
	first := make([]Particle, 100)
	copy(first, s.Particles())

	s.Reset(100, p)
	if s.Len() != 100 {
		t.Fatalf("population after second reset: got %d, want 100", s.Len())
	}

	same := 0
	for i, pt := range s.Particles() {
		if pt.X == first[i].X && pt.Y == first[i].Y {
			same++
		}
	}
	if same == 100 {
		t.Error("reset should redraw particle positions, not reproduce them")
	}
}

func TestResizePreservesAndGrows(t *testing.T) {
	s := NewStore(DefaultWidth, DefaultHeight, rand.NewSource(7))
	p := testParams(ModeUniform)
	s.Reset(50, p)

	kept := make([]Particle, 30)
	copy(kept, s.Particles()[:30])

	s.Resize(30, p)
	if s.Len() != 30 {
		t.Fatalf("shrink: got %d, want 30", s.Len())
	}
	for i, pt := range s.Particles() {
		if pt.ID != kept[i].ID {
			t.Fatalf("shrink should preserve surviving particles, particle %d changed", i)
		}
	}

	s.Resize(80, p)
	if s.Len() != 80 {
		t.Fatalf("grow: got %d, want 80", s.Len())
	}
}

func TestResizeBelowZero(t *testing.T) {
	s := NewStore(DefaultWidth, DefaultHeight, rand.NewSource(7))
	p := testParams(ModeUniform)
	s.Reset(50, p)
	s.Resize(-5, p)
	if s.Len() != 0 {
		t.Errorf("negative target: got %d particles, want 0", s.Len())
	}
}

func TestSpawnPlacementAndJitter(t *testing.T) {
	s := NewStore(DefaultWidth, DefaultHeight, rand.NewSource(7))
	p := testParams(ModeUniform)
	p.FlowSpeed = 2.0
	s.Reset(1000, p)

	for i, pt := range s.Particles() {
		if pt.X > 0 || pt.X < -spawnDepth {
			t.Fatalf("particle %d spawned at x=%g, want within [%g, 0]", i, pt.X, -spawnDepth)
		}
		if pt.Y < 0 || pt.Y > DefaultHeight {
			t.Fatalf("particle %d spawned at y=%g, outside the domain", i, pt.Y)
		}
		if pt.VX < 0.7*p.FlowSpeed || pt.VX > 1.3*p.FlowSpeed {
			t.Fatalf("particle %d spawn vx=%g, want flowSpeed·(0.7…1.3)", i, pt.VX)
		}
		if pt.VY < -spawnDriftY || pt.VY > spawnDriftY {
			t.Fatalf("particle %d spawn vy=%g, want within ±%g", i, pt.VY, spawnDriftY)
		}
		if pt.Age != 0 {
			t.Fatalf("particle %d spawned with age %g", i, pt.Age)
		}
	}
}

func TestSpawnIDsAdvance(t *testing.T) {
	s := NewStore(DefaultWidth, DefaultHeight, rand.NewSource(7))
	p := testParams(ModeUniform)
	s.Reset(10, p)

	var maxID uint64
	for _, pt := range s.Particles() {
		if pt.ID <= maxID {
			t.Fatalf("IDs must increase monotonically, saw %d after %d", pt.ID, maxID)
		}
		maxID = pt.ID
	}

	s.Recycle(3, p)
	if got := s.Particles()[3].ID; got <= maxID {
		t.Errorf("recycled particle kept a retired ID: got %d, want > %d", got, maxID)
	}
}
