package flow

import (
	"math"
	"math/rand"
	"testing"
)

func testParams(m Mode) Params {
	return Params{
		Mode:          m,
		FlowSpeed:     1.0,
		Viscosity:     0.001,
		Density:       998,
		Diameter:      0.2,
		ParticleCount: 100,
	}
}

func TestUniformField(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeUniform)
	p.FlowSpeed = 2.5
	vx, vy := f.Evaluate(123, 456, DefaultWidth, DefaultHeight, p)
	if vx != 2.5 || vy != 0 {
		t.Errorf("uniform flow: got (%g, %g), want (2.5, 0)", vx, vy)
	}
}

func TestCylinderSolidBody(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeCylinder)
	r := CylinderRadius(p.Diameter)
	cx, cy := DefaultWidth/2, DefaultHeight/2

	for angle := 0.0; angle < 2*math.Pi; angle += 0.1 {
		for frac := 0.0; frac < 0.98; frac += 0.1 {
			x := cx + math.Cos(angle)*r*frac
			y := cy + math.Sin(angle)*r*frac
			vx, vy := f.Evaluate(x, y, DefaultWidth, DefaultHeight, p)
			if vx != 0 || vy != 0 {
				t.Fatalf("inside cylinder at (%g, %g): got (%g, %g), want exactly zero", x, y, vx, vy)
			}
		}
	}
}

func TestCylinderFarField(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeCylinder)
	// Far upstream the dipole has decayed and the flow is uniform again.
	vx, vy := f.Evaluate(10, DefaultHeight/2+3, DefaultWidth, DefaultHeight, p)
	if math.Abs(vx-p.FlowSpeed) > 0.05 || math.Abs(vy) > 0.05 {
		t.Errorf("far field: got (%g, %g), want ≈ (%g, 0)", vx, vy, p.FlowSpeed)
	}
}

func TestCylinderWakeBounded(t *testing.T) {
	f := NewField(rand.NewSource(42))
	p := testParams(ModeCylinder)
	r := CylinderRadius(p.Diameter)
	for i := 0; i < 500; i++ {
		x := DefaultWidth/2 + r + float64(i%200)
		y := DefaultHeight/2 + float64(i%40) - 20
		vx, vy := f.Evaluate(x, y, DefaultWidth, DefaultHeight, p)
		if math.IsNaN(vx) || math.IsNaN(vy) {
			t.Fatalf("wake produced NaN at (%g, %g)", x, y)
		}
		if math.Abs(vx) > 3*p.FlowSpeed || math.Abs(vy) > 3*p.FlowSpeed {
			t.Fatalf("wake perturbation out of bounds at (%g, %g): (%g, %g)", x, y, vx, vy)
		}
	}
}

func TestCylinderDeterministicWithoutSource(t *testing.T) {
	f := NewField(nil)
	p := testParams(ModeCylinder)
	x := DefaultWidth/2 + CylinderRadius(p.Diameter) + 10
	y := DefaultHeight/2 + 5.0
	vx1, vy1 := f.Evaluate(x, y, DefaultWidth, DefaultHeight, p)
	vx2, vy2 := f.Evaluate(x, y, DefaultWidth, DefaultHeight, p)
	if vx1 != vx2 || vy1 != vy2 {
		t.Errorf("nil-source field not deterministic: (%g, %g) vs (%g, %g)", vx1, vy1, vx2, vy2)
	}
}

func TestPipeProfileAnchors(t *testing.T) {
	f := NewField(rand.NewSource(1))
	for _, speed := range []float64{0.1, 0.8, 3.0} {
		p := testParams(ModePipeProfile)
		p.FlowSpeed = speed

		vx, vy := f.Evaluate(100, 280, DefaultWidth, 560, p)
		if math.Abs(vx-1.2*speed) > 1e-9 || vy != 0 {
			t.Errorf("centerline at V=%g: got (%g, %g), want (%g, 0)", speed, vx, vy, 1.2*speed)
		}

		vx, _ = f.Evaluate(100, 0, DefaultWidth, 560, p)
		if vx < 0.02 {
			t.Errorf("wall at V=%g: got %g, want the 0.02 floor", speed, vx)
		}
	}
}

func TestVenturiAnchors(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeVenturi)

	if hw := ThroatHalfWidth(p.Diameter); math.Abs(hw-24) > 1e-9 {
		t.Fatalf("throat half-width for D=0.2: got %g, want 24", hw)
	}

	cx, cy := DefaultWidth/2, DefaultHeight/2
	vx, vy := f.Evaluate(cx, cy, DefaultWidth, DefaultHeight, p)
	if math.Abs(vx-1.6*p.FlowSpeed) > 1e-9 || vy != 0 {
		t.Errorf("throat center: got (%g, %g), want (%g, 0)", vx, vy, 1.6*p.FlowSpeed)
	}

	vx, _ = f.Evaluate(cx+400, cy, DefaultWidth, DefaultHeight, p)
	if math.Abs(vx-p.FlowSpeed) > 1e-3 {
		t.Errorf("far from throat: got %g, want ≈ %g", vx, p.FlowSpeed)
	}
}

func TestVenturiConvergesTowardCenterline(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeVenturi)
	cx, cy := DefaultWidth/2, DefaultHeight/2

	_, above := f.Evaluate(cx, cy-80, DefaultWidth, DefaultHeight, p)
	_, below := f.Evaluate(cx, cy+80, DefaultWidth, DefaultHeight, p)
	if above <= 0 {
		t.Errorf("above centerline should be pushed down, got vy=%g", above)
	}
	if below >= 0 {
		t.Errorf("below centerline should be pushed up, got vy=%g", below)
	}
}

func TestOpenChannelGradient(t *testing.T) {
	f := NewField(rand.NewSource(1))
	p := testParams(ModeOpenChannel)

	surface, _ := f.Evaluate(100, 0, DefaultWidth, DefaultHeight, p)
	mid, _ := f.Evaluate(100, DefaultHeight/2, DefaultWidth, DefaultHeight, p)
	bed, _ := f.Evaluate(100, DefaultHeight, DefaultWidth, DefaultHeight, p)
	if !(surface > mid && mid > bed) {
		t.Errorf("velocity should increase toward the surface: surface=%g mid=%g bed=%g", surface, mid, bed)
	}
	if bed <= 0 {
		t.Errorf("bed velocity should stay positive, got %g", bed)
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeUniform, ModeVenturi, ModeCylinder, ModePipeProfile, ModeOpenChannel} {
		parsed, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", m.String(), err)
		}
		if parsed != m {
			t.Errorf("ParseMode(%q) = %v, want %v", m.String(), parsed, m)
		}
	}
	if _, err := ParseMode("plasma"); err == nil {
		t.Error("ParseMode should reject unknown modes")
	}
}
