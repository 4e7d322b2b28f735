package flow

import "math"

const (
	minDiameter  = 0.001 // m, guards the Reynolds denominator
	minViscosity = 1e-6  // Pa·s
)

// Readouts are the derived quantities shown next to the visualization.
// They are recomputed from the scalar parameters, never from particle
// statistics.
type Readouts struct {
	Reynolds        int     `json:"reynolds"`
	AvgVelocity     float64 `json:"avgVelocity"`     // m/s
	DynamicPressure float64 `json:"dynamicPressure"` // kPa
}

// ComputeReadouts derives the display quantities from a parameter snapshot.
// The viscosity and diameter denominators are clamped so UI-adjustable
// near-zero values can never blow up the Reynolds number.
func ComputeReadouts(p Params) Readouts {
	var re float64
	if p.ReynoldsOverride > 0 {
		re = p.ReynoldsOverride
	} else {
		d := math.Max(p.Diameter, minDiameter)
		mu := math.Max(p.Viscosity, minViscosity)
		re = p.Density * p.FlowSpeed * d / mu
	}
	if re < 1 || math.IsNaN(re) {
		re = 1
	}
	return Readouts{
		Reynolds:        int(re),
		AvgVelocity:     round(p.FlowSpeed, 2),
		DynamicPressure: round(0.5*p.Density*p.FlowSpeed*p.FlowSpeed/1000, 3),
	}
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
