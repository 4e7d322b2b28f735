// Package export serializes detached simulation snapshots: a PNG image of
// the current particle state and a CSV log of the readout history.
package export

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	flow "github.com/push04/FlowForge/flow-engine"
)

var background = color.RGBA{R: 10, G: 14, B: 24, A: 255}

// WritePNG renders the snapshot's particles onto a dark canvas matching the
// simulation domain and encodes it as PNG.
func WritePNG(w io.Writer, snap flow.Snapshot) error {
	width := int(snap.Width)
	height := int(snap.Height)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("snapshot domain %dx%d is not drawable", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, background)
		}
	}
	peak := snap.Params.FlowSpeed * 1.6
	if peak <= 0 {
		peak = 1
	}
	for i := range snap.Particles {
		p := &snap.Particles[i]
		x, y := int(p.X), int(p.Y)
		if x < 0 || x >= width || y < 0 || y >= height {
			continue
		}
		img.SetRGBA(x, y, speedColor(p.Speed()/peak))
	}
	return png.Encode(w, img)
}

// speedColor shades slow particles blue and fast ones white-hot.
func speedColor(t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: uint8(60 + 195*t),
		G: uint8(120 + 135*t),
		B: 255,
		A: 255,
	}
}

// WriteCSV dumps the snapshot's readout history, one row per sample.
func WriteCSV(w io.Writer, snap flow.Snapshot) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "mode", "flowSpeed", "viscosity", "density", "diameter",
		"reynolds", "avgVelocity", "dynamicPressure",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range snap.History {
		row := []string{
			s.Taken.Format("2006-01-02T15:04:05.000Z07:00"),
			s.Params.Mode.String(),
			fmt.Sprintf("%g", s.Params.FlowSpeed),
			fmt.Sprintf("%g", s.Params.Viscosity),
			fmt.Sprintf("%g", s.Params.Density),
			fmt.Sprintf("%g", s.Params.Diameter),
			fmt.Sprintf("%d", s.Readouts.Reynolds),
			fmt.Sprintf("%g", s.Readouts.AvgVelocity),
			fmt.Sprintf("%g", s.Readouts.DynamicPressure),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
