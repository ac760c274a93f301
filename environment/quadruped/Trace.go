package quadruped

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

const (
	traceW float64 = 600
	traceH float64 = 600

	// traceMargin keeps the extremes of the walked path away from the
	// image border
	traceMargin float64 = 40
)

var legShades = []color.Color{
	color.RGBA{R: 230, G: 57, B: 70, A: 255},
	color.RGBA{R: 69, G: 123, B: 157, A: 255},
	color.RGBA{R: 42, G: 157, B: 143, A: 255},
	color.RGBA{R: 233, G: 196, B: 106, A: 255},
}

// traceFeet appends the current world xy position of every foot to the
// per-leg traces
func (q *Quadruped) traceFeet() {
	feet := q.rob.FootPositions()
	for i, foot := range feet {
		if i >= len(q.footPath) {
			break
		}
		q.footPath[i] = append(q.footPath[i], []float64{foot[0], foot[1]})
	}
}

// FootPath returns the per-leg foot traces collected since the last
// Reset. Traces are only collected when the environment was
// constructed with foot-path drawing enabled.
func (q *Quadruped) FootPath() [][][]float64 {
	return q.footPath
}

// SaveFootPath renders the collected foot traces as a top-down plot
// and writes it to a PNG file at path
func (q *Quadruped) SaveFootPath(path string) error {
	var points int
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, trace := range q.footPath {
		for _, p := range trace {
			points++
			minX = math.Min(minX, p[0])
			maxX = math.Max(maxX, p[0])
			minY = math.Min(minY, p[1])
			maxY = math.Max(maxY, p[1])
		}
	}
	if points == 0 {
		return fmt.Errorf("saveFootPath: no foot positions traced")
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1.0
	}
	if spanY == 0 {
		spanY = 1.0
	}
	scale := math.Min((traceW-2*traceMargin)/spanX,
		(traceH-2*traceMargin)/spanY)

	toPixel := func(p []float64) (float64, float64) {
		px := traceMargin + (p[0]-minX)*scale
		py := traceH - traceMargin - (p[1]-minY)*scale
		return px, py
	}

	dc := gg.NewContext(int(traceW), int(traceH))
	dc.SetColor(color.RGBA{R: 30, G: 30, B: 30, A: 255})
	dc.Clear()
	dc.SetLineWidth(2.0)

	for leg, trace := range q.footPath {
		if len(trace) < 2 {
			continue
		}
		dc.ClearPath()
		x, y := toPixel(trace[0])
		dc.MoveTo(x, y)
		for _, p := range trace[1:] {
			x, y = toPixel(p)
			dc.LineTo(x, y)
		}
		dc.SetColor(legShades[leg%len(legShades)])
		dc.Stroke()
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("saveFootPath: %v", err)
	}
	return nil
}
