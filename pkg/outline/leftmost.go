package outline

import (
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// LeftmostX returns the smallest X coordinate reached by a curve
func LeftmostX(c pcb.Curve) float64 {
	switch v := c.(type) {
	case pcb.Line:
		return math.Min(v.Start.X, v.End.X)
	case pcb.Circle:
		return v.Center.X - v.Radius
	case pcb.Arc:
		return arcLeftmostX(v)
	}
	return math.Min(c.StartPoint().X, c.EndPoint().X)
}

// quadrant numbers the four quadrants around an arc center 1..4,
// counter-clockwise from +X. Boundary points belong to the quadrant
// that starts at them.
func quadrant(dx, dy float64) int {
	switch {
	case dx > 0 && dy >= 0:
		return 1
	case dx <= 0 && dy > 0:
		return 2
	case dx < 0 && dy <= 0:
		return 3
	default:
		return 4
	}
}

// arcLeftmostX walks the quadrants swept by the arc. The leftmost point of
// the circle (angle pi) lies on the boundary from quadrant 2 to quadrant 3;
// when the sweep crosses it the answer is cx - r, otherwise it is an endpoint.
func arcLeftmostX(a pcb.Arc) float64 {
	endpoints := math.Min(a.Start.X, a.End.X)

	sweep := math.Abs(a.Angle)
	if sweep >= 2*math.Pi {
		return a.Center.X - a.Radius
	}
	if sweep < 1e-9 || a.Radius <= 0 {
		return endpoints
	}

	// walk counter-clockwise from start to end
	start, end := a.Start, a.End
	if a.Angle < 0 {
		start, end = end, start
	}

	q0 := quadrant(start.X-a.Center.X, start.Y-a.Center.Y)
	q1 := quadrant(end.X-a.Center.X, end.Y-a.Center.Y)

	steps := (q1 - q0 + 4) % 4
	if steps == 0 && sweep > math.Pi {
		// same quadrant but the long way round
		steps = 4
	}

	q := q0
	for i := 0; i < steps; i++ {
		if q == 2 {
			return a.Center.X - a.Radius
		}
		q = q%4 + 1
	}
	return endpoints
}

// leftmostIndex returns the index of the curve with the smallest LeftmostX.
// Ties keep the earliest curve.
func leftmostIndex(curves []pcb.Curve) int {
	best := -1
	bestX := math.Inf(1)
	for i, c := range curves {
		if x := LeftmostX(c); x < bestX {
			best, bestX = i, x
		}
	}
	if best < 0 && len(curves) > 0 {
		best = 0
	}
	return best
}
