package outline

import (
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// Polygon facets a closed chain of curves into its vertex ring. Arcs get at
// least one chord and about arcSegments chords per full turn; each curve
// contributes its start point but not its end, which is the next curve's
// start. Consecutive duplicate vertices are removed.
func Polygon(curves []pcb.Curve, arcSegments int) []pcb.Position {
	if arcSegments < 3 {
		arcSegments = 3
	}

	var pts []pcb.Position
	for _, c := range curves {
		switch c := c.(type) {
		case pcb.Arc:
			n := int(math.Ceil(math.Abs(c.Angle) / (2 * math.Pi) * float64(arcSegments)))
			if n < 1 {
				n = 1
			}
			for i := 0; i < n; i++ {
				pts = append(pts, c.PointAt(float64(i)/float64(n)))
			}
		case pcb.Circle:
			for i := 0; i < arcSegments; i++ {
				a := 2 * math.Pi * float64(i) / float64(arcSegments)
				pts = append(pts, pcb.Position{
					X: c.Center.X + c.Radius*math.Cos(a),
					Y: c.Center.Y + c.Radius*math.Sin(a),
				})
			}
		default:
			pts = append(pts, c.StartPoint())
		}
	}

	return dedupe(pts)
}

func dedupe(pts []pcb.Position) []pcb.Position {
	const eps2 = 1e-18
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && p.Distance2(out[len(out)-1]) < eps2 {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].Distance2(out[len(out)-1]) < eps2 {
		out = out[:len(out)-1]
	}
	return out
}

// SignedArea returns the shoelace area of a vertex ring; positive for
// counter-clockwise rings in a Y-up frame
func SignedArea(pts []pcb.Position) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}
