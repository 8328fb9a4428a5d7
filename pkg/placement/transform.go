// Package placement maps footprint-local geometry into the world frame.
//
// Board files use a Y-down plane; the world frame is Y-up with Z pointing
// away from the top copper. 2D geometry (edge curves, pads) is placed with
// plain trigonometry; 3D models get a full homogeneous transform.
package placement

import (
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// Placement is the board position, rotation and side of one footprint.
// The zero value places top-level board geometry.
type Placement struct {
	Position pcb.Position // Board frame, Y down
	Rotation float64      // Radians
	Side     pcb.Layer
}

// ForModule returns the placement of a module
func ForModule(m *pcb.Module) Placement {
	return Placement{
		Position: m.Position,
		Rotation: float64(m.Rotation),
		Side:     m.Side,
	}
}

// Bottom reports whether the footprint is mirrored through the board
func (p Placement) Bottom() bool {
	return p.Side == pcb.LayerBottom
}

// planeRotation is the rotation applied in the world plane; the bottom side
// is seen through the board so the sense is reversed
func (p Placement) planeRotation() float64 {
	if p.Bottom() {
		return -p.Rotation
	}
	return p.Rotation
}

// Apply maps a footprint-local point to the world plane
func (p Placement) Apply(local pcb.Position) pcb.Position {
	x, y := local.X, -local.Y

	if rot := p.planeRotation(); rot != 0 {
		cos := math.Cos(rot)
		sin := math.Sin(rot)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return pcb.Position{X: p.Position.X + x, Y: y - p.Position.Y}
}

// ApplyInverse maps a world plane point back to footprint-local coordinates
func (p Placement) ApplyInverse(world pcb.Position) pcb.Position {
	x := world.X - p.Position.X
	y := world.Y + p.Position.Y

	if rot := -p.planeRotation(); rot != 0 {
		cos := math.Cos(rot)
		sin := math.Sin(rot)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return pcb.Position{X: x, Y: -y}
}

// Curve places an edge curve. The Y inversion is a reflection, so arc
// sweeps change sign.
func (p Placement) Curve(c pcb.Curve) pcb.Curve {
	return c.Mapped(p.Apply, true)
}

// Curves places every curve of a slice
func (p Placement) Curves(curves []pcb.Curve) []pcb.Curve {
	out := make([]pcb.Curve, 0, len(curves))
	for _, c := range curves {
		out = append(out, p.Curve(c))
	}
	return out
}

// DrillRotation composes a pad's own rotation with the footprint rotation.
// The result is a world plane angle; round holes ignore it.
func (p Placement) DrillRotation(padRotation float64) float64 {
	rot := padRotation + p.Rotation
	if p.Bottom() {
		return -rot
	}
	return rot
}
