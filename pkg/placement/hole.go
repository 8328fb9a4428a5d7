package placement

import (
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// Hole is a drilled pad hole in the world plane
type Hole struct {
	Center pcb.Position
	Size   pcb.Size // Width runs along Angle
	Slot   bool
	Angle  float64 // World plane rotation of the slot axis, radians
	Plated bool
	Ref    string // Owning footprint and pad, for diagnostics
}

// Diameter returns the hole diameter (slot width for slots)
func (h Hole) Diameter() float64 {
	return math.Min(h.Size.Width, h.Size.Height)
}

// Hole places the drill of a through-hole pad
func (p Placement) Hole(pad pcb.Pad) Hole {
	center := pad.Position
	if off := pad.Drill.Offset; off != (pcb.Position{}) {
		// the offset turns with the pad; KiCad angles are counter-clockwise on screen
		rot := float64(pad.Rotation)
		cos := math.Cos(rot)
		sin := math.Sin(rot)
		center.X += off.X*cos + off.Y*sin
		center.Y += -off.X*sin + off.Y*cos
	}

	size := pad.Drill.Size
	if size.Height == 0 {
		size.Height = size.Width
	}

	h := Hole{
		Center: p.Apply(center),
		Size:   size,
		Slot:   pad.Drill.IsSlot(),
		Plated: pad.Plated,
	}
	if h.Slot {
		h.Angle = p.DrillRotation(float64(pad.Rotation))
	}
	return h
}
