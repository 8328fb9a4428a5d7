package placement

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// BoardStandoff lifts models off the board surface so that coplanar faces
// do not fuse when the assembly is meshed
const BoardStandoff = 0.05

// ModelTransform returns the world transform of a 3D model owned by the
// footprint. The composition, applied right to left to model points, is
//
//	T(position) * Rside * T(offset) * Rz(-oz) * Ry(-oy) * Rx(-ox) * S(scale)
//
// The offset is converted to millimeters with its Y negated and lifted by
// standoff; on the top side it is also raised by the board thickness. Rside
// is Rz(rot) * Rx(pi) on the bottom side and Rz(-rot) on the top side.
func (p Placement) ModelTransform(m pcb.Model, thickness, standoff float64) sdf.M44 {
	off := m.OffsetMM()
	offset := v3.Vec{X: off.X, Y: -off.Y, Z: off.Z + standoff}

	var side sdf.M44
	if p.Bottom() {
		side = sdf.RotateZ(p.Rotation).Mul(sdf.RotateX(math.Pi))
	} else {
		offset.Z += thickness
		side = sdf.RotateZ(-p.Rotation)
	}

	orient := sdf.RotateZ(-m.Rotation.Z).
		Mul(sdf.RotateY(-m.Rotation.Y)).
		Mul(sdf.RotateX(-m.Rotation.X))

	xform := sdf.Translate3d(v3.Vec{X: p.Position.X, Y: -p.Position.Y, Z: 0}).
		Mul(side).
		Mul(sdf.Translate3d(offset)).
		Mul(orient)

	if s := m.Scale; !s.IsZero() && (s.X != 1 || s.Y != 1 || s.Z != 1) {
		xform = xform.Mul(sdf.Scale3d(v3.Vec{X: s.X, Y: s.Y, Z: s.Z}))
	}

	return xform
}

// Frame is a transform decomposed into an origin and unit axes, the form
// exchange formats use for placements
type Frame struct {
	Origin v3.Vec
	XAxis  v3.Vec
	YAxis  v3.Vec
	ZAxis  v3.Vec
}

// FrameOf decomposes a rigid transform
func FrameOf(m sdf.M44) Frame {
	origin := m.MulPosition(v3.Vec{})
	axis := func(v v3.Vec) v3.Vec {
		return m.MulPosition(v).Sub(origin).Normalize()
	}
	return Frame{
		Origin: origin,
		XAxis:  axis(v3.Vec{X: 1}),
		YAxis:  axis(v3.Vec{Y: 1}),
		ZAxis:  axis(v3.Vec{Z: 1}),
	}
}
