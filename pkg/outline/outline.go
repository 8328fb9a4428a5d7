// Package outline stitches an unordered bag of edge curves into closed
// loops and classifies them as the board boundary or cutouts.
package outline

import (
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// MinDistance2 is the squared distance below which two endpoints coincide (mm^2)
const MinDistance2 = 1e-4

// Coincident reports whether two points are the same within MinDistance2
func Coincident(a, b pcb.Position) bool {
	return a.Distance2(b) < MinDistance2
}

// Outline is a chain of curves being built into a closed loop.
// The zero value is an empty outline.
type Outline struct {
	curves []pcb.Curve
	closed bool
	tol2   float64
}

// New returns an empty outline with the given squared coincidence tolerance.
// A non-positive tolerance selects MinDistance2.
func New(tol2 float64) *Outline {
	return &Outline{tol2: tol2}
}

func (o *Outline) near(a, b pcb.Position) bool {
	tol := o.tol2
	if tol <= 0 {
		tol = MinDistance2
	}
	return a.Distance2(b) < tol
}

// TryAttach adds c to either free end of the outline, reversing it when
// needed. It returns false and leaves the outline unchanged when c does not
// touch a free end, when the outline is closed, or when c is a circle and
// the outline is not empty.
func (o *Outline) TryAttach(c pcb.Curve) bool {
	if o.closed {
		return false
	}

	if len(o.curves) == 0 {
		o.curves = append(o.curves, c)
		o.closed = c.Kind() == pcb.CurveCircle
		return true
	}

	if c.Kind() == pcb.CurveCircle {
		return false
	}

	front := o.curves[0].StartPoint()
	back := o.curves[len(o.curves)-1].EndPoint()

	switch {
	case o.near(c.EndPoint(), front):
		o.curves = append([]pcb.Curve{c}, o.curves...)
	case o.near(c.StartPoint(), front):
		o.curves = append([]pcb.Curve{c.Reversed()}, o.curves...)
	case o.near(c.StartPoint(), back):
		o.curves = append(o.curves, c)
	case o.near(c.EndPoint(), back):
		o.curves = append(o.curves, c.Reversed())
	default:
		return false
	}

	o.closed = o.near(o.curves[0].StartPoint(), o.curves[len(o.curves)-1].EndPoint())
	return true
}

// IsClosed reports whether the outline forms a closed loop
func (o *Outline) IsClosed() bool {
	return o.closed
}

// Len returns the number of curves in the outline
func (o *Outline) Len() int {
	return len(o.curves)
}

// Curves returns a copy of the curves in traversal order
func (o *Outline) Curves() []pcb.Curve {
	out := make([]pcb.Curve, len(o.curves))
	copy(out, o.curves)
	return out
}

// Clear empties the outline for reuse
func (o *Outline) Clear() {
	o.curves = o.curves[:0]
	o.closed = false
}
