package pcb

import (
	"fmt"
	"math"
)

// Curve is one outline primitive: a Line, an Arc or a Circle.
// Variants are values; reversing or mapping a curve returns a new value.
type Curve interface {
	Kind() CurveKind
	OnLayer() Layer

	// StartPoint and EndPoint are the free ends used for stitching.
	// A Circle reports its rim point for both.
	StartPoint() Position
	EndPoint() Position

	// Reversed returns the same geometry traversed in the other direction
	Reversed() Curve

	// Mapped applies fn to every defining point. mirrored must be true when
	// fn flips orientation so that arc sweeps keep their meaning.
	Mapped(fn func(Position) Position, mirrored bool) Curve

	// Bounds returns the exact axis aligned extent
	Bounds() BoundingBox
}

// Line is a straight segment
type Line struct {
	Start Position
	End   Position
	Layer Layer
}

func (l Line) Kind() CurveKind      { return CurveLine }
func (l Line) OnLayer() Layer       { return l.Layer }
func (l Line) StartPoint() Position { return l.Start }
func (l Line) EndPoint() Position   { return l.End }

func (l Line) Reversed() Curve {
	return Line{Start: l.End, End: l.Start, Layer: l.Layer}
}

func (l Line) Mapped(fn func(Position) Position, mirrored bool) Curve {
	return Line{Start: fn(l.Start), End: fn(l.End), Layer: l.Layer}
}

func (l Line) Bounds() BoundingBox {
	bb := NewBoundingBox()
	bb.Expand(l.Start)
	bb.Expand(l.End)
	return bb
}

func (l Line) String() string {
	return fmt.Sprintf("line (%.4f, %.4f)-(%.4f, %.4f)", l.Start.X, l.Start.Y, l.End.X, l.End.Y)
}

// Arc is a circular arc. Start is the point where the sweep begins, End is
// derived from Center, Start and Angle (signed, radians).
type Arc struct {
	Center Position
	Start  Position
	End    Position
	Radius float64
	Angle  float64
	Layer  Layer
}

// NewArc builds an arc from its center, start point and signed sweep
func NewArc(center, start Position, angle float64, layer Layer) Arc {
	dx := start.X - center.X
	dy := start.Y - center.Y
	r := math.Sqrt(dx*dx + dy*dy)
	a0 := math.Atan2(dy, dx) + angle
	return Arc{
		Center: center,
		Start:  start,
		End:    Position{X: center.X + r*math.Cos(a0), Y: center.Y + r*math.Sin(a0)},
		Radius: r,
		Angle:  angle,
		Layer:  layer,
	}
}

// NewArcThroughPoints builds the arc from start through mid to end
func NewArcThroughPoints(start, mid, end Position, layer Layer) (Arc, error) {
	center, ok := circumcenter(start, mid, end)
	if !ok {
		return Arc{}, fmt.Errorf("arc points are collinear")
	}

	a0 := math.Atan2(start.Y-center.Y, start.X-center.X)
	am := math.Atan2(mid.Y-center.Y, mid.X-center.X)
	a1 := math.Atan2(end.Y-center.Y, end.X-center.X)

	sweep := normalizeTurn(a1 - a0)
	if normalizeTurn(am-a0) > sweep {
		sweep -= 2 * math.Pi
	}

	arc := NewArc(center, start, sweep, layer)
	arc.End = end
	return arc, nil
}

func (a Arc) Kind() CurveKind      { return CurveArc }
func (a Arc) OnLayer() Layer       { return a.Layer }
func (a Arc) StartPoint() Position { return a.Start }
func (a Arc) EndPoint() Position   { return a.End }

func (a Arc) Reversed() Curve {
	r := a
	r.Start, r.End = a.End, a.Start
	r.Angle = -a.Angle
	return r
}

func (a Arc) Mapped(fn func(Position) Position, mirrored bool) Curve {
	m := a
	m.Center = fn(a.Center)
	m.Start = fn(a.Start)
	m.End = fn(a.End)
	if mirrored {
		m.Angle = -a.Angle
	}
	return m
}

// StartAngle returns the polar angle of Start around Center
func (a Arc) StartAngle() float64 {
	return math.Atan2(a.Start.Y-a.Center.Y, a.Start.X-a.Center.X)
}

// PointAt returns the point at fraction t (0..1) of the sweep
func (a Arc) PointAt(t float64) Position {
	switch {
	case t <= 0:
		return a.Start
	case t >= 1:
		return a.End
	}
	ang := a.StartAngle() + t*a.Angle
	return Position{
		X: a.Center.X + a.Radius*math.Cos(ang),
		Y: a.Center.Y + a.Radius*math.Sin(ang),
	}
}

func (a Arc) Bounds() BoundingBox {
	bb := NewBoundingBox()
	bb.Expand(a.Start)
	bb.Expand(a.End)

	// add every axis extreme crossed by the sweep
	a0 := a.StartAngle()
	lo, hi := a0, a0+a.Angle
	if hi < lo {
		lo, hi = hi, lo
	}
	for k := math.Ceil(lo / (math.Pi / 2)); k*(math.Pi/2) <= hi; k++ {
		ang := k * (math.Pi / 2)
		bb.Expand(Position{
			X: a.Center.X + a.Radius*math.Cos(ang),
			Y: a.Center.Y + a.Radius*math.Sin(ang),
		})
	}
	return bb
}

func (a Arc) String() string {
	return fmt.Sprintf("arc c(%.4f, %.4f) s(%.4f, %.4f) e(%.4f, %.4f) %.2fdeg",
		a.Center.X, a.Center.Y, a.Start.X, a.Start.Y, a.End.X, a.End.Y, a.Angle*180/math.Pi)
}

// Circle is a full circle
type Circle struct {
	Center Position
	Rim    Position
	Radius float64
	Layer  Layer
}

// NewCircle builds a circle from its center and a point on the rim
func NewCircle(center, rim Position, layer Layer) Circle {
	return Circle{Center: center, Rim: rim, Radius: center.Distance(rim), Layer: layer}
}

func (c Circle) Kind() CurveKind      { return CurveCircle }
func (c Circle) OnLayer() Layer       { return c.Layer }
func (c Circle) StartPoint() Position { return c.Rim }
func (c Circle) EndPoint() Position   { return c.Rim }

// Reversed returns the circle unchanged
func (c Circle) Reversed() Curve { return c }

func (c Circle) Mapped(fn func(Position) Position, mirrored bool) Curve {
	m := c
	m.Center = fn(c.Center)
	m.Rim = fn(c.Rim)
	return m
}

func (c Circle) Bounds() BoundingBox {
	return BoundingBox{
		Min: Position{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		Max: Position{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius},
	}
}

func (c Circle) String() string {
	return fmt.Sprintf("circle c(%.4f, %.4f) r %.4f", c.Center.X, c.Center.Y, c.Radius)
}

// circumcenter returns the center of the circle through three points
func circumcenter(a, b, c Position) (Position, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return Position{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return Position{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// normalizeTurn maps an angle into [0, 2pi)
func normalizeTurn(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
