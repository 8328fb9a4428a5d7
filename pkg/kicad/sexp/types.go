// Package sexp provides the shared geometry types and S-expression navigation
// helpers used when reading KiCad board files.
package sexp

import "math"

// Unit conversion constants
const (
	InchToMM = 25.4 // 3D model offsets given with (at (xyz ...)) are in inches
)

// Position represents a 2D coordinate in millimeters.
// Board files use a Y-down frame; conversion to the Y-up world frame
// happens in the placement package.
type Position struct {
	X float64
	Y float64
}

// Add returns p + o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Distance2 returns the squared distance between two points
func (p Position) Distance2(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Distance returns the distance between two points
func (p Position) Distance(o Position) float64 {
	return math.Sqrt(p.Distance2(o))
}

// Angle represents rotation in radians
type Angle float64

// Degrees returns the angle in degrees
func (a Angle) Degrees() float64 {
	return float64(a) * 180.0 / math.Pi
}

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Triplet is a 3D value: a model offset, a rotation (radians) or a scale
type Triplet struct {
	X, Y, Z float64
}

// IsZero reports whether all components are zero
func (t Triplet) IsZero() bool {
	return t.X == 0 && t.Y == 0 && t.Z == 0
}

// Size represents dimensions
type Size struct {
	Width  float64 // Width in mm
	Height float64 // Height in mm
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position // Minimum corner
	Max Position // Maximum corner
}

// Intersects checks if two bounding boxes intersect
func (bb BoundingBox) Intersects(other BoundingBox) bool {
	return bb.Min.X <= other.Max.X && bb.Max.X >= other.Min.X &&
		bb.Min.Y <= other.Max.Y && bb.Max.Y >= other.Min.Y
}

// Contains checks if a position is within the bounding box
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	if pos.X < bb.Min.X {
		bb.Min.X = pos.X
	}
	if pos.Y < bb.Min.Y {
		bb.Min.Y = pos.Y
	}
	if pos.X > bb.Max.X {
		bb.Max.X = pos.X
	}
	if pos.Y > bb.Max.Y {
		bb.Max.Y = pos.Y
	}
}

// ExpandBox expands to include another bounding box
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box
func (bb BoundingBox) Center() Position {
	return Position{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}
