// Package kernel defines the solid modelling services used to turn a
// stitched board outline into geometry: planar faces, extrusions, drill
// tools, boolean subtraction, and placement of external component models.
// Implementations live in sub-packages.
package kernel

import (
	"errors"

	"github.com/deadsy/sdfx/sdf"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

var (
	// ErrKernel is wrapped by face or solid construction failures
	ErrKernel = errors.New("kernel error")
	// ErrUnsupportedFormat is returned by LoadModel for unknown model files
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Face is an opaque handle to a planar region in the XY plane.
type Face interface {
	// Area returns the enclosed area in mm^2.
	Area() float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// MakeClosedWireFace builds a planar face from a closed loop of curves
	MakeClosedWireFace(loop []pcb.Curve) (Face, error)
	// Extrude sweeps a face from z=0 to z=height
	Extrude(face Face, height float64) (Solid, error)

	// Cylinder is centered on the origin with its axis along Z
	Cylinder(radius, height float64) (Solid, error)
	// Slot is a stadium of overall length along X and width along Y, centered on the origin
	Slot(length, width, height float64) (Solid, error)

	Translate(s Solid, x, y, z float64) Solid
	RotateZ(s Solid, angle float64) Solid // radians

	// Subtract removes the union of tools from s
	Subtract(s Solid, tools []Solid) (Solid, error)

	// LoadModel reads a component model, sniffing its format
	LoadModel(path string) (*Model, error)
	// PlaceComponent instances a loaded model under a reference designator
	PlaceComponent(model *Model, refdes string, transform sdf.M44) (*Component, error)

	// ToMesh tessellates a solid
	ToMesh(s Solid) (*Mesh, error)
}
