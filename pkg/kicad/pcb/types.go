package pcb

import (
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp"
)

// Shared types (aliases to sexp package)
type Position = sexp.Position
type Angle = sexp.Angle
type PositionAngle = sexp.PositionAngle
type Triplet = sexp.Triplet
type Size = sexp.Size
type BoundingBox = sexp.BoundingBox

// Re-export BoundingBox constructor
var NewBoundingBox = sexp.NewBoundingBox

// Board limits
const (
	// InchToMM converts legacy model offsets
	InchToMM = sexp.InchToMM

	// ThicknessDefault is used when a negative thickness is requested
	ThicknessDefault = 1.6
	// ThicknessMin is the thinnest board that will be extruded
	ThicknessMin = 0.002
)

// Layer identifies the layers that matter for mechanical output.
// A module's side is expressed with LayerTop or LayerBottom.
type Layer int

const (
	LayerNone Layer = iota // any layer we do not model
	LayerTop               // F.Cu
	LayerBottom            // B.Cu
	LayerEdge              // Edge.Cuts
)

func (l Layer) String() string {
	switch l {
	case LayerTop:
		return "F.Cu"
	case LayerBottom:
		return "B.Cu"
	case LayerEdge:
		return "Edge.Cuts"
	default:
		return "none"
	}
}

// ParseLayerName maps a KiCad layer name to a Layer. Unknown names map to LayerNone.
func ParseLayerName(name string) Layer {
	switch name {
	case "F.Cu":
		return LayerTop
	case "B.Cu":
		return LayerBottom
	case "Edge.Cuts":
		return LayerEdge
	default:
		return LayerNone
	}
}

// CurveKind is the variant tag of a Curve
type CurveKind int

const (
	CurveLine CurveKind = iota
	CurveArc
	CurveCircle
)

func (k CurveKind) String() string {
	switch k {
	case CurveLine:
		return "line"
	case CurveArc:
		return "arc"
	case CurveCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// OffsetUnit records how a model offset was written in the file
type OffsetUnit int

const (
	// OffsetInches is the legacy (at (xyz ...)) form
	OffsetInches OffsetUnit = iota
	// OffsetMillimeters is the (offset (xyz ...)) form
	OffsetMillimeters
)
