package pcb

// Board represents the parts of a KiCad PCB needed for mechanical output
type Board struct {
	FileName  string   // Source file, empty when parsed from a stream
	Version   int      // File format version
	Generator string   // Generator info (e.g., "pcbnew")
	Thickness float64  // Board thickness in mm
	Modules   []Module // Placed footprints
	Curves    []Curve  // Top-level Edge.Cuts geometry
}

// Module represents a placed footprint.
// Only Edge.Cuts curves and through-hole pads are retained.
type Module struct {
	Name     string   // Footprint name (library:name)
	RefDes   string   // Reference designator (e.g., "R1")
	Position Position // Board position in mm
	Rotation Angle    // Radians, in (-2pi, 2pi)
	Side     Layer    // LayerTop, LayerBottom or LayerNone
	Curves   []Curve  // Edge.Cuts curves in footprint-local coordinates
	Pads     []Pad    // Through-hole pads
	Models   []Model  // 3D model references
}

// Pad represents a drilled footprint pad
type Pad struct {
	Number      string   // Pad number/name
	Position    Position // Footprint-local position
	Rotation    Angle    // Pad orientation, radians
	Drill       Drill    // Hole description
	ThroughHole bool     // thru_hole or np_thru_hole
	Plated      bool     // false for np_thru_hole
}

// Drill describes a pad hole
type Drill struct {
	Size   Size     // Width x height; equal for round holes
	Oval   bool     // Slotted hole
	Offset Position // Hole offset from the pad center
}

// Diameter returns the round hole diameter (the smaller side of an oval)
func (d Drill) Diameter() float64 {
	if d.Size.Height > 0 && d.Size.Height < d.Size.Width {
		return d.Size.Height
	}
	return d.Size.Width
}

// IsSlot reports whether the hole needs a slot rather than a cylinder
func (d Drill) IsSlot() bool {
	return d.Oval && d.Size.Width != d.Size.Height
}

// Model references an external 3D part
type Model struct {
	Path       string
	Offset     Triplet    // As written; see OffsetUnit
	OffsetUnit OffsetUnit // Inches for (at ...), millimeters for (offset ...)
	Scale      Triplet
	Rotation   Triplet // Radians
	Hidden     bool
}

// OffsetMM returns the model offset converted to millimeters,
// in the file's Y-down convention.
func (m Model) OffsetMM() Triplet {
	if m.OffsetUnit == OffsetMillimeters {
		return m.Offset
	}
	return Triplet{X: m.Offset.X * InchToMM, Y: m.Offset.Y * InchToMM, Z: m.Offset.Z * InchToMM}
}

// EdgeCurveCount returns the number of outline curves on the board and in modules
func (b *Board) EdgeCurveCount() int {
	n := len(b.Curves)
	for i := range b.Modules {
		n += len(b.Modules[i].Curves)
	}
	return n
}

// PadCount returns the number of through-hole pads on the board
func (b *Board) PadCount() int {
	n := 0
	for i := range b.Modules {
		n += len(b.Modules[i].Pads)
	}
	return n
}

// ModelCount returns the number of 3D model references on the board
func (b *Board) ModelCount() int {
	n := 0
	for i := range b.Modules {
		n += len(b.Modules[i].Models)
	}
	return n
}

// FindModule returns the module with the given reference designator
func (b *Board) FindModule(refdes string) *Module {
	for i := range b.Modules {
		if b.Modules[i].RefDes == refdes {
			return &b.Modules[i]
		}
	}
	return nil
}
