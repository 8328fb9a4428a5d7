// Package mcad assembles a parsed KiCad board into a mechanical model: the
// board body extruded from its Edge.Cuts outline, drilled with its
// through-hole pads, and populated with the footprints' 3D models.
package mcad

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/deadsy/sdfx/sdf"

	"github.com/OpenTraceLab/kicad2mcad/pkg/export"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel/sdfx"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
	"github.com/OpenTraceLab/kicad2mcad/pkg/resolver"
)

// ErrNotAssembled is returned by Export before a successful Assemble
var ErrNotAssembled = errors.New("no assembled board to export")

// AssemblyResult is the outcome of one conversion run
type AssemblyResult struct {
	Solid     kernel.Solid // nil when no outline closed
	Mesh      *kernel.Mesh
	Thickness float64

	CutoutCount      int
	DroppedLoopCount int
	Loops            []outline.Loop
	Dropped          []outline.DroppedLoop

	Holes      []placement.Hole
	Components []*kernel.Component
	Warnings   []Warning
}

// Assembler collects world-space outline curves, drill holes and
// components, then builds the board solid through a kernel.
// An Assembler is not safe for concurrent use.
type Assembler struct {
	cfg      *Config
	kernel   kernel.Kernel
	resolver *resolver.Resolver

	name       string
	thickness  float64
	curves     []pcb.Curve
	holes      []placement.Hole
	components []*kernel.Component
	models     map[string]*kernel.Model // by resolved path
	warnings   []Warning

	assembly *kernel.Assembly
}

// NewAssembler creates an assembler. A nil config selects DefaultConfig, a
// nil kernel the sdfx kernel at the configured resolution, and a nil
// resolver one built from the config search paths.
func NewAssembler(cfg *Config, k kernel.Kernel, r *resolver.Resolver) (*Assembler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if k == nil {
		k = sdfx.NewWithResolution(cfg.MeshCells, cfg.ArcSegments)
	}
	if r == nil {
		r = resolver.New(cfg.ProjectDir, cfg.ModelSearchPaths...)
		if err := r.LoadAliases(resolver.ModelConfigDir()); err != nil {
			Logf("[WARN] %v", err)
		}
	}

	a := &Assembler{cfg: cfg, kernel: k, resolver: r}
	a.reset()
	return a, nil
}

func (a *Assembler) reset() {
	a.name = ""
	a.thickness = a.cfg.DefaultThickness
	a.curves = nil
	a.holes = nil
	a.components = nil
	a.models = make(map[string]*kernel.Model)
	a.warnings = nil
	a.assembly = nil
}

func (a *Assembler) warn(kind WarningKind, subject, format string, args ...interface{}) {
	w := Warning{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)}
	a.warnings = append(a.warnings, w)
	Logf("[WARN] %s", w)
}

// SetPCBThickness sets the extrusion height. Negative values select the
// default thickness; values below the minimum are clamped to it.
func (a *Assembler) SetPCBThickness(thickness float64) float64 {
	switch {
	case thickness < 0:
		a.thickness = a.cfg.DefaultThickness
	case thickness < a.cfg.MinThickness:
		a.thickness = a.cfg.MinThickness
	default:
		a.thickness = thickness
	}
	return a.thickness
}

// Thickness returns the current extrusion height
func (a *Assembler) Thickness() float64 {
	return a.thickness
}

// AddOutlineSegment adds a world-space Edge.Cuts curve to the outline pool.
// Curves on other layers are ignored; arcs and circles whose radius is
// below the coincidence tolerance are rejected with a warning.
func (a *Assembler) AddOutlineSegment(c pcb.Curve) bool {
	if c == nil || c.OnLayer() != pcb.LayerEdge {
		return false
	}

	var r float64
	switch c := c.(type) {
	case pcb.Arc:
		r = c.Radius
	case pcb.Circle:
		r = c.Radius
	case pcb.Line:
		a.curves = append(a.curves, c)
		return true
	default:
		a.warn(WarnDegenerateCurve, fmt.Sprint(c), "unsupported curve kind %s", c.Kind())
		return false
	}

	if r*r < a.cfg.Precision {
		a.warn(WarnDegenerateCurve, fmt.Sprint(c), "radius %g is below the coincidence tolerance", r)
		return false
	}
	a.curves = append(a.curves, c)
	return true
}

// AddPadHole adds a world-space drill hole
func (a *Assembler) AddPadHole(h placement.Hole) bool {
	if h.Diameter() <= 0 {
		a.warn(WarnHole, h.Ref, "drill size %gx%g is not positive", h.Size.Width, h.Size.Height)
		return false
	}
	a.holes = append(a.holes, h)
	return true
}

// AddComponent resolves, loads and places a model. Each model file is
// loaded once and shared by every component that uses it.
func (a *Assembler) AddComponent(modelPath, refdes string, transform sdf.M44) error {
	path, ok := a.resolver.ResolvePath(modelPath)
	if !ok {
		return fmt.Errorf("model %q not found", modelPath)
	}

	model, cached := a.models[path]
	if !cached {
		var err error
		model, err = a.kernel.LoadModel(path)
		if err != nil {
			return err
		}
		a.models[path] = model
		Logf("[INFO] Loaded %s model %s", model.Format, path)
	}

	c, err := a.kernel.PlaceComponent(model, refdes, transform)
	if err != nil {
		return err
	}
	a.components = append(a.components, c)

	f := placement.FrameOf(transform)
	Logf("[INFO] Placed %s at (%.3f, %.3f, %.3f)", refdes, f.Origin.X, f.Origin.Y, f.Origin.Z)
	return nil
}

// Assemble converts a parsed board. Geometry problems are collected as
// warnings; kernel failures on the board body abort with an error.
func (a *Assembler) Assemble(board *pcb.Board) (*AssemblyResult, error) {
	if board == nil {
		return nil, fmt.Errorf("nil board")
	}
	a.reset()
	a.name = boardName(board.FileName)

	if a.cfg.ProjectDir == "" && board.FileName != "" {
		a.resolver.ProjectDir = filepath.Dir(board.FileName)
	}

	thickness := board.Thickness
	if a.cfg.Thickness > 0 {
		thickness = a.cfg.Thickness
	}
	a.SetPCBThickness(thickness)

	var top placement.Placement
	for _, c := range top.Curves(board.Curves) {
		a.AddOutlineSegment(c)
	}

	for i := range board.Modules {
		m := &board.Modules[i]
		p := placement.ForModule(m)

		for _, c := range p.Curves(m.Curves) {
			a.AddOutlineSegment(c)
		}

		for _, pad := range m.Pads {
			h := p.Hole(pad)
			h.Ref = m.RefDes + "." + pad.Number
			a.AddPadHole(h)
		}

		if a.cfg.SkipModels {
			continue
		}
		for _, model := range m.Models {
			if model.Hidden {
				continue
			}
			xform := p.ModelTransform(model, a.thickness, a.cfg.BoardStandoff)
			if err := a.AddComponent(model.Path, m.RefDes, xform); err != nil {
				a.warn(WarnModel, m.RefDes, "%v", err)
			}
		}
	}

	Logf("[INFO] %s: %d outline segments, %d holes, %d components",
		a.name, len(a.curves), len(a.holes), len(a.components))

	return a.CreatePCB()
}

func boardName(file string) string {
	if file == "" {
		return "board"
	}
	base := filepath.Base(file)
	return base[:len(base)-len(filepath.Ext(base))]
}

// CreatePCB stitches the collected outline, extrudes the board and removes
// cutouts and holes
func (a *Assembler) CreatePCB() (*AssemblyResult, error) {
	loops := outline.Assemble(a.curves, a.cfg.Precision)

	result := &AssemblyResult{
		Thickness:        a.thickness,
		Loops:            loops.Loops,
		Dropped:          loops.Dropped,
		DroppedLoopCount: len(loops.Dropped),
		CutoutCount:      len(loops.Cutouts()),
		Holes:            a.holes,
		Components:       a.components,
	}
	for _, d := range loops.Dropped {
		a.warn(WarnDroppedLoop, "", "%s", d)
	}

	outer := loops.Outer()
	if outer == nil {
		a.warn(WarnNoOutline, a.name, "no valid board outline")
		result.Warnings = a.warnings
		return result, nil
	}

	face, err := a.kernel.MakeClosedWireFace(outer.Curves)
	if err != nil {
		return nil, fmt.Errorf("could not create board face: %w", err)
	}
	body, err := a.kernel.Extrude(face, a.thickness)
	if err != nil {
		return nil, fmt.Errorf("could not create board extrusion: %w", err)
	}

	var tools []kernel.Solid
	for i, loop := range loops.Cutouts() {
		tool, err := a.cutoutTool(loop)
		if err != nil {
			a.warn(WarnCutout, fmt.Sprintf("cutout %d", i+1), "could not create board cutout: %v", err)
			result.CutoutCount--
			continue
		}
		tools = append(tools, tool)
	}
	for _, h := range a.holes {
		tool, err := a.holeTool(h)
		if err != nil {
			a.warn(WarnHole, h.Ref, "%v", err)
			continue
		}
		tools = append(tools, tool)
	}

	solid, err := a.kernel.Subtract(body, tools)
	if err != nil {
		return nil, fmt.Errorf("could not subtract cutouts: %w", err)
	}
	mesh, err := a.kernel.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("could not tessellate board: %w", err)
	}
	mesh.PartName = a.name
	if mesh.Approximate {
		a.warn(WarnMesh, a.name, "board meshed at the resolution limit; thin features may be missing")
	}

	result.Solid = solid
	result.Mesh = mesh
	result.Warnings = a.warnings

	a.assembly = &kernel.Assembly{Name: a.name, Board: mesh, Components: a.components}
	return result, nil
}

// cutoutTool extrudes a cutout loop through the board with margin above and
// below so that no skin is left on the faces
func (a *Assembler) cutoutTool(loop outline.Loop) (kernel.Solid, error) {
	face, err := a.kernel.MakeClosedWireFace(loop.Curves)
	if err != nil {
		return nil, err
	}
	tool, err := a.kernel.Extrude(face, 2*a.thickness)
	if err != nil {
		return nil, err
	}
	return a.kernel.Translate(tool, 0, 0, -a.thickness/2), nil
}

// holeTool builds a drill of twice the board thickness centred on the board
func (a *Assembler) holeTool(h placement.Hole) (kernel.Solid, error) {
	height := 2 * a.thickness

	var tool kernel.Solid
	var err error
	if h.Slot {
		tool, err = a.kernel.Slot(h.Size.Width, h.Size.Height, height)
		if err == nil && h.Size.Height > h.Size.Width {
			// Slot runs along its longer side; KiCad sizes are X then Y
			tool = a.kernel.RotateZ(tool, math.Pi/2)
		}
		if err == nil && h.Angle != 0 {
			tool = a.kernel.RotateZ(tool, h.Angle)
		}
	} else {
		tool, err = a.kernel.Cylinder(h.Diameter()/2, height)
	}
	if err != nil {
		return nil, err
	}
	return a.kernel.Translate(tool, h.Center.X, h.Center.Y, a.thickness/2), nil
}

// Assembly returns the last assembled model, or nil
func (a *Assembler) Assembly() *kernel.Assembly {
	return a.assembly
}

// Export writes the last assembled model
func (a *Assembler) Export(format export.Format, path string, overwrite bool) error {
	if a.assembly == nil {
		return ErrNotAssembled
	}
	if err := export.Write(a.assembly, format, path, overwrite); err != nil {
		return err
	}
	Logf("[INFO] Wrote %s %s", format, path)
	return nil
}
