package mcad

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/export"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
	"github.com/OpenTraceLab/kicad2mcad/pkg/resolver"
)

// --- stub kernel ---

type stubSolid struct {
	kind string
	x, y float64
	rot  float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) { return }

type stubFace struct{ curves int }

func (f *stubFace) Area() float64 { return 1 }

type stubKernel struct {
	failFace  bool
	faces     []int // curves per face
	cylinders []float64
	slots     [][2]float64
	tools     int
}

var _ kernel.Kernel = (*stubKernel)(nil)

func (k *stubKernel) MakeClosedWireFace(loop []pcb.Curve) (kernel.Face, error) {
	if k.failFace {
		return nil, fmt.Errorf("%w: stub failure", kernel.ErrKernel)
	}
	k.faces = append(k.faces, len(loop))
	return &stubFace{curves: len(loop)}, nil
}

func (k *stubKernel) Extrude(face kernel.Face, height float64) (kernel.Solid, error) {
	return &stubSolid{kind: "extrusion"}, nil
}

func (k *stubKernel) Cylinder(radius, height float64) (kernel.Solid, error) {
	k.cylinders = append(k.cylinders, radius)
	return &stubSolid{kind: "cylinder"}, nil
}

func (k *stubKernel) Slot(length, width, height float64) (kernel.Solid, error) {
	k.slots = append(k.slots, [2]float64{length, width})
	return &stubSolid{kind: "slot"}, nil
}

func (k *stubKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	c := *s.(*stubSolid)
	c.x += x
	c.y += y
	return &c
}

func (k *stubKernel) RotateZ(s kernel.Solid, angle float64) kernel.Solid {
	c := *s.(*stubSolid)
	c.rot += angle
	return &c
}

func (k *stubKernel) Subtract(s kernel.Solid, tools []kernel.Solid) (kernel.Solid, error) {
	k.tools = len(tools)
	return s, nil
}

func (k *stubKernel) LoadModel(path string) (*kernel.Model, error) {
	return kernel.ReadModel(path)
}

func (k *stubKernel) PlaceComponent(model *kernel.Model, refdes string, transform sdf.M44) (*kernel.Component, error) {
	return &kernel.Component{RefDes: refdes, Model: model, Transform: transform}, nil
}

func (k *stubKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return kernel.BoxMesh(v3.Vec{}, v3.Vec{X: 10, Y: 10, Z: 1.6}, ""), nil
}

// --- helpers ---

func edgeLine(x0, y0, x1, y1 float64) pcb.Curve {
	return pcb.Line{Start: pcb.Position{X: x0, Y: y0}, End: pcb.Position{X: x1, Y: y1}, Layer: pcb.LayerEdge}
}

func squareBoard() *pcb.Board {
	return &pcb.Board{
		FileName:  "/tmp/demo.kicad_pcb",
		Thickness: 1.6,
		Curves: []pcb.Curve{
			edgeLine(10, 0, 10, 10),
			edgeLine(0, 0, 10, 0),
			edgeLine(0, 10, 0, 0),
			edgeLine(10, 10, 0, 10),
		},
	}
}

func newTestAssembler(t *testing.T, cfg *Config, k kernel.Kernel) *Assembler {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a, err := NewAssembler(cfg, k, resolver.New(cfg.ProjectDir, cfg.ModelSearchPaths...))
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	return a
}

func captureLog(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	SetLogging(verboseOn)
	t.Cleanup(func() {
		SetLogger(log.New(os.Stderr, "", log.LstdFlags))
		SetLogging(false)
	})
	return &buf
}

func hasWarning(ws []Warning, kind WarningKind) bool {
	for _, w := range ws {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// --- tests ---

func TestSetPCBThickness(t *testing.T) {
	a := newTestAssembler(t, nil, &stubKernel{})
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below floor", 0.0005, 0.002},
		{"zero", 0, 0.002},
		{"negative", -1, 1.6},
		{"normal", 0.8, 0.8},
		{"floor", 0.002, 0.002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.SetPCBThickness(tt.in); got != tt.want {
				t.Errorf("SetPCBThickness(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if a.Thickness() != tt.want {
				t.Errorf("Thickness() = %v, want %v", a.Thickness(), tt.want)
			}
		})
	}
}

func TestAddOutlineSegment(t *testing.T) {
	captureLog(t, false)
	a := newTestAssembler(t, nil, &stubKernel{})

	tests := []struct {
		name string
		c    pcb.Curve
		want bool
	}{
		{"line", edgeLine(0, 0, 1, 0), true},
		{"wrong layer", pcb.Line{End: pcb.Position{X: 1}, Layer: pcb.LayerTop}, false},
		{"circle", pcb.NewCircle(pcb.Position{}, pcb.Position{X: 2}, pcb.LayerEdge), true},
		{"tiny circle", pcb.NewCircle(pcb.Position{}, pcb.Position{X: 0.001}, pcb.LayerEdge), false},
		{"tiny arc", pcb.NewArc(pcb.Position{}, pcb.Position{Y: 0.005}, math.Pi, pcb.LayerEdge), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.AddOutlineSegment(tt.c); got != tt.want {
				t.Errorf("AddOutlineSegment() = %v, want %v", got, tt.want)
			}
		})
	}
	if len(a.curves) != 2 {
		t.Errorf("pool has %d curves, want 2", len(a.curves))
	}
	if n := len(a.warnings); n != 2 {
		t.Errorf("got %d warnings, want 2", n)
	}
}

func TestAssembleCutoutsHolesAndDrops(t *testing.T) {
	logs := captureLog(t, false)

	board := squareBoard()
	board.Curves = append(board.Curves,
		pcb.NewCircle(pcb.Position{X: 5, Y: 5}, pcb.Position{X: 7, Y: 5}, pcb.LayerEdge),
		edgeLine(3, 3, 4, 4),
	)
	board.Modules = []pcb.Module{{
		RefDes:   "J1",
		Position: pcb.Position{X: 2, Y: 2},
		Side:     pcb.LayerTop,
		Pads: []pcb.Pad{
			{Number: "1", Drill: pcb.Drill{Size: pcb.Size{Width: 1, Height: 1}}, ThroughHole: true, Plated: true},
			{Number: "2", Position: pcb.Position{X: 2.54}, Drill: pcb.Drill{Size: pcb.Size{Width: 2, Height: 1}, Oval: true}, ThroughHole: true},
		},
	}}

	k := &stubKernel{}
	a := newTestAssembler(t, nil, k)
	result, err := a.Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if result.CutoutCount != 1 {
		t.Errorf("CutoutCount = %d, want 1", result.CutoutCount)
	}
	if result.DroppedLoopCount != 1 || len(result.Dropped) != 1 {
		t.Errorf("DroppedLoopCount = %d, want 1", result.DroppedLoopCount)
	}
	if len(result.Loops) != 2 || len(result.Loops[0].Curves) != 4 {
		t.Errorf("Loops = %v", result.Loops)
	}
	if result.Solid == nil {
		t.Fatal("Solid is nil")
	}
	if len(result.Holes) != 2 {
		t.Fatalf("got %d holes, want 2", len(result.Holes))
	}
	if h := result.Holes[0]; h.Center != (pcb.Position{X: 2, Y: -2}) || h.Ref != "J1.1" {
		t.Errorf("hole 0 = %+v", h)
	}

	// outer + cutout faces, one round hole of radius 0.5, one slot
	if len(k.faces) != 2 {
		t.Errorf("built %d faces, want 2", len(k.faces))
	}
	if len(k.cylinders) != 1 || k.cylinders[0] != 0.5 {
		t.Errorf("cylinders = %v, want [0.5]", k.cylinders)
	}
	if len(k.slots) != 1 || k.slots[0] != [2]float64{2, 1} {
		t.Errorf("slots = %v", k.slots)
	}
	if k.tools != 3 {
		t.Errorf("subtracted %d tools, want 3", k.tools)
	}

	if !hasWarning(result.Warnings, WarnDroppedLoop) {
		t.Error("missing dropped-loop warning")
	}
	if !strings.Contains(logs.String(), "[WARN] dropped-loop") {
		t.Errorf("log = %q", logs.String())
	}
	if strings.Contains(logs.String(), "[INFO]") {
		t.Error("[INFO] logged with logging disabled")
	}
}

func TestAssembleBottomPad(t *testing.T) {
	captureLog(t, false)
	board := squareBoard()
	board.Modules = []pcb.Module{{
		RefDes:   "U1",
		Position: pcb.Position{X: 30, Y: 15},
		Side:     pcb.LayerBottom,
		Pads: []pcb.Pad{{
			Number:      "1",
			Position:    pcb.Position{X: 1},
			Drill:       pcb.Drill{Size: pcb.Size{Width: 0.8, Height: 0.8}},
			ThroughHole: true,
		}},
	}}

	a := newTestAssembler(t, nil, &stubKernel{})
	result, err := a.Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	want := pcb.Position{X: 31, Y: -15}
	if got := result.Holes[0].Center; math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("hole center = %v, want %v", got, want)
	}
}

func TestAssembleThicknessOverride(t *testing.T) {
	captureLog(t, false)
	cfg := DefaultConfig()
	cfg.Thickness = 0.8

	a := newTestAssembler(t, cfg, &stubKernel{})
	result, err := a.Assemble(squareBoard())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if result.Thickness != 0.8 {
		t.Errorf("Thickness = %v, want 0.8", result.Thickness)
	}

	board := squareBoard()
	board.Thickness = 0.0005
	result, err = newTestAssembler(t, nil, &stubKernel{}).Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if result.Thickness != pcb.ThicknessMin {
		t.Errorf("Thickness = %v, want %v", result.Thickness, pcb.ThicknessMin)
	}
}

func TestAssembleNoOutline(t *testing.T) {
	captureLog(t, false)
	board := &pcb.Board{Thickness: 1.6, Curves: []pcb.Curve{edgeLine(0, 0, 5, 0)}}

	a := newTestAssembler(t, nil, &stubKernel{})
	result, err := a.Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if result.Solid != nil {
		t.Error("Solid should be nil without an outline")
	}
	if len(result.Loops) != 0 || result.DroppedLoopCount != 1 {
		t.Errorf("Loops = %d, DroppedLoopCount = %d", len(result.Loops), result.DroppedLoopCount)
	}
	if !hasWarning(result.Warnings, WarnNoOutline) {
		t.Error("missing no-outline warning")
	}

	err = a.Export(export.FormatSTEP, filepath.Join(t.TempDir(), "x.stp"), false)
	if !errors.Is(err, ErrNotAssembled) {
		t.Errorf("Export() error = %v, want ErrNotAssembled", err)
	}
}

func TestAssembleKernelFailure(t *testing.T) {
	captureLog(t, false)
	a := newTestAssembler(t, nil, &stubKernel{failFace: true})
	_, err := a.Assemble(squareBoard())
	if !errors.Is(err, kernel.ErrKernel) {
		t.Errorf("Assemble() error = %v, want ErrKernel", err)
	}
}

const stlPart = `solid part
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 1 1
endloop
endfacet
endsolid part
`

func TestAssembleComponents(t *testing.T) {
	logs := captureLog(t, true)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "3d"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "3d", "part.stl"), []byte(stlPart), 0o644); err != nil {
		t.Fatal(err)
	}

	board := squareBoard()
	board.FileName = filepath.Join(dir, "demo.kicad_pcb")
	module := func(ref string, x float64, models ...pcb.Model) pcb.Module {
		return pcb.Module{RefDes: ref, Position: pcb.Position{X: x, Y: 5}, Side: pcb.LayerTop, Models: models}
	}
	model := pcb.Model{Path: "3d/part.wrl", Scale: pcb.Triplet{X: 1, Y: 1, Z: 1}}
	board.Modules = []pcb.Module{
		module("R1", 2, model),
		module("R2", 6, model),
		module("R3", 8, pcb.Model{Path: "3d/missing.wrl"}),
		module("R4", 9, pcb.Model{Path: "3d/part.wrl", Hidden: true}),
	}

	k := &stubKernel{}
	a := newTestAssembler(t, nil, k)
	result, err := a.Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(result.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(result.Components))
	}
	if result.Components[0].Model != result.Components[1].Model {
		t.Error("components sharing a file should share the loaded model")
	}
	origin := placement.FrameOf(result.Components[0].Transform).Origin
	want := v3.Vec{X: 2, Y: -5, Z: 1.6 + placement.BoardStandoff}
	if origin.Sub(want).Length() > 1e-9 {
		t.Errorf("R1 origin = %v, want %v", origin, want)
	}

	if !hasWarning(result.Warnings, WarnModel) {
		t.Error("missing model warning for R3")
	}
	if !strings.Contains(logs.String(), "[INFO] Placed R1") {
		t.Errorf("log = %q", logs.String())
	}

	out := filepath.Join(dir, "demo.stp")
	if err := a.Export(export.FormatSTEP, out, false); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := a.Export(export.FormatSTEP, out, false); !errors.Is(err, export.ErrExists) {
		t.Errorf("Export() without overwrite error = %v, want ErrExists", err)
	}
	if err := a.Export(export.FormatIGES, filepath.Join(dir, "demo.igs"), false); err != nil {
		t.Errorf("Export(IGES) error = %v", err)
	}
}

func TestAssembleSkipModels(t *testing.T) {
	captureLog(t, false)
	cfg := DefaultConfig()
	cfg.SkipModels = true

	board := squareBoard()
	board.Modules = []pcb.Module{{RefDes: "R1", Models: []pcb.Model{{Path: "missing.wrl"}}}}

	result, err := newTestAssembler(t, cfg, &stubKernel{}).Assemble(board)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(result.Components) != 0 || len(result.Warnings) != 0 {
		t.Errorf("Components = %d, Warnings = %v", len(result.Components), result.Warnings)
	}
}
