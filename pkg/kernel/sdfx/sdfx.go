// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// DefaultMeshCells is the least marching cubes resolution along the
	// longest axis for solids that are not plain extrusions.
	DefaultMeshCells = 200
	// MaxMeshCells bounds the resolution raised for thin solids.
	MaxMeshCells = 1024
	// DefaultArcSegments is the number of chords per full turn of an arc.
	DefaultArcSegments = 64
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. Extrusions and
// drilled extrusions also carry their exact prism.
type sdfxSolid struct {
	s     sdf.SDF3
	prism *prism
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// sdfxFace is a planar region described by its boundary polygon.
type sdfxFace struct {
	s       sdf.SDF2
	polygon []pcb.Position
}

// Area returns the polygon area (shoelace formula).
func (f *sdfxFace) Area() float64 {
	return math.Abs(outline.SignedArea(f.polygon))
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells   int
	arcSegments int
}

// New returns a new SdfxKernel with default resolution.
func New() *SdfxKernel {
	return &SdfxKernel{meshCells: DefaultMeshCells, arcSegments: DefaultArcSegments}
}

// NewWithResolution returns a kernel with the given least marching cubes
// cell count along the longest axis and chords per full arc turn. Values
// below 1 select the defaults.
func NewWithResolution(meshCells, arcSegments int) *SdfxKernel {
	k := New()
	if meshCells > 0 {
		k.meshCells = meshCells
	}
	if arcSegments > 0 {
		k.arcSegments = arcSegments
	}
	return k
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3 and its prism, if any.
func wrap(s sdf.SDF3, p *prism) kernel.Solid {
	return &sdfxSolid{s: s, prism: p}
}

func prismOf(s kernel.Solid) *prism {
	return s.(*sdfxSolid).prism
}

// MakeClosedWireFace tessellates the loop into a polygon. The loop must be
// closed; curves are walked in order from their start points.
func (k *SdfxKernel) MakeClosedWireFace(loop []pcb.Curve) (kernel.Face, error) {
	if len(loop) == 0 {
		return nil, fmt.Errorf("%w: empty wire", kernel.ErrKernel)
	}

	ring := outline.Polygon(loop, k.arcSegments)
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: wire has %d distinct vertices", kernel.ErrKernel, len(ring))
	}
	if math.Abs(outline.SignedArea(ring)) < 1e-12 {
		return nil, fmt.Errorf("%w: wire encloses no area", kernel.ErrKernel)
	}

	pts := make([]v2.Vec, len(ring))
	for i, p := range ring {
		pts[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	s, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrKernel, err)
	}
	return &sdfxFace{s: s, polygon: ring}, nil
}

// Extrude sweeps a face from z=0 to z=height.
// sdf.Extrude3D centers the extrusion on z=0, so it is shifted up by half.
func (k *SdfxKernel) Extrude(face kernel.Face, height float64) (kernel.Solid, error) {
	f, ok := face.(*sdfxFace)
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: face was not built by this kernel", kernel.ErrKernel)
	}
	if height <= 0 {
		return nil, fmt.Errorf("%w: extrusion height %g", kernel.ErrKernel, height)
	}
	s := sdf.Extrude3D(f.s, height)
	return wrap(
		sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2})),
		&prism{outer: f.polygon, z0: 0, z1: height},
	), nil
}

// Cylinder creates a cylinder along Z centered on the origin.
func (k *SdfxKernel) Cylinder(radius, height float64) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrKernel, err)
	}
	ring := outline.Polygon([]pcb.Curve{pcb.Circle{Radius: radius}}, k.arcSegments)
	return wrap(s, &prism{outer: ring, z0: -height / 2, z1: height / 2}), nil
}

// Slot creates a stadium: a box between two end cylinders. A slot no longer
// than it is wide degenerates to a cylinder.
func (k *SdfxKernel) Slot(length, width, height float64) (kernel.Solid, error) {
	if length < width {
		length, width = width, length
	}
	r := width / 2
	straight := length - width
	if straight <= 1e-9 {
		return k.Cylinder(r, height)
	}

	box, err := sdf.Box3D(v3.Vec{X: straight, Y: width, Z: height}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrKernel, err)
	}
	end, err := sdf.Cylinder3D(height, r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrKernel, err)
	}
	left := sdf.Transform3D(end, sdf.Translate3d(v3.Vec{X: -straight / 2}))
	right := sdf.Transform3D(end, sdf.Translate3d(v3.Vec{X: straight / 2}))

	h := straight / 2
	capR := pcb.NewArc(pcb.Position{X: h}, pcb.Position{X: h, Y: -r}, math.Pi, pcb.LayerNone)
	capL := pcb.NewArc(pcb.Position{X: -h}, pcb.Position{X: -h, Y: r}, math.Pi, pcb.LayerNone)
	ring := outline.Polygon([]pcb.Curve{
		capR,
		pcb.Line{Start: capR.End, End: capL.Start},
		capL,
		pcb.Line{Start: capL.End, End: capR.Start},
	}, k.arcSegments)
	return wrap(sdf.Union3D(box, left, right), &prism{outer: ring, z0: -height / 2, z1: height / 2}), nil
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	out := &sdfxSolid{s: sdf.Transform3D(unwrap(s), m)}
	if p := prismOf(s); p != nil {
		out.prism = p.translated(x, y, z)
	}
	return out
}

// RotateZ rotates a solid about the Z axis by angle radians.
func (k *SdfxKernel) RotateZ(s kernel.Solid, angle float64) kernel.Solid {
	out := &sdfxSolid{s: sdf.Transform3D(unwrap(s), sdf.RotateZ(angle))}
	if p := prismOf(s); p != nil {
		out.prism = p.rotated(angle)
	}
	return out
}

// Subtract removes the union of tools from s.
func (k *SdfxKernel) Subtract(s kernel.Solid, tools []kernel.Solid) (kernel.Solid, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil solid", kernel.ErrKernel)
	}
	if len(tools) == 0 {
		return s, nil
	}
	sdfs := make([]sdf.SDF3, 0, len(tools))
	prisms := make([]*prism, 0, len(tools))
	for _, t := range tools {
		sdfs = append(sdfs, unwrap(t))
		prisms = append(prisms, prismOf(t))
	}
	out := &sdfxSolid{s: sdf.Difference3D(unwrap(s), sdf.Union3D(sdfs...))}
	if p := prismOf(s); p != nil {
		out.prism = p.drilled(prisms)
	}
	return out, nil
}

// LoadModel reads a component model from disk.
func (k *SdfxKernel) LoadModel(path string) (*kernel.Model, error) {
	m, err := kernel.ReadModel(path)
	if err != nil && !errors.Is(err, kernel.ErrUnsupportedFormat) && !errors.Is(err, kernel.ErrKernel) {
		return nil, fmt.Errorf("%w: %v", kernel.ErrKernel, err)
	}
	return m, err
}

// PlaceComponent instances a model with a world transform.
func (k *SdfxKernel) PlaceComponent(model *kernel.Model, refdes string, transform sdf.M44) (*kernel.Component, error) {
	if model == nil || model.Mesh == nil || model.Mesh.IsEmpty() {
		return nil, fmt.Errorf("%w: no geometry to place for %s", kernel.ErrKernel, refdes)
	}
	return &kernel.Component{RefDes: refdes, Model: model, Transform: transform}, nil
}

// ToMesh converts a solid to a triangle mesh. Extrusions, drilled or not,
// are meshed exactly from their outline; anything else goes through
// marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if p := prismOf(s); p != nil {
		if m, err := p.mesh(); err == nil {
			return m, nil
		}
	}

	sdf3 := unwrap(s)
	cells, capped := k.cellsFor(sdf3)

	renderer := render.NewMarchingCubesOctree(cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: tessellation produced no triangles at %d cells", kernel.ErrKernel, cells)
	}

	numVerts := len(triangles) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices:    vertices,
		Normals:     normals,
		Indices:     indices,
		Approximate: capped,
	}, nil
}

// cellsFor picks a resolution that puts at least three cells across the
// thinnest extent, capped at MaxMeshCells
func (k *SdfxKernel) cellsFor(s sdf.SDF3) (cells int, capped bool) {
	size := s.BoundingBox().Size()
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	shortest := math.Min(size.X, math.Min(size.Y, size.Z))

	cells = k.meshCells
	if shortest > 0 {
		if need := math.Ceil(3 * longest / shortest); need > float64(cells) {
			if need > MaxMeshCells {
				return MaxMeshCells, true
			}
			cells = int(need)
		}
	}
	return cells, false
}

// Contains reports whether a point lies inside a solid built by this kernel.
func Contains(s kernel.Solid, x, y, z float64) bool {
	return unwrap(s).Evaluate(v3.Vec{X: x, Y: y, Z: z}) < 0
}
