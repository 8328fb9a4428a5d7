package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // board name or reference designator

	// Approximate is set when the tessellation was too coarse to be trusted
	// for features thinner than a few cells
	Approximate bool `json:"approximate,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

func (m *Mesh) vertex(i uint32) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}

// Triangle returns the corners of triangle i
func (m *Mesh) Triangle(i int) [3]v3.Vec {
	return [3]v3.Vec{
		m.vertex(m.Indices[i*3]),
		m.vertex(m.Indices[i*3+1]),
		m.vertex(m.Indices[i*3+2]),
	}
}

// AddTriangle appends a triangle with a flat normal computed from its winding
func (m *Mesh) AddTriangle(a, b, c v3.Vec) {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Length(); l > 0 {
		n = n.DivScalar(l)
	}
	base := uint32(m.VertexCount())
	for _, v := range [3]v3.Vec{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// Bounds returns the axis-aligned extent of the mesh
func (m *Mesh) Bounds() (min, max v3.Vec) {
	min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.vertex(uint32(i))
		min = v3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = v3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}

// Transformed returns a copy of the mesh with every vertex moved by xf
func (m *Mesh) Transformed(xf sdf.M44) *Mesh {
	out := &Mesh{PartName: m.PartName}
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		out.AddTriangle(xf.MulPosition(t[0]), xf.MulPosition(t[1]), xf.MulPosition(t[2]))
	}
	return out
}

// BoxMesh returns the 12 triangles of an axis-aligned box
func BoxMesh(min, max v3.Vec, name string) *Mesh {
	m := &Mesh{PartName: name}
	p := func(x, y, z int) v3.Vec {
		v := min
		if x == 1 {
			v.X = max.X
		}
		if y == 1 {
			v.Y = max.Y
		}
		if z == 1 {
			v.Z = max.Z
		}
		return v
	}
	quad := func(a, b, c, d v3.Vec) {
		m.AddTriangle(a, b, c)
		m.AddTriangle(c, d, a)
	}
	quad(p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0)) // bottom
	quad(p(1, 0, 1), p(1, 1, 1), p(0, 1, 1), p(0, 0, 1)) // top
	quad(p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)) // front
	quad(p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1)) // right
	quad(p(1, 1, 0), p(0, 1, 0), p(0, 1, 1), p(1, 1, 1)) // back
	quad(p(0, 1, 0), p(0, 0, 0), p(0, 0, 1), p(0, 1, 1)) // left
	return m
}
