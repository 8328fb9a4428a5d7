package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
)

// worldMeshes returns the board and every component in world coordinates
func worldMeshes(a *kernel.Assembly) []*kernel.Mesh {
	meshes := []*kernel.Mesh{a.Board}
	for _, c := range a.Components {
		if c != nil && c.Model != nil && c.Model.Mesh != nil {
			meshes = append(meshes, c.Mesh())
		}
	}
	return meshes
}

// WriteSTL writes the whole assembly as one STL solid. STL has no notion of
// parts, so components are merged with the board in world coordinates.
func WriteSTL(w io.Writer, a *kernel.Assembly, binaryFormat bool) error {
	meshes := worldMeshes(a)
	if binaryFormat {
		return writeBinarySTL(w, a.Name, meshes)
	}
	return writeASCIISTL(w, a.Name, meshes)
}

func writeASCIISTL(w io.Writer, name string, meshes []*kernel.Mesh) error {
	if name == "" {
		name = "board"
	}
	ew := &errWriter{w: w}
	ew.printf("solid %s\n", name)
	for _, m := range meshes {
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
			if l := n.Length(); l > 0 {
				n = n.DivScalar(l)
			}
			ew.printf("facet normal %g %g %g\n", n.X, n.Y, n.Z)
			ew.printf("  outer loop\n")
			for _, p := range tri {
				ew.printf("    vertex %f %f %f\n", p.X, p.Y, p.Z)
			}
			ew.printf("  endloop\n")
			ew.printf("endfacet\n")
		}
	}
	ew.printf("endsolid %s\n", name)
	return ew.err
}

func writeBinarySTL(w io.Writer, name string, meshes []*kernel.Mesh) error {
	var total int
	for _, m := range meshes {
		total += m.TriangleCount()
	}
	if int64(total) > math.MaxUint32 {
		return fmt.Errorf("too many triangles for binary STL: %d", total)
	}

	header := make([]byte, 84)
	copy(header, "kicad2mcad "+name)
	binary.LittleEndian.PutUint32(header[80:], uint32(total))
	if _, err := w.Write(header); err != nil {
		return err
	}

	rec := make([]byte, 50)
	put := func(off int, v float64) {
		binary.LittleEndian.PutUint32(rec[off:], math.Float32bits(float32(v)))
	}
	for _, m := range meshes {
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
			if l := n.Length(); l > 0 {
				n = n.DivScalar(l)
			}
			put(0, n.X)
			put(4, n.Y)
			put(8, n.Z)
			for j, p := range tri {
				put(12+j*12, p.X)
				put(16+j*12, p.Y)
				put(20+j*12, p.Z)
			}
			if _, err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
