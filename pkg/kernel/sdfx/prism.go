package sdfx

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
)

// prism is the exact boundary of a straight extrusion: the region inside
// outer and outside every hole, between z0 and z1. Solids keep one next to
// their SDF for as long as every operation preserves that shape.
type prism struct {
	outer  []pcb.Position
	holes  [][]pcb.Position
	z0, z1 float64
}

func (p *prism) mapped(fn func(pcb.Position) pcb.Position, dz float64) *prism {
	mapRing := func(ring []pcb.Position) []pcb.Position {
		out := make([]pcb.Position, len(ring))
		for i, q := range ring {
			out[i] = fn(q)
		}
		return out
	}
	out := &prism{outer: mapRing(p.outer), z0: p.z0 + dz, z1: p.z1 + dz}
	for _, h := range p.holes {
		out.holes = append(out.holes, mapRing(h))
	}
	return out
}

func (p *prism) translated(x, y, z float64) *prism {
	return p.mapped(func(q pcb.Position) pcb.Position {
		return pcb.Position{X: q.X + x, Y: q.Y + y}
	}, z)
}

func (p *prism) rotated(angle float64) *prism {
	sin, cos := math.Sincos(angle)
	return p.mapped(func(q pcb.Position) pcb.Position {
		return pcb.Position{X: q.X*cos - q.Y*sin, Y: q.X*sin + q.Y*cos}
	}, 0)
}

// drilled returns p with every tool punched through as a hole, or nil when
// a tool is not a through cut or touches the outline or another hole
func (p *prism) drilled(tools []*prism) *prism {
	out := &prism{outer: p.outer, holes: append([][]pcb.Position(nil), p.holes...), z0: p.z0, z1: p.z1}
	for _, t := range tools {
		if t == nil || len(t.holes) > 0 || t.z0 > p.z0 || t.z1 < p.z1 {
			return nil
		}
		ring := t.outer
		if !outline.ContainsPoint(p.outer, ring[0]) || outline.RingsTouch(p.outer, ring) {
			return nil
		}
		for _, h := range out.holes {
			if outline.RingsTouch(h, ring) || outline.ContainsPoint(h, ring[0]) || outline.ContainsPoint(ring, h[0]) {
				return nil
			}
		}
		out.holes = append(out.holes, ring)
	}
	return out
}

// mesh builds the closed surface: triangulated caps and one quad per ring
// edge, all facing out of the material
func (p *prism) mesh() (*kernel.Mesh, error) {
	verts, tris, err := outline.Triangulate(p.outer, p.holes)
	if err != nil {
		return nil, err
	}

	at := func(q pcb.Position, z float64) v3.Vec { return v3.Vec{X: q.X, Y: q.Y, Z: z} }

	m := &kernel.Mesh{}
	for _, t := range tris {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		m.AddTriangle(at(a, p.z1), at(b, p.z1), at(c, p.z1))
		m.AddTriangle(at(c, p.z0), at(b, p.z0), at(a, p.z0))
	}

	wall := func(ring []pcb.Position, ccw bool) {
		n := len(ring)
		reverse := (outline.SignedArea(ring) > 0) != ccw
		for i := 0; i < n; i++ {
			a, b := ring[i], ring[(i+1)%n]
			if reverse {
				a, b = ring[(n-i)%n], ring[n-1-i]
			}
			m.AddTriangle(at(a, p.z0), at(b, p.z0), at(b, p.z1))
			m.AddTriangle(at(b, p.z1), at(a, p.z1), at(a, p.z0))
		}
	}
	wall(p.outer, true)
	for _, h := range p.holes {
		wall(h, false)
	}
	return m, nil
}
