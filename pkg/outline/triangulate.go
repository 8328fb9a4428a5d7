package outline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// ErrTriangulate is returned when ear clipping cannot finish a region
var ErrTriangulate = errors.New("polygon cannot be triangulated")

// Triangulate splits the region inside outer and outside every hole into
// triangles by ear clipping. Holes are joined to the outer ring through
// bridge edges first. Rings may have either winding and must not touch
// each other. The returned vertices are outer followed by each hole; every
// triangle indexes them counter-clockwise.
func Triangulate(outer []pcb.Position, holes [][]pcb.Position) ([]pcb.Position, [][3]int, error) {
	if len(outer) < 3 {
		return nil, nil, fmt.Errorf("%w: outer ring has %d vertices", ErrTriangulate, len(outer))
	}

	var verts []pcb.Position
	ring := func(pts []pcb.Position, ccw bool) []int {
		base := len(verts)
		verts = append(verts, pts...)
		idx := make([]int, len(pts))
		for i := range idx {
			idx[i] = base + i
		}
		if (SignedArea(pts) > 0) != ccw {
			for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
		return idx
	}

	poly := ring(outer, true)
	rings := make([][]int, 0, len(holes))
	for i, h := range holes {
		if len(h) < 3 {
			return nil, nil, fmt.Errorf("%w: hole %d has %d vertices", ErrTriangulate, i+1, len(h))
		}
		rings = append(rings, ring(h, false))
	}

	// rightmost holes first so that later bridges never cross earlier ones
	sort.SliceStable(rings, func(i, j int) bool {
		return verts[rings[i][rightmost(verts, rings[i])]].X > verts[rings[j][rightmost(verts, rings[j])]].X
	})
	for i, h := range rings {
		var err error
		if poly, err = bridge(verts, poly, h); err != nil {
			return nil, nil, fmt.Errorf("hole %d: %w", i+1, err)
		}
	}

	tris, err := earClip(verts, poly)
	if err != nil {
		return nil, nil, err
	}
	return verts, tris, nil
}

func orient(a, b, c pcb.Position) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func rightmost(v []pcb.Position, ring []int) int {
	k := 0
	for i := range ring {
		p, q := v[ring[i]], v[ring[k]]
		if p.X > q.X || (p.X == q.X && p.Y < q.Y) {
			k = i
		}
	}
	return k
}

// inTriangle includes the boundary
func inTriangle(p, a, b, c pcb.Position) bool {
	return orient(a, b, p) >= 0 && orient(b, c, p) >= 0 && orient(c, a, p) >= 0
}

// inCone reports whether q lies in the interior wedge at poly[i]
func inCone(v []pcb.Position, poly []int, i int, q pcb.Position) bool {
	n := len(poly)
	a, b, c := v[poly[(i+n-1)%n]], v[poly[i]], v[poly[(i+1)%n]]
	if orient(a, b, c) >= 0 {
		return orient(a, b, q) >= 0 && orient(b, c, q) >= 0
	}
	return orient(a, b, q) >= 0 || orient(b, c, q) >= 0
}

// bridge splices hole into poly through a mutually visible vertex pair:
// a ray from the rightmost hole vertex M towards +X hits the nearest
// upward edge, and the visible vertex is that edge's right end unless a
// polygon vertex inside the triangle shadows it.
func bridge(v []pcb.Position, poly, hole []int) ([]int, error) {
	hk := rightmost(v, hole)
	m := v[hole[hk]]

	edge := -1
	hitX := math.Inf(1)
	for i := range poly {
		a, b := v[poly[i]], v[poly[(i+1)%len(poly)]]
		if a.Y > m.Y || b.Y < m.Y || a.Y == b.Y {
			continue
		}
		x := a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x < m.X || x >= hitX {
			continue
		}
		hitX = x
		edge = i
	}
	if edge < 0 {
		return nil, fmt.Errorf("%w: hole is not inside the outer ring", ErrTriangulate)
	}

	hit := pcb.Position{X: hitX, Y: m.Y}
	pi := edge
	if next := (edge + 1) % len(poly); v[poly[next]].X > v[poly[pi]].X {
		pi = next
	}
	p := v[poly[pi]]

	if p != hit {
		best := math.Inf(1)
		bestD := math.Inf(1)
		lo, hi := hit, p
		if orient(m, lo, hi) < 0 {
			lo, hi = hi, lo
		}
		for i, idx := range poly {
			r := v[idx]
			if i == pi || r == m || r.X < m.X || !inTriangle(r, m, lo, hi) {
				continue
			}
			angle := math.Atan2(math.Abs(r.Y-m.Y), r.X-m.X)
			d := r.Distance2(m)
			if angle < best || (angle == best && d < bestD) {
				best, bestD, pi = angle, d, i
			}
		}
	}

	// a bridge vertex may occur more than once; use the copy facing M
	for i, idx := range poly {
		if idx == poly[pi] && inCone(v, poly, i, m) {
			pi = i
			break
		}
	}

	out := make([]int, 0, len(poly)+len(hole)+2)
	out = append(out, poly[:pi+1]...)
	out = append(out, hole[hk:]...)
	out = append(out, hole[:hk+1]...)
	out = append(out, poly[pi:]...)
	return out, nil
}

func earClip(v []pcb.Position, poly []int) ([][3]int, error) {
	idx := append([]int(nil), poly...)
	tris := make([][3]int, 0, len(idx))

	i, stall := 0, 0
	for len(idx) > 3 {
		n := len(idx)
		i %= n
		prev, next := (i+n-1)%n, (i+1)%n
		a, b, c := v[idx[prev]], v[idx[i]], v[idx[next]]

		area := orient(a, b, c)
		ear := area == 0
		if area > 0 {
			ear = true
			for k, j := range idx {
				if k == prev || k == i || k == next {
					continue
				}
				p := v[j]
				if p == a || p == b || p == c {
					continue
				}
				if inTriangle(p, a, b, c) {
					ear = false
					break
				}
			}
		}

		if !ear {
			i++
			if stall++; stall > n {
				return nil, fmt.Errorf("%w: no ear among %d vertices", ErrTriangulate, n)
			}
			continue
		}

		if area > 0 {
			tris = append(tris, [3]int{idx[prev], idx[i], idx[next]})
		}
		idx = append(idx[:i], idx[i+1:]...)
		stall = 0
		if i > 0 {
			i--
		}
	}

	if orient(v[idx[0]], v[idx[1]], v[idx[2]]) > 0 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris, nil
}

// ContainsPoint reports whether p is strictly inside ring by ray crossing.
// Points on the boundary may go either way.
func ContainsPoint(ring []pcb.Position, p pcb.Position) bool {
	in := false
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// RingsTouch reports whether any edge of a meets or crosses any edge of b
func RingsTouch(a, b []pcb.Position) bool {
	aMin, aMax := ringBox(a)
	bMin, bMax := ringBox(b)
	if aMax.X < bMin.X || bMax.X < aMin.X || aMax.Y < bMin.Y || bMax.Y < aMin.Y {
		return false
	}
	for i := range a {
		p, q := a[i], a[(i+1)%len(a)]
		for j := range b {
			r, s := b[j], b[(j+1)%len(b)]
			if segmentsMeet(p, q, r, s) {
				return true
			}
		}
	}
	return false
}

func ringBox(ring []pcb.Position) (min, max pcb.Position) {
	min = pcb.Position{X: math.Inf(1), Y: math.Inf(1)}
	max = pcb.Position{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range ring {
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	return min, max
}

func segmentsMeet(p, q, r, s pcb.Position) bool {
	if math.Max(p.X, q.X) < math.Min(r.X, s.X) || math.Max(r.X, s.X) < math.Min(p.X, q.X) ||
		math.Max(p.Y, q.Y) < math.Min(r.Y, s.Y) || math.Max(r.Y, s.Y) < math.Min(p.Y, q.Y) {
		return false
	}
	d1, d2 := orient(r, s, p), orient(r, s, q)
	d3, d4 := orient(p, q, r), orient(p, q, s)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	// collinear or touching at an end
	return (d1 == 0 && onSegment(r, s, p)) || (d2 == 0 && onSegment(r, s, q)) ||
		(d3 == 0 && onSegment(p, q, r)) || (d4 == 0 && onSegment(p, q, s))
}

func onSegment(a, b, p pcb.Position) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}
