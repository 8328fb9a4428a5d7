package outline

import (
	"fmt"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// Role classifies a closed loop
type Role int

const (
	RoleOuter  Role = iota // board boundary
	RoleCutout             // subtracted from the board
)

func (r Role) String() string {
	if r == RoleOuter {
		return "outer"
	}
	return "cutout"
}

// Loop is a closed chain of curves in traversal order
type Loop struct {
	Curves []pcb.Curve
	Role   Role
}

// DroppedLoop records a chain that could not be closed
type DroppedLoop struct {
	Curves []pcb.Curve
	Reason string
}

func (d DroppedLoop) String() string {
	if len(d.Curves) == 0 {
		return d.Reason
	}
	first := d.Curves[0].StartPoint()
	last := d.Curves[len(d.Curves)-1].EndPoint()
	return fmt.Sprintf("%s: %d segment(s) from (%.4f, %.4f) to (%.4f, %.4f)",
		d.Reason, len(d.Curves), first.X, first.Y, last.X, last.Y)
}

// Result is the outcome of stitching a curve pool
type Result struct {
	Loops   []Loop
	Dropped []DroppedLoop
}

// Outer returns the board boundary, or nil when no loop closed
func (r *Result) Outer() *Loop {
	for i := range r.Loops {
		if r.Loops[i].Role == RoleOuter {
			return &r.Loops[i]
		}
	}
	return nil
}

// Cutouts returns every loop other than the boundary
func (r *Result) Cutouts() []Loop {
	var out []Loop
	for _, l := range r.Loops {
		if l.Role == RoleCutout {
			out = append(out, l)
		}
	}
	return out
}

// Assemble stitches pool into closed loops. The pool is not modified.
//
// The first loop is seeded with the curve reaching furthest left, which
// must lie on the board boundary; that loop is emitted as RoleOuter and all
// later loops as RoleCutout. Chains that cannot be closed are dropped and
// reported. Until a boundary has been emitted, every new loop is seeded
// with the leftmost remaining curve.
func Assemble(pool []pcb.Curve, tol2 float64) Result {
	var result Result

	remaining := make([]pcb.Curve, len(pool))
	copy(remaining, pool)

	take := func(i int) pcb.Curve {
		c := remaining[i]
		remaining = append(remaining[:i], remaining[i+1:]...)
		return c
	}

	seed := func(ol *Outline) {
		idx := 0
		if result.Outer() == nil {
			idx = leftmostIndex(remaining)
		}
		ol.TryAttach(take(idx))
	}

	if len(remaining) == 0 {
		return result
	}

	ol := New(tol2)
	seed(ol)

	for {
		if ol.IsClosed() {
			role := RoleCutout
			if result.Outer() == nil {
				role = RoleOuter
			}
			result.Loops = append(result.Loops, Loop{Curves: ol.Curves(), Role: role})
			ol.Clear()

			if len(remaining) == 0 {
				break
			}
			seed(ol)
			continue
		}

		attached := false
		for i := range remaining {
			if ol.TryAttach(remaining[i]) {
				take(i)
				attached = true
				break
			}
		}
		if attached {
			continue
		}

		result.Dropped = append(result.Dropped, DroppedLoop{
			Curves: ol.Curves(),
			Reason: "could not close outline",
		})
		ol.Clear()

		if len(remaining) == 0 {
			break
		}
		seed(ol)
	}

	return result
}
