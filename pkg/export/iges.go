package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

// IGES fixed-format layout
const (
	igesDataCols  = 72
	igesParamCols = 64
)

// IGES entity types used by the writer
const (
	igesPolyline  = 106 // copious data, form 12: 3D piecewise linear curve
	igesTransform = 124
)

type igesEntity struct {
	kind      int
	form      int
	params    []string
	transform int // directory sequence of a 124 entity, or 0
	label     string
	subscript int
}

type igesWriter struct {
	entities []igesEntity
}

// add stores an entity and returns its directory sequence number
func (g *igesWriter) add(e igesEntity) int {
	g.entities = append(g.entities, e)
	return 2*len(g.entities) - 1
}

func igesReal(v float64) string {
	s := strconv.FormatFloat(v, 'G', 12, 64)
	if !strings.ContainsAny(s, ".E") {
		s += "."
	}
	return s
}

// hollerith encodes a string constant
func hollerith(s string) string {
	return fmt.Sprintf("%dH%s", len(s), s)
}

func (g *igesWriter) frame(f placement.Frame) int {
	p := make([]string, 0, 12)
	for _, row := range [3][4]float64{
		{f.XAxis.X, f.YAxis.X, f.ZAxis.X, f.Origin.X},
		{f.XAxis.Y, f.YAxis.Y, f.ZAxis.Y, f.Origin.Y},
		{f.XAxis.Z, f.YAxis.Z, f.ZAxis.Z, f.Origin.Z},
	} {
		for _, v := range row {
			p = append(p, igesReal(v))
		}
	}
	return g.add(igesEntity{kind: igesTransform, params: p})
}

func (g *igesWriter) mesh(m *kernel.Mesh, transform int, label string) {
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		p := []string{"2", "4"}
		for _, i := range []int{0, 1, 2, 0} {
			p = append(p, igesReal(tri[i].X), igesReal(tri[i].Y), igesReal(tri[i].Z))
		}
		g.add(igesEntity{
			kind:      igesPolyline,
			form:      12,
			params:    p,
			transform: transform,
			label:     label,
			subscript: t + 1,
		})
	}
}

// igesSection numbers lines of one section
type igesSection struct {
	letter byte
	lines  []string
}

func (s *igesSection) line(data string) {
	s.lines = append(s.lines, fmt.Sprintf("%-*s%c%7d", igesDataCols, data, s.letter, len(s.lines)+1))
}

// wrapParams joins parameter tokens into lines of at most cols characters,
// breaking between tokens
func wrapParams(tokens []string, sep, end string, cols int) []string {
	var lines []string
	var cur strings.Builder
	for i, tok := range tokens {
		tok += sep
		if i == len(tokens)-1 {
			tok = tokens[i] + end
		}
		for len(tok) > cols {
			// hollerith strings longer than a line must be split
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			lines = append(lines, tok[:cols])
			tok = tok[cols:]
		}
		if cur.Len()+len(tok) > cols {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		cur.WriteString(tok)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// WriteIGES encodes the assembly as an IGES 5.3 file. Each mesh triangle is
// written as a closed polyline; component geometry is written once per
// instance in model coordinates under a transformation matrix entity.
func WriteIGES(w io.Writer, a *kernel.Assembly) error {
	return writeIGES(w, a, time.Now())
}

func writeIGES(w io.Writer, a *kernel.Assembly, now time.Time) error {
	parts, instances := splitAssembly(a)
	g := &igesWriter{}

	g.mesh(parts[0].mesh, 0, parts[0].name)
	for _, inst := range instances[1:] {
		xf := g.frame(inst.frame)
		g.mesh(parts[inst.part].mesh, xf, inst.refdes)
	}

	start := &igesSection{letter: 'S'}
	start.line("KiCad board assembly " + parts[0].name)

	stamp := now.UTC().Format("20060102.150405")
	file := parts[0].name + ".igs"
	global := &igesSection{letter: 'G'}
	for _, l := range wrapParams([]string{
		"1H,", "1H;", hollerith(parts[0].name), hollerith(file),
		hollerith("kicad2mcad"), hollerith("kicad2mcad"),
		"32", "38", "6", "308", "15", hollerith(parts[0].name),
		"1.", "2", "2HMM", "1", "1.", hollerith(stamp), "1.E-06",
		igesReal(maxCoordinate(parts, instances)), "0H", "0H", "11", "0", hollerith(stamp),
	}, ",", ";", igesDataCols) {
		global.line(l)
	}

	dir := &igesSection{letter: 'D'}
	param := &igesSection{letter: 'P'}
	for i, e := range g.entities {
		seq := 2*i + 1
		first := len(param.lines) + 1
		tokens := append([]string{strconv.Itoa(e.kind)}, e.params...)
		for _, l := range wrapParams(tokens, ",", ";", igesParamCols) {
			param.line(fmt.Sprintf("%-*s%8d", igesParamCols, l, seq))
		}
		count := len(param.lines) - first + 1

		label := e.label
		if len(label) > 8 {
			label = label[:8]
		}
		dir.line(fmt.Sprintf("%8d%8d%8d%8d%8d%8d%8d%8d%8s",
			e.kind, first, 0, 0, 0, 0, e.transform, 0, "00000000"))
		dir.line(fmt.Sprintf("%8d%8d%8d%8d%8d%8s%8s%8s%8d",
			e.kind, 0, 0, count, e.form, "", "", label, e.subscript))
	}

	ew := &errWriter{w: w}
	for _, s := range []*igesSection{start, global, dir, param} {
		for _, l := range s.lines {
			ew.printf("%s\n", l)
		}
	}
	term := fmt.Sprintf("S%7dG%7dD%7dP%7d", len(start.lines), len(global.lines), len(dir.lines), len(param.lines))
	ew.printf("%-*sT%7d\n", igesDataCols, term, 1)
	return ew.err
}

func maxCoordinate(parts []part, instances []instance) float64 {
	var max float64
	grow := func(v float64) {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	for _, p := range parts {
		lo, hi := p.mesh.Bounds()
		for _, v := range []float64{lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z} {
			grow(v)
		}
	}
	for _, inst := range instances {
		grow(inst.frame.Origin.X)
		grow(inst.frame.Origin.Y)
		grow(inst.frame.Origin.Z)
	}
	return max
}
