package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

// stepWriter emits numbered Part 21 instances
type stepWriter struct {
	*errWriter
	next int
}

func (s *stepWriter) add(format string, args ...interface{}) int {
	s.next++
	s.printf("#%d=%s;\n", s.next, fmt.Sprintf(format, args...))
	return s.next
}

func stepString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func stepReal(v float64) string {
	s := strconv.FormatFloat(v, 'G', 12, 64)
	if !strings.ContainsAny(s, ".E") {
		s += "."
	} else if strings.Contains(s, "E") && !strings.Contains(s, ".") {
		s = strings.Replace(s, "E", ".E", 1)
	}
	return s
}

func stepRefs(ids []int) string {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = "#" + strconv.Itoa(id)
	}
	return "(" + strings.Join(refs, ",") + ")"
}

func (s *stepWriter) point(p v3.Vec) int {
	return s.add("CARTESIAN_POINT('',(%s,%s,%s))", stepReal(p.X), stepReal(p.Y), stepReal(p.Z))
}

func (s *stepWriter) direction(d v3.Vec) int {
	return s.add("DIRECTION('',(%s,%s,%s))", stepReal(d.X), stepReal(d.Y), stepReal(d.Z))
}

func (s *stepWriter) axis(f placement.Frame) int {
	o := s.point(f.Origin)
	z := s.direction(f.ZAxis)
	x := s.direction(f.XAxis)
	return s.add("AXIS2_PLACEMENT_3D('',#%d,#%d,#%d)", o, z, x)
}

// stepProduct holds the instance ids of a product that assembly relations
// refer to
type stepProduct struct {
	definition int
	shape      int
	rep        int
	origin     int
}

func (s *stepWriter) product(name string, items []int, brep bool, ctx stepContext) stepProduct {
	prod := s.add("PRODUCT(%s,%s,'',(#%d))", stepString(name), stepString(name), ctx.product)
	s.add("PRODUCT_RELATED_PRODUCT_CATEGORY('part',$,(#%d))", prod)
	formation := s.add("PRODUCT_DEFINITION_FORMATION('','',#%d)", prod)
	def := s.add("PRODUCT_DEFINITION('design','',#%d,#%d)", formation, ctx.definition)
	shape := s.add("PRODUCT_DEFINITION_SHAPE('','',#%d)", def)

	origin := s.axis(placement.FrameOf(identity))
	items = append(items, origin)
	kind := "SHAPE_REPRESENTATION"
	if brep {
		kind = "FACETED_BREP_SHAPE_REPRESENTATION"
	}
	rep := s.add("%s(%s,%s,#%d)", kind, stepString(name), stepRefs(items), ctx.geometry)
	s.add("SHAPE_DEFINITION_REPRESENTATION(#%d,#%d)", shape, rep)
	return stepProduct{definition: def, shape: shape, rep: rep, origin: origin}
}

// brep writes a mesh as a faceted B-rep of triangular poly loops. Vertices
// are shared through their exact float32 coordinates.
func (s *stepWriter) brep(name string, m *kernel.Mesh) int {
	points := make(map[[3]float32]int)
	pointID := func(i uint32) int {
		k := [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
		if id, ok := points[k]; ok {
			return id
		}
		id := s.point(v3.Vec{X: float64(k[0]), Y: float64(k[1]), Z: float64(k[2])})
		points[k] = id
		return id
	}

	faces := make([]int, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		a := pointID(m.Indices[t*3])
		b := pointID(m.Indices[t*3+1])
		c := pointID(m.Indices[t*3+2])
		if a == b || b == c || a == c {
			continue
		}
		loop := s.add("POLY_LOOP('',(#%d,#%d,#%d))", a, b, c)
		bound := s.add("FACE_OUTER_BOUND('',#%d,.T.)", loop)
		faces = append(faces, s.add("FACE('',(#%d))", bound))
	}
	shell := s.add("CLOSED_SHELL('',%s)", stepRefs(faces))
	return s.add("FACETED_BREP(%s,#%d)", stepString(name), shell)
}

type stepContext struct {
	product    int
	definition int
	geometry   int
}

func (s *stepWriter) contexts() stepContext {
	app := s.add("APPLICATION_CONTEXT('automotive design')")
	s.add("APPLICATION_PROTOCOL_DEFINITION('international standard','automotive_design',2000,#%d)", app)
	prod := s.add("PRODUCT_CONTEXT('',#%d,'mechanical')", app)
	def := s.add("PRODUCT_DEFINITION_CONTEXT('part definition',#%d,'design')", app)
	length := s.add("(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.))")
	angle := s.add("(NAMED_UNIT(*)PLANE_ANGLE_UNIT()SI_UNIT($,.RADIAN.))")
	solid := s.add("(NAMED_UNIT(*)SI_UNIT($,.STERADIAN.)SOLID_ANGLE_UNIT())")
	unc := s.add("UNCERTAINTY_MEASURE_WITH_UNIT(LENGTH_MEASURE(1.E-07),#%d,'distance_accuracy_value','confusion accuracy')", length)
	geom := s.add("(GEOMETRIC_REPRESENTATION_CONTEXT(3)GLOBAL_UNCERTAINTY_ASSIGNED_CONTEXT((#%d))"+
		"GLOBAL_UNIT_ASSIGNED_CONTEXT((#%d,#%d,#%d))REPRESENTATION_CONTEXT('Context #1','3D Context with UNIT and UNCERTAINTY'))",
		unc, length, angle, solid)
	return stepContext{product: prod, definition: def, geometry: geom}
}

// WriteSTEP encodes the assembly as an AP214 Part 21 file. The board and
// each distinct component model become faceted B-rep products; component
// instances are placed in a root assembly product.
func WriteSTEP(w io.Writer, a *kernel.Assembly) error {
	return writeSTEP(w, a, time.Now())
}

func writeSTEP(w io.Writer, a *kernel.Assembly, now time.Time) error {
	parts, instances := splitAssembly(a)
	name := parts[0].name

	s := &stepWriter{errWriter: &errWriter{w: w}}
	s.printf("ISO-10303-21;\nHEADER;\n")
	s.printf("FILE_DESCRIPTION(('KiCad board assembly'),'2;1');\n")
	s.printf("FILE_NAME(%s,'%s',(''),(''),'kicad2mcad','kicad2mcad','');\n",
		stepString(name), now.UTC().Format("2006-01-02T15:04:05"))
	s.printf("FILE_SCHEMA(('AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }'));\n")
	s.printf("ENDSEC;\nDATA;\n")

	ctx := s.contexts()

	root := s.product(name+"_assembly", nil, false, ctx)

	products := make([]stepProduct, len(parts))
	for i, p := range parts {
		brep := s.brep(p.name, p.mesh)
		products[i] = s.product(p.name, []int{brep}, true, ctx)
	}

	for i, inst := range instances {
		child := products[inst.part]
		target := s.axis(inst.frame)
		xform := s.add("ITEM_DEFINED_TRANSFORMATION('','',#%d,#%d)", child.origin, target)
		usage := s.add("NEXT_ASSEMBLY_USAGE_OCCURRENCE('%d',%s,'',#%d,#%d,$)",
			i+1, stepString(inst.refdes), root.definition, child.definition)
		shape := s.add("PRODUCT_DEFINITION_SHAPE('','',#%d)", usage)
		rel := s.add("(REPRESENTATION_RELATIONSHIP('','',#%d,#%d)"+
			"REPRESENTATION_RELATIONSHIP_WITH_TRANSFORMATION(#%d)SHAPE_REPRESENTATION_RELATIONSHIP())",
			child.rep, root.rep, xform)
		s.add("CONTEXT_DEPENDENT_SHAPE_REPRESENTATION(#%d,#%d)", rel, shape)
	}

	s.printf("ENDSEC;\nEND-ISO-10303-21;\n")
	return s.err
}
