package kernel

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Model is a loaded component model. STL files are loaded as meshes; STEP
// and IGES files are reduced to the bounding box of their points.
type Model struct {
	Path   string
	Format Format
	Mesh   *Mesh
	Proxy  bool // Mesh is a bounding box stand-in
}

// Component is a model instance placed in board world space
type Component struct {
	RefDes    string
	Model     *Model
	Transform sdf.M44
}

// Mesh returns the component geometry in world space
func (c *Component) Mesh() *Mesh {
	m := c.Model.Mesh.Transformed(c.Transform)
	m.PartName = c.RefDes
	return m
}

// Assembly is the exported result: the board body and its components
type Assembly struct {
	Name       string
	Board      *Mesh
	Components []*Component
}

// ReadModel loads a model file of a known format into a Model. It is shared
// by kernel implementations as the body of LoadModel.
func ReadModel(path string) (*Model, error) {
	format, err := SniffFormat(path)
	if err != nil {
		return nil, err
	}

	model := &Model{Path: path, Format: format}
	switch format {
	case FormatSTL:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open model: %w", err)
		}
		defer f.Close()
		model.Mesh, err = ReadSTL(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read STL %s: %w", path, err)
		}
	case FormatSTEP:
		model.Mesh, err = proxyMesh(path, scanSTEPPoints)
		model.Proxy = true
	case FormatIGES:
		model.Mesh, err = proxyMesh(path, scanIGESPoints)
		model.Proxy = true
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, format)
	}
	if err != nil {
		return nil, err
	}
	if model.Mesh.IsEmpty() {
		return nil, fmt.Errorf("%w: no geometry in %s", ErrKernel, path)
	}
	model.Mesh.PartName = baseName(path)
	return model, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

type pointScanner func(line string, emit func(v3.Vec))

func proxyMesh(path string, scan pointScanner) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	min := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	n := 0
	emit := func(p v3.Vec) {
		min = v3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = v3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
		n++
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		scan(sc.Text(), emit)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if n == 0 {
		return &Mesh{}, nil
	}
	return BoxMesh(min, max, ""), nil
}

var cartesianPoint = regexp.MustCompile(`CARTESIAN_POINT\s*\(\s*'[^']*'\s*,\s*\(([^)]*)\)`)

// scanSTEPPoints collects CARTESIAN_POINT coordinates from a Part 21 line
func scanSTEPPoints(line string, emit func(v3.Vec)) {
	for _, m := range cartesianPoint.FindAllStringSubmatch(line, -1) {
		if p, ok := parseCoords(strings.Split(m[1], ",")); ok {
			emit(p)
		}
	}
}

// scanIGESPoints collects parameter data of point (116) and line (110)
// entities. Only records that fit on one parameter line are considered.
func scanIGESPoints(line string, emit func(v3.Vec)) {
	if len(line) < 73 || line[72] != 'P' {
		return
	}
	data := strings.TrimSpace(line[:64])
	data = strings.TrimRight(data, ";")
	fields := strings.Split(data, ",")
	if len(fields) < 4 {
		return
	}
	switch strings.TrimSpace(fields[0]) {
	case "116":
		if p, ok := parseCoords(fields[1:4]); ok {
			emit(p)
		}
	case "110":
		if len(fields) < 7 {
			return
		}
		if p, ok := parseCoords(fields[1:4]); ok {
			emit(p)
		}
		if p, ok := parseCoords(fields[4:7]); ok {
			emit(p)
		}
	}
}

func parseCoords(fields []string) (v3.Vec, bool) {
	if len(fields) < 3 {
		return v3.Vec{}, false
	}
	var c [3]float64
	for i := 0; i < 3; i++ {
		s := strings.TrimSpace(fields[i])
		s = strings.Replace(strings.Replace(s, "D", "E", 1), "d", "e", 1)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return v3.Vec{}, false
		}
		c[i] = v
	}
	return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, true
}
