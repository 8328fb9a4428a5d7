// Package export writes a board assembly to mechanical exchange formats.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

var identity = sdf.Identity3d()

// ErrExists is returned when the output file exists and overwrite is off
var ErrExists = errors.New("output file exists")

// Format selects the output encoding
type Format int

const (
	FormatSTEP Format = iota
	FormatIGES
	FormatSTL
)

func (f Format) String() string {
	switch f {
	case FormatSTEP:
		return "STEP"
	case FormatIGES:
		return "IGES"
	case FormatSTL:
		return "STL"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the default file extension, including the dot
func (f Format) Extension() string {
	switch f {
	case FormatIGES:
		return ".igs"
	case FormatSTL:
		return ".stl"
	default:
		return ".stp"
	}
}

// ParseFormat maps a format name or file extension to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "step", "stp":
		return FormatSTEP, nil
	case "iges", "igs":
		return FormatIGES, nil
	case "stl":
		return FormatSTL, nil
	}
	return 0, fmt.Errorf("unknown output format %q", name)
}

// OutputPath replaces the board file extension with the format's
func OutputPath(boardPath string, f Format) string {
	return strings.TrimSuffix(boardPath, filepath.Ext(boardPath)) + f.Extension()
}

// Write encodes the assembly into path. An existing file is only replaced
// when overwrite is set.
func Write(a *kernel.Assembly, f Format, path string, overwrite bool) error {
	if a == nil || a.Board == nil || a.Board.IsEmpty() {
		return fmt.Errorf("%w: nothing to export", kernel.ErrKernel)
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	// the target is only replaced once the new file is complete
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmp := file.Name()

	w := bufio.NewWriter(file)
	switch f {
	case FormatSTEP:
		err = WriteSTEP(w, a)
	case FormatIGES:
		err = WriteIGES(w, a)
	case FormatSTL:
		err = WriteSTL(w, a, true)
	default:
		err = fmt.Errorf("unknown output format %v", f)
	}
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = file.Chmod(0o644)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s %s: %w", f, path, err)
	}
	return nil
}

// part is one distinct piece of geometry in model-local coordinates
type part struct {
	name string
	mesh *kernel.Mesh
}

// instance places a part in the assembly
type instance struct {
	refdes string
	part   int
	frame  placement.Frame
}

// splitAssembly separates each component transform into a scale, baked
// into the part geometry, and a rigid frame. Components sharing a model and
// scale share a part.
func splitAssembly(a *kernel.Assembly) ([]part, []instance) {
	parts := []part{{name: a.Name, mesh: a.Board}}
	if parts[0].name == "" {
		parts[0].name = "board"
	}
	instances := []instance{{refdes: parts[0].name, part: 0, frame: placement.FrameOf(identity)}}

	type key struct {
		model *kernel.Model
		scale v3.Vec
	}
	seen := make(map[key]int)

	for _, c := range a.Components {
		if c == nil || c.Model == nil || c.Model.Mesh == nil {
			continue
		}
		scale := transformScale(c.Transform)
		k := key{c.Model, scale}
		idx, ok := seen[k]
		if !ok {
			mesh := c.Model.Mesh
			if scale != (v3.Vec{X: 1, Y: 1, Z: 1}) {
				mesh = mesh.Transformed(sdf.Scale3d(scale))
			}
			idx = len(parts)
			parts = append(parts, part{name: partName(c.Model), mesh: mesh})
			seen[k] = idx
		}
		instances = append(instances, instance{
			refdes: c.RefDes,
			part:   idx,
			frame:  placement.FrameOf(c.Transform),
		})
	}
	return parts, instances
}

func partName(m *kernel.Model) string {
	name := filepath.Base(m.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// transformScale recovers the per-axis scale of a rotation*scale transform
func transformScale(m sdf.M44) v3.Vec {
	o := m.MulPosition(v3.Vec{})
	length := func(v v3.Vec) float64 {
		l := m.MulPosition(v).Sub(o).Length()
		if math.Abs(l-1) < 1e-9 {
			return 1
		}
		return l
	}
	return v3.Vec{X: length(v3.Vec{X: 1}), Y: length(v3.Vec{Y: 1}), Z: length(v3.Vec{Z: 1})}
}

// errWriter tracks the first write error so encoders can check once
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
