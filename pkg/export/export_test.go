package export

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
)

func testAssembly() *kernel.Assembly {
	board := kernel.BoxMesh(v3.Vec{}, v3.Vec{X: 20, Y: 10, Z: 1.6}, "demo")
	model := &kernel.Model{
		Path:   "/lib/R_0805.step",
		Format: kernel.FormatSTEP,
		Mesh:   kernel.BoxMesh(v3.Vec{X: -1, Y: -0.6}, v3.Vec{X: 1, Y: 0.6, Z: 0.5}, "R_0805.step"),
		Proxy:  true,
	}
	return &kernel.Assembly{
		Name:  "demo",
		Board: board,
		Components: []*kernel.Component{
			{RefDes: "R1", Model: model, Transform: sdf.Translate3d(v3.Vec{X: 5, Y: 5, Z: 1.65})},
			{RefDes: "R2", Model: model, Transform: sdf.Translate3d(v3.Vec{X: 15, Y: 5, Z: 1.65}).Mul(sdf.RotateZ(math.Pi / 2))},
		},
	}
}

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"step", FormatSTEP, false},
		{".stp", FormatSTEP, false},
		{"IGES", FormatIGES, false},
		{"igs", FormatIGES, false},
		{"stl", FormatSTL, false},
		{"vrml", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/tmp/board.kicad_pcb", FormatSTEP); got != "/tmp/board.stp" {
		t.Errorf("OutputPath(STEP) = %q", got)
	}
	if got := OutputPath("board.kicad_pcb", FormatIGES); got != "board.igs" {
		t.Errorf("OutputPath(IGES) = %q", got)
	}
}

func TestSplitAssemblySharesParts(t *testing.T) {
	parts, instances := splitAssembly(testAssembly())
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2 (board + one shared model)", len(parts))
	}
	if len(instances) != 3 {
		t.Fatalf("got %d instances, want 3", len(instances))
	}
	if instances[1].part != instances[2].part {
		t.Error("R1 and R2 should share a part")
	}
	if parts[1].name != "R_0805" {
		t.Errorf("part name = %q, want R_0805", parts[1].name)
	}
	if o := instances[2].frame.Origin; math.Abs(o.X-15) > 1e-9 || math.Abs(o.Z-1.65) > 1e-9 {
		t.Errorf("R2 origin = %v", o)
	}
	if x := instances[2].frame.XAxis; math.Abs(x.Y-1) > 1e-9 {
		t.Errorf("R2 x axis = %v, want +Y", x)
	}
}

func TestSplitAssemblyBakesScale(t *testing.T) {
	a := testAssembly()
	a.Components[0].Transform = sdf.Translate3d(v3.Vec{X: 5}).Mul(sdf.Scale3d(v3.Vec{X: 2, Y: 2, Z: 2}))
	parts, instances := splitAssembly(a)
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	_, hi := parts[instances[1].part].mesh.Bounds()
	if math.Abs(hi.X-2) > 1e-6 {
		t.Errorf("scaled part max X = %v, want 2", hi.X)
	}
}

func TestWriteSTEP(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSTEP(&buf, testAssembly(), fixedTime); err != nil {
		t.Fatalf("WriteSTEP() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"ISO-10303-21;",
		"FILE_SCHEMA(('AUTOMOTIVE_DESIGN",
		"'2024-03-01T12:00:00'",
		"PRODUCT('demo','demo'",
		"PRODUCT('R_0805','R_0805'",
		"FACETED_BREP('demo'",
		"NEXT_ASSEMBLY_USAGE_OCCURRENCE('2','R1'",
		"NEXT_ASSEMBLY_USAGE_OCCURRENCE('3','R2'",
		"END-ISO-10303-21;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("STEP output missing %q", want)
		}
	}
	// one brep per distinct part
	if n := strings.Count(out, "FACETED_BREP("); n != 2 {
		t.Errorf("got %d FACETED_BREP, want 2", n)
	}
	// 12 triangles per box
	if n := strings.Count(out, "POLY_LOOP("); n != 24 {
		t.Errorf("got %d POLY_LOOP, want 24", n)
	}
	// box corners are shared between faces
	if n := strings.Count(out, "CARTESIAN_POINT("); n > 8+8+10 {
		t.Errorf("got %d CARTESIAN_POINT, vertices are not shared", n)
	}

	// the output is readable by the model loader
	path := filepath.Join(t.TempDir(), "out.step")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if f, err := kernel.SniffFormat(path); err != nil || f != kernel.FormatSTEP {
		t.Errorf("SniffFormat() = %v, %v; want STEP", f, err)
	}
}

func TestStepReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0."},
		{1.5, "1.5"},
		{-20, "-20."},
		{1e-20, "1.E-20"},
	}
	for _, tt := range tests {
		if got := stepReal(tt.in); got != tt.want {
			t.Errorf("stepReal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteIGES(t *testing.T) {
	var buf bytes.Buffer
	if err := writeIGES(&buf, testAssembly(), fixedTime); err != nil {
		t.Fatalf("WriteIGES() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	counts := map[byte]int{}
	for i, l := range lines {
		if len(l) != 80 {
			t.Fatalf("line %d has %d columns: %q", i+1, len(l), l)
		}
		counts[l[72]]++
	}

	// board 12 + two instances of 12 triangles, plus two transforms
	if want := 2 * (12 + 12 + 12 + 2); counts['D'] != want {
		t.Errorf("got %d directory lines, want %d", counts['D'], want)
	}
	if counts['T'] != 1 || counts['S'] != 1 {
		t.Errorf("section counts = %v", counts)
	}

	term := lines[len(lines)-1]
	if !strings.HasPrefix(term, "S      1G") {
		t.Errorf("terminate line = %q", term)
	}
	if !strings.HasPrefix(lines[1], "1H,,1H;,") {
		t.Errorf("global section = %q", lines[1])
	}
	if !strings.Contains(buf.String(), "124,") {
		t.Error("missing transformation matrix entity")
	}

	path := filepath.Join(t.TempDir(), "out.igs")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if f, err := kernel.SniffFormat(path); err != nil || f != kernel.FormatIGES {
		t.Errorf("SniffFormat() = %v, %v; want IGES", f, err)
	}
}

func TestWrapParams(t *testing.T) {
	lines := wrapParams([]string{"106", "2", "4", "1.25", "2.5"}, ",", ";", 8)
	want := []string{"106,2,4,", "1.25,", "2.5;"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapParams() = %q, want %q", lines, want)
	}
}

func TestWriteSTLRoundTrip(t *testing.T) {
	for _, binaryFormat := range []bool{false, true} {
		var buf bytes.Buffer
		if err := WriteSTL(&buf, testAssembly(), binaryFormat); err != nil {
			t.Fatalf("WriteSTL(binary=%v) error = %v", binaryFormat, err)
		}
		m, err := kernel.ReadSTL(&buf)
		if err != nil {
			t.Fatalf("ReadSTL(binary=%v) error = %v", binaryFormat, err)
		}
		if m.TriangleCount() != 36 {
			t.Errorf("binary=%v: TriangleCount() = %d, want 36", binaryFormat, m.TriangleCount())
		}
		// R2 is rotated onto the Y axis around x=15
		_, hi := m.Bounds()
		if math.Abs(hi.Z-2.15) > 1e-4 {
			t.Errorf("binary=%v: max Z = %v, want 2.15", binaryFormat, hi.Z)
		}
	}
}

func TestWriteOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.stp")
	a := testAssembly()

	if err := Write(a, FormatSTEP, path, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := Write(a, FormatSTEP, path, false); !errors.Is(err, ErrExists) {
		t.Errorf("second Write() error = %v, want ErrExists", err)
	}
	if err := Write(a, FormatSTEP, path, true); err != nil {
		t.Errorf("Write(overwrite) error = %v", err)
	}
	if err := Write(&kernel.Assembly{}, FormatSTL, filepath.Join(t.TempDir(), "x.stl"), true); !errors.Is(err, kernel.ErrKernel) {
		t.Errorf("empty Write() error = %v, want ErrKernel", err)
	}
}

func TestWriteFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.stp")
	if err := Write(testAssembly(), FormatSTEP, path, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := Write(&kernel.Assembly{}, FormatSTL, path, true); !errors.Is(err, kernel.ErrKernel) {
		t.Fatalf("failed Write() error = %v, want ErrKernel", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("previous output is gone: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("previous output was modified by a failed write")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only board.stp", names)
	}
}
