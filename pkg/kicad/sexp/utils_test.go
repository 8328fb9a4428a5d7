package sexp

import (
	"errors"
	"math"
	"testing"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// Helper to parse s-expression from string
func parseSexp(t *testing.T, input string) kicadsexp.Sexp {
	t.Helper()
	sexps, err := kicadsexp.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse s-expression %q: %v", input, err)
	}
	if len(sexps) == 0 {
		t.Fatalf("No s-expressions parsed from %q", input)
	}
	return sexps[0]
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		want    string
		wantErr bool
	}{
		{name: "key", input: "(layer F.Cu)", index: 0, want: "layer"},
		{name: "bare symbol", input: "(layer F.Cu)", index: 1, want: "F.Cu"},
		{name: "quoted string", input: `(layer "Edge.Cuts")`, index: 1, want: "Edge.Cuts"},
		{name: "number as text", input: "(at 100 50 90)", index: 3, want: "90"},
		{name: "index out of bounds", input: "(layer F.Cu)", index: 5, wantErr: true},
		{name: "nested list", input: "(a (b))", index: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseSexp(t, tt.input)
			got, err := GetString(s, tt.index)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GetString() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("GetString() unexpected error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("GetString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		want    float64
		wantErr bool
	}{
		{name: "integer literal", input: "(thickness 2)", index: 1, want: 2},
		{name: "float literal", input: "(thickness 1.6)", index: 1, want: 1.6},
		{name: "negative", input: "(at -3.5 0)", index: 1, want: -3.5},
		{name: "symbol", input: "(thickness thick)", index: 1, wantErr: true},
		{name: "quoted number", input: `(thickness "1.6")`, index: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseSexp(t, tt.input)
			got, err := GetFloat(s, tt.index)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetFloat() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetFloat() unexpected error: %v", err)
			}
			if !floatEq(got, tt.want) {
				t.Errorf("GetFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetPosition(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantX     float64
		wantY     float64
		wantAngle float64 // radians
		wantErr   bool
	}{
		{name: "no rotation", input: "(at 10 20)", wantX: 10, wantY: 20},
		{name: "integer rotation", input: "(at 1 2 90)", wantX: 1, wantY: 2, wantAngle: math.Pi / 2},
		{name: "float coordinates", input: "(at 1.5 -2.25 45.0)", wantX: 1.5, wantY: -2.25, wantAngle: math.Pi / 4},
		{name: "full turn reduces to zero", input: "(at 0 0 360)", wantAngle: 0},
		{name: "above full turn", input: "(at 0 0 450)", wantAngle: math.Pi / 2},
		{name: "below negative turn", input: "(at 0 0 -450)", wantAngle: -math.Pi / 2},
		{name: "negative full turn", input: "(at 0 0 -720)", wantAngle: 0},
		{name: "huge rotation", input: "(at 0 0 1e20)", wantAngle: 280 * math.Pi / 180},
		{name: "huge negative rotation", input: "(at 0 0 -1e20)", wantAngle: -280 * math.Pi / 180},
		{name: "wrong key", input: "(start 0 0)", wantErr: true},
		{name: "missing y", input: "(at 0)", wantErr: true},
		{name: "bad rotation", input: "(at 0 0 left)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseSexp(t, tt.input)
			got, err := GetPosition(s)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetPosition() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPosition() unexpected error: %v", err)
			}
			if !floatEq(got.X, tt.wantX) || !floatEq(got.Y, tt.wantY) {
				t.Errorf("GetPosition() = (%v, %v), want (%v, %v)", got.X, got.Y, tt.wantX, tt.wantY)
			}
			if !floatEq(float64(got.Angle), tt.wantAngle) {
				t.Errorf("GetPosition() angle = %v, want %v", got.Angle, tt.wantAngle)
			}
			if float64(got.Angle) <= -2*math.Pi || float64(got.Angle) > 2*math.Pi {
				t.Errorf("GetPosition() angle %v outside (-2pi, 2pi]", got.Angle)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	for _, deg := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if _, err := NormalizeRotation(deg); !errors.Is(err, ErrNonFinite) {
			t.Errorf("NormalizeRotation(%v) error = %v, want ErrNonFinite", deg, err)
		}
	}
	got, err := NormalizeRotation(-1e300)
	if err != nil {
		t.Fatalf("NormalizeRotation(-1e300) error = %v", err)
	}
	if float64(got) <= -2*math.Pi || float64(got) > 2*math.Pi {
		t.Errorf("NormalizeRotation(-1e300) = %v, outside (-2pi, 2pi]", got)
	}
}

func TestGetTriplet(t *testing.T) {
	s := parseSexp(t, "(xyz 0.1 -0.2 3)")
	got, err := GetTriplet(s)
	if err != nil {
		t.Fatalf("GetTriplet() unexpected error: %v", err)
	}
	want := Triplet{X: 0.1, Y: -0.2, Z: 3}
	if got != want {
		t.Errorf("GetTriplet() = %+v, want %+v", got, want)
	}

	if _, err := GetTriplet(parseSexp(t, "(xy 1 2 3)")); err == nil {
		t.Error("GetTriplet() expected error for wrong key")
	}
	if _, err := GetTriplet(parseSexp(t, "(xyz 1 2)")); err == nil {
		t.Error("GetTriplet() expected error for short list")
	}
}

func TestFindNode(t *testing.T) {
	s := parseSexp(t, `(module R1 (layer F.Cu) (at 1 2) (fp_line (start 0 0)) (fp_line (start 1 1)))`)

	at, ok := FindNode(s, "at")
	if !ok {
		t.Fatal("FindNode(at) not found")
	}
	if at.String() != "(at 1 2)" {
		t.Errorf("FindNode(at) = %v", at)
	}

	if _, ok := FindNode(s, "R1"); ok {
		t.Error("FindNode() should only match lists")
	}

	lines := FindAllNodes(s, "fp_line")
	if len(lines) != 2 {
		t.Errorf("FindAllNodes(fp_line) = %d nodes, want 2", len(lines))
	}

	if !HasSymbol(parseSexp(t, "(pad 1 thru_hole circle)"), "thru_hole") {
		t.Error("HasSymbol(thru_hole) = false")
	}
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox()
	if !bb.IsEmpty() {
		t.Error("new bounding box should be empty")
	}
	bb.Expand(Position{X: -1, Y: 2})
	bb.Expand(Position{X: 3, Y: -4})
	if bb.Width() != 4 || bb.Height() != 6 {
		t.Errorf("size = %vx%v, want 4x6", bb.Width(), bb.Height())
	}
	if c := bb.Center(); c.X != 1 || c.Y != -1 {
		t.Errorf("Center() = %+v, want (1, -1)", c)
	}
	if !bb.Contains(Position{}) {
		t.Error("Contains(origin) = false")
	}
}
