package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/mcad"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

func pt(x, y float64) pcb.Position {
	return pcb.Position{X: x, Y: y}
}

func rect(x0, y0, x1, y1 float64) []pcb.Curve {
	corners := []pcb.Position{pt(x0, y0), pt(x1, y0), pt(x1, y1), pt(x0, y1)}
	var curves []pcb.Curve
	for i := range corners {
		curves = append(curves, pcb.Line{Start: corners[i], End: corners[(i+1)%4], Layer: pcb.LayerEdge})
	}
	return curves
}

func part(refdes string, x, y, z float64) *kernel.Component {
	mesh := kernel.BoxMesh(v3.Vec{X: -2, Y: -1, Z: 0}, v3.Vec{X: 2, Y: 1, Z: 1}, "box")
	return &kernel.Component{
		RefDes:    refdes,
		Model:     &kernel.Model{Path: "box.stl", Format: kernel.FormatSTL, Mesh: mesh},
		Transform: sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}),
	}
}

// testResult is a 20x10 board with a 3x3 cutout, a round hole at (4, 5)
// and one component on each side
func testResult(t *testing.T) *mcad.AssemblyResult {
	t.Helper()
	pool := append(rect(0, 0, 20, 10), rect(14, 4, 17, 7)...)
	loops := outline.Assemble(pool, outline.MinDistance2)
	if len(loops.Loops) != 2 {
		t.Fatalf("expected 2 loops, got %d", len(loops.Loops))
	}
	return &mcad.AssemblyResult{
		Thickness: 1.6,
		Loops:     loops.Loops,
		Holes: []placement.Hole{
			{Center: pt(4, 5), Size: pcb.Size{Width: 2, Height: 2}, Ref: "J1.1"},
		},
		Components: []*kernel.Component{
			part("U1", 10, 2, 1.65),
			part("U2", 10, 8, -0.05),
		},
	}
}

func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) bool { return math.Abs(float64(x)-float64(y)) <= 2 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestCameraRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		flip     bool
		rotation float64
	}{
		{"plain", false, 0},
		{"flipped", true, 0},
		{"rotated", false, 90},
		{"flipped and rotated", true, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(200, 100)
			cam.Fit(pcb.BoundingBox{Min: pt(0, 0), Max: pt(20, 10)})
			cam.FlipView = tt.flip
			cam.Rotate(tt.rotation)

			for _, p := range []pcb.Position{pt(0, 0), pt(3.5, 7.25), pt(20, 10)} {
				sx, sy := cam.WorldToScreen(p)
				back := cam.ScreenToWorld(sx, sy)
				if back.Distance(p) > 1e-9 {
					t.Errorf("round trip of %v gave %v", p, back)
				}
			}
		})
	}
}

func TestCameraFit(t *testing.T) {
	cam := NewCamera(200, 100)
	cam.Fit(pcb.BoundingBox{Min: pt(0, 0), Max: pt(20, 10)})

	if cam.Zoom != 9 {
		t.Errorf("Zoom = %v, want 9", cam.Zoom)
	}
	if x, y := cam.WorldToScreen(pt(10, 5)); x != 100 || y != 50 {
		t.Errorf("center maps to (%v, %v), want (100, 50)", x, y)
	}
	// Y up in the world is up in the image
	if _, y := cam.WorldToScreen(pt(10, 10)); y != 5 {
		t.Errorf("top edge maps to row %v, want 5", y)
	}

	cam.FlipView = true
	if x, _ := cam.WorldToScreen(pt(0, 5)); x != 190 {
		t.Errorf("flipped left edge maps to column %v, want 190", x)
	}

	// degenerate boxes leave the camera alone
	cam.Fit(pcb.BoundingBox{Min: pt(1, 1), Max: pt(1, 5)})
	if cam.Zoom != 9 {
		t.Errorf("degenerate Fit changed Zoom to %v", cam.Zoom)
	}
}

func TestFromResult(t *testing.T) {
	s := FromResult(testResult(t), 32)

	if len(s.Outer) != 4 {
		t.Errorf("outer ring has %d vertices, want 4", len(s.Outer))
	}
	if len(s.Cutouts) != 1 {
		t.Errorf("got %d cutouts, want 1", len(s.Cutouts))
	}
	if len(s.Holes) != 1 {
		t.Errorf("got %d holes, want 1", len(s.Holes))
	}
	if len(s.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(s.Components))
	}

	u1 := s.Components[0]
	if u1.RefDes != "U1" || u1.Bottom {
		t.Errorf("U1 = %+v, want a top side part", u1)
	}
	if u1.Min.Distance(pt(8, 1)) > 1e-6 || u1.Max.Distance(pt(12, 3)) > 1e-6 {
		t.Errorf("U1 extent = %v..%v, want (8,1)..(12,3)", u1.Min, u1.Max)
	}
	if !s.Components[1].Bottom {
		t.Error("U2 should be on the bottom side")
	}

	bb := s.Bounds()
	if bb.Min != pt(0, 0) || bb.Max != pt(20, 10) {
		t.Errorf("Bounds() = %v..%v", bb.Min, bb.Max)
	}
}

func TestRender(t *testing.T) {
	s := FromResult(testResult(t), 32)
	pal := PaletteFor(ThemeClassic, false)

	img, err := Render(s, Options{Width: 200, Components: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("image is %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"outside", 2, 2, pal.Background},
		{"substrate", 100, 23, pal.Substrate},
		{"drill", 46, 50, pal.Drill},
		{"cutout", 149, 45, pal.Background},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.NRGBAAt(tt.x, tt.y); !near(got, tt.want) {
				t.Errorf("pixel (%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	// U1 sits at (10, 2) on top and tints the substrate
	if got := img.NRGBAAt(100, 77); near(got, pal.Substrate) {
		t.Errorf("pixel under U1 = %v, expected a component tint", got)
	}
}

func TestRenderBottom(t *testing.T) {
	s := FromResult(testResult(t), 32)
	pal := PaletteFor(ThemeNord, true)

	img, err := Render(s, Options{Width: 200, Theme: ThemeNord, Bottom: true, Components: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// the view is mirrored: the hole moves to the right
	if got := img.NRGBAAt(154, 50); !near(got, pal.Drill) {
		t.Errorf("mirrored drill pixel = %v, want %v", got, pal.Drill)
	}
	// and the cutout to the left, over the hole's old place
	if got := img.NRGBAAt(46, 50); !near(got, pal.Background) {
		t.Errorf("mirrored cutout pixel = %v, want background", got)
	}
	// top side U1 is hidden from below
	if got := img.NRGBAAt(100, 77); !near(got, pal.Substrate) {
		t.Errorf("pixel under U1 = %v, want substrate", got)
	}
	// bottom side U2 at (10, 8) is shown
	if got := img.NRGBAAt(100, 23); near(got, pal.Substrate) {
		t.Errorf("pixel under U2 = %v, expected a component tint", got)
	}
}

func TestRenderSlot(t *testing.T) {
	s := &Scene{
		Outer: []pcb.Position{pt(0, 0), pt(20, 0), pt(20, 10), pt(0, 10)},
		Holes: []placement.Hole{
			{Center: pt(10, 5), Size: pcb.Size{Width: 1, Height: 6}, Slot: true},
		},
	}
	pal := PaletteFor(ThemeClassic, false)
	img, err := Render(s, Options{Width: 200})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// the slot runs vertically, 6mm tall and 1mm wide
	if got := img.NRGBAAt(100, 27); !near(got, pal.Drill) {
		t.Errorf("pixel inside the slot = %v, want drill", got)
	}
	if got := img.NRGBAAt(110, 50); !near(got, pal.Substrate) {
		t.Errorf("pixel beside the slot = %v, want substrate", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	res := &mcad.AssemblyResult{}
	if _, err := Render(FromResult(res, 0), DefaultOptions()); !errors.Is(err, ErrEmptyScene) {
		t.Errorf("Render() error = %v, want ErrEmptyScene", err)
	}
	if _, err := Render(nil, DefaultOptions()); !errors.Is(err, ErrEmptyScene) {
		t.Errorf("Render(nil) error = %v, want ErrEmptyScene", err)
	}
}

func TestImageSize(t *testing.T) {
	bb := pcb.BoundingBox{Min: pt(0, 0), Max: pt(40, 10)}
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"aspect", 400, 0, 400, 100},
		{"default width", 0, 0, DefaultWidth, DefaultWidth / 4},
		{"explicit", 300, 300, 300, 300},
		{"clamped", MaxDimension * 2, 0, MaxDimension, MaxDimension / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := imageSize(bb, tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("imageSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorTheme
		wantErr bool
	}{
		{"classic", ThemeClassic, false},
		{"KiCad 2020", ThemeKiCad2020, false},
		{"blue-tone", ThemeBlueTone, false},
		{"NORD", ThemeNord, false},
		{"solarized", ThemeClassic, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTheme(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTheme() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTheme() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseImageFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ImageFormat
		wantErr bool
	}{
		{"png", PNG, false},
		{".WEBP", WebP, false},
		{"targa", TGA, false},
		{"jpg", PNG, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImageFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseImageFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseImageFormat() = %v, want %v", got, tt.want)
			}
		})
	}

	if f := FormatForPath("board.tga"); f != TGA {
		t.Errorf("FormatForPath(board.tga) = %v", f)
	}
	if f := FormatForPath("board"); f != PNG {
		t.Errorf("FormatForPath(board) = %v", f)
	}
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.SetNRGBA(1, 2, color.NRGBA{R: 200, G: 10, B: 30, A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, img, PNG); err != nil {
		t.Fatalf("Encode(PNG) error = %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if r, g, b, _ := decoded.At(1, 2).RGBA(); r>>8 != 200 || g>>8 != 10 || b>>8 != 30 {
		t.Errorf("decoded pixel = %d %d %d", r>>8, g>>8, b>>8)
	}

	buf.Reset()
	if err := Encode(&buf, img, WebP); err != nil {
		t.Fatalf("Encode(WebP) error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Errorf("WebP output does not start with RIFF: % x", buf.Bytes()[:min(buf.Len(), 12)])
	}

	buf.Reset()
	if err := Encode(&buf, img, TGA); err != nil {
		t.Fatalf("Encode(TGA) error = %v", err)
	}
	if buf.Len() <= 18 {
		t.Errorf("TGA output is only %d bytes", buf.Len())
	}

	if err := Encode(&buf, img, ImageFormat(42)); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
