// Package preview renders a flat top or bottom view of an assembled board
// to an image: substrate, cutouts, drills and component footprints.
package preview

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/mcad"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

// ErrEmptyScene is returned when there is no board outline to draw
var ErrEmptyScene = errors.New("nothing to preview: the board has no closed outline")

const (
	DefaultWidth       = 1024
	DefaultArcSegments = 64
	MaxDimension       = 16384
)

// Footprint is the plan-view extent of a placed component
type Footprint struct {
	RefDes string
	Min    pcb.Position
	Max    pcb.Position
	Bottom bool
}

// Scene is everything a preview draws, in world coordinates (mm, Y up)
type Scene struct {
	Outer      []pcb.Position
	Cutouts    [][]pcb.Position
	Holes      []placement.Hole
	Components []Footprint
}

// Options controls rendering
type Options struct {
	Width       int // pixels; 0 selects DefaultWidth
	Height      int // pixels; 0 keeps the board aspect ratio
	Theme       ColorTheme
	Bottom      bool // view from below
	Components  bool // draw component footprints of the viewed side
	ArcSegments int
}

// DefaultOptions returns a top view of the board with components
func DefaultOptions() Options {
	return Options{
		Width:       DefaultWidth,
		Theme:       ThemeClassic,
		Components:  true,
		ArcSegments: DefaultArcSegments,
	}
}

// FromResult builds a scene from an assembly
func FromResult(res *mcad.AssemblyResult, arcSegments int) *Scene {
	if arcSegments <= 0 {
		arcSegments = DefaultArcSegments
	}

	s := &Scene{Holes: res.Holes}
	for _, loop := range res.Loops {
		ring := outline.Polygon(loop.Curves, arcSegments)
		if loop.Role == outline.RoleOuter {
			s.Outer = ring
		} else {
			s.Cutouts = append(s.Cutouts, ring)
		}
	}

	for _, c := range res.Components {
		mesh := c.Mesh()
		if mesh == nil || mesh.IsEmpty() {
			continue
		}
		lo, hi := mesh.Bounds()
		s.Components = append(s.Components, Footprint{
			RefDes: c.RefDes,
			Min:    pcb.Position{X: lo.X, Y: lo.Y},
			Max:    pcb.Position{X: hi.X, Y: hi.Y},
			Bottom: placement.FrameOf(c.Transform).Origin.Z < 0,
		})
	}
	return s
}

// Bounds returns the extent of the board boundary
func (s *Scene) Bounds() pcb.BoundingBox {
	bb := pcb.NewBoundingBox()
	for _, p := range s.Outer {
		bb.Expand(p)
	}
	return bb
}

// Render draws the scene
func Render(s *Scene, opts Options) (*image.NRGBA, error) {
	if s == nil || len(s.Outer) < 3 {
		return nil, ErrEmptyScene
	}
	if opts.ArcSegments <= 0 {
		opts.ArcSegments = DefaultArcSegments
	}

	bbox := s.Bounds()
	w, h := imageSize(bbox, opts.Width, opts.Height)

	cam := NewCamera(w, h)
	cam.Fit(bbox)
	cam.FlipView = opts.Bottom

	pal := PaletteFor(opts.Theme, opts.Bottom)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(pal.Background), image.Point{}, draw.Src)

	p := &painter{img: img, cam: cam, r: vector.NewRasterizer(w, h)}

	p.fill(pal.Substrate, s.Outer)
	for _, cut := range s.Cutouts {
		p.fill(pal.Background, cut)
	}

	// one pixel outlines
	edge := 1 / cam.Zoom
	p.stroke(pal.Edge, s.Outer, edge)
	for _, cut := range s.Cutouts {
		p.stroke(pal.Edge, cut, edge)
	}

	for _, hole := range s.Holes {
		p.fill(pal.Drill, holeRing(hole, opts.ArcSegments))
	}

	if opts.Components {
		fill := pal.Component
		fill.A = 96
		for _, fp := range s.Components {
			if fp.Bottom != opts.Bottom {
				continue
			}
			box := []pcb.Position{
				fp.Min,
				{X: fp.Max.X, Y: fp.Min.Y},
				fp.Max,
				{X: fp.Min.X, Y: fp.Max.Y},
			}
			p.fill(fill, box)
			p.stroke(pal.Component, box, edge)
		}
	}

	return img, nil
}

func imageSize(bbox pcb.BoundingBox, w, h int) (int, int) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = int(math.Ceil(float64(w) * bbox.Height() / bbox.Width()))
	}
	w = min(max(w, 1), MaxDimension)
	h = min(max(h, 1), MaxDimension)
	return w, h
}

// holeRing returns the drill outline: a circle, or a stadium for slots
func holeRing(h placement.Hole, segments int) []pcb.Position {
	length := math.Max(h.Size.Width, h.Size.Height)
	r := h.Diameter() / 2
	half := (length - 2*r) / 2

	axis := h.Angle
	if h.Size.Height > h.Size.Width {
		axis += math.Pi / 2
	}
	if !h.Slot {
		half = 0
	}

	n := max(segments/2, 2)
	ring := make([]pcb.Position, 0, 2*(n+1))
	for _, end := range []float64{1, -1} {
		base := 0.0
		if end < 0 {
			base = math.Pi
		}
		for i := 0; i <= n; i++ {
			a := base - math.Pi/2 + math.Pi*float64(i)/float64(n)
			x := end*half + r*math.Cos(a)
			y := r * math.Sin(a)
			xr, yr := rotate(x, y, axis)
			ring = append(ring, pcb.Position{X: h.Center.X + xr, Y: h.Center.Y + yr})
		}
	}
	return ring
}

type painter struct {
	img *image.NRGBA
	cam *Camera
	r   *vector.Rasterizer
}

func (p *painter) fill(c color.NRGBA, ring []pcb.Position) {
	if len(ring) < 3 {
		return
	}
	b := p.img.Bounds()
	p.r.Reset(b.Dx(), b.Dy())
	p.r.DrawOp = draw.Over

	x, y := p.cam.WorldToScreen(ring[0])
	p.r.MoveTo(float32(x), float32(y))
	for _, pt := range ring[1:] {
		x, y = p.cam.WorldToScreen(pt)
		p.r.LineTo(float32(x), float32(y))
	}
	p.r.ClosePath()
	p.r.Draw(p.img, b, image.NewUniform(c), image.Point{})
}

// stroke draws each edge of a closed ring as a quad of the given world width
func (p *painter) stroke(c color.NRGBA, ring []pcb.Position, width float64) {
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		nx := -d.Y / l * width / 2
		ny := d.X / l * width / 2
		p.fill(c, []pcb.Position{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
}
