package preview

import (
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
)

// Camera maps world coordinates (mm, Y up) onto an image
type Camera struct {
	// Center position in world coordinates (mm)
	CenterX float64
	CenterY float64

	// Zoom level (pixels per mm)
	Zoom float64

	// Image dimensions (pixels)
	ScreenWidth  int
	ScreenHeight int

	// View controls
	FlipView bool    // true = seen from below, mirrored about the rotation center
	Rotation float64 // rotation in degrees

	// Rotation center (world coordinates in mm)
	RotationCenterX float64
	RotationCenterY float64
}

// NewCamera creates a camera with default settings
func NewCamera(screenWidth, screenHeight int) *Camera {
	return &Camera{
		Zoom:         10.0,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

// WorldToScreen converts world coordinates (mm) to image coordinates (pixels)
func (c *Camera) WorldToScreen(pos pcb.Position) (float64, float64) {
	pos = c.applyViewTransform(pos)

	x := (pos.X-c.CenterX)*c.Zoom + float64(c.ScreenWidth)/2.0
	y := (pos.Y-c.CenterY)*c.Zoom + float64(c.ScreenHeight)/2.0

	// image rows grow downward
	return x, float64(c.ScreenHeight) - y
}

// ScreenToWorld converts image coordinates (pixels) to world coordinates (mm)
func (c *Camera) ScreenToWorld(screenX, screenY float64) pcb.Position {
	y := float64(c.ScreenHeight) - screenY

	x := (screenX-float64(c.ScreenWidth)/2.0)/c.Zoom + c.CenterX
	y = (y-float64(c.ScreenHeight)/2.0)/c.Zoom + c.CenterY

	return c.applyInverseViewTransform(pcb.Position{X: x, Y: y})
}

// Fit centers the content and picks the zoom that shows all of it with a
// 5% margin on each side
func (c *Camera) Fit(bbox pcb.BoundingBox) {
	width := bbox.Max.X - bbox.Min.X
	height := bbox.Max.Y - bbox.Min.Y

	if width <= 0 || height <= 0 {
		return
	}

	c.CenterX = (bbox.Min.X + bbox.Max.X) / 2.0
	c.CenterY = (bbox.Min.Y + bbox.Max.Y) / 2.0

	c.RotationCenterX = c.CenterX
	c.RotationCenterY = c.CenterY

	zoomX := float64(c.ScreenWidth) * 0.9 / width
	zoomY := float64(c.ScreenHeight) * 0.9 / height
	c.Zoom = math.Min(zoomX, zoomY)
}

// Rotate rotates the view by the given degrees
func (c *Camera) Rotate(degrees float64) {
	c.Rotation = math.Mod(c.Rotation+degrees, 360)
	if c.Rotation < 0 {
		c.Rotation += 360
	}
}

// applyViewTransform applies rotation then flip about the rotation center
func (c *Camera) applyViewTransform(pos pcb.Position) pcb.Position {
	x := pos.X - c.RotationCenterX
	y := pos.Y - c.RotationCenterY

	if c.Rotation != 0 {
		x, y = rotate(x, y, c.Rotation*math.Pi/180.0)
	}
	if c.FlipView {
		x = -x
	}

	return pcb.Position{X: x + c.RotationCenterX, Y: y + c.RotationCenterY}
}

func (c *Camera) applyInverseViewTransform(pos pcb.Position) pcb.Position {
	x := pos.X - c.RotationCenterX
	y := pos.Y - c.RotationCenterY

	if c.FlipView {
		x = -x
	}
	if c.Rotation != 0 {
		x, y = rotate(x, y, -c.Rotation*math.Pi/180.0)
	}

	return pcb.Position{X: x + c.RotationCenterX, Y: y + c.RotationCenterY}
}

func rotate(x, y, rad float64) (float64, float64) {
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	return x*cos - y*sin, x*sin + y*cos
}
