package pcb

import (
	"strings"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// isCurveKeyword reports whether name is a board (gr_) or footprint (fp_)
// graphic that can contribute outline geometry
func isCurveKeyword(name string) bool {
	switch name {
	case "gr_line", "gr_arc", "gr_circle", "gr_rect", "gr_poly",
		"fp_line", "fp_arc", "fp_circle", "fp_rect", "fp_poly":
		return true
	}
	return false
}

// parseEdgeCurves parses a graphic node and returns its curves when it sits
// on Edge.Cuts. Graphics on other layers are skipped without further parsing.
// Rectangles and polygons are expanded into lines.
func parseEdgeCurves(node kicadsexp.Sexp) ([]Curve, error) {
	name, err := getNodeName(node)
	if err != nil {
		return nil, malformed("graphic without keyword")
	}

	layer := LayerNone
	if layerNode, found := findNode(node, "layer"); found {
		layer, err = parseLayer(layerNode)
		if err != nil {
			return nil, err
		}
	}
	if layer != LayerEdge {
		return nil, nil
	}

	shape := name[strings.IndexByte(name, '_')+1:]
	switch shape {
	case "line":
		line, err := parseLine(node, layer)
		if err != nil {
			return nil, err
		}
		return []Curve{line}, nil

	case "arc":
		arc, err := parseArc(node, layer)
		if err != nil {
			return nil, err
		}
		return []Curve{arc}, nil

	case "circle":
		circle, err := parseCircle(node, layer)
		if err != nil {
			return nil, err
		}
		return []Curve{circle}, nil

	case "rect":
		return parseRect(node, layer)

	case "poly":
		return parsePoly(node, layer)
	}

	return nil, malformed("unsupported graphic %q", name)
}

// requirePoint reads a mandatory (key X Y) child
func requirePoint(node kicadsexp.Sexp, key string) (Position, error) {
	child, found := findNode(node, key)
	if !found {
		return Position{}, malformed("missing required '%s' field", key)
	}
	pos, err := getPositionXY(child)
	if err != nil {
		return Position{}, malformed("invalid '%s': %v", key, err)
	}
	return pos, nil
}

// parseLine extracts a line
// Expected format: (gr_line (start X Y) (end X Y) (layer Edge.Cuts) ...)
func parseLine(node kicadsexp.Sexp, layer Layer) (Line, error) {
	start, err := requirePoint(node, "start")
	if err != nil {
		return Line{}, err
	}
	end, err := requirePoint(node, "end")
	if err != nil {
		return Line{}, err
	}
	return Line{Start: start, End: end, Layer: layer}, nil
}

// parseArc extracts an arc in either of the two KiCad encodings:
//
//	(gr_arc (start CX CY) (end SX SY) (angle DEG))   center, start point, sweep
//	(gr_arc (start X Y) (mid X Y) (end X Y))          three points on the arc
func parseArc(node kicadsexp.Sexp, layer Layer) (Arc, error) {
	if _, found := findNode(node, "mid"); found {
		start, err := requirePoint(node, "start")
		if err != nil {
			return Arc{}, err
		}
		mid, err := requirePoint(node, "mid")
		if err != nil {
			return Arc{}, err
		}
		end, err := requirePoint(node, "end")
		if err != nil {
			return Arc{}, err
		}
		arc, err := NewArcThroughPoints(start, mid, end, layer)
		if err != nil {
			return Arc{}, malformed("%v", err)
		}
		return arc, nil
	}

	center, err := requirePoint(node, "start")
	if err != nil {
		return Arc{}, err
	}
	start, err := requirePoint(node, "end")
	if err != nil {
		return Arc{}, err
	}
	angleNode, found := findNode(node, "angle")
	if !found {
		return Arc{}, malformed("missing required 'angle' field")
	}
	deg, err := getFloat(angleNode, 1)
	if err != nil {
		return Arc{}, malformed("invalid 'angle': %v", err)
	}

	return NewArc(center, start, sexp.DegToRad(deg), layer), nil
}

// parseCircle extracts a circle
// Expected format: (gr_circle (center X Y) (end X Y) ...)
func parseCircle(node kicadsexp.Sexp, layer Layer) (Circle, error) {
	center, err := requirePoint(node, "center")
	if err != nil {
		return Circle{}, err
	}
	rim, err := requirePoint(node, "end")
	if err != nil {
		return Circle{}, err
	}
	return NewCircle(center, rim, layer), nil
}

// parseRect expands (gr_rect (start X Y) (end X Y)) into four lines
func parseRect(node kicadsexp.Sexp, layer Layer) ([]Curve, error) {
	start, err := requirePoint(node, "start")
	if err != nil {
		return nil, err
	}
	end, err := requirePoint(node, "end")
	if err != nil {
		return nil, err
	}

	corners := []Position{
		start,
		{X: end.X, Y: start.Y},
		end,
		{X: start.X, Y: end.Y},
	}
	return closedPolyline(corners, layer), nil
}

// parsePoly expands (gr_poly (pts (xy X Y) ...)) into a closed chain of lines
func parsePoly(node kicadsexp.Sexp, layer Layer) ([]Curve, error) {
	ptsNode, found := findNode(node, "pts")
	if !found {
		return nil, malformed("missing required 'pts' field")
	}

	var points []Position
	for _, xy := range findAllNodes(ptsNode, "xy") {
		pos, err := getPositionXY(xy)
		if err != nil {
			return nil, malformed("invalid polygon point: %v", err)
		}
		points = append(points, pos)
	}
	if len(points) < 3 {
		return nil, malformed("polygon needs at least 3 points, got %d", len(points))
	}
	return closedPolyline(points, layer), nil
}

func closedPolyline(points []Position, layer Layer) []Curve {
	curves := make([]Curve, 0, len(points))
	for i := range points {
		next := points[(i+1)%len(points)]
		if points[i] == next {
			continue
		}
		curves = append(curves, Line{Start: points[i], End: next, Layer: layer})
	}
	return curves
}
