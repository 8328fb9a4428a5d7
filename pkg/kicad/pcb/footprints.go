package pcb

import (
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// parseModule extracts a placed footprint.
// Expected format: (module NAME (layer F.Cu) (at X Y [ROT]) (fp_text reference R1 ...) ...)
// KiCad 6+ uses the keyword footprint and (property "Reference" "R1").
func parseModule(node kicadsexp.Sexp) (*Module, error) {
	items := sexp.SexpToSlice(node)
	if len(items) == 0 {
		return nil, malformed("empty module")
	}

	module := &Module{Side: LayerNone}

	for i, child := range items[1:] {
		// the footprint name may be a symbol or a string
		if i == 0 && child.IsLeaf() {
			module.Name, _ = getString(node, 1)
			continue
		}
		if child.IsLeaf() {
			// KiCad 6+ flags such as "locked" appear as bare symbols
			if _, ok := child.(kicadsexp.Symbol); ok {
				continue
			}
			return nil, malformed("corrupt module; unexpected %s %q", child.Kind(), child.String())
		}

		name, err := getNodeName(child)
		if err != nil {
			return nil, malformed("corrupt module: %v", err)
		}

		switch name {
		case "layer":
			module.Side, err = parseLayer(child)
		case "at":
			err = parseModulePosition(module, child)
		case "fp_text":
			parseText(module, child)
		case "property":
			parseProperty(module, child)
		case "pad":
			var pad *Pad
			pad, err = parsePad(child)
			if err == nil && pad.ThroughHole {
				module.Pads = append(module.Pads, *pad)
			}
		case "model":
			var model *Model
			model, err = parseModel(child)
			if err == nil {
				module.Models = append(module.Models, *model)
			}
		default:
			if isCurveKeyword(name) {
				var curves []Curve
				curves, err = parseEdgeCurves(child)
				module.Curves = append(module.Curves, curves...)
			}
		}

		if err != nil {
			return nil, &ParseError{Field: name, Line: nodeLine(child), Err: err}
		}
	}

	return module, nil
}

func parseModulePosition(module *Module, node kicadsexp.Sexp) error {
	pos, err := getPosition(node)
	if err != nil {
		return malformed("invalid position: %v", err)
	}
	module.Position = pos.Position
	module.Rotation = pos.Angle
	return nil
}

// parseText picks the reference designator out of (fp_text reference R1 ...).
// All other text is ignored.
func parseText(module *Module, node kicadsexp.Sexp) {
	if childCount(node) < 3 {
		return
	}
	kind, err := getString(node, 1)
	if err != nil || kind != "reference" {
		return
	}
	if text, err := getString(node, 2); err == nil {
		module.RefDes = text
	}
}

// parseProperty handles the KiCad 6+ (property "Reference" "R1" ...) form
func parseProperty(module *Module, node kicadsexp.Sexp) {
	key, err := getString(node, 1)
	if err != nil || key != "Reference" {
		return
	}
	if text, err := getString(node, 2); err == nil {
		module.RefDes = text
	}
}

// parsePad extracts a pad. Only the fields needed for drilling are read;
// callers keep the pad only when ThroughHole is set.
// Expected format: (pad NUM thru_hole SHAPE (at X Y [ROT]) (size W H) (drill D) ...)
func parsePad(node kicadsexp.Sexp) (*Pad, error) {
	pad := &Pad{}

	if number, err := getString(node, 1); err == nil {
		pad.Number = number
	}

	padType, err := getString(node, 2)
	if err != nil {
		return nil, malformed("failed to parse pad type: %v", err)
	}

	switch padType {
	case "thru_hole":
		pad.ThroughHole = true
		pad.Plated = true
	case "np_thru_hole":
		pad.ThroughHole = true
	default:
		// smd, connect: nothing to drill
		return pad, nil
	}

	atNode, found := findNode(node, "at")
	if !found {
		return nil, malformed("missing required 'at' position")
	}
	pos, err := getPosition(atNode)
	if err != nil {
		return nil, malformed("invalid pad position: %v", err)
	}
	pad.Position = pos.Position
	pad.Rotation = pos.Angle

	drillNode, found := findNode(node, "drill")
	if !found {
		return nil, malformed("through-hole pad %s has no drill", pad.Number)
	}
	drill, err := parseDrill(drillNode)
	if err != nil {
		return nil, err
	}
	pad.Drill = drill

	return pad, nil
}

// parseDrill reads (drill D), (drill oval W [H]) and an optional (offset X Y)
func parseDrill(node kicadsexp.Sexp) (Drill, error) {
	var drill Drill

	idx := 1
	if kw, err := sexp.GetSymbol(node, 1); err == nil && kw == "oval" {
		drill.Oval = true
		idx = 2
	}

	w, err := getFloat(node, idx)
	if err != nil {
		return Drill{}, malformed("invalid drill size: %v", err)
	}
	h := w
	if drill.Oval {
		if v, err := getFloat(node, idx+1); err == nil {
			h = v
		}
	}
	if w <= 0 || h <= 0 {
		return Drill{}, malformed("drill size must be positive, got %gx%g", w, h)
	}
	drill.Size = Size{Width: w, Height: h}

	if offNode, found := findNode(node, "offset"); found {
		off, err := getPositionXY(offNode)
		if err != nil {
			return Drill{}, malformed("invalid drill offset: %v", err)
		}
		drill.Offset = off
	}

	return drill, nil
}

// parseModel extracts a 3D model reference.
// Expected format:
//
//	(model PATH (at (xyz X Y Z)) (scale (xyz 1 1 1)) (rotate (xyz RX RY RZ)))
//
// The offset is in inches with (at ...) and millimeters with (offset ...);
// rotations are in degrees.
func parseModel(node kicadsexp.Sexp) (*Model, error) {
	path, err := getString(node, 1)
	if err != nil || path == "" {
		return nil, malformed("model without a path")
	}

	model := &Model{
		Path:  path,
		Scale: Triplet{X: 1, Y: 1, Z: 1},
	}

	if atNode, found := findNode(node, "at"); found {
		off, err := parseXYZ(atNode)
		if err != nil {
			return nil, err
		}
		model.Offset = off
		model.OffsetUnit = OffsetInches
	}
	if offNode, found := findNode(node, "offset"); found {
		off, err := parseXYZ(offNode)
		if err != nil {
			return nil, err
		}
		model.Offset = off
		model.OffsetUnit = OffsetMillimeters
	}
	if scaleNode, found := findNode(node, "scale"); found {
		scale, err := parseXYZ(scaleNode)
		if err != nil {
			return nil, err
		}
		model.Scale = scale
	}
	if rotNode, found := findNode(node, "rotate"); found {
		rot, err := parseXYZ(rotNode)
		if err != nil {
			return nil, err
		}
		for _, deg := range []*float64{&rot.X, &rot.Y, &rot.Z} {
			a, err := sexp.NormalizeRotation(*deg)
			if err != nil {
				return nil, malformed("invalid model rotation: %v", err)
			}
			*deg = float64(a)
		}
		model.Rotation = rot
	}

	if hasSymbol(node, "hide") {
		model.Hidden = true
	}
	if hideNode, found := findNode(node, "hide"); found {
		v, _ := getString(hideNode, 1)
		model.Hidden = v == "yes"
	}

	return model, nil
}

// parseXYZ reads the (xyz ...) child of an at/offset/scale/rotate node
func parseXYZ(node kicadsexp.Sexp) (Triplet, error) {
	xyz, found := findNode(node, "xyz")
	if !found {
		name, _ := getNodeName(node)
		return Triplet{}, malformed("%s requires (xyz X Y Z)", name)
	}
	t, err := getTriplet(xyz)
	if err != nil {
		return Triplet{}, malformed("%v", err)
	}
	return t, nil
}
