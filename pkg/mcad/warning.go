package mcad

import "fmt"

// WarningKind classifies a recoverable geometry problem
type WarningKind int

const (
	WarnNoOutline WarningKind = iota
	WarnDroppedLoop
	WarnDegenerateCurve
	WarnCutout
	WarnHole
	WarnModel
	WarnMesh
)

func (k WarningKind) String() string {
	switch k {
	case WarnNoOutline:
		return "no-outline"
	case WarnDroppedLoop:
		return "dropped-loop"
	case WarnDegenerateCurve:
		return "degenerate-curve"
	case WarnCutout:
		return "cutout"
	case WarnHole:
		return "hole"
	case WarnModel:
		return "model"
	case WarnMesh:
		return "mesh"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a dropped fragment; the conversion continues without it
type Warning struct {
	Kind    WarningKind
	Subject string // refdes, model path or curve description
	Message string
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Subject, w.Message)
}
