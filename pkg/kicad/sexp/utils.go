package sexp

import (
	"errors"
	"fmt"
	"math"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// S-expression navigation helpers

// FindNode searches for a child list whose first element is the given key.
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (kicadsexp.Sexp, bool) {
	for _, item := range SexpToSlice(s) {
		if item.IsLeaf() {
			continue
		}
		if name, err := GetNodeName(item); err == nil && name == key {
			return item, true
		}
	}
	return nil, false
}

// FindAllNodes finds all child lists with the given key
func FindAllNodes(s kicadsexp.Sexp, key string) []kicadsexp.Sexp {
	var results []kicadsexp.Sexp
	for _, item := range SexpToSlice(s) {
		if item.IsLeaf() {
			continue
		}
		if name, err := GetNodeName(item); err == nil && name == key {
			results = append(results, item)
		}
	}
	return results
}

// GetListItems returns all items in a list (excluding the first symbol/key)
// Example: GetListItems((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"]
func GetListItems(s kicadsexp.Sexp) []kicadsexp.Sexp {
	items := SexpToSlice(s)
	if len(items) <= 1 {
		return []kicadsexp.Sexp{}
	}
	return items[1:]
}

// SexpToSlice returns the elements of a list, or nil for atoms
func SexpToSlice(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Elements()
	}
	return nil
}

// Typed value extraction helpers

// GetString extracts a symbol or quoted string at the given index.
// Index 0 is the key, 1 is first value, etc.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	item, err := itemAt(s, index)
	if err != nil {
		return "", err
	}
	switch v := item.(type) {
	case kicadsexp.Symbol:
		return string(v), nil
	case kicadsexp.String:
		return string(v), nil
	case kicadsexp.Int, kicadsexp.Float:
		return v.String(), nil
	}
	return "", fmt.Errorf("expected string at index %d, got %s", index, item.Kind())
}

// GetSymbol extracts a bare symbol at the given index
func GetSymbol(s kicadsexp.Sexp, index int) (string, error) {
	item, err := itemAt(s, index)
	if err != nil {
		return "", err
	}
	if sym, ok := item.(kicadsexp.Symbol); ok {
		return string(sym), nil
	}
	return "", fmt.Errorf("expected symbol at index %d, got %s", index, item.Kind())
}

// GetFloat extracts a number at the given index. Integer literals are accepted.
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	item, err := itemAt(s, index)
	if err != nil {
		return 0, err
	}
	switch v := item.(type) {
	case kicadsexp.Float:
		return float64(v), nil
	case kicadsexp.Int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("expected number at index %d, got %s %q", index, item.Kind(), item.String())
}

// GetInt extracts an integer at the given index
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	item, err := itemAt(s, index)
	if err != nil {
		return 0, err
	}
	if v, ok := item.(kicadsexp.Int); ok {
		return int(v), nil
	}
	return 0, fmt.Errorf("expected integer at index %d, got %s %q", index, item.Kind(), item.String())
}

func itemAt(s kicadsexp.Sexp, index int) (kicadsexp.Sexp, error) {
	if s == nil || s.IsLeaf() {
		return nil, fmt.Errorf("expected list, got leaf")
	}
	items := SexpToSlice(s)
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}
	return items[index], nil
}

// Domain-specific extraction helpers

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ErrNonFinite is returned for infinite or NaN angles
var ErrNonFinite = errors.New("non-finite value")

// NormalizeRotation brings an angle in degrees into (-360, 360) by whole
// turns and returns it in radians.
func NormalizeRotation(deg float64) (Angle, error) {
	if math.IsInf(deg, 0) || math.IsNaN(deg) {
		return 0, fmt.Errorf("%w: rotation %v", ErrNonFinite, deg)
	}
	return Angle(DegToRad(math.Mod(deg, 360.0))), nil
}

// GetPosition extracts a PositionAngle from an (at X Y [angle]) node.
// The angle is given in degrees in the file and returned normalized, in radians.
func GetPosition(s kicadsexp.Sexp) (PositionAngle, error) {
	key, err := GetNodeName(s)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("expected (at X Y [angle]) list: %w", err)
	}
	if key != "at" {
		return PositionAngle{}, fmt.Errorf("expected 'at', got %q", key)
	}

	pos, err := GetPositionXY(s)
	if err != nil {
		return PositionAngle{}, err
	}

	result := PositionAngle{Position: pos}
	if len(SexpToSlice(s)) > 3 {
		deg, err := GetFloat(s, 3)
		if err != nil {
			return PositionAngle{}, fmt.Errorf("failed to parse rotation: %w", err)
		}
		if result.Angle, err = NormalizeRotation(deg); err != nil {
			return PositionAngle{}, err
		}
	}

	return result, nil
}

// GetPositionXY extracts just X,Y coordinates (no angle)
// Used for (start X Y), (end X Y), (center X Y), etc.
func GetPositionXY(s kicadsexp.Sexp) (Position, error) {
	x, err := GetFloat(s, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}

	y, err := GetFloat(s, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}

	return Position{X: x, Y: y}, nil
}

// GetTriplet extracts an (xyz X Y Z) node
func GetTriplet(s kicadsexp.Sexp) (Triplet, error) {
	key, err := GetNodeName(s)
	if err != nil || key != "xyz" {
		return Triplet{}, fmt.Errorf("expected (xyz X Y Z) list")
	}

	var v [3]float64
	for i := range v {
		v[i], err = GetFloat(s, i+1)
		if err != nil {
			return Triplet{}, fmt.Errorf("failed to parse xyz[%d]: %w", i, err)
		}
	}
	return Triplet{X: v[0], Y: v[1], Z: v[2]}, nil
}

// HasSymbol checks if a list contains a specific bare symbol
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	for _, item := range SexpToSlice(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}

// GetNodeName returns the first symbol of a list (the node type/name)
func GetNodeName(s kicadsexp.Sexp) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil node")
	}
	if s.IsLeaf() {
		if sym, ok := s.(kicadsexp.Symbol); ok {
			return string(sym), nil
		}
		return "", fmt.Errorf("expected symbol leaf")
	}

	head := s.Head()
	if sym, ok := head.(kicadsexp.Symbol); ok {
		return string(sym), nil
	}

	return "", fmt.Errorf("expected symbol at head of list")
}

// NodeLine returns the source line of a list node, 0 for atoms
func NodeLine(s kicadsexp.Sexp) int {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Line()
	}
	return 0
}
