// Package kicadsexp parses the S-expression syntax used by KiCad board files
// into a tree of typed nodes. Quoted strings, bare symbols, integers and
// floats are kept apart so callers can tell `"F.Cu"` from `F.Cu` and `1` from
// `1.0` when they need to.
package kicadsexp

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind identifies the type of a node
type Kind int

const (
	KindList Kind = iota
	KindSymbol
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Sexp represents an S-expression node.
// It can be either a leaf (atom) or a list.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// LeafCount returns the number of elements in a list (1 for atoms)
	LeafCount() int

	// Head returns the first element of a list (the atom itself for atoms)
	Head() Sexp

	// Tail returns the rest of the list after the first element (nil for atoms)
	Tail() Sexp

	// Kind returns the node type
	Kind() Kind

	// String returns the string representation
	String() string
}

// Symbol is a bare identifier such as `kicad_pcb` or `F.Cu`
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) LeafCount() int { return 1 }
func (s Symbol) Head() Sexp     { return s }
func (s Symbol) Tail() Sexp     { return nil }
func (s Symbol) Kind() Kind     { return KindSymbol }
func (s Symbol) String() string { return string(s) }

// String is a quoted string with escapes already resolved
type String string

func (s String) IsLeaf() bool   { return true }
func (s String) LeafCount() int { return 1 }
func (s String) Head() Sexp     { return s }
func (s String) Tail() Sexp     { return nil }
func (s String) Kind() Kind     { return KindString }
func (s String) String() string { return strconv.Quote(string(s)) }

// Int is an integer literal
type Int int64

func (i Int) IsLeaf() bool   { return true }
func (i Int) LeafCount() int { return 1 }
func (i Int) Head() Sexp     { return i }
func (i Int) Tail() Sexp     { return nil }
func (i Int) Kind() Kind     { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a real literal
type Float float64

func (f Float) IsLeaf() bool   { return true }
func (f Float) LeafCount() int { return 1 }
func (f Float) Head() Sexp     { return f }
func (f Float) Tail() Sexp     { return nil }
func (f Float) Kind() Kind     { return KindFloat }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// List represents a parenthesised list of S-expressions
type List struct {
	elements []Sexp
	pos      lexer.Position
}

// NewList builds a list from elements. Mostly useful in tests.
func NewList(elements ...Sexp) *List {
	return &List{elements: elements}
}

func (l *List) IsLeaf() bool { return false }
func (l *List) Kind() Kind   { return KindList }

func (l *List) LeafCount() int {
	return len(l.elements)
}

func (l *List) Head() Sexp {
	if len(l.elements) == 0 {
		return nil
	}
	return l.elements[0]
}

func (l *List) Tail() Sexp {
	if len(l.elements) <= 1 {
		return nil
	}
	return &List{elements: l.elements[1:], pos: l.pos}
}

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(elem.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Get returns the element at the given index
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.elements)
}

// Elements returns the list items. The slice must not be modified.
func (l *List) Elements() []Sexp {
	return l.elements
}

// Pos returns the position of the opening parenthesis
func (l *List) Pos() lexer.Position {
	return l.pos
}

// Line returns the source line of the opening parenthesis, 0 if unknown
func (l *List) Line() int {
	return l.pos.Line
}
