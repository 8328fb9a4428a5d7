package kicadsexp

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// document is the raw grammar; nodes are converted to typed values after parsing.
type document struct {
	Nodes []*rawNode `@@*`
}

type rawNode struct {
	Pos lexer.Position

	List *rawList `  @@`
	Str  *string  `| @String`
	Atom *string  `| @Atom`
}

type rawList struct {
	Open  string     `@LParen`
	Items []*rawNode `@@* RParen`
}

var grammar = participle.MustBuild[document](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
)

// Parse parses all top-level S-expressions from r
func Parse(r io.Reader) ([]Sexp, error) {
	doc, err := grammar.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return convertAll(doc.Nodes)
}

// ParseString parses S-expressions from a string
func ParseString(s string) ([]Sexp, error) {
	doc, err := grammar.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return convertAll(doc.Nodes)
}

func convertAll(nodes []*rawNode) ([]Sexp, error) {
	result := make([]Sexp, 0, len(nodes))
	for _, n := range nodes {
		s, err := convert(n)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

func convert(n *rawNode) (Sexp, error) {
	switch {
	case n.List != nil:
		elements := make([]Sexp, 0, len(n.List.Items))
		for _, item := range n.List.Items {
			s, err := convert(item)
			if err != nil {
				return nil, err
			}
			elements = append(elements, s)
		}
		return &List{elements: elements, pos: n.Pos}, nil

	case n.Str != nil:
		v, err := unquote(*n.Str)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Pos, err)
		}
		return String(v), nil

	case n.Atom != nil:
		return classifyAtom(*n.Atom), nil
	}
	return nil, fmt.Errorf("%s: empty node", n.Pos)
}

// classifyAtom turns a bare token into an Int, Float or Symbol
func classifyAtom(tok string) Sexp {
	if !looksNumeric(tok) {
		return Symbol(tok)
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Float(f)
	}
	return Symbol(tok)
}

// looksNumeric rejects tokens like "inf" or "nan" that ParseFloat would accept
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	if c == '-' || c == '+' {
		if len(tok) == 1 {
			return false
		}
		c = tok[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}
