package kicadsexp

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the token structure of KiCad S-expressions
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},

	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// Quoted strings with backslash escapes
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Anything else up to a delimiter: keywords, layer names, numbers, UUIDs
	{Name: "Atom", Pattern: `[^\s()"]+`},
})

// unquote strips the surrounding quotes and resolves escapes.
// Unknown escapes keep the escaped character.
func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("malformed string literal %s", tok)
	}
	body := tok[1 : len(tok)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i == len(body)-1 {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String(), nil
}
