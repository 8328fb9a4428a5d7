package pcb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// BoardExtension is the only accepted board file extension
const BoardExtension = ".kicad_pcb"

// LoadBoard checks the file name and existence, then parses the board
func LoadBoard(filename string) (*Board, error) {
	if !strings.EqualFold(filepath.Ext(filename), BoardExtension) {
		return nil, &ParseError{File: filename, Err: ErrWrongExtension}
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ParseError{File: filename, Err: ErrNoSuchFile}
		}
		return nil, &ParseError{File: filename, Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	board, err := Parse(file)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.File = filename
			return nil, perr
		}
		return nil, err
	}
	board.FileName = filename
	return board, nil
}

// Parse reads and parses a KiCad board from an io.Reader.
// Every structural failure is returned as a *ParseError.
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		perr := &ParseError{Field: "syntax", Err: fmt.Errorf("%w: %v", ErrMalformedEntity, err)}
		var pe participle.Error
		if errors.As(err, &pe) {
			perr.Line = pe.Position().Line
		}
		return nil, perr
	}

	if len(sexps) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("%w: empty file", ErrNotBoard)}
	}

	root := sexps[0]
	rootName, err := getNodeName(root)
	if err != nil || root.IsLeaf() || rootName != "kicad_pcb" {
		return nil, &ParseError{Err: fmt.Errorf("%w: expected 'kicad_pcb', got %q", ErrNotBoard, root.String())}
	}

	board := &Board{Generator: "unknown"}
	haveThickness := false

	for _, child := range getListItems(root) {
		if child.IsLeaf() {
			return nil, &ParseError{
				Field: child.String(),
				Line:  nodeLine(root),
				Err:   malformed("corrupt PCB file; top-level %s is not a list", child.Kind()),
			}
		}

		name, err := getNodeName(child)
		if err != nil {
			return nil, &ParseError{Line: nodeLine(child), Err: malformed("%v", err)}
		}

		switch name {
		case "version":
			board.Version, err = getInt(child, 1)
			if err != nil {
				err = malformed("invalid version: %v", err)
			}
		case "host", "generator":
			if gen, gerr := getString(child, 1); gerr == nil {
				board.Generator = gen
			}
		case "general":
			board.Thickness, err = parseGeneral(child)
			haveThickness = err == nil
		case "module", "footprint":
			var module *Module
			module, err = parseModule(child)
			if err == nil {
				board.Modules = append(board.Modules, *module)
			}
		default:
			if isCurveKeyword(name) {
				var curves []Curve
				curves, err = parseEdgeCurves(child)
				board.Curves = append(board.Curves, curves...)
			}
		}

		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return nil, perr
			}
			return nil, &ParseError{Field: name, Line: nodeLine(child), Err: err}
		}
	}

	if !haveThickness {
		return nil, &ParseError{Field: "general", Err: ErrMissingThickness}
	}

	return board, nil
}

// parseGeneral extracts the board thickness
// Expected format: (general (thickness 1.6) ...)
func parseGeneral(node kicadsexp.Sexp) (float64, error) {
	thicknessNode, found := findNode(node, "thickness")
	if !found {
		return 0, ErrMissingThickness
	}

	thickness, err := getFloat(thicknessNode, 1)
	if err != nil {
		return 0, malformed("failed to parse thickness: %v", err)
	}

	return thickness, nil
}
