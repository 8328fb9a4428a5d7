package pcb

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongExtension is returned when the input is not a .kicad_pcb file
	ErrWrongExtension = errors.New("expecting extension .kicad_pcb")
	// ErrNoSuchFile is returned when the board file does not exist
	ErrNoSuchFile = errors.New("no such file")
	// ErrNotBoard is returned when the root node is not kicad_pcb
	ErrNotBoard = errors.New("not a KiCad PCB file")
	// ErrMissingThickness is returned when the general section lacks a thickness
	ErrMissingThickness = errors.New("board thickness not specified")
	// ErrMalformedEntity is wrapped by every structural parse failure of an entity
	ErrMalformedEntity = errors.New("malformed entity")
)

// ParseError carries the file and field context of a structural parse failure
type ParseError struct {
	File  string // board file name, empty when parsing a stream
	Field string // keyword of the entity that failed
	Line  int    // source line, 0 if unknown
	Err   error
}

func (e *ParseError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", loc, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// malformed wraps ErrMalformedEntity with a formatted message
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEntity, fmt.Sprintf(format, args...))
}
