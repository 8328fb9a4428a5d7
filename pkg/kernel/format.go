package kernel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a component model file type
type Format int

const (
	FormatNone Format = iota
	FormatSTEP
	FormatIGES
	FormatSTL
	FormatIDF
	FormatEMN
)

func (f Format) String() string {
	switch f {
	case FormatSTEP:
		return "STEP"
	case FormatIGES:
		return "IGES"
	case FormatSTL:
		return "STL"
	case FormatIDF:
		return "IDF"
	case FormatEMN:
		return "EMN"
	default:
		return "none"
	}
}

// igesLineLength is the fixed record width of an IGES file
const igesLineLength = 80

// SniffFormat determines a model's format from its first line. IDF outlines
// are recognised by extension only. The content checks are heuristics: a
// Part 21 header is not exclusive to STEP, and the IGES test only looks at
// the section letter in column 73.
func SniffFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatNone, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".idf":
		return FormatIDF, nil
	case ".emn":
		return FormatEMN, nil
	}

	r := bufio.NewReader(f)
	head, _ := r.Peek(igesLineLength + 2)
	line := string(head)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 && i < igesLineLength {
		line = line[:i]
	}

	if strings.HasPrefix(line, "ISO-10303-21;") {
		return FormatSTEP, nil
	}
	if strings.Contains(line, "urn:oid:1.0.10303.") {
		return FormatSTEP, nil
	}
	if len(head) >= igesLineLength && head[72] == 'S' &&
		(len(head) == igesLineLength || head[igesLineLength] == '\r' || head[igesLineLength] == '\n') {
		return FormatIGES, nil
	}

	if isSTL(path, head) {
		return FormatSTL, nil
	}

	return FormatNone, nil
}

// isSTL accepts ASCII files starting with "solid" and anything with an .stl
// extension, which covers binary STL whose header is free-form
func isSTL(path string, head []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(string(head)), "solid ")
}
