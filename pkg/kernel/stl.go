package kernel

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const stlHeaderSize = 80

// ReadSTL reads an ASCII or binary STL stream. Binary files are recognised
// by their triangle count matching the stream length, since binary headers
// may also start with "solid".
func ReadSTL(r io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if int64(len(data)) == stlHeaderSize+4+int64(n)*50 {
			return readBinarySTL(data[stlHeaderSize+4:], int(n)), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return readASCIISTL(data)
	}
	return nil, fmt.Errorf("not an STL stream")
}

func readBinarySTL(data []byte, n int) *Mesh {
	m := &Mesh{}
	f := func(off int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	for i := 0; i < n; i++ {
		rec := i * 50
		var p [3]v3.Vec
		for j := 0; j < 3; j++ {
			o := rec + 12 + j*12
			p[j] = v3.Vec{X: f(o), Y: f(o + 4), Z: f(o + 8)}
		}
		m.AddTriangle(p[0], p[1], p[2])
	}
	return m
}

func readASCIISTL(data []byte) (*Mesh, error) {
	m := &Mesh{}
	var corners []v3.Vec

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var c [3]float64
			for i := range c {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				c[i] = v
			}
			corners = append(corners, v3.Vec{X: c[0], Y: c[1], Z: c[2]})
		case "endfacet":
			if len(corners) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices", lineNo, len(corners))
			}
			m.AddTriangle(corners[0], corners[1], corners[2])
			corners = corners[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
