package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadOBJ parses vertex and face records from a Wavefront OBJ stream.
// Polygons are fan-triangulated; texture and normal references are ignored.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	mesh := &Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs three coordinates", line)
			}
			var v Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				v[i] = f
			}
			mesh.Positions = append(mesh.Positions, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least three vertices", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := objIndex(ref, len(mesh.Positions))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("obj contains no faces")
	}
	return mesh, nil
}

// objIndex resolves a 1-based or negative (relative) vertex reference.
func objIndex(ref string, count int) (uint32, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	if n < 0 {
		n = count + n + 1
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("vertex reference %q out of range", ref)
	}
	return uint32(n - 1), nil
}
