package geometry

import (
	"bytes"
	"fmt"

	"github.com/hschendel/stl"
)

// ReadSTL parses binary or ASCII STL data. Facet normals are copied to each of
// the facet's three vertices.
func ReadSTL(data []byte) (*Mesh, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	if len(solid.Triangles) == 0 {
		return nil, fmt.Errorf("stl contains no facets")
	}
	count := len(solid.Triangles) * 3
	mesh := &Mesh{
		Name:      solid.Name,
		Positions: make([]Vec3, 0, count),
		Normals:   make([]Vec3, 0, count),
		Indices:   make([]uint32, 0, count),
	}
	for _, tri := range solid.Triangles {
		normal := fromSTL(tri.Normal)
		for _, v := range tri.Vertices {
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)))
			mesh.Positions = append(mesh.Positions, fromSTL(v))
			mesh.Normals = append(mesh.Normals, normal)
		}
	}
	return mesh, nil
}

func fromSTL(v stl.Vec3) Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
