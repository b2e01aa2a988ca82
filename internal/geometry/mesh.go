package geometry

import (
	"math"

	"modsuite/internal/services"
)

// Vec3 is a point or direction in meters.
type Vec3 [3]float64

// Mesh is an indexed triangle list. Normals is either empty or parallel to
// Positions.
type Mesh struct {
	Name      string
	Positions []Vec3
	Normals   []Vec3
	Indices   []uint32
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Extents returns Max - Min per axis.
func (b BBox) Extents() Vec3 {
	return Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Triangles returns the number of faces.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Bounds computes the bounding box of every vertex.
func (m *Mesh) Bounds() (BBox, error) {
	if m == nil || len(m.Positions) == 0 {
		return BBox{}, services.Wrap(services.ErrValidation, "geometry", "bounds", "mesh has no vertices", nil)
	}
	box := BBox{
		Min: Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range m.Positions {
		for axis := 0; axis < 3; axis++ {
			box.Min[axis] = math.Min(box.Min[axis], p[axis])
			box.Max[axis] = math.Max(box.Max[axis], p[axis])
		}
	}
	return box, nil
}

// Append merges other into m, offsetting its indices.
func (m *Mesh) Append(other *Mesh) {
	if other == nil || len(other.Positions) == 0 {
		return
	}
	withNormals := len(other.Normals) == len(other.Positions) &&
		(len(m.Positions) == 0 || len(m.Normals) == len(m.Positions))
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, other.Positions...)
	if withNormals {
		m.Normals = append(m.Normals, other.Normals...)
	} else {
		m.Normals = nil
	}
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

func (m *Mesh) validate() error {
	if len(m.Positions) == 0 || len(m.Indices) == 0 {
		return services.Wrap(services.ErrValidation, "geometry", "mesh", "mesh has no triangles", nil)
	}
	if len(m.Indices)%3 != 0 {
		return services.Wrap(services.ErrValidation, "geometry", "mesh", "index count is not a multiple of three", nil)
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return services.Wrap(services.ErrValidation, "geometry", "mesh", "index out of range", nil)
		}
	}
	return nil
}
