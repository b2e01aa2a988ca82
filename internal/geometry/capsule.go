package geometry

import (
	"fmt"
	"math"

	"modsuite/internal/services"
)

// Accepted radial resolution. The vertex count grows with segments squared.
const (
	MinSegments = 3
	MaxSegments = 4096
)

// Capsule builds a closed capsule along Z centred at the origin: a cylinder of
// the given radius whose hemispherical caps are centred height apart. The total
// Z extent is height + 2*radius.
func Capsule(radius, height float64, segments int) (*Mesh, error) {
	switch {
	case !(radius > 0) || math.IsInf(radius, 0):
		return nil, services.Wrap(services.ErrValidation, "geometry", "capsule",
			fmt.Sprintf("radius must be positive, got %g", radius), nil)
	case height < 0 || math.IsNaN(height) || math.IsInf(height, 0):
		return nil, services.Wrap(services.ErrValidation, "geometry", "capsule",
			fmt.Sprintf("height must not be negative, got %g", height), nil)
	case segments < MinSegments:
		return nil, services.Wrap(services.ErrValidation, "geometry", "capsule",
			fmt.Sprintf("segments must be at least %d, got %d", MinSegments, segments), nil)
	case segments > MaxSegments:
		return nil, services.Wrap(services.ErrValidation, "geometry", "capsule",
			fmt.Sprintf("segments must be at most %d, got %d", MaxSegments, segments), nil)
	}

	lat := max(segments/4, 2)
	half := height / 2
	mesh := &Mesh{Name: "capsule"}

	addVertex := func(p Vec3, centreZ float64) {
		mesh.Positions = append(mesh.Positions, p)
		mesh.Normals = append(mesh.Normals, Vec3{p[0] / radius, p[1] / radius, (p[2] - centreZ) / radius})
	}

	addVertex(Vec3{0, 0, half + radius}, half)
	// Rings from the top pole down to the top equator, then from the bottom
	// equator down to the bottom pole.
	for i := 1; i <= 2*lat; i++ {
		var phi, centre float64
		if i <= lat {
			phi = (math.Pi / 2) * float64(i) / float64(lat)
			centre = half
		} else {
			phi = math.Pi/2 + (math.Pi/2)*float64(i-lat-1)/float64(lat)
			centre = -half
		}
		ringR := radius * math.Sin(phi)
		z := centre + radius*math.Cos(phi)
		for j := 0; j < segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			addVertex(Vec3{ringR * math.Cos(theta), ringR * math.Sin(theta), z}, centre)
		}
	}
	addVertex(Vec3{0, 0, -half - radius}, -half)

	rings := 2 * lat
	seg := uint32(segments)
	ring := func(k, j int) uint32 { return 1 + uint32(k)*seg + uint32(j%segments) }
	bottom := uint32(len(mesh.Positions) - 1)

	for j := 0; j < segments; j++ {
		mesh.Indices = append(mesh.Indices, 0, ring(0, j), ring(0, j+1))
	}
	for k := 0; k < rings-1; k++ {
		for j := 0; j < segments; j++ {
			a, b := ring(k, j), ring(k, j+1)
			c, d := ring(k+1, j), ring(k+1, j+1)
			mesh.Indices = append(mesh.Indices, a, c, d, a, d, b)
		}
	}
	for j := 0; j < segments; j++ {
		mesh.Indices = append(mesh.Indices, bottom, ring(rings-1, j+1), ring(rings-1, j))
	}
	return mesh, nil
}
