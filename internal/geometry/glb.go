package geometry

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"modsuite/internal/fileutil"
	"modsuite/internal/services"
)

// WriteGLB serializes m as a single-mesh binary glTF at path.
func WriteGLB(m *Mesh, path string) error {
	if m == nil {
		return services.Wrap(services.ErrValidation, "geometry", "write glb", "mesh is nil", nil)
	}
	if err := m.validate(); err != nil {
		return err
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return services.Wrap(services.ErrIOFailure, "geometry", "write glb", path, err)
	}

	doc := gltf.NewDocument()
	positions := make([][3]float32, len(m.Positions))
	for i, p := range m.Positions {
		positions[i] = [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
	}
	attributes := map[string]int{gltf.POSITION: modeler.WritePosition(doc, positions)}
	if len(m.Normals) == len(m.Positions) {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		}
		attributes[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}

	name := m.Name
	if name == "" {
		name = "mesh"
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Attributes: attributes,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if err := gltf.SaveBinary(doc, path); err != nil {
		return services.Wrap(services.ErrIOFailure, "geometry", "write glb", path, err)
	}
	return nil
}

// loadGLTF merges every triangle primitive reachable from the default scene,
// applying node transforms.
func loadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "geometry", "load gltf", path, err)
	}

	out := &Mesh{}
	var visit func(idx int, parent mat4, depth int) error
	visit = func(idx int, parent mat4, depth int) error {
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return fmt.Errorf("node %d is out of range or cyclic", idx)
		}
		node := doc.Nodes[idx]
		world := parent.mul(localMatrix(node))
		if node.Mesh != nil {
			meshIdx := int(*node.Mesh)
			if meshIdx >= len(doc.Meshes) {
				return fmt.Errorf("node %d references missing mesh %d", idx, meshIdx)
			}
			for _, prim := range doc.Meshes[meshIdx].Primitives {
				part, err := readPrimitive(doc, prim)
				if err != nil {
					return err
				}
				part.transform(world)
				out.Append(part)
			}
		}
		for _, child := range node.Children {
			if err := visit(int(child), world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range sceneRoots(doc) {
		if err := visit(root, identity(), 0); err != nil {
			return nil, services.Wrap(services.ErrValidation, "geometry", "load gltf", path, err)
		}
	}
	if len(out.Positions) == 0 {
		return nil, services.Wrap(services.ErrValidation, "geometry", "load gltf", path+": no triangle geometry", nil)
	}
	return out, nil
}

func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) == 0 {
		roots := make([]int, 0, len(doc.Nodes))
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
		return roots
	}
	scene := 0
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		scene = int(*doc.Scene)
	}
	roots := make([]int, 0, len(doc.Scenes[scene].Nodes))
	for _, n := range doc.Scenes[scene].Nodes {
		roots = append(roots, int(n))
	}
	return roots
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return &Mesh{}, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || int(posIdx) >= len(doc.Accessors) {
		return &Mesh{}, nil
	}
	raw, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	part := &Mesh{Positions: make([]Vec3, len(raw))}
	for i, p := range raw {
		part.Positions[i] = Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok && int(nIdx) < len(doc.Accessors) {
		if normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil); err == nil && len(normals) == len(raw) {
			part.Normals = make([]Vec3, len(normals))
			for i, n := range normals {
				part.Normals[i] = Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
			}
		}
	}
	if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		part.Indices = indices
	} else {
		part.Indices = make([]uint32, len(raw))
		for i := range part.Indices {
			part.Indices[i] = uint32(i)
		}
	}
	part.Indices = part.Indices[:len(part.Indices)/3*3]
	return part, nil
}

// mat4 is a column-major affine transform, matching glTF's layout.
type mat4 [16]float64

func identity() mat4 {
	return mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func (a mat4) mul(b mat4) mat4 {
	var out mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

func localMatrix(node *gltf.Node) mat4 {
	if node.Matrix != ([16]float64{}) && node.Matrix != [16]float64(identity()) {
		return mat4(node.Matrix)
	}
	s := node.Scale
	if s == ([3]float64{}) {
		s = [3]float64{1, 1, 1}
	}
	q := node.Rotation
	if q == ([4]float64{}) {
		q = [4]float64{0, 0, 0, 1}
	}
	x, y, z, w := q[0], q[1], q[2], q[3]
	t := node.Translation
	return mat4{
		(1 - 2*(y*y+z*z)) * s[0], 2 * (x*y + z*w) * s[0], 2 * (x*z - y*w) * s[0], 0,
		2 * (x*y - z*w) * s[1], (1 - 2*(x*x+z*z)) * s[1], 2 * (y*z + x*w) * s[1], 0,
		2 * (x*z + y*w) * s[2], 2 * (y*z - x*w) * s[2], (1 - 2*(x*x+y*y)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

func (m *Mesh) transform(t mat4) {
	if t == identity() {
		return
	}
	for i, p := range m.Positions {
		m.Positions[i] = Vec3{
			t[0]*p[0] + t[4]*p[1] + t[8]*p[2] + t[12],
			t[1]*p[0] + t[5]*p[1] + t[9]*p[2] + t[13],
			t[2]*p[0] + t[6]*p[1] + t[10]*p[2] + t[14],
		}
	}
	for i, n := range m.Normals {
		v := Vec3{
			t[0]*n[0] + t[4]*n[1] + t[8]*n[2],
			t[1]*n[0] + t[5]*n[1] + t[9]*n[2],
			t[2]*n[0] + t[6]*n[1] + t[10]*n[2],
		}
		if l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]); l > 0 {
			v = Vec3{v[0] / l, v[1] / l, v[2] / l}
		}
		m.Normals[i] = v
	}
}
