package geometry_test

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modsuite/internal/geometry"
	"modsuite/internal/services"
)

const tolerance = 1e-5

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }

func TestCapsuleBounds(t *testing.T) {
	diameter := 1.25
	mesh, err := geometry.Capsule(diameter/2, 2.0*diameter, 128)
	if err != nil {
		t.Fatalf("Capsule: %v", err)
	}
	box, err := mesh.Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	ext := box.Extents()
	if !near(ext[0], 1.25) || !near(ext[1], 1.25) {
		t.Fatalf("expected 1.25 m across, got %v", ext)
	}
	if !near(ext[2], 2.0*1.25+1.25) {
		t.Fatalf("expected body plus caps along Z, got %v", ext[2])
	}
	if !near(box.Min[2], -box.Max[2]) {
		t.Fatalf("capsule should be centred: %v", box)
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		t.Fatalf("normals %d != positions %d", len(mesh.Normals), len(mesh.Positions))
	}
	for i, n := range mesh.Normals {
		if l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]); !near(l, 1) {
			t.Fatalf("normal %d not unit length: %v", i, n)
		}
	}
}

func TestCapsuleRejectsBadInput(t *testing.T) {
	cases := []struct {
		radius, height float64
		segments       int
	}{
		{0, 1, 16},
		{-1, 1, 16},
		{1, -0.5, 16},
		{1, 1, 2},
		{1, 1, geometry.MaxSegments + 1},
		{math.NaN(), 1, 16},
	}
	for _, tc := range cases {
		if _, err := geometry.Capsule(tc.radius, tc.height, tc.segments); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Capsule(%v, %v, %d) = %v, want validation error", tc.radius, tc.height, tc.segments, err)
		}
	}
}

func TestWriteGLBRoundTrip(t *testing.T) {
	mesh, err := geometry.Capsule(0.5, 1, 16)
	if err != nil {
		t.Fatalf("Capsule: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "tank.glb")
	if err := geometry.WriteGLB(mesh, path); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data[:4]) != "glTF" {
		t.Fatalf("missing GLB magic: %q", data[:4])
	}

	loaded, err := geometry.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Triangles() != mesh.Triangles() {
		t.Fatalf("triangles %d != %d", loaded.Triangles(), mesh.Triangles())
	}
	want, _ := mesh.Bounds()
	got, _ := loaded.Bounds()
	for axis := 0; axis < 3; axis++ {
		if !near(want.Min[axis], got.Min[axis]) || !near(want.Max[axis], got.Max[axis]) {
			t.Fatalf("bounds changed: %v vs %v", want, got)
		}
	}
}

func TestReadOBJ(t *testing.T) {
	src := `# quad plus triangle
v 0 0 0
v 2 0 0
v 2 1 0
v 0 1 0
v 0 0 3
f 1/1/1 2/2/1 3/3/1 4/4/1
f -5 -4 -1
`
	mesh, err := geometry.ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ: %v", err)
	}
	if mesh.Triangles() != 3 {
		t.Fatalf("expected 3 triangles, got %d", mesh.Triangles())
	}
	box, _ := mesh.Bounds()
	if box.Extents() != (geometry.Vec3{2, 1, 3}) {
		t.Fatalf("unexpected extents %v", box.Extents())
	}
	if _, err := geometry.ReadOBJ(strings.NewReader("v 0 0 0\nf 1 2 3\n")); err == nil {
		t.Fatal("expected out of range face error")
	}
}

func TestReadSTL(t *testing.T) {
	ascii := `solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid tri
`
	mesh, err := geometry.ReadSTL([]byte(ascii))
	if err != nil {
		t.Fatalf("ascii: %v", err)
	}
	if mesh.Triangles() != 1 || mesh.Normals[0] != (geometry.Vec3{0, 0, 1}) {
		t.Fatalf("unexpected ascii mesh %+v", mesh)
	}

	bin := make([]byte, 84+50)
	binary.LittleEndian.PutUint32(bin[80:], 1)
	floats := []float32{0, 0, 1, 0, 0, 0, 4, 0, 0, 0, 5, 0}
	for i, f := range floats {
		binary.LittleEndian.PutUint32(bin[84+i*4:], math.Float32bits(f))
	}
	mesh, err = geometry.ReadSTL(bin)
	if err != nil {
		t.Fatalf("binary: %v", err)
	}
	box, _ := mesh.Bounds()
	if box.Extents() != (geometry.Vec3{4, 5, 0}) {
		t.Fatalf("unexpected binary extents %v", box.Extents())
	}
}

func TestConvertToGLB(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "part.obj")
	if err := os.WriteFile(obj, []byte("v 0 0 0\nv 1 0 0\nv 0 2 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(dir, "out", "part.glb")
	box, err := geometry.ConvertToGLB(obj, out)
	if err != nil {
		t.Fatalf("ConvertToGLB: %v", err)
	}
	if box.Extents() != (geometry.Vec3{1, 2, 0}) {
		t.Fatalf("unexpected extents %v", box.Extents())
	}

	copied := filepath.Join(dir, "copy.glb")
	again, err := geometry.ConvertToGLB(out, copied)
	if err != nil {
		t.Fatalf("glb passthrough: %v", err)
	}
	a, _ := os.ReadFile(out)
	b, _ := os.ReadFile(copied)
	if string(a) != string(b) {
		t.Fatal("glb input should be copied unchanged")
	}
	if !near(again.Max[1], 2) {
		t.Fatalf("unexpected passthrough bounds %v", again)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := geometry.Load(filepath.Join(dir, "missing.obj")); !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
	fbx := filepath.Join(dir, "model.fbx")
	_ = os.WriteFile(fbx, []byte("x"), 0o644)
	if _, err := geometry.Load(fbx); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if geometry.Supported(fbx) || !geometry.Supported("a.GLB") {
		t.Fatal("unexpected Supported results")
	}
}
