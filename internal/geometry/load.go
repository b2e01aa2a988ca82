package geometry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modsuite/internal/fileutil"
	"modsuite/internal/services"
)

// Supported reports whether Load understands the extension of path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".stl", ".gltf", ".glb":
		return true
	}
	return false
}

// Load reads a model file into a single mesh, choosing the parser by extension.
func Load(path string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if _, err := os.Stat(path); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "geometry", "load", path, err)
		}
		return loadGLTF(path)
	case ".obj", ".stl":
	default:
		return nil, services.Wrap(services.ErrValidation, "geometry", "load",
			fmt.Sprintf("unsupported model format %q", ext), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "geometry", "load", path, err)
	}
	var mesh *Mesh
	if ext == ".obj" {
		mesh, err = ReadOBJ(bytes.NewReader(data))
	} else {
		mesh, err = ReadSTL(data)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "geometry", "load", path, err)
	}
	if mesh.Name == "" {
		mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mesh, nil
}

// ConvertToGLB writes the model at in as binary glTF at out and returns its
// bounds. GLB inputs are copied byte for byte.
func ConvertToGLB(in, out string) (BBox, error) {
	mesh, err := Load(in)
	if err != nil {
		return BBox{}, err
	}
	box, err := mesh.Bounds()
	if err != nil {
		return BBox{}, err
	}
	if strings.EqualFold(filepath.Ext(in), ".glb") {
		if samePath(in, out) {
			return box, nil
		}
		if err := fileutil.EnsureParentDir(out); err != nil {
			return BBox{}, services.Wrap(services.ErrIOFailure, "geometry", "convert", out, err)
		}
		if err := fileutil.CopyFileVerified(in, out); err != nil {
			return BBox{}, services.Wrap(services.ErrIOFailure, "geometry", "convert", out, err)
		}
		return box, nil
	}
	if err := WriteGLB(mesh, out); err != nil {
		return BBox{}, err
	}
	return box, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
