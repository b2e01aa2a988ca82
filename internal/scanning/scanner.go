// Package scanning classifies existing assets and records what it finds in a
// provenance sidecar whose audit block holds the scan report.
package scanning

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"modsuite/internal/actions"
	"modsuite/internal/digest"
	"modsuite/internal/geometry"
	"modsuite/internal/imaging"
	"modsuite/internal/manifest"
	"modsuite/internal/services"
	"modsuite/internal/sidecar"
	"modsuite/internal/units"
	"modsuite/internal/workflow"
)

// Kind is the detected type of a scanned path.
type Kind string

const (
	KindModel  Kind = "model"
	KindImage  Kind = "image"
	KindText   Kind = "text"
	KindBinary Kind = "binary"
	KindFolder Kind = "folder"
)

// ScanAction is the conversion action recorded on scan sidecars.
const ScanAction = "scan"

var (
	modelExts = map[string]bool{".obj": true, ".fbx": true, ".dae": true, ".stl": true, ".ply": true, ".gltf": true, ".glb": true}
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".tga": true, ".bmp": true, ".tif": true, ".tiff": true, ".gif": true, ".webp": true, ".dds": true}
	textExts  = map[string]bool{".cfg": true, ".ini": true, ".txt": true, ".json": true, ".yaml": true, ".yml": true, ".xml": true}
)

// FileResult is the scan of a single file.
type FileResult struct {
	Path    string
	Type    Kind
	Details map[string]any
	Missing []string
	// Bounds is set for models that could be parsed.
	Bounds *geometry.BBox
}

// Summary counts files by detected type.
type Summary struct {
	Files  int `json:"files"`
	Models int `json:"models"`
	Images int `json:"images"`
	Text   int `json:"text"`
	Binary int `json:"binary"`
}

// Report is the result of ScanPath: File for a file, Summary for a directory.
type Report struct {
	Path    string
	File    *FileResult
	Summary *Summary
}

// IsFolder reports whether the scanned path was a directory.
func (r Report) IsFolder() bool { return r.Summary != nil }

// Audit renders the report as the audit payload stored in sidecars.
func (r Report) Audit() map[string]any {
	if r.Summary != nil {
		return map[string]any{"kind": "folder", "path": r.Path, "summary": *r.Summary}
	}
	return map[string]any{
		"kind":          "file",
		"path":          r.Path,
		"detected_type": string(r.File.Type),
		"details":       r.File.Details,
		"missing":       r.File.Missing,
	}
}

// ScanFile classifies path by extension and collects size, digest and
// type-specific details. Parse failures downgrade the type to binary.
func ScanFile(path string) (FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileResult{}, services.Wrap(services.ErrIOFailure, "scanning", "stat", path, err)
	}
	if info.IsDir() {
		return FileResult{}, services.Wrap(services.ErrValidation, "scanning", "scan file", path+" is a directory", nil)
	}
	sum, size, err := digest.File(path)
	if err != nil {
		return FileResult{}, err
	}
	res := FileResult{
		Path:    path,
		Type:    KindBinary,
		Details: map[string]any{"size_bytes": size, "sha256": sum},
		Missing: []string{},
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case modelExts[ext]:
		mesh, err := geometry.Load(path)
		if err != nil {
			break
		}
		box, err := mesh.Bounds()
		if err != nil {
			break
		}
		res.Type = KindModel
		res.Bounds = &box
		res.Details["bbox_min"] = box.Min
		res.Details["bbox_max"] = box.Max
		res.Details["vertices"] = len(mesh.Positions)
		res.Details["faces"] = mesh.Triangles()
	case imageExts[ext]:
		img, err := imaging.Describe(path)
		if err != nil {
			break
		}
		res.Type = KindImage
		res.Details["width"] = img.Width
		res.Details["height"] = img.Height
		res.Details["format"] = string(img.Format)
	case textExts[ext]:
		res.Type = KindText
		res.Details["text_kind"] = textKind(path)
	}
	return res, nil
}

func textKind(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	if json.Valid(data) {
		return "json"
	}
	var v any
	if yaml.Unmarshal(data, &v) == nil {
		return "yaml"
	}
	return "plain"
}

// ScanPath scans a file, or walks a directory and summarizes every regular
// file beneath it. Sidecar files are not counted.
func ScanPath(ctx context.Context, path string) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, services.Wrap(services.ErrIOFailure, "scanning", "stat", path, err)
	}
	if !info.IsDir() {
		res, err := ScanFile(path)
		if err != nil {
			return Report{}, err
		}
		return Report{Path: path, File: &res}, nil
	}

	summary := &Summary{}
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || sidecar.IsSidecarPath(p) {
			return nil
		}
		res, err := ScanFile(p)
		if err != nil {
			return nil
		}
		summary.Files++
		switch res.Type {
		case KindModel:
			summary.Models++
		case KindImage:
			summary.Images++
		case KindText:
			summary.Text++
		default:
			summary.Binary++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Report{}, err
		}
		return Report{}, services.Wrap(services.ErrIOFailure, "scanning", "walk", path, err)
	}
	return Report{Path: path, Summary: summary}, nil
}

// Scanner writes scan sidecars through a publisher.
type Scanner struct {
	pub     *actions.Publisher
	profile units.Profile
}

// NewScanner builds a scanner that stamps records with profile.
func NewScanner(pub *actions.Publisher, profile units.Profile) *Scanner {
	return &Scanner{pub: pub, profile: profile}
}

// WriteSidecar scans path and, for files, writes a sidecar whose audit is the
// scan report. Directories return their report with a zero record.
func (s *Scanner) WriteSidecar(ctx context.Context, path string) (Report, manifest.Record, error) {
	report, err := ScanPath(ctx, path)
	if err != nil {
		return Report{}, manifest.Record{}, err
	}
	if report.IsFolder() {
		return report, manifest.Record{}, nil
	}
	art := actions.Artifact{
		Path:       path,
		Action:     ScanAction,
		Parameters: map[string]any{"detected_type": string(report.File.Type)},
		SourceKind: manifest.SourceImported,
		Bounds:     report.File.Bounds,
		Audit:      report.Audit(),
	}
	rec, err := s.pub.Publish(ctx, workflow.RunContext{Profile: s.profile}, art)
	if err != nil {
		return report, manifest.Record{}, err
	}
	return report, rec, nil
}
