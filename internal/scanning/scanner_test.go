package scanning_test

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"modsuite/internal/actions"
	"modsuite/internal/manifest"
	"modsuite/internal/scanning"
	"modsuite/internal/sidecar"
	"modsuite/internal/units"
)

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 6, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestScanFileClassifies(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "part.obj")
	write(t, model, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	img := filepath.Join(dir, "tex.png")
	writeImage(t, img)
	cfg := filepath.Join(dir, "part.cfg")
	write(t, cfg, []byte(`{"mass": 1}`))
	broken := filepath.Join(dir, "bad.stl")
	write(t, broken, []byte("garbage"))

	cases := []struct {
		path string
		want scanning.Kind
	}{
		{model, scanning.KindModel},
		{img, scanning.KindImage},
		{cfg, scanning.KindText},
		{broken, scanning.KindBinary},
	}
	for _, tc := range cases {
		res, err := scanning.ScanFile(tc.path)
		if err != nil {
			t.Fatalf("ScanFile(%s): %v", tc.path, err)
		}
		if res.Type != tc.want {
			t.Fatalf("ScanFile(%s) type = %s, want %s", tc.path, res.Type, tc.want)
		}
		if res.Details["sha256"] == "" || res.Details["size_bytes"] == nil {
			t.Fatalf("missing size or digest: %v", res.Details)
		}
	}

	res, _ := scanning.ScanFile(img)
	if res.Details["width"] != 6 || res.Details["height"] != 2 || res.Details["format"] != "PNG" {
		t.Fatalf("unexpected image details %v", res.Details)
	}
	res, _ = scanning.ScanFile(cfg)
	if res.Details["text_kind"] != "json" {
		t.Fatalf("unexpected text kind %v", res.Details["text_kind"])
	}
	res, _ = scanning.ScanFile(model)
	if res.Details["faces"] != 1 || res.Details["vertices"] != 3 || res.Bounds == nil {
		t.Fatalf("unexpected model details %v", res.Details)
	}
}

func TestScanPathSummarizesDirectories(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.obj"), []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	write(t, filepath.Join(dir, "nested", "notes.txt"), []byte("hello"))
	write(t, filepath.Join(dir, "nested", "blob.bin"), []byte{0, 1, 2})
	write(t, filepath.Join(dir, "a.obj.ams.json"), []byte("{}"))

	report, err := scanning.ScanPath(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if !report.IsFolder() {
		t.Fatal("expected folder report")
	}
	want := scanning.Summary{Files: 3, Models: 1, Text: 1, Binary: 1}
	if *report.Summary != want {
		t.Fatalf("summary = %+v, want %+v", *report.Summary, want)
	}
	if report.Audit()["kind"] != "folder" {
		t.Fatalf("unexpected audit %v", report.Audit())
	}
}

func TestWriteSidecarCarriesAudit(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "part.obj")
	write(t, model, []byte("v 0 0 0\nv 2 0 0\nv 0 1 0\nf 1 2 3\n"))

	pub := actions.NewPublisher(
		manifest.NewBuilder(manifest.WithIdentity(manifest.Identity{User: "u", Host: "h"})),
		sidecar.NewStore(sidecar.WriteOptions{}, nil),
	)
	scanner := scanning.NewScanner(pub, units.LargeScene)
	_, rec, err := scanner.WriteSidecar(context.Background(), model)
	if err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	sc, err := sidecar.Read(model + sidecar.JSONSuffix)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	got := sc.Record
	if got.AMSID != rec.AMSID || got.Conversion.Action != scanning.ScanAction {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Audit["kind"] != "file" || got.Audit["detected_type"] != "model" {
		t.Fatalf("audit not recorded: %v", got.Audit)
	}
	details := got.Audit["details"].(map[string]any)
	if details["faces"] != float64(1) {
		t.Fatalf("unexpected audit details %v", details)
	}
	if got.Geometry == nil || got.Geometry.Extents != [3]float64{2, 1, 0} {
		t.Fatalf("unexpected geometry %+v", got.Geometry)
	}
	if got.Scale.ProfileID != "large_scene" || got.Source.Type != manifest.SourceImported {
		t.Fatalf("unexpected scale/source %+v %+v", got.Scale, got.Source)
	}

	report, rec, err := scanner.WriteSidecar(context.Background(), dir)
	if err != nil || !report.IsFolder() || rec.AMSID != "" {
		t.Fatalf("directories should not produce sidecars: %v %+v", err, rec)
	}
}
