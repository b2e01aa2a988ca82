package actions_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"modsuite/internal/actions"
	"modsuite/internal/digest"
	"modsuite/internal/manifest"
	"modsuite/internal/recipe"
	"modsuite/internal/sidecar"
	"modsuite/internal/units"
	"modsuite/internal/workflow"
)

type harness struct {
	runner *workflow.Runner
	index  *memoryIndex
}

type memoryIndex struct {
	sidecars []string
}

func (m *memoryIndex) IndexManifest(_ context.Context, _ manifest.Record, path string) error {
	m.sidecars = append(m.sidecars, path)
	return nil
}

func newHarness(t *testing.T, opts ...workflow.RunnerOption) harness {
	t.Helper()
	builder := manifest.NewBuilder(
		manifest.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
		manifest.WithIdentity(manifest.Identity{User: "tester", Host: "bench"}),
	)
	index := &memoryIndex{}
	pub := actions.NewPublisher(builder, sidecar.NewStore(sidecar.WriteOptions{}, nil),
		actions.WithIndex(index),
		actions.WithTags([]string{"Tank"}),
	)
	registry, err := actions.NewRegistry(pub)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	resolver, err := units.NewResolver(units.DefaultProfileID)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	base := []workflow.RunnerOption{workflow.WithRunIDs(func() string { return "run-1" })}
	return harness{runner: workflow.NewRunner(registry, resolver, append(base, opts...)...), index: index}
}

func writeRecipe(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write recipe: %v", err)
	}
	return path
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, x%4, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func readSidecar(t *testing.T, artifact string) manifest.Record {
	t.Helper()
	jsonPath, yamlPath := sidecar.Paths(artifact)
	if _, err := os.Stat(yamlPath); err != nil {
		t.Fatalf("yaml sidecar missing: %v", err)
	}
	sc, err := sidecar.Read(jsonPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if !sc.Complete() {
		t.Fatalf("sidecar missing keys %v", sc.Missing)
	}
	return sc.Record
}

func TestConvertImageThenUnknownAction(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writePNG(t, "a.png")
	path := writeRecipe(t, dir, "recipe.json",
		`{"steps": [{"action": "convert_image", "input": "a.png", "output": "a.jpg", "format": "JPEG"}, {"action": "bogus"}]}`)

	h := newHarness(t)
	run, err := h.runner.RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	first, second := run.Results[0], run.Results[1]
	if first.Index != 0 || first.Action != "convert_image" || !first.OK || len(first.Outputs) != 1 || first.Outputs[0] != "a.jpg" {
		t.Fatalf("unexpected first result %+v", first)
	}
	if second.Index != 1 || second.Action != "bogus" || second.OK || second.Message != "Unknown action" || len(second.Outputs) != 0 {
		t.Fatalf("unexpected second result %+v", second)
	}

	rec := readSidecar(t, "a.jpg")
	if rec.Conversion.Action != "convert_image" || rec.Conversion.Parameters["format"] != "JPEG" || rec.Conversion.Parameters["input"] != "a.png" {
		t.Fatalf("unexpected conversion %+v", rec.Conversion)
	}
	if rec.Source.Type != manifest.SourceConverted || rec.Source.InputSHA256 == nil {
		t.Fatalf("unexpected source %+v", rec.Source)
	}
	inputSum, _, _ := digest.File("a.png")
	if *rec.Source.InputSHA256 != inputSum {
		t.Fatalf("input digest mismatch")
	}
	if rec.Source.RecipeFile == nil || *rec.Source.RecipeFile != path || *rec.Source.RecipeStep != 0 || *rec.Source.RunID != "run-1" {
		t.Fatalf("missing recipe context %+v", rec.Source)
	}
	if rec.Geometry != nil {
		t.Fatalf("images carry no geometry: %+v", rec.Geometry)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "Tank" {
		t.Fatalf("configured tags not applied: %v", rec.Tags)
	}
	if len(h.index.sidecars) != 1 {
		t.Fatalf("expected one indexed manifest, got %v", h.index.sidecars)
	}
}

func TestCreateTankConvertsMillimetersBeforeDispatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tank.glb")
	h := newHarness(t)
	doc, err := recipe.Parse([]byte(`{"scale_profile": "small_mm", "steps": [
		{"action": "create_tank", "output": "`+out+`", "diameter": 1250, "diameter_unit": "mm", "length_factor": 2.0}
	]}`), recipe.FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	run := h.runner.Run(context.Background(), doc)
	if !run.Results[0].OK {
		t.Fatalf("create_tank failed: %+v", run.Results[0])
	}
	rec := readSidecar(t, out)
	params := rec.Conversion.Parameters
	if params["diameter_m"] != 1.25 || params["body_length_factor"] != 2.0 || params["segments"] != float64(128) {
		t.Fatalf("unexpected parameters %v", params)
	}
	if h := params["body_height_m"].(float64); math.Abs(h-2.0*1.25) > 1e-9 {
		t.Fatalf("capsule height %v, want %v", h, 2.0*1.25)
	}
	if rec.Scale.ProfileID != "small_mm" || rec.Scale.Unit != "mm" {
		t.Fatalf("unexpected scale %+v", rec.Scale)
	}
	if rec.Geometry == nil || rec.Geometry.Units != "m" {
		t.Fatalf("missing geometry %+v", rec.Geometry)
	}
	if ext := rec.Geometry.Extents; math.Abs(ext[2]-(2.5+1.25)) > 1e-9 || math.Abs(ext[0]-1.25) > 1e-9 {
		t.Fatalf("unexpected extents %v", ext)
	}
	if rec.Source.Type != manifest.SourceGenerated || rec.Source.InputPath != nil {
		t.Fatalf("unexpected source %+v", rec.Source)
	}
}

func TestCreateTankRangeEnforcement(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tank.glb")
	h := newHarness(t, workflow.WithRangeEnforcement(true))
	doc, _ := recipe.Parse([]byte(`{"scale_profile": "small_mm", "steps": [
		{"action": "create_tank", "output": "`+out+`", "diameter": 1250}
	]}`), recipe.FormatJSON)

	run := h.runner.Run(context.Background(), doc)
	res := run.Results[0]
	if res.OK || res.State != workflow.StateRejected || !strings.Contains(res.Message, "outside small_mm range") {
		t.Fatalf("expected range rejection, got %+v", res)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("rejected step must not produce output, stat err %v", err)
	}
}

func TestCreateTankFamily(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t)
	doc, _ := recipe.Parse([]byte(`steps:
  - action: create_tank_family
    output_dir: `+dir+`
    diameters: [1.25, 2.5]
    length_factors: [1, 2]
    segments: 16
`), recipe.FormatYAML)

	run := h.runner.Run(context.Background(), doc)
	res := run.Results[0]
	if !res.OK || res.Message != "created 4" || len(res.Outputs) != 4 {
		t.Fatalf("unexpected family result %+v", res)
	}
	want := []string{
		"tank_1.250m_L1.00x.glb",
		"tank_1.250m_L2.00x.glb",
		"tank_2.500m_L1.00x.glb",
		"tank_2.500m_L2.00x.glb",
	}
	for i, name := range want {
		if res.Outputs[i] != filepath.Join(dir, name) {
			t.Fatalf("output %d = %s, want %s", i, res.Outputs[i], name)
		}
		rec := readSidecar(t, res.Outputs[i])
		if rec.Conversion.Parameters["segments"] != float64(16) {
			t.Fatalf("unexpected parameters %v", rec.Conversion.Parameters)
		}
	}
}

func TestConvertModelToGLB(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "part.obj")
	if err := os.WriteFile(in, []byte("v 0 0 0\nv 2 0 0\nv 0 3 0\nv 0 0 4\nf 1 2 3\nf 1 2 4\n"), 0o644); err != nil {
		t.Fatalf("write obj: %v", err)
	}
	out := filepath.Join(dir, "glb", "part.glb")
	h := newHarness(t)
	doc, _ := recipe.Parse([]byte(`{"steps": [{"action": "convert_model_to_glb", "input": "`+in+`", "output": "`+out+`"}]}`), recipe.FormatJSON)

	run := h.runner.Run(context.Background(), doc)
	if !run.Results[0].OK {
		t.Fatalf("convert failed: %+v", run.Results[0])
	}
	rec := readSidecar(t, out)
	if rec.Geometry == nil || rec.Geometry.Extents != [3]float64{2, 3, 4} {
		t.Fatalf("unexpected geometry %+v", rec.Geometry)
	}
	if rec.Source.InputPath == nil || *rec.Source.InputPath != in {
		t.Fatalf("unexpected source %+v", rec.Source)
	}
}

func TestCompileFailuresProduceMessages(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t)
	doc, _ := recipe.Parse([]byte(`{"steps": [
		{"action": "create_tank", "diameter": 1},
		{"action": "create_tank", "output": "x.glb", "diameter": "wide"},
		{"action": "create_tank", "output": "x.glb", "diameter": 1, "diameter_unit": "in"},
		{"action": "create_tank", "output": "x.glb", "diameter": 1, "segments": 2},
		{"action": "create_tank", "output": "x.glb", "diameter": 1, "segments": 2000000000},
		{"action": "convert_image", "input": "a.png", "output": "a.img", "format": "WEBP"},
		{"action": "convert_image", "input": "a.png", "output": "a.webp"},
		{"action": "create_tank_family", "output_dir": "d", "diameters": [1, "x"], "length_factors": [1]},
		{"action": "convert_image", "input": "a.png", "output": "a.psd"},
		{"action": "convert_model_to_glb", "input": "a.fbx", "output": "a.glb"},
		{"action": "convert_image", "input": "`+filepath.Join(dir, "missing.png")+`", "output": "`+filepath.Join(dir, "out.png")+`"}
	]}`), recipe.FormatJSON)

	run := h.runner.Run(context.Background(), doc)
	want := []string{
		"output is required",
		"diameter must be a number",
		`diameter_unit must be mm or m, got "in"`,
		"segments must be at least 3",
		"segments must be at most 4096",
		"cannot write WEBP images",
		"cannot write WEBP images",
		"diameters must be a list of numbers",
		"unsupported image format for a.psd",
		"input must be an .obj, .stl, .gltf or .glb model",
	}
	for i, msg := range want {
		res := run.Results[i]
		if res.OK || res.Message != msg || res.State != workflow.StateRejected {
			t.Fatalf("result %d = %+v, want rejection %q", i, res, msg)
		}
	}
	last := run.Results[10]
	if last.OK || last.State != workflow.StateFailed || !strings.Contains(last.Message, "missing.png") {
		t.Fatalf("expected dispatch failure for missing input, got %+v", last)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.png.ams.json")); !os.IsNotExist(err) {
		t.Fatalf("failed step must not write sidecars")
	}
}
