package recipe_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"modsuite/internal/recipe"
	"modsuite/internal/services"
)

func TestParseYAMLAndJSONAgree(t *testing.T) {
	yamlDoc := []byte(`
scale_profile: small_mm
steps:
  - action: create_tank
    output: out/tank.glb
    diameter: 1250
    diameter_unit: mm
    length_factor: 2.0
  - action: bogus
`)
	jsonDoc := []byte(`{"scale_profile": "small_mm", "steps": [
  {"action": "create_tank", "output": "out/tank.glb", "diameter": 1250, "diameter_unit": "mm", "length_factor": 2.0},
  {"action": "bogus"}
]}`)

	for format, data := range map[recipe.Format][]byte{recipe.FormatYAML: yamlDoc, recipe.FormatJSON: jsonDoc} {
		doc, err := recipe.Parse(data, format)
		if err != nil {
			t.Fatalf("%s: Parse: %v", format, err)
		}
		if doc.Format != format || doc.ScaleProfile != "small_mm" {
			t.Fatalf("%s: unexpected header %+v", format, doc)
		}
		if len(doc.Steps) != 2 {
			t.Fatalf("%s: expected 2 steps, got %d", format, len(doc.Steps))
		}
		first := doc.Steps[0]
		if first.Index != 0 || first.Action != "create_tank" || first.Err != nil {
			t.Fatalf("%s: unexpected first step %+v", format, first)
		}
		d, err := first.Params.RequireFloat("diameter")
		if err != nil || d != 1250 {
			t.Fatalf("%s: diameter = %v, %v", format, d, err)
		}
		if doc.Steps[1].Index != 1 || doc.Steps[1].Action != "bogus" {
			t.Fatalf("%s: unexpected second step %+v", format, doc.Steps[1])
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name   string
		format recipe.Format
		data   string
	}{
		{"list at top", recipe.FormatJSON, `[1,2]`},
		{"no steps", recipe.FormatJSON, `{"scale_profile": "normal_m"}`},
		{"steps not list", recipe.FormatYAML, "steps: 3\n"},
		{"bad json", recipe.FormatJSON, `{"steps": [`},
		{"bad yaml", recipe.FormatYAML, "steps: [a, b\n"},
		{"empty", recipe.FormatYAML, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := recipe.Parse([]byte(tc.data), tc.format)
			if !errors.Is(err, services.ErrMalformedRecipe) {
				t.Fatalf("expected malformed recipe, got %v", err)
			}
			if !recipe.IsMalformed(err) {
				t.Fatal("IsMalformed should agree")
			}
		})
	}
}

func TestNonRecordStepKeptAsInvalid(t *testing.T) {
	doc, err := recipe.Parse([]byte(`{"steps": ["create_tank", {"action": 5}, {}]}`), recipe.FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(doc.Steps))
	}
	if doc.Steps[0].Action != recipe.InvalidAction || doc.Steps[0].Err == nil {
		t.Fatalf("expected invalid step, got %+v", doc.Steps[0])
	}
	if !errors.Is(doc.Steps[0].Err, services.ErrValidation) {
		t.Fatalf("invalid step error should be a validation error")
	}
	if doc.Steps[1].Action != "5" {
		t.Fatalf("non-string action should be stringified, got %q", doc.Steps[1].Action)
	}
	if doc.Steps[2].Action != recipe.InvalidAction || doc.Steps[2].Err != nil {
		t.Fatalf("missing action should get a placeholder, got %+v", doc.Steps[2])
	}
}

func TestYAMLStepWithNonStringKeys(t *testing.T) {
	data := []byte("steps:\n  - action: create_tank\n    1: one\n    true: yes\n")
	doc, err := recipe.Parse(data, recipe.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	step := doc.Steps[0]
	if step.Err != nil || step.Action != "create_tank" {
		t.Fatalf("expected keyed step, got %+v", step)
	}
	if step.Params["1"] != "one" || step.Params["true"] != "yes" {
		t.Fatalf("keys should be stringified, got %v", step.Params)
	}
}

func TestLoadPicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "r.YML")
	if err := os.WriteFile(yamlPath, []byte("steps:\n  - action: convert_image\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := recipe.Load(yamlPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Format != recipe.FormatYAML || doc.Path != yamlPath {
		t.Fatalf("unexpected doc %+v", doc)
	}

	jsonPath := filepath.Join(dir, "r.recipe")
	if err := os.WriteFile(jsonPath, []byte("steps:\n  - action: convert_image\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := recipe.Load(jsonPath); !errors.Is(err, services.ErrMalformedRecipe) {
		t.Fatalf("non-yaml extension should parse as JSON, got %v", err)
	}

	if _, err := recipe.Load(filepath.Join(dir, "missing.json")); !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
}
