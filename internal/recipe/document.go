package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"modsuite/internal/services"
)

// Format identifies the serialized form of a recipe.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// InvalidAction labels a step that is not a keyed record or names no action.
const InvalidAction = "<invalid>"

// FormatFor picks YAML for .yaml/.yml paths and JSON otherwise.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a parsed recipe: an optional profile override and ordered steps.
type Document struct {
	Path         string
	Format       Format
	ScaleProfile string
	Steps        []Step
}

// Step is one entry of the steps sequence. Err is set when the entry itself is
// structurally invalid; such steps are reported, never dispatched.
type Step struct {
	Index  int
	Action string
	Params Params
	Err    error
}

// Load reads and parses the recipe at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "recipe", "read", path, err)
	}
	doc, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes a recipe. It fails with ErrMalformedRecipe unless the
// top-level value is a keyed record holding a steps sequence.
func Parse(data []byte, format Format) (*Document, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, malformed("decode yaml", err)
		}
	default:
		format = FormatJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, malformed("decode json", err)
		}
	}

	top, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed("recipe must be a JSON/YAML object at top level", nil)
	}
	rawSteps, ok := top["steps"].([]any)
	if !ok {
		return nil, malformed("recipe 'steps' must be a list", nil)
	}

	doc := &Document{Format: format, Steps: make([]Step, 0, len(rawSteps))}
	if profile, ok := top["scale_profile"].(string); ok {
		doc.ScaleProfile = strings.TrimSpace(profile)
	}
	for idx, item := range rawSteps {
		doc.Steps = append(doc.Steps, parseStep(idx, item))
	}
	return doc, nil
}

func parseStep(idx int, item any) Step {
	fields, ok := stepFields(item)
	if !ok {
		return Step{
			Index:  idx,
			Action: InvalidAction,
			Err:    &ParamError{Message: "step must be a keyed record"},
		}
	}
	step := Step{Index: idx, Params: Params(fields)}
	switch v := fields["action"].(type) {
	case nil:
	case string:
		step.Action = strings.TrimSpace(v)
	default:
		step.Action = fmt.Sprint(v)
	}
	if step.Action == "" {
		step.Action = InvalidAction
	}
	return step
}

// stepFields accepts YAML mappings with non-string keys by stringifying them.
func stepFields(item any) (map[string]any, bool) {
	switch m := item.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		fields := make(map[string]any, len(m))
		for k, v := range m {
			fields[fmt.Sprint(k)] = v
		}
		return fields, true
	}
	return nil, false
}

func malformed(message string, err error) error {
	return services.Wrap(services.ErrMalformedRecipe, "recipe", "parse", message, err)
}

// IsMalformed reports whether err is a document-level recipe failure.
func IsMalformed(err error) bool {
	return errors.Is(err, services.ErrMalformedRecipe)
}
