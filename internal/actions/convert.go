package actions

import (
	"context"

	"modsuite/internal/geometry"
	"modsuite/internal/imaging"
	"modsuite/internal/manifest"
	"modsuite/internal/recipe"
	"modsuite/internal/workflow"
)

const (
	ConvertModelName = "convert_model_to_glb"
	ConvertImageName = "convert_image"
)

// ConvertModel converts OBJ, STL or glTF models to GLB.
type ConvertModel struct {
	pub *Publisher
}

// NewConvertModel returns the convert_model_to_glb action.
func NewConvertModel(pub *Publisher) *ConvertModel { return &ConvertModel{pub: pub} }

func (a *ConvertModel) Name() string { return ConvertModelName }

func (a *ConvertModel) Compile(step recipe.Step, _ workflow.CompileEnv) (workflow.Task, error) {
	input, err := step.Params.RequireString("input")
	if err != nil {
		return nil, err
	}
	output, err := step.Params.RequireString("output")
	if err != nil {
		return nil, err
	}
	if !geometry.Supported(input) {
		return nil, invalid("input", "input must be an .obj, .stl, .gltf or .glb model")
	}

	return workflow.TaskFunc(func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		box, err := geometry.ConvertToGLB(input, output)
		if err != nil {
			return workflow.Outcome{}, err
		}
		if _, err := a.pub.Publish(ctx, rc, Artifact{
			Path:        output,
			Action:      ConvertModelName,
			Parameters:  map[string]any{"input": input},
			SourceKind:  manifest.SourceConverted,
			SourceInput: input,
			Bounds:      &box,
		}); err != nil {
			return workflow.Outcome{}, err
		}
		return workflow.Outcome{Outputs: []string{output}}, nil
	}), nil
}

// ConvertImage transcodes raster images.
type ConvertImage struct {
	pub *Publisher
}

// NewConvertImage returns the convert_image action.
func NewConvertImage(pub *Publisher) *ConvertImage { return &ConvertImage{pub: pub} }

func (a *ConvertImage) Name() string { return ConvertImageName }

func (a *ConvertImage) Compile(step recipe.Step, _ workflow.CompileEnv) (workflow.Task, error) {
	input, err := step.Params.RequireString("input")
	if err != nil {
		return nil, err
	}
	output, err := step.Params.RequireString("output")
	if err != nil {
		return nil, err
	}
	name, err := step.Params.OptionalString("format")
	if err != nil {
		return nil, err
	}
	var format imaging.Format
	if name != "" {
		format, err = imaging.ParseFormat(name)
	} else {
		format, err = imaging.FormatForPath(output)
	}
	if err != nil {
		return nil, invalid("format", "unsupported image format for %s", output)
	}
	if !format.Encodable() {
		return nil, invalid("format", "cannot write %s images", format)
	}

	return workflow.TaskFunc(func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		if _, err := imaging.Convert(input, output, string(format)); err != nil {
			return workflow.Outcome{}, err
		}
		if _, err := a.pub.Publish(ctx, rc, Artifact{
			Path:        output,
			Action:      ConvertImageName,
			Parameters:  map[string]any{"input": input, "format": string(format)},
			SourceKind:  manifest.SourceConverted,
			SourceInput: input,
		}); err != nil {
			return workflow.Outcome{}, err
		}
		return workflow.Outcome{Outputs: []string{output}}, nil
	}), nil
}
