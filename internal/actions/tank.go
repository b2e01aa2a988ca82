package actions

import (
	"context"
	"fmt"
	"path/filepath"

	"modsuite/internal/geometry"
	"modsuite/internal/logging"
	"modsuite/internal/manifest"
	"modsuite/internal/recipe"
	"modsuite/internal/workflow"
)

const (
	CreateTankName       = "create_tank"
	CreateTankFamilyName = "create_tank_family"
)

// tankSpec is a fully canonicalized tank: every length is in meters.
type tankSpec struct {
	output       string
	diameterM    float64
	lengthFactor float64
	segments     int
}

func (s tankSpec) bodyHeight() float64 { return s.lengthFactor * s.diameterM }

// build writes the capsule GLB and publishes its sidecars.
func (s tankSpec) build(ctx context.Context, rc workflow.RunContext, pub *Publisher) error {
	mesh, err := geometry.Capsule(s.diameterM/2, s.bodyHeight(), s.segments)
	if err != nil {
		return err
	}
	mesh.Name = "tank"
	if err := geometry.WriteGLB(mesh, s.output); err != nil {
		return err
	}
	box, err := mesh.Bounds()
	if err != nil {
		return err
	}
	_, err = pub.Publish(ctx, rc, Artifact{
		Path:   s.output,
		Action: CreateTankName,
		Parameters: map[string]any{
			"diameter_m":         s.diameterM,
			"body_length_factor": s.lengthFactor,
			"body_height_m":      s.bodyHeight(),
			"segments":           s.segments,
		},
		SourceKind: manifest.SourceGenerated,
		Bounds:     &box,
	})
	return err
}

// CreateTank builds a single capsule tank.
type CreateTank struct {
	pub *Publisher
}

// NewCreateTank returns the create_tank action.
func NewCreateTank(pub *Publisher) *CreateTank { return &CreateTank{pub: pub} }

func (a *CreateTank) Name() string { return CreateTankName }

func (a *CreateTank) Compile(step recipe.Step, env workflow.CompileEnv) (workflow.Task, error) {
	p := step.Params
	output, err := p.RequireString("output")
	if err != nil {
		return nil, err
	}
	diameter, err := p.RequireFloat("diameter")
	if err != nil {
		return nil, err
	}
	unit, err := unitFor(p, "diameter_unit", env)
	if err != nil {
		return nil, err
	}
	meters, err := dimension("diameter", diameter, unit, env)
	if err != nil {
		return nil, err
	}
	factor, err := p.Float("length_factor", 1.0)
	if err != nil {
		return nil, err
	}
	if err := lengthFactor("length_factor", factor); err != nil {
		return nil, err
	}
	segments, err := segmentsParam(p)
	if err != nil {
		return nil, err
	}

	spec := tankSpec{output: output, diameterM: meters, lengthFactor: factor, segments: segments}
	return workflow.TaskFunc(func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		if err := spec.build(ctx, rc, a.pub); err != nil {
			return workflow.Outcome{}, err
		}
		return workflow.Outcome{Outputs: []string{spec.output}}, nil
	}), nil
}

// CreateTankFamily builds one tank per (diameter, length factor) pair.
type CreateTankFamily struct {
	pub *Publisher
}

// NewCreateTankFamily returns the create_tank_family action.
func NewCreateTankFamily(pub *Publisher) *CreateTankFamily { return &CreateTankFamily{pub: pub} }

func (a *CreateTankFamily) Name() string { return CreateTankFamilyName }

// FamilyFileName is the artifact name for one member of a tank family.
func FamilyFileName(diameterM, lengthFactor float64) string {
	return fmt.Sprintf("tank_%.3fm_L%.2fx.glb", diameterM, lengthFactor)
}

func (a *CreateTankFamily) Compile(step recipe.Step, env workflow.CompileEnv) (workflow.Task, error) {
	p := step.Params
	dir, err := p.RequireString("output_dir")
	if err != nil {
		return nil, err
	}
	diameters, err := p.RequireFloatList("diameters")
	if err != nil {
		return nil, err
	}
	unit, err := unitFor(p, "diameters_unit", env)
	if err != nil {
		return nil, err
	}
	factors, err := p.RequireFloatList("length_factors")
	if err != nil {
		return nil, err
	}
	segments, err := segmentsParam(p)
	if err != nil {
		return nil, err
	}

	metersList := make([]float64, 0, len(diameters))
	for _, d := range diameters {
		m, err := dimension("diameters", d, unit, env)
		if err != nil {
			return nil, err
		}
		metersList = append(metersList, m)
	}
	for _, k := range factors {
		if err := lengthFactor("length_factors", k); err != nil {
			return nil, err
		}
	}

	specs := make([]tankSpec, 0, len(metersList)*len(factors))
	for _, d := range metersList {
		for _, k := range factors {
			specs = append(specs, tankSpec{
				output:       filepath.Join(dir, FamilyFileName(d, k)),
				diameterM:    d,
				lengthFactor: k,
				segments:     segments,
			})
		}
	}

	return workflow.TaskFunc(func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		outputs := make([]string, 0, len(specs))
		for _, spec := range specs {
			if err := ctx.Err(); err != nil {
				return workflow.Outcome{}, fmt.Errorf("tank family interrupted after %d of %d: %w", len(outputs), len(specs), err)
			}
			if err := spec.build(ctx, rc, a.pub); err != nil {
				return workflow.Outcome{}, err
			}
			outputs = append(outputs, spec.output)
			if rc.Logger != nil {
				rc.Logger.Debug("tank created",
					logging.String(logging.FieldEventType, "tank_created"),
					logging.String("output", spec.output),
				)
			}
		}
		return workflow.Outcome{Outputs: outputs, Message: fmt.Sprintf("created %d", len(outputs))}, nil
	}), nil
}
