package actions

import (
	"errors"

	"modsuite/internal/workflow"
)

// NewRegistry registers the built-in actions against pub.
func NewRegistry(pub *Publisher) (*workflow.Registry, error) {
	if pub == nil {
		return nil, errors.New("actions: publisher is required")
	}
	return workflow.NewRegistry(
		NewCreateTank(pub),
		NewCreateTankFamily(pub),
		NewConvertModel(pub),
		NewConvertImage(pub),
	)
}
