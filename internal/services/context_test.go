package services_test

import (
	"context"
	"testing"

	"modsuite/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStepIndex(ctx, 3)
	ctx = services.WithAction(ctx, "create_tank")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if idx, ok := services.StepIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected step index: %v %v", idx, ok)
	}
	if action, ok := services.ActionFromContext(ctx); !ok || action != "create_tank" {
		t.Fatalf("unexpected action: %v %v", action, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithAction(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.ActionFromContext(ctx); ok {
		t.Fatal("expected no action value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.StepIndexFromContext(ctx); ok {
		t.Fatal("expected no step index value")
	}
}
