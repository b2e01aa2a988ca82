package preflight

import (
	"context"

	"modsuite/internal/config"
)

// MinWorkspaceFree is the free space RunAll requires in the workspace.
const MinWorkspaceFree = 256 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The ledger is only checked when history recording is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if results[0].Passed {
		results = append(results, CheckFreeSpace("Workspace free space", cfg.Paths.WorkspaceDir, MinWorkspaceFree))
	}
	results = append(results, CheckProfile(cfg.Scale.DefaultProfile))
	if cfg.Recipes.RecordHistory {
		results = append(results, CheckLedger(ctx, cfg.Paths.LedgerPath))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
