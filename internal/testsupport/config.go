package testsupport

import (
	"path/filepath"
	"testing"

	"modsuite/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "state", "ledger.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithProfile sets the default unit profile.
func WithProfile(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scale.DefaultProfile = id
	}
}

// WithRangeEnforcement toggles recipes.enforce_profile_range.
func WithRangeEnforcement(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recipes.EnforceProfileRange = enabled
	}
}

// WithoutHistory disables the ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recipes.RecordHistory = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkspaceDir)
}
