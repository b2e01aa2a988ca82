package config

import (
	"path/filepath"

	"modsuite/internal/units"
)

const (
	defaultWorkspaceDir  = "~/modsuite"
	defaultToolVersion   = "AI_Modding_Suite/0.1"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	state := defaultStateDir()
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       filepath.Join(state, "logs"),
			LedgerPath:   filepath.Join(state, "ledger.db"),
		},
		Scale: Scale{
			DefaultProfile: units.DefaultProfileID,
		},
		Manifest: Manifest{
			ToolVersion:    defaultToolVersion,
			WriteYAML:      true,
			AtomicSidecars: false,
			Classification: "unclassified",
		},
		Recipes: Recipes{
			EnforceProfileRange: false,
			ExclusiveRuns:       true,
			RecordHistory:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
