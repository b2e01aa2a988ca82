package config

import (
	"errors"
	"fmt"

	"modsuite/internal/units"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScale(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkspaceDir == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Recipes.RecordHistory && c.Paths.LedgerPath == "" {
		return errors.New("paths.ledger_path must be set when recipes.record_history is true")
	}
	return nil
}

func (c *Config) validateScale() error {
	if !units.Known(c.Scale.DefaultProfile) {
		ids := make([]string, 0, 3)
		for _, p := range units.All() {
			ids = append(ids, p.ID)
		}
		return fmt.Errorf("scale.default_profile %q is not a registered profile (expected one of %v)", c.Scale.DefaultProfile, ids)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
