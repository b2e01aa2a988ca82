package config

import (
	"fmt"
	"os"
	"strings"

	"modsuite/internal/units"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScale()
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScale() {
	if value, ok := os.LookupEnv("MODSUITE_SCALE_PROFILE"); ok && strings.TrimSpace(value) != "" {
		c.Scale.DefaultProfile = value
	}
	c.Scale.DefaultProfile = strings.ToLower(strings.TrimSpace(c.Scale.DefaultProfile))
	if c.Scale.DefaultProfile == "" {
		c.Scale.DefaultProfile = units.DefaultProfileID
	}
}

func (c *Config) normalizeManifest() {
	c.Manifest.ToolVersion = strings.TrimSpace(c.Manifest.ToolVersion)
	if c.Manifest.ToolVersion == "" {
		c.Manifest.ToolVersion = defaultToolVersion
	}
	c.Manifest.Classification = strings.TrimSpace(c.Manifest.Classification)
	if c.Manifest.Classification == "" {
		c.Manifest.Classification = "unclassified"
	}
	tags := c.Manifest.Tags[:0]
	for _, tag := range c.Manifest.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	c.Manifest.Tags = tags
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
