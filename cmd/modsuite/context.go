package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"modsuite/internal/actions"
	"modsuite/internal/config"
	"modsuite/internal/ledger"
	"modsuite/internal/logging"
	"modsuite/internal/manifest"
	"modsuite/internal/sidecar"
	"modsuite/internal/units"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) baseLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// resolverFor returns a profile resolver whose default is override when set and
// the configured default profile otherwise.
func resolverFor(cfg *config.Config, override string) (*units.Resolver, error) {
	id := strings.TrimSpace(override)
	if id == "" {
		id = cfg.Scale.DefaultProfile
	}
	resolver, err := units.NewResolver(id)
	if err != nil {
		return nil, fmt.Errorf("scale profile: %w", err)
	}
	return resolver, nil
}

// newPublisher wires the manifest builder and sidecar store from config. ix
// may be nil.
func newPublisher(cfg *config.Config, resolver *units.Resolver, logger *slog.Logger, ix *ledger.Store) *actions.Publisher {
	builder := manifest.NewBuilder(
		manifest.WithIDCapability(manifest.DetectIDCapability(logger)),
		manifest.WithToolVersion(cfg.Manifest.ToolVersion),
		manifest.WithResolver(resolver),
		manifest.WithLogger(logger),
	)
	store := sidecar.NewStore(sidecar.WriteOptions{
		SkipYAML: !cfg.Manifest.WriteYAML,
		Atomic:   cfg.Manifest.AtomicSidecars,
	}, logger)

	opts := []actions.PublisherOption{
		actions.WithTags(cfg.Manifest.Tags),
		actions.WithClassification(cfg.Manifest.Classification),
		actions.WithPublisherLogger(logger),
	}
	if ix != nil {
		opts = append(opts, actions.WithIndex(ix))
	}
	return actions.NewPublisher(builder, store, opts...)
}

// openLedger opens the history database, or returns nil when history
// recording is disabled.
func openLedger(cfg *config.Config) (*ledger.Store, error) {
	if !cfg.Recipes.RecordHistory {
		return nil, nil
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
