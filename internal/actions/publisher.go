package actions

import (
	"context"
	"log/slog"

	"modsuite/internal/geometry"
	"modsuite/internal/logging"
	"modsuite/internal/manifest"
	"modsuite/internal/sidecar"
	"modsuite/internal/workflow"
)

// Indexer records published manifests for lookup by digest.
type Indexer interface {
	IndexManifest(ctx context.Context, rec manifest.Record, sidecarPath string) error
}

// Publisher builds a provenance record for an artifact and writes its sidecars.
type Publisher struct {
	builder        *manifest.Builder
	store          *sidecar.Store
	index          Indexer
	tags           []string
	classification string
	logger         *slog.Logger
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithIndex also records each manifest in ix. Index failures are logged and do
// not fail the step.
func WithIndex(ix Indexer) PublisherOption {
	return func(p *Publisher) { p.index = ix }
}

// WithTags adds tags to every record.
func WithTags(tags []string) PublisherOption {
	return func(p *Publisher) { p.tags = append([]string(nil), tags...) }
}

// WithClassification overrides the record classification.
func WithClassification(c string) PublisherOption {
	return func(p *Publisher) { p.classification = c }
}

// WithPublisherLogger attaches a logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher wires a builder and sidecar store.
func NewPublisher(builder *manifest.Builder, store *sidecar.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{builder: builder, store: store}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "actions")
	return p
}

// Artifact describes one produced file. Bounds is set for meshes.
type Artifact struct {
	Path        string
	Action      string
	Parameters  map[string]any
	SourceKind  manifest.SourceKind
	SourceInput string
	Bounds      *geometry.BBox
	Audit       map[string]any
}

// Publish builds the record for art and writes its sidecars.
func (p *Publisher) Publish(ctx context.Context, rc workflow.RunContext, art Artifact) (manifest.Record, error) {
	req := manifest.Request{
		OutputPath:     art.Path,
		ProfileID:      rc.Profile.ID,
		Action:         art.Action,
		Parameters:     art.Parameters,
		SourceKind:     art.SourceKind,
		SourceInput:    art.SourceInput,
		Tags:           p.tags,
		Classification: p.classification,
		Audit:          art.Audit,
	}
	if rc.RunID != "" || rc.RecipeFile != "" {
		req.Recipe = &manifest.RecipeContext{File: rc.RecipeFile, Step: rc.StepIndex, RunID: rc.RunID}
	}

	var (
		rec manifest.Record
		err error
	)
	if art.Bounds != nil {
		rec, err = p.builder.ForMesh(req, art.Bounds.Min, art.Bounds.Max)
	} else {
		rec, err = p.builder.ForFile(req)
	}
	if err != nil {
		return manifest.Record{}, err
	}
	written, err := p.store.Write(rec, art.Path)
	if err != nil {
		return manifest.Record{}, err
	}

	if p.index != nil {
		if err := p.index.IndexManifest(ctx, rec, written.JSON); err != nil {
			logging.WarnWithContext(loggerFor(rc, p.logger), "manifest not indexed", "manifest_index_failed",
				logging.Error(err),
				logging.String("ams_id", rec.AMSID),
				logging.String(logging.FieldErrorHint, "check paths.ledger_path"),
				logging.String(logging.FieldImpact, "artifact is missing from digest lookups"),
			)
		}
	}
	return rec, nil
}

func loggerFor(rc workflow.RunContext, fallback *slog.Logger) *slog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return fallback
}
