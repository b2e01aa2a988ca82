package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modsuite/internal/digest"
	"modsuite/internal/logging"
	"modsuite/internal/services"
	"modsuite/internal/units"
)

// CreatedOnLayout formats created_on in UTC with microsecond precision.
const CreatedOnLayout = "2006-01-02T15:04:05.000000Z07:00"

// RecipeContext ties an artifact to the recipe step that produced it.
type RecipeContext struct {
	File  string
	Step  int
	RunID string
}

// Request carries everything the builder needs beyond the artifact bytes.
type Request struct {
	OutputPath     string
	ProfileID      string
	Unit           string
	Action         string
	Parameters     map[string]any
	SourceKind     SourceKind
	SourceInput    string
	Recipe         *RecipeContext
	Iteration      int
	Tags           []string
	Classification string
	Audit          map[string]any
}

// Builder assembles provenance records. It reads artifacts to hash them and
// has no other side effects.
type Builder struct {
	newID       IDGenerator
	now         func() time.Time
	identity    Identity
	toolVersion string
	resolver    *units.Resolver
	logger      *slog.Logger
}

// Option customizes a Builder.
type Option func(*Builder)

// WithIDCapability selects the identifier generator reported by DetectIDCapability.
func WithIDCapability(capability IDCapability) Option {
	return func(b *Builder) { b.newID = GeneratorFor(capability) }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen IDGenerator) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIdentity overrides the user and host stamped on records.
func WithIdentity(id Identity) Option {
	return func(b *Builder) { b.identity = id }
}

// WithToolVersion sets tool_version.
func WithToolVersion(version string) Option {
	return func(b *Builder) {
		if v := strings.TrimSpace(version); v != "" {
			b.toolVersion = v
		}
	}
}

// WithResolver supplies the profile resolver used when requests omit a profile.
func WithResolver(r *units.Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder returns a builder that defaults to time-ordered identifiers, the
// system clock, and the current user and host.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		newID:       GeneratorFor(IDCapability{HasTimeOrderedIDs: true}),
		now:         time.Now,
		toolVersion: "AI_Modding_Suite/0.1",
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.identity == (Identity{}) {
		b.identity = CurrentIdentity()
	}
	b.logger = logging.NewComponentLogger(b.logger, "manifest")
	return b
}

// ForMesh builds a record for a mesh artifact with the given bounds in meters.
func (b *Builder) ForMesh(req Request, bboxMin, bboxMax [3]float64) (Record, error) {
	if req.SourceKind == "" {
		req.SourceKind = SourceGenerated
	}
	return b.build(req, NewGeometry(bboxMin, bboxMax))
}

// ForFile builds a record for an artifact without geometry.
func (b *Builder) ForFile(req Request) (Record, error) {
	if req.SourceKind == "" {
		req.SourceKind = SourceConverted
	}
	return b.build(req, nil)
}

func (b *Builder) build(req Request, geometry *Geometry) (Record, error) {
	if strings.TrimSpace(req.OutputPath) == "" {
		return Record{}, services.Wrap(services.ErrValidation, "manifest", "build", "output path is required", nil)
	}
	if !req.SourceKind.Valid() {
		return Record{}, services.Wrap(services.ErrValidation, "manifest", "build",
			fmt.Sprintf("unknown source kind %q", req.SourceKind), nil)
	}

	outSHA, outSize, err := digest.File(req.OutputPath)
	if err != nil {
		return Record{}, err
	}

	source := Source{Type: req.SourceKind}
	if in := strings.TrimSpace(req.SourceInput); in != "" {
		source.InputPath = &in
		if digest.Exists(in) {
			sum, _, err := digest.File(in)
			if err != nil {
				return Record{}, err
			}
			source.InputSHA256 = &sum
		}
	}
	if req.Recipe != nil {
		file := req.Recipe.File
		step := req.Recipe.Step
		source.RecipeFile = &file
		source.RecipeStep = &step
		if req.Recipe.RunID != "" {
			runID := req.Recipe.RunID
			source.RunID = &runID
		}
	}

	profile := b.profileFor(req.ProfileID)
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = string(profile.Unit)
	}

	amsID, err := b.newID()
	if err != nil {
		return Record{}, services.Wrap(services.ErrIOFailure, "manifest", "ams_id", "", err)
	}
	seed, err := b.newID()
	if err != nil {
		return Record{}, services.Wrap(services.ErrIOFailure, "manifest", "seed_uuid", "", err)
	}

	params, err := normalizeJSON(req.Parameters)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "manifest", "parameters", "", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	audit, err := normalizeJSON(req.Audit)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "manifest", "audit", "", err)
	}

	iteration := req.Iteration
	if iteration <= 0 {
		iteration = 1
	}
	classification := strings.TrimSpace(req.Classification)
	if classification == "" {
		classification = DefaultClassification
	}

	rec := Record{
		AMSVersion:     Version,
		AMSID:          amsID,
		CreatedOn:      b.now().UTC().Format(CreatedOnLayout),
		CreatedBy:      b.identity.User,
		Host:           b.identity.Host,
		ToolVersion:    b.toolVersion,
		SeedUUID:       seed,
		Iteration:      iteration,
		Lineage:        []string{},
		Tags:           NormalizeTags(req.Tags),
		Classification: classification,
		Scale:          Scale{ProfileID: profile.ID, Unit: unit},
		Source:         source,
		Output: Output{
			FilePath:   req.OutputPath,
			FileSize:   outSize,
			FileSHA256: outSHA,
		},
		Geometry:   geometry,
		Conversion: &Conversion{Action: req.Action, Parameters: params},
		Audit:      audit,
	}

	b.logger.Debug("manifest built",
		logging.String(logging.FieldEventType, "manifest_built"),
		logging.String("ams_id", rec.AMSID),
		logging.String("output", rec.Output.FilePath),
		logging.Int64("file_size", rec.Output.FileSize),
	)
	return rec, nil
}

func (b *Builder) profileFor(id string) units.Profile {
	if b.resolver != nil {
		return b.resolver.Resolve(id)
	}
	if p, err := units.Lookup(id); err == nil {
		return p
	}
	return units.NormalM
}

// normalizeJSON passes a free-form mapping through JSON so the in-memory
// record matches what a reader decodes from the sidecar.
func normalizeJSON(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
