package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"modsuite/internal/fileutil"
	"modsuite/internal/logging"
	"modsuite/internal/manifest"
	"modsuite/internal/services"
)

const (
	// JSONSuffix is appended to an artifact path to form the primary sidecar.
	JSONSuffix = ".ams.json"
	// YAMLSuffix is appended to an artifact path to form the secondary sidecar.
	YAMLSuffix = ".ams.yaml"
)

// Format identifies a sidecar encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// requiredKeys lists the top-level keys every complete sidecar carries.
var requiredKeys = []string{
	"ams_version", "ams_id", "created_on", "created_by", "host", "tool_version",
	"seed_uuid", "iteration", "lineage", "tags", "classification", "scale",
	"source", "output", "geometry", "conversion", "audit",
}

// Paths returns the primary and secondary sidecar paths for an artifact.
func Paths(artifact string) (jsonPath, yamlPath string) {
	return artifact + JSONSuffix, artifact + YAMLSuffix
}

// IsSidecarPath reports whether path already names a sidecar file.
func IsSidecarPath(path string) bool {
	return strings.HasSuffix(path, JSONSuffix) || strings.HasSuffix(path, YAMLSuffix)
}

// ArtifactPath strips a sidecar suffix, returning path unchanged otherwise.
func ArtifactPath(path string) string {
	for _, suffix := range []string{JSONSuffix, YAMLSuffix} {
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return path
}

// WriteOptions controls sidecar persistence.
type WriteOptions struct {
	// SkipYAML suppresses the secondary sidecar.
	SkipYAML bool
	// Atomic stages each file through a temporary sibling and renames it into
	// place. The pair as a whole is still not written transactionally.
	Atomic bool
}

// Written reports the files produced by Store.Write. YAML is empty when the
// secondary sidecar was suppressed.
type Written struct {
	JSON string
	YAML string
}

// Store persists provenance records next to their artifacts.
type Store struct {
	opts   WriteOptions
	logger *slog.Logger
}

// NewStore constructs a sidecar store.
func NewStore(opts WriteOptions, logger *slog.Logger) *Store {
	return &Store{opts: opts, logger: logging.NewComponentLogger(logger, "sidecar")}
}

// Write serializes rec to <artifact>.ams.json and then, unless suppressed,
// <artifact>.ams.yaml derived from the same JSON bytes.
func (s *Store) Write(rec manifest.Record, artifact string) (Written, error) {
	jsonPath, yamlPath := Paths(artifact)
	data, err := EncodeJSON(rec)
	if err != nil {
		return Written{}, services.Wrap(services.ErrIOFailure, "sidecar", "encode", artifact, err)
	}
	if err := fileutil.WriteFile(jsonPath, data, s.opts.Atomic); err != nil {
		return Written{}, services.Wrap(services.ErrIOFailure, "sidecar", "write", jsonPath, err)
	}
	written := Written{JSON: jsonPath}

	if !s.opts.SkipYAML {
		yamlData, err := EncodeYAML(data)
		if err != nil {
			return written, services.Wrap(services.ErrIOFailure, "sidecar", "encode", yamlPath, err)
		}
		if err := fileutil.WriteFile(yamlPath, yamlData, s.opts.Atomic); err != nil {
			return written, services.Wrap(services.ErrIOFailure, "sidecar", "write", yamlPath, err)
		}
		written.YAML = yamlPath
	}

	s.logger.Debug("sidecar written",
		logging.String(logging.FieldEventType, "sidecar_written"),
		logging.String("ams_id", rec.AMSID),
		logging.String("path", jsonPath),
		logging.Bool("yaml", written.YAML != ""),
	)
	return written, nil
}

// Locate returns the sidecar describing path: the primary if present, else
// the secondary. A path that already names a sidecar is returned as is.
func Locate(path string) (string, bool) {
	if IsSidecarPath(path) {
		return path, fileExists(path)
	}
	jsonPath, yamlPath := Paths(path)
	if fileExists(jsonPath) {
		return jsonPath, true
	}
	if fileExists(yamlPath) {
		return yamlPath, true
	}
	return "", false
}

// Sidecar is a decoded sidecar file. Missing lists top-level keys absent from
// the file; Record holds whatever fields were present.
type Sidecar struct {
	Path    string
	Format  Format
	Record  manifest.Record
	Missing []string
}

// Complete reports whether every expected key was present.
func (s Sidecar) Complete() bool {
	return len(s.Missing) == 0
}

// Read decodes the sidecar at path. Content that does not decode to a keyed
// record matching the manifest shape fails with ErrCorruptSidecar.
func Read(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, services.Wrap(services.ErrIOFailure, "sidecar", "read", path, err)
	}

	format := FormatJSON
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		format = FormatYAML
		data, err = decodeYAML(data)
		if err != nil {
			return Sidecar{}, services.Wrap(services.ErrCorruptSidecar, "sidecar", "decode", path, err)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Sidecar{}, services.Wrap(services.ErrCorruptSidecar, "sidecar", "decode", path, err)
	}
	if raw == nil {
		return Sidecar{}, services.Wrap(services.ErrCorruptSidecar, "sidecar", "decode", path,
			errors.New("top-level value is null"))
	}

	var rec manifest.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Sidecar{}, services.Wrap(services.ErrCorruptSidecar, "sidecar", "decode", path, err)
	}

	missing := []string{}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	return Sidecar{Path: path, Format: format, Record: rec, Missing: missing}, nil
}

// Verification compares an artifact's current bytes with its sidecar.
type Verification struct {
	Artifact       string
	Sidecar        string
	ExpectedSHA256 string
	ActualSHA256   string
	ExpectedSize   int64
	ActualSize     int64
}

// Match reports whether the artifact is unchanged since its manifest was built.
func (v Verification) Match() bool {
	return v.ExpectedSHA256 == v.ActualSHA256 && v.ExpectedSize == v.ActualSize
}

func (v Verification) String() string {
	if v.Match() {
		return fmt.Sprintf("%s: ok (%s)", v.Artifact, v.ActualSHA256)
	}
	return fmt.Sprintf("%s: changed (sidecar %s, %d bytes; now %s, %d bytes)",
		v.Artifact, v.ExpectedSHA256, v.ExpectedSize, v.ActualSHA256, v.ActualSize)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
