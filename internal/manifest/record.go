package manifest

// Version is written to every record as ams_version.
const Version = "0.1"

// DefaultClassification applies when a request leaves classification empty.
const DefaultClassification = "unclassified"

// GeometryUnits is the unit of every Geometry descriptor.
const GeometryUnits = "m"

// SourceKind describes how an artifact came to exist.
type SourceKind string

const (
	SourceGenerated SourceKind = "generated"
	SourceConverted SourceKind = "converted"
	SourceImported  SourceKind = "imported"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceGenerated, SourceConverted, SourceImported:
		return true
	}
	return false
}

// Record is the provenance manifest written next to an artifact. Field order
// matches the on-disk key order.
type Record struct {
	AMSVersion     string         `json:"ams_version" jsonschema:"description=manifest format version"`
	AMSID          string         `json:"ams_id" jsonschema:"description=time-ordered unique identifier"`
	CreatedOn      string         `json:"created_on" jsonschema:"description=creation time in UTC (ISO-8601)"`
	CreatedBy      string         `json:"created_by"`
	Host           string         `json:"host"`
	ToolVersion    string         `json:"tool_version"`
	SeedUUID       string         `json:"seed_uuid" jsonschema:"description=independently generated seed identifier"`
	Iteration      int            `json:"iteration"`
	Lineage        []string       `json:"lineage" jsonschema:"description=ancestor identifiers"`
	Tags           []string       `json:"tags"`
	Classification string         `json:"classification"`
	Scale          Scale          `json:"scale"`
	Source         Source         `json:"source"`
	Output         Output         `json:"output"`
	Geometry       *Geometry      `json:"geometry"`
	Conversion     *Conversion    `json:"conversion"`
	Audit          map[string]any `json:"audit"`
}

// Scale records the unit profile active when the artifact was produced.
type Scale struct {
	ProfileID string `json:"profile_id"`
	Unit      string `json:"unit"`
}

// Source describes the artifact's origin. Optional fields serialize as null.
type Source struct {
	Type        SourceKind `json:"type" jsonschema:"enum=generated,enum=converted,enum=imported"`
	InputPath   *string    `json:"input_path"`
	InputSHA256 *string    `json:"input_sha256"`
	RecipeFile  *string    `json:"recipe_file"`
	RecipeStep  *int       `json:"recipe_step"`
	RunID       *string    `json:"run_id"`
}

// Output describes the artifact as it exists on storage.
type Output struct {
	FilePath   string `json:"file_path"`
	FileSize   int64  `json:"file_size"`
	FileSHA256 string `json:"file_sha256"`
}

// Geometry is an axis-aligned bounding box in meters.
type Geometry struct {
	BBoxMin [3]float64 `json:"bbox_min"`
	BBoxMax [3]float64 `json:"bbox_max"`
	Extents [3]float64 `json:"extents"`
	Units   string     `json:"units"`
}

// Conversion names the action that produced the artifact and its parameters.
type Conversion struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// NewGeometry derives extents from min and max.
func NewGeometry(minV, maxV [3]float64) *Geometry {
	g := &Geometry{BBoxMin: minV, BBoxMax: maxV, Units: GeometryUnits}
	for i := range 3 {
		g.Extents[i] = maxV[i] - minV[i]
	}
	return g
}
