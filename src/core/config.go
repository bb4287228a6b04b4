// Config records for the matrix of build configurations, and the reserved
// axes that every Builderer workspace carries.
package core

import "sort"

// Reserved config axis names. These are populated by the ingestion
// collaborator from CONFIG.builderer. A registered ConfigRecord holds only
// the axes its source declared; nothing fills in the missing ones, and asking
// the workspace for an absent build or sandbox root is an UnknownConfigKey.
const (
	AxisPlatform     = "platform"
	AxisArchitecture = "architecture"
	AxisBuildTool    = "buildtool"
	AxisToolchain    = "toolchain"
	AxisBuildConfig  = "build_config"
	AxisBuildRoot    = "build_root"
	AxisSandboxRoot  = "sandbox_root"
)

// reservedAxes lists every axis name the core understands; anything else is
// a user-defined field and is passed through resolution unexamined.
var reservedAxes = map[string]bool{
	AxisPlatform:     true,
	AxisArchitecture: true,
	AxisBuildTool:    true,
	AxisToolchain:    true,
	AxisBuildConfig:  true,
	AxisBuildRoot:    true,
	AxisSandboxRoot:  true,
}

// A ConfigRecord is a mapping from string keys to values, as registered via
// add_config. Each value is either a scalar or a finite ordered sequence of
// scalars; a record is a *matrix* record until every axis has been reduced
// to a scalar by matrix baking, at which point it becomes a
// BakedConfig.
type ConfigRecord struct {
	// Name is the identifier this record was registered under; unique
	// across a workspace.
	Name string
	// Values holds each axis's value: a Scalar, or a []Scalar sequence.
	Values map[string]interface{}
}

// NewConfigRecord constructs an empty, named ConfigRecord ready to have axes
// assigned into its Values map.
func NewConfigRecord(name string) *ConfigRecord {
	return &ConfigRecord{Name: name, Values: map[string]interface{}{}}
}

// axisNames returns the record's axis names in a deterministic order:
// reserved axes first (in declaration order above), then user-defined axes
// sorted lexicographically. This order is what makes matrix baking
// deterministic across runs without depending on Go's randomised map
// iteration.
func (c *ConfigRecord) axisNames() []string {
	var reserved, other []string
	for k := range c.Values {
		if reservedAxes[k] {
			reserved = append(reserved, k)
		} else {
			other = append(other, k)
		}
	}
	order := []string{AxisPlatform, AxisArchitecture, AxisBuildTool, AxisToolchain, AxisBuildConfig, AxisBuildRoot, AxisSandboxRoot}
	names := make([]string, 0, len(reserved)+len(other))
	have := map[string]bool{}
	for _, r := range reserved {
		have[r] = true
	}
	for _, r := range order {
		if have[r] {
			names = append(names, r)
		}
	}
	sort.Strings(other)
	return append(names, other...)
}

// sequenceValue returns v as a []Scalar if it's a sequence-valued axis, and
// ok=false if it's already scalar.
func sequenceValue(v interface{}) (seq []Scalar, ok bool) {
	s, ok := v.([]Scalar)
	return s, ok
}

// A BakedConfig is a ConfigRecord in which every axis holds a scalar. It is
// the only form of config that expression resolution will accept;
// resolving a Condition against a non-baked record is a fatal MatrixLeakage.
type BakedConfig struct {
	// Slug is the stable name fragment assembled from this config's axis
	// values during matrix baking, e.g. "x86-64.debug".
	Slug   string
	Values map[string]Scalar
	baked  bool
}

// Get returns the scalar value of a reserved or user-defined axis.
func (b *BakedConfig) Get(key string) (Scalar, bool) {
	v, ok := b.Values[key]
	return v, ok
}

// newBakedConfig wraps a fully-scalar value map as a baked config.
func newBakedConfig(slug string, values map[string]Scalar) *BakedConfig {
	return &BakedConfig{Slug: slug, Values: values, baked: true}
}
