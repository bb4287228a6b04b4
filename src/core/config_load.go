// Loading of CONFIG.builderer workspace configuration files.

package core

import (
	"os"
	"sort"

	"github.com/please-build/gcfg"
)

// ConfigFileName is the name of the workspace configuration file, expected at
// the workspace root.
const ConfigFileName = "CONFIG.builderer"

// configFile mirrors the ini structure of CONFIG.builderer: one [buildtool]
// section per back-end binding and one [config] section per matrix record.
// Multi-valued keys become sequence axes; single-valued keys stay scalar.
type configFile struct {
	Buildtool map[string]*buildtoolSection
	Config    map[string]*configSection
}

type buildtoolSection struct {
	Generator string
}

type configSection struct {
	Platform     []string
	Architecture []string
	Toolchain    []string
	BuildConfig  []string
	BuildRoot    string
	SandboxRoot  string
}

// LoadConfigFile reads a CONFIG.builderer file and registers every buildtool
// and matrix config it declares into the registry. A missing file is not an
// error; a duplicate name within it is a DuplicateConfig.
func LoadConfigFile(registry *Registry, filename string) error {
	file := &configFile{}
	if err := gcfg.ReadFileInto(file, filename); err != nil && os.IsNotExist(err) {
		return nil
	} else if err := gcfg.FatalOnly(err); err != nil {
		return err
	}
	return registerConfigFile(registry, file)
}

// LoadConfigString is as LoadConfigFile but reads from a string, which the
// ingestion collaborator uses for configs assembled in memory.
func LoadConfigString(registry *Registry, contents string) error {
	file := &configFile{}
	if err := gcfg.FatalOnly(gcfg.ReadStringInto(file, contents)); err != nil {
		return err
	}
	return registerConfigFile(registry, file)
}

func registerConfigFile(registry *Registry, file *configFile) error {
	for _, name := range sortedKeys(file.Buildtool) {
		if err := registry.AddBuildTool(name, file.Buildtool[name].Generator); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(file.Config) {
		section := file.Config[name]
		record := NewConfigRecord(name)
		setAxis(record, AxisPlatform, section.Platform)
		setAxis(record, AxisArchitecture, section.Architecture)
		setAxis(record, AxisToolchain, section.Toolchain)
		setAxis(record, AxisBuildConfig, section.BuildConfig)
		if section.BuildRoot != "" {
			record.Values[AxisBuildRoot] = section.BuildRoot
		}
		if section.SandboxRoot != "" {
			record.Values[AxisSandboxRoot] = section.SandboxRoot
		}
		if err := registry.AddConfig(record); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys returns a map's keys in sorted order, since declaration order
// within the ini file isn't preserved by the parser.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setAxis stores a multi-valued key as a scalar when it has exactly one
// value, and as a sequence axis otherwise. An absent key is left out rather
// than stored empty, since an empty sequence axis would bake to no configs.
func setAxis(record *ConfigRecord, axis string, values []string) {
	switch len(values) {
	case 0:
	case 1:
		record.Values[axis] = values[0]
	default:
		seq := make([]Scalar, len(values))
		for i, v := range values {
			seq[i] = v
		}
		record.Values[axis] = seq
	}
}
