package core

import "sort"

// A BuildToolFactory names a back-end generator kind a workspace has
// registered under add_buildtool; the factory itself belongs to the
// out-of-scope back-end collaborator, so the registry only remembers the
// binding from name to kind.
type BuildToolFactory struct {
	Name          string
	GeneratorKind string
}

// Registry is the workspace-wide target registry populated during
// ingestion: packages, their targets, named config records, build tool
// bindings, and rule wrapper names. It is the concrete implementation of
// the add_buildtool/add_config/add_package/add_rule contract; the
// ingestion collaborator is the only caller of its mutating methods.
type Registry struct {
	packages     map[string]*Package
	packageOrder []string

	configs     map[string]*ConfigRecord
	configOrder []string

	buildtools map[string]*BuildToolFactory
	rules      map[string]bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		packages:   map[string]*Package{},
		configs:    map[string]*ConfigRecord{},
		buildtools: map[string]*BuildToolFactory{},
		rules:      map[string]bool{},
	}
}

// AddBuildTool registers a back-end factory under a unique name.
func (r *Registry) AddBuildTool(name, generatorKind string) error {
	if _, present := r.buildtools[name]; present {
		return &Error{Kind: DuplicateConfig, Message: "buildtool " + name + " already registered"}
	}
	r.buildtools[name] = &BuildToolFactory{Name: name, GeneratorKind: generatorKind}
	return nil
}

// BuildTool returns the back-end binding registered under name, or nil.
func (r *Registry) BuildTool(name string) *BuildToolFactory {
	return r.buildtools[name]
}

// AddConfig registers a named ConfigRecord. The name must be unique across
// the workspace, else DuplicateConfig.
func (r *Registry) AddConfig(record *ConfigRecord) error {
	if _, present := r.configs[record.Name]; present {
		return &Error{Kind: DuplicateConfig, Message: "config " + record.Name + " already registered"}
	}
	r.configs[record.Name] = record
	r.configOrder = append(r.configOrder, record.Name)
	return nil
}

// Config returns the named config record, or nil if none is registered.
func (r *Registry) Config(name string) *ConfigRecord {
	return r.configs[name]
}

// Configs returns every registered config record in registration order.
func (r *Registry) Configs() []*ConfigRecord {
	out := make([]*ConfigRecord, 0, len(r.configOrder))
	for _, name := range r.configOrder {
		out = append(out, r.configs[name])
	}
	return out
}

// AddPackage returns a package handle for name, creating it if this is the
// first reference. A second call for the same directory from a different
// BUILD.builderer invocation is a DuplicatePackage error; add_package is
// meant to be called exactly once per package by the ingestion collaborator
// for the script's own directory.
func (r *Registry) AddPackage(name string) (*Package, error) {
	if _, present := r.packages[name]; present {
		return nil, newLabelError(DuplicatePackage, Label{PackageName: name}, "package %q already registered", name)
	}
	pkg := NewPackage(name)
	r.packages[name] = pkg
	r.packageOrder = append(r.packageOrder, name)
	return pkg, nil
}

// Package returns the package registered under name, or nil.
func (r *Registry) Package(name string) *Package {
	return r.packages[name]
}

// Packages returns every registered package, sorted by name. This is the
// stable package order the workspace facade's IterTargets relies on.
func (r *Registry) Packages() []*Package {
	names := append([]string(nil), r.packageOrder...)
	sort.Strings(names)
	out := make([]*Package, 0, len(names))
	for _, name := range names {
		out = append(out, r.packages[name])
	}
	return out
}

// AddRule registers a user-defined rule wrapper name so that it can be
// dispatched on a package handle during ingestion. The wrapper function
// itself belongs to the ingestion collaborator; the registry only tracks
// that the name exists and is unique.
func (r *Registry) AddRule(name string) error {
	if r.rules[name] {
		return &Error{Kind: DuplicateConfig, Message: "rule " + name + " already registered"}
	}
	r.rules[name] = true
	return nil
}

// Target looks up a target by label across every registered package.
func (r *Registry) Target(label Label) Target {
	pkg := r.packages[label.PackageName]
	if pkg == nil {
		return nil
	}
	return pkg.Target(label.Name)
}
