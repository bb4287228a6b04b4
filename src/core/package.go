package core

import "sync"

// Package is the part of the workspace covered by a single BUILD.builderer
// file: a directory, plus the targets declared in it. Package name equals
// its workspace-relative directory path.
type Package struct {
	// Name is the workspace-relative directory path of this package, e.g.
	// "spam/eggs"; the root package's name is "".
	Name string
	// Dir is the filesystem directory this package's sources and BUILD file
	// live under, relative to the workspace root. Equal to Name in the
	// ordinary case; kept distinct for forward compatibility with
	// collaborators that resolve it against a non-default workspace root.
	Dir string

	mutex   sync.Mutex
	names   []string // declaration order, preserved for iteration
	targets map[string]Target
}

// NewPackage constructs a new, empty package with the given name.
func NewPackage(name string) *Package {
	return &Package{
		Name:    name,
		Dir:     name,
		targets: map[string]Target{},
	}
}

// AddTarget inserts a target into this package. Returns a DuplicateTarget
// error if a target of this name is already registered.
func (pkg *Package) AddTarget(t Target) error {
	pkg.mutex.Lock()
	defer pkg.mutex.Unlock()
	name := t.TargetName()
	if _, present := pkg.targets[name]; present {
		return newLabelError(DuplicateTarget, Label{PackageName: pkg.Name, Name: name},
			"target %q already registered in package %q", name, pkg.Name)
	}
	pkg.targets[name] = t
	pkg.names = append(pkg.names, name)
	return nil
}

// Target returns the target with the given name, or nil if this package
// doesn't have one.
func (pkg *Package) Target(name string) Target {
	pkg.mutex.Lock()
	defer pkg.mutex.Unlock()
	return pkg.targets[name]
}

// AllTargets returns every target in this package in declaration order.
func (pkg *Package) AllTargets() []Target {
	pkg.mutex.Lock()
	defer pkg.mutex.Unlock()
	ret := make([]Target, 0, len(pkg.names))
	for _, name := range pkg.names {
		ret = append(ret, pkg.targets[name])
	}
	return ret
}

// NumTargets returns the number of targets currently registered in this package.
func (pkg *Package) NumTargets() int {
	pkg.mutex.Lock()
	defer pkg.mutex.Unlock()
	return len(pkg.names)
}
