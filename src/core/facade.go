package core

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/builderer/builderer/src/cli/logging"
	"github.com/builderer/builderer/src/fs"
)

var log = logging.Log

// A Generator is a back-end factory: it receives one baked config and the
// workspace facade and performs idempotent writes under the build root.
type Generator func(config *BakedConfig, workspace *Workspace) error

// A PackageTarget is one (package, target) pair as yielded by IterTargets.
type PackageTarget struct {
	Pkg    *Package
	Target Target
}

// Workspace is the facade the back-ends consume: stable iteration over the
// registry, the baked config list, dependency walks, attribute resolution,
// source enumeration, and sandbox commits. It is constructed once after
// ingestion and is read-only thereafter apart from the per-pass caches.
type Workspace struct {
	// Root is the absolute path of the workspace root directory.
	Root string
	// Registry is the fully-ingested target registry.
	Registry *Registry
	// Graph is the dependency graph over the registry.
	Graph *BuildGraph
	// Matrix is the selected matrix config record. Back-ends that collapse
	// axes into a single file (e.g. storing architecture and configuration as
	// separate dimensions of one project) consume this directly and call
	// Resolve per point of interest.
	Matrix *ConfigRecord

	narrow    map[string]Scalar
	globCache map[string][]string
}

// NewWorkspace builds the facade for a workspace rooted at root, using the
// named matrix config. The dependency graph is constructed and checked here,
// so an unknown dependency, visibility violation, or cycle fails before
// anything is written anywhere.
func NewWorkspace(root string, registry *Registry, configName string) (*Workspace, error) {
	matrix := registry.Config(configName)
	if matrix == nil {
		return nil, &Error{Kind: UnknownConfigKey, Message: fmt.Sprintf("no config named %q is registered", configName)}
	}
	graph, err := NewGraph(registry)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:      absRoot,
		Registry:  registry,
		Graph:     graph,
		Matrix:    matrix,
		narrow:    map[string]Scalar{},
		globCache: map[string][]string{},
	}, nil
}

// IterTargets yields every (package, target) pair in a stable order:
// packages sorted by name, targets in declaration order.
func (w *Workspace) IterTargets() []PackageTarget {
	var out []PackageTarget
	for _, pkg := range w.Registry.Packages() {
		for _, target := range pkg.AllTargets() {
			out = append(out, PackageTarget{Pkg: pkg, Target: target})
		}
	}
	return out
}

// Narrow restricts the baked config list to configs where the given axis
// holds the given value, e.g. from --build_config / --build_arch.
func (w *Workspace) Narrow(axis string, value Scalar) {
	w.narrow[axis] = value
}

// BakedConfigs returns the baked expansion of the selected matrix config,
// filtered by any Narrow calls.
func (w *Workspace) BakedConfigs() []*BakedConfig {
	baked := BakeMatrix(w.Matrix)
	if len(w.narrow) == 0 {
		return baked
	}
	var out []*BakedConfig
	for _, config := range baked {
		keep := true
		for axis, value := range w.narrow {
			if config.Values[axis] != value {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, config)
		}
	}
	return out
}

// DirectDependencies returns the resolved labels of a target's declared deps.
func (w *Workspace) DirectDependencies(label Label) []Label {
	return w.Graph.DirectDependencies(label)
}

// AllDependencies returns the target's transitive dependency closure in
// deterministic post-order.
func (w *Workspace) AllDependencies(label Label) []Label {
	return w.Graph.AllDependencies(label)
}

// Resolve resolves an attribute-value expression against a baked config.
func (w *Workspace) Resolve(config *BakedConfig, expr Expr) ([]Scalar, error) {
	return resolve(config, expr)
}

// BuildTool returns the registered back-end binding for name, or a
// MissingGenerator error.
func (w *Workspace) BuildTool(name string) (*BuildToolFactory, error) {
	if tool := w.Registry.BuildTool(name); tool != nil {
		return tool, nil
	}
	return nil, &Error{Kind: MissingGenerator, Message: fmt.Sprintf("no buildtool named %q is registered", name)}
}

// Enabled evaluates a target's top-level condition under a baked config; a
// target whose condition doesn't hold is elided from the pass entirely.
func (w *Workspace) Enabled(config *BakedConfig, target Target) (bool, error) {
	return target.TargetCondition().holds(config)
}

// Generate runs one generate pass: the sandbox is committed first, then the
// back-end emits build files for each baked config in order. Any error
// aborts before the back-end write phase of the failing config; sandbox
// writes already made are safe since the next pass reconciles them.
func (w *Workspace) Generate(backend Generator) error {
	w.globCache = map[string][]string{}
	configs := w.BakedConfigs()
	log.Debug("Generate pass over %d baked configs", len(configs))
	for _, config := range configs {
		if err := w.SandboxCommit(config); err != nil {
			return err
		}
		if err := backend(config, w); err != nil {
			return err
		}
	}
	return nil
}

// BuildRoot returns the absolute build root directory for a baked config.
func (w *Workspace) BuildRoot(config *BakedConfig) (string, error) {
	return w.rootAxis(config, AxisBuildRoot)
}

// sandboxRoot returns the absolute sandbox root directory for a baked config.
func (w *Workspace) sandboxRoot(config *BakedConfig) (string, error) {
	return w.rootAxis(config, AxisSandboxRoot)
}

func (w *Workspace) rootAxis(config *BakedConfig, axis string) (string, error) {
	value, present := config.Get(axis)
	if !present {
		return "", &Error{Kind: UnknownConfigKey, Message: fmt.Sprintf("config %q does not define %s", config.Slug, axis)}
	}
	dir := scalarString(value)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.Root, dir)
	}
	return dir, nil
}

// EnumerateSources applies path-reference expansion and globbing to a
// target's hdrs and srcs separately, returning absolute paths: under the
// target's sandbox mirrors when it is sandboxed, under the source trees
// otherwise. An elided target enumerates to nothing.
func (w *Workspace) EnumerateSources(config *BakedConfig, label Label) (hdrs, srcs []string, err error) {
	target := w.Graph.Target(label)
	if target == nil {
		return nil, nil, newLabelError(UnknownDependency, label, "target %s is not defined", label)
	}
	if enabled, err := w.Enabled(config, target); err != nil || !enabled {
		return nil, nil, err
	}
	switch t := target.(type) {
	case *CppLibrary:
		hdrs, err = w.enumerate(config, label, t.Hdrs, hdrsContext, t.Sandbox, "hdrs")
		if err != nil {
			return nil, nil, err
		}
		srcs, err = w.enumerate(config, label, t.Srcs, srcsContext, t.Sandbox, "srcs")
		return hdrs, srcs, err
	case *CppBinary:
		srcs, err = w.enumerate(config, label, t.Srcs, srcsContext, t.Sandbox, "srcs")
		return nil, srcs, err
	}
	return nil, nil, nil
}

// enumerate runs the glob groups for one attribute and flattens the matches
// into absolute paths, redirected into the sandbox mirror when sandboxed.
func (w *Workspace) enumerate(config *BakedConfig, label Label, patterns []string, ctx pathContext, sandboxed bool, subdir string) ([]string, error) {
	groups, err := w.globGroups(config, label, patterns, ctx)
	if err != nil {
		return nil, err
	}
	mirror := ""
	if sandboxed {
		root, err := w.sandboxRoot(config)
		if err != nil {
			return nil, err
		}
		mirror = filepath.Join(root, label.PackageName, label.Name, subdir)
	}
	var out []string
	for _, group := range groups {
		for _, match := range group.matches {
			if sandboxed {
				out = append(out, filepath.Join(mirror, match))
			} else {
				out = append(out, filepath.Join(group.base, match))
			}
		}
	}
	return out, nil
}

// A globGroup is the result of globbing the patterns that share one base
// directory: the package directory by default, or an expanded {Pkg:Tgt} root
// for patterns that begin with a reference.
type globGroup struct {
	base    string
	matches []string
}

// globGroups splits a pattern list by base, applies include/exclude globbing
// per base, and returns the groups in first-appearance order. Results are
// cached per (base, patterns) for the duration of a generate pass.
func (w *Workspace) globGroups(config *BakedConfig, label Label, patterns []string, ctx pathContext) ([]globGroup, error) {
	type group struct {
		base     string
		patterns []string
	}
	var groups []*group
	byBase := map[string]*group{}
	for _, pattern := range patterns {
		exclude := strings.HasPrefix(pattern, ExcludePrefix)
		base, rel, err := w.splitPatternBase(config, label, strings.TrimPrefix(pattern, ExcludePrefix), ctx)
		if err != nil {
			return nil, err
		}
		if exclude {
			rel = ExcludePrefix + rel
		}
		g, present := byBase[base]
		if !present {
			g = &group{base: base}
			byBase[base] = g
			groups = append(groups, g)
		}
		g.patterns = append(g.patterns, rel)
	}
	out := make([]globGroup, 0, len(groups))
	for _, g := range groups {
		matches, err := w.cachedGlob(g.base, g.patterns)
		if err != nil {
			return nil, err
		}
		out = append(out, globGroup{base: g.base, matches: matches})
	}
	return out, nil
}

// splitPatternBase resolves a single pattern to its glob base and the
// base-relative remainder. Only a leading {Pkg:Tgt} changes the base; braces
// anywhere else in a pattern are malformed.
func (w *Workspace) splitPatternBase(config *BakedConfig, label Label, pattern string, ctx pathContext) (base, rel string, err error) {
	if !strings.HasPrefix(pattern, "{") {
		if strings.ContainsAny(pattern, "{}") {
			return "", "", newLabelError(MalformedPathReference, label, "path reference must start the pattern in %q", pattern)
		}
		return filepath.Join(w.Root, w.Graph.Package(label).Dir), pattern, nil
	}
	end := strings.IndexByte(pattern, '}')
	if end == -1 {
		return "", "", newLabelError(MalformedPathReference, label, "unbalanced { in %q", pattern)
	}
	rel = strings.TrimPrefix(pattern[end+1:], "/")
	if strings.ContainsAny(rel, "{}") {
		return "", "", newLabelError(MalformedPathReference, label, "multiple path references in %q", pattern)
	}
	base, err = w.referencedRoot(config, label, ctx, pattern[1:end], pattern)
	return base, rel, err
}

// cachedGlob memoises Glob within a generate pass.
func (w *Workspace) cachedGlob(base string, patterns []string) ([]string, error) {
	key := base + "\x00" + strings.Join(patterns, "\x00")
	if cached, present := w.globCache[key]; present {
		return cached, nil
	}
	matches, err := Glob(base, patterns)
	if err != nil {
		return nil, err
	}
	w.globCache[key] = matches
	return matches, nil
}

// Flags is the collected compilation surface of one target under one baked
// config: its own attributes plus everything propagated from its transitive
// dependencies in traversal order.
type Flags struct {
	Includes  []string
	Defines   []string
	CFlags    []string
	CxxFlags  []string
	LinkFlags []string
}

// EffectiveFlags collects the effective include paths, defines, and flags for
// a target: its own private (and public, for libraries) attributes first,
// then the public attributes of each transitive dependency that is an
// enabled library, in AllDependencies order. Include paths are returned
// absolute, pointing into sandbox mirrors where the declaring target is
// sandboxed.
func (w *Workspace) EffectiveFlags(config *BakedConfig, label Label) (*Flags, error) {
	target := w.Graph.Target(label)
	if target == nil {
		return nil, newLabelError(UnknownDependency, label, "target %s is not defined", label)
	}
	flags := &Flags{}
	if enabled, err := w.Enabled(config, target); err != nil {
		return nil, err
	} else if !enabled {
		return flags, nil
	}
	switch t := target.(type) {
	case *CppLibrary:
		if err := w.appendIncludes(config, label, &flags.Includes, t.PrivateIncludes, srcsContext, t.Sandbox); err != nil {
			return nil, err
		}
		if err := w.appendIncludes(config, label, &flags.Includes, t.PublicIncludes, hdrsContext, t.Sandbox); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.Defines, t.PrivateDefines, t.PublicDefines); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.CFlags, t.CFlags); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.CxxFlags, t.CxxFlags); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.LinkFlags, t.LinkFlags); err != nil {
			return nil, err
		}
	case *CppBinary:
		if err := w.appendIncludes(config, label, &flags.Includes, t.PrivateIncludes, srcsContext, t.Sandbox); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.Defines, t.PrivateDefines); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.CFlags, t.CFlags); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.CxxFlags, t.CxxFlags); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.LinkFlags, t.LinkFlags); err != nil {
			return nil, err
		}
	default:
		return flags, nil
	}
	for _, dep := range w.Graph.AllDependencies(label) {
		lib, ok := w.Graph.Target(dep).(*CppLibrary)
		if !ok {
			continue
		}
		if enabled, err := w.Enabled(config, lib); err != nil {
			return nil, err
		} else if !enabled {
			continue
		}
		if err := w.appendIncludes(config, dep, &flags.Includes, lib.PublicIncludes, hdrsContext, lib.Sandbox); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.Defines, lib.PublicDefines); err != nil {
			return nil, err
		}
		if err := w.appendResolved(config, &flags.LinkFlags, lib.LinkFlags); err != nil {
			return nil, err
		}
	}
	return flags, nil
}

// appendIncludes resolves include-path expressions for the target declaring
// them and appends them as absolute paths: into the declaring target's
// sandbox mirror when it is sandboxed, under its package directory otherwise.
// Embedded {Pkg:Tgt} references expand first and keep the path they produce.
func (w *Workspace) appendIncludes(config *BakedConfig, label Label, out *[]string, exprs []Expr, ctx pathContext, sandboxed bool) error {
	values, err := resolve(config, Seq(exprs))
	if err != nil {
		return err
	}
	root := ""
	for _, value := range values {
		include, err := w.expandPathRefs(config, label, ctx, scalarString(value))
		if err != nil {
			return err
		}
		if !filepath.IsAbs(include) {
			if root == "" {
				if sandboxed {
					root, err = w.sandboxMirror(config, label, ctx)
				} else {
					root = filepath.Join(w.Root, w.Graph.Package(label).Dir)
				}
				if err != nil {
					return err
				}
			}
			include = filepath.Join(root, include)
		}
		*out = append(*out, include)
	}
	return nil
}

// appendResolved resolves plain flag/define expression lists in order.
func (w *Workspace) appendResolved(config *BakedConfig, out *[]string, exprLists ...[]Expr) error {
	for _, exprs := range exprLists {
		values, err := resolve(config, Seq(exprs))
		if err != nil {
			return err
		}
		for _, value := range values {
			*out = append(*out, scalarString(value))
		}
	}
	return nil
}

// SandboxCommit materializes the sandbox for one baked config: the hdrs and
// srcs mirrors of every enabled sandboxed target and the out directories of
// file generators. Called by Generate before back-end emission; callable
// directly by tests and long-running drivers.
func (w *Workspace) SandboxCommit(config *BakedConfig) error {
	// A commit starts a fresh view of the source tree; memoised globs from
	// any earlier pass would hide files added or removed since.
	w.globCache = map[string][]string{}
	root, err := w.sandboxRoot(config)
	if err != nil {
		return err
	}
	plan := newSandboxPlan(root)
	for _, pt := range w.IterTargets() {
		label := Label{PackageName: pt.Pkg.Name, Name: pt.Target.TargetName()}
		if enabled, err := w.Enabled(config, pt.Target); err != nil {
			return err
		} else if !enabled {
			continue
		}
		switch t := pt.Target.(type) {
		case *CppLibrary:
			if !t.Sandbox {
				continue
			}
			if err := w.planMirror(config, plan, label, "hdrs", t.Hdrs, hdrsContext); err != nil {
				return err
			}
			if err := w.planMirror(config, plan, label, "srcs", t.Srcs, srcsContext); err != nil {
				return err
			}
		case *CppBinary:
			if !t.Sandbox {
				continue
			}
			if err := w.planMirror(config, plan, label, "srcs", t.Srcs, srcsContext); err != nil {
				return err
			}
		case *GenerateFiles:
			if err := w.planGeneratedOutputs(plan, label, t); err != nil {
				return err
			}
		}
	}
	log.Debug("Committing sandbox %s: %d files", root, len(plan.files))
	return plan.commit()
}

// planMirror adds one attribute's glob matches to the sandbox plan.
func (w *Workspace) planMirror(config *BakedConfig, plan *sandboxPlan, label Label, subdir string, patterns []string, ctx pathContext) error {
	groups, err := w.globGroups(config, label, patterns, ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		plan.addMirror(label, subdir, group.base, group.matches)
	}
	return nil
}

// planGeneratedOutputs stages a file generator's declared outputs that
// already exist under its package directory into its out mirror, and makes
// sure the out directory exists even before the generator has ever run.
func (w *Workspace) planGeneratedOutputs(plan *sandboxPlan, label Label, t *GenerateFiles) error {
	plan.addOut(label)
	pkgDir := filepath.Join(w.Root, w.Graph.Package(label).Dir)
	for _, output := range t.Outputs {
		abs := filepath.Join(pkgDir, output)
		switch {
		case fs.FileExists(abs):
			plan.addMirror(label, "out", pkgDir, []string{output})
		case fs.IsDirectory(abs):
			var matches []string
			if err := fs.Walk(abs, func(name string, isDir bool) error {
				if !isDir {
					matches = append(matches, filepath.Join(output, strings.TrimPrefix(strings.TrimPrefix(name, abs), "/")))
				}
				return nil
			}); err != nil {
				return newPathError(SandboxIOFailure, abs, "cannot scan generator output: %s", err)
			}
			plan.addMirror(label, "out", pkgDir, matches)
		}
	}
	return nil
}

// WriteDOT emits the dependency graph in DOT form, in the graph's stable
// iteration order, for the `graph` command.
func (w *Workspace) WriteDOT(out io.Writer) error {
	if _, err := fmt.Fprintln(out, "digraph builderer {"); err != nil {
		return err
	}
	for _, label := range w.Graph.Labels() {
		if _, err := fmt.Fprintf(out, "  %q;\n", label.String()); err != nil {
			return err
		}
		for _, dep := range w.Graph.DirectDependencies(label) {
			if _, err := fmt.Fprintf(out, "  %q -> %q;\n", label.String(), dep.String()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(out, "}")
	return err
}

// scalarString renders a resolved scalar as the string the generated build
// files will carry.
func scalarString(v Scalar) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
