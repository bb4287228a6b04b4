// Representation of the build graph.
// The graph of build targets forms a DAG which is fully constructed from the
// registry once ingestion finishes and never mutated afterwards.

package core

import (
	"github.com/builderer/builderer/src/cmap"
)

// A graphNode is one (package, target) pair in the arena, with its resolved
// dependency labels in declaration order.
type graphNode struct {
	label  Label
	pkg    *Package
	target Target
	deps   []Label
}

// A BuildGraph is the dependency graph over every (package, target) pair in
// the workspace. Nodes live in an arena in insertion order; the label index
// is a sharded map so that back-ends running lookups from multiple goroutines
// don't race, while every exported traversal remains deterministic.
type BuildGraph struct {
	nodes []*graphNode
	index *cmap.Map[Label, *graphNode]
	order []Label // node labels in insertion order
}

func hashLabel(label Label) uint64 {
	return cmap.XXHashes(label.PackageName, label.Name)
}

// NewGraph builds the dependency graph from a fully-ingested registry. Each
// entry of each target's deps is parsed as a label (resolving the :name
// shorthand against the declaring package), looked up, and checked against
// the dependency's visibility; the whole graph is then checked for cycles.
// Any failure aborts with UnknownDependency, VisibilityViolation, or
// DependencyCycle respectively.
func NewGraph(registry *Registry) (*BuildGraph, error) {
	graph := &BuildGraph{
		index: cmap.New[Label, *graphNode](cmap.DefaultShardCount, hashLabel),
	}
	for _, pkg := range registry.Packages() {
		for _, target := range pkg.AllTargets() {
			node := &graphNode{
				label:  Label{PackageName: pkg.Name, Name: target.TargetName()},
				pkg:    pkg,
				target: target,
			}
			graph.nodes = append(graph.nodes, node)
			graph.order = append(graph.order, node.label)
			graph.index.Add(node.label, node)
		}
	}
	detector := newCycleDetector()
	for _, node := range graph.nodes {
		for _, dep := range node.target.TargetDeps() {
			label, err := TryParseLabel(dep, node.label.PackageName)
			if err != nil {
				return nil, newLabelError(UnknownDependency, node.label, "invalid dependency %q: %s", dep, err)
			}
			depNode := graph.index.Get(label)
			if depNode == nil {
				return nil, newLabelError(UnknownDependency, label, "target %s (depended on by %s) is not defined", label, node.label)
			}
			if !canSee(label, depNode.target, node.label) {
				return nil, newLabelError(VisibilityViolation, node.label, "target %s is not visible to %s", label, node.label)
			}
			node.deps = append(node.deps, label)
			detector.AddDependency(node.label, label)
		}
	}
	if err := detector.Check(graph.order); err != nil {
		return nil, err
	}
	return graph, nil
}

// Target retrieves a target from the graph by label, or nil if not present.
func (graph *BuildGraph) Target(label Label) Target {
	if node := graph.index.Get(label); node != nil {
		return node.target
	}
	return nil
}

// Package returns the package a graph label belongs to, or nil.
func (graph *BuildGraph) Package(label Label) *Package {
	if node := graph.index.Get(label); node != nil {
		return node.pkg
	}
	return nil
}

// Len returns the number of targets in the graph.
func (graph *BuildGraph) Len() int {
	return len(graph.nodes)
}

// DirectDependencies returns the resolved labels of a target's declared deps,
// in declaration order. Returns nil for a label not in the graph.
func (graph *BuildGraph) DirectDependencies(label Label) []Label {
	node := graph.index.Get(label)
	if node == nil {
		return nil
	}
	return append([]Label(nil), node.deps...)
}

// AllDependencies returns the reflexive-transitive dependency closure of a
// target, excluding the target itself, as a duplicate-free post-order over a
// DFS that visits children in declaration order. This is the canonical
// traversal order for attribute propagation and link order, so it must be
// byte-identical across runs; it depends only on declaration order, never on
// map iteration.
func (graph *BuildGraph) AllDependencies(label Label) []Label {
	node := graph.index.Get(label)
	if node == nil {
		return nil
	}
	visited := map[Label]bool{label: true}
	var out []Label
	var walk func(n *graphNode)
	walk = func(n *graphNode) {
		for _, dep := range n.deps {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			walk(graph.index.Get(dep))
			out = append(out, dep)
		}
	}
	walk(node)
	return out
}

// Labels returns every label in the graph in insertion order (packages
// sorted, targets in declaration order).
func (graph *BuildGraph) Labels() []Label {
	return append([]Label(nil), graph.order...)
}
