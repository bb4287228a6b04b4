package core

import (
	"path/filepath"
	"strings"
)

// A pathContext selects which mirror a {Pkg:Tgt} reference expands to when
// the referenced target is sandboxed: its hdrs root for include-path
// contexts, its srcs root for source contexts.
type pathContext int

const (
	hdrsContext pathContext = iota
	srcsContext
)

// expandPathRefs expands every {Pkg:Tgt} placeholder in s to the referenced
// target's effective source root under the given baked config. The scan is a
// single left-to-right pass; expanded text is never re-scanned. Every
// referenced target must be in the referrer's transitive deps, else
// UnreferencedPathTarget; unbalanced or nested braces are a
// MalformedPathReference.
func (w *Workspace) expandPathRefs(config *BakedConfig, referrer Label, ctx pathContext, s string) (string, error) {
	if !strings.ContainsAny(s, "{}") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		switch s[i] {
		case '{':
			end := strings.IndexByte(s[i:], '}')
			if end == -1 {
				return "", newLabelError(MalformedPathReference, referrer, "unbalanced { in %q", s)
			}
			inner := s[i+1 : i+end]
			if strings.ContainsRune(inner, '{') {
				return "", newLabelError(MalformedPathReference, referrer, "nested { in %q", s)
			}
			root, err := w.referencedRoot(config, referrer, ctx, inner, s)
			if err != nil {
				return "", err
			}
			b.WriteString(root)
			i += end + 1
		case '}':
			return "", newLabelError(MalformedPathReference, referrer, "unbalanced } in %q", s)
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String(), nil
}

// referencedRoot resolves the label inside a {Pkg:Tgt} placeholder and
// returns the referenced target's effective source root.
func (w *Workspace) referencedRoot(config *BakedConfig, referrer Label, ctx pathContext, ref, whole string) (string, error) {
	label, err := TryParseLabel(ref, referrer.PackageName)
	if err != nil {
		return "", newLabelError(MalformedPathReference, referrer, "bad path reference {%s} in %q: %s", ref, whole, err)
	}
	if !w.inTransitiveDeps(referrer, label) {
		return "", newLabelError(UnreferencedPathTarget, referrer, "{%s} referenced but %s is not in transitive deps", ref, label)
	}
	return w.sourceRoot(config, label, ctx)
}

// inTransitiveDeps reports whether dep is in referrer's transitive deps.
func (w *Workspace) inTransitiveDeps(referrer, dep Label) bool {
	for _, l := range w.Graph.AllDependencies(referrer) {
		if l == dep {
			return true
		}
	}
	return false
}

// sourceRoot returns the effective source root of a target under the given
// baked config: the checkout root for a git repository, the out directory for
// a file generator, the appropriate sandbox mirror for a sandboxed C++
// target, and the package directory otherwise. Always absolute.
func (w *Workspace) sourceRoot(config *BakedConfig, label Label, ctx pathContext) (string, error) {
	target := w.Graph.Target(label)
	if target == nil {
		return "", newLabelError(UnknownDependency, label, "target %s is not defined", label)
	}
	switch t := target.(type) {
	case *GitRepository:
		root, err := w.sandboxRoot(config)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, ".vcs", t.Name), nil
	case *GenerateFiles:
		root, err := w.sandboxRoot(config)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, label.PackageName, label.Name, "out"), nil
	case *CppLibrary:
		if t.Sandbox {
			return w.sandboxMirror(config, label, ctx)
		}
	case *CppBinary:
		if t.Sandbox {
			return w.sandboxMirror(config, label, srcsContext)
		}
	}
	return filepath.Join(w.Root, w.Graph.Package(label).Dir), nil
}

// sandboxMirror returns the hdrs or srcs mirror root of a sandboxed target.
func (w *Workspace) sandboxMirror(config *BakedConfig, label Label, ctx pathContext) (string, error) {
	root, err := w.sandboxRoot(config)
	if err != nil {
		return "", err
	}
	dir := "hdrs"
	if ctx == srcsContext {
		dir = "srcs"
	}
	return filepath.Join(root, label.PackageName, label.Name, dir), nil
}
