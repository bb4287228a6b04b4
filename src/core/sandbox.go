package core

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/builderer/builderer/src/fs"
)

// A sandboxPlan is the complete desired state of the managed mirrors under a
// sandbox root for one generate pass: every file that should exist, keyed by
// its root-relative destination, mapped to the absolute source it mirrors.
// Committing a plan is idempotent; a second commit against an unchanged
// workspace performs zero writes.
type sandboxPlan struct {
	root  string            // absolute sandbox root
	files map[string]string // destination (root-relative) -> source (absolute)
	keep  map[string]bool   // directories kept even when empty (generator out trees)
}

func newSandboxPlan(root string) *sandboxPlan {
	return &sandboxPlan{
		root:  root,
		files: map[string]string{},
		keep:  map[string]bool{},
	}
}

// addMirror records that every file in matches (relative to base) should be
// mirrored under the target's named sandbox subdirectory. Relative paths
// inside the mirror preserve the file's position beneath the glob base; the
// common ancestor of the matches is not stripped.
func (plan *sandboxPlan) addMirror(label Label, subdir, base string, matches []string) {
	for _, match := range matches {
		dest := filepath.Join(label.PackageName, label.Name, subdir, match)
		plan.files[dest] = filepath.Join(base, match)
	}
}

// addOut records a file generator's out tree: managed like any mirror, but
// the out directory itself is created up front and survives empty so that
// path references to it always resolve to a real directory.
func (plan *sandboxPlan) addOut(label Label) {
	plan.keep[filepath.Join(label.PackageName, label.Name, "out")] = true
}

// commit reconciles the filesystem under the sandbox root with the plan.
// Contents are hashed concurrently up front, but all writes and removals are
// strictly sequenced, in sorted path order, so two runs over the same
// workspace do the same things in the same order. Files are only written
// when their destination content differs from the source; obsolete files in
// managed directories are removed.
func (plan *sandboxPlan) commit() error {
	dests := make([]string, 0, len(plan.files))
	for dest := range plan.files {
		dests = append(dests, dest)
	}
	sort.Strings(dests)

	keeps := make([]string, 0, len(plan.keep))
	for dir := range plan.keep {
		keeps = append(keeps, dir)
	}
	sort.Strings(keeps)
	for _, dir := range keeps {
		if err := os.MkdirAll(filepath.Join(plan.root, dir), fs.DirPermissions); err != nil {
			return newPathError(SandboxIOFailure, filepath.Join(plan.root, dir), "cannot create directory: %s", err)
		}
	}

	// Hash phase: read-only, safe to fan out.
	hasher := fs.NewHasher()
	needed := make([]bool, len(dests))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, dest := range dests {
		i, dest := i, dest
		g.Go(func() error {
			changed, err := plan.needsWrite(hasher, plan.files[dest], filepath.Join(plan.root, dest))
			needed[i] = changed
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Write phase: sequential.
	for i, dest := range dests {
		if !needed[i] {
			continue
		}
		if err := plan.write(plan.files[dest], filepath.Join(plan.root, dest)); err != nil {
			return err
		}
	}
	return plan.removeObsolete()
}

// needsWrite decides whether dest must be rewritten from src by comparing
// contents. A destination hardlinked to its source is identical without
// reading either.
func (plan *sandboxPlan) needsWrite(hasher *fs.Hasher, src, dest string) (bool, error) {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return false, newPathError(SandboxIOFailure, src, "cannot stat source: %s", err)
	}
	destInfo, err := os.Lstat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, newPathError(SandboxIOFailure, dest, "cannot stat: %s", err)
	}
	if fs.IsSameFile(src, dest) {
		return false, nil
	}
	if srcInfo.Size() != destInfo.Size() {
		return true, nil
	}
	srcHash, err := hasher.Hash(src)
	if err != nil {
		return false, newPathError(SandboxIOFailure, src, "cannot hash: %s", err)
	}
	destHash, err := hasher.Hash(dest)
	if err != nil {
		return false, newPathError(SandboxIOFailure, dest, "cannot hash: %s", err)
	}
	return srcHash != destHash, nil
}

// write materializes dest as a mirror of src, preferring a hardlink.
func (plan *sandboxPlan) write(src, dest string) error {
	if err := fs.EnsureDir(dest); err != nil {
		return newPathError(SandboxIOFailure, dest, "cannot create directory: %s", err)
	}
	if fs.PathExists(dest) {
		if err := os.Remove(dest); err != nil {
			return newPathError(SandboxIOFailure, dest, "cannot replace: %s", err)
		}
	}
	info, err := os.Lstat(src)
	if err != nil {
		return newPathError(SandboxIOFailure, src, "cannot stat source: %s", err)
	}
	if err := fs.CopyOrLinkFile(src, dest, info.Mode(), 0, true, true); err != nil {
		return newPathError(SandboxIOFailure, dest, "cannot write: %s", err)
	}
	return nil
}

// vcsDir is the subdirectory of the sandbox root owned by the external VCS
// fetcher; reconciliation never touches it.
const vcsDir = ".vcs"

// removeObsolete deletes every file under the sandbox root the plan no
// longer wants, then prunes directories left empty. The whole root is
// managed, so mirrors of targets that have since been removed or disabled
// disappear too. Two things are left alone: the fetcher-owned .vcs tree, and
// files inside a generator's out tree that the plan does not list.
func (plan *sandboxPlan) removeObsolete() error {
	if !fs.IsDirectory(plan.root) {
		return nil
	}
	var obsolete, subdirs []string
	if err := fs.Walk(plan.root, func(name string, isDir bool) error {
		rel, err := filepath.Rel(plan.root, name)
		if err != nil {
			return err
		}
		if rel == "." || rel == vcsDir || strings.HasPrefix(rel, vcsDir+"/") {
			return nil
		}
		if isDir {
			subdirs = append(subdirs, name)
			return nil
		}
		if plan.kept(rel) {
			// Files inside a generator's out tree belong to the generator,
			// not the plan; mirrored outputs overwrite them file-by-file but
			// reconciliation never sweeps them away.
			return nil
		}
		if _, wanted := plan.files[rel]; !wanted {
			obsolete = append(obsolete, name)
		}
		return nil
	}); err != nil {
		return newPathError(SandboxIOFailure, plan.root, "cannot scan: %s", err)
	}
	sort.Strings(obsolete)
	for _, name := range obsolete {
		if err := os.Remove(name); err != nil {
			return newPathError(SandboxIOFailure, name, "cannot remove obsolete file: %s", err)
		}
	}
	// Deepest first so emptied parents go too.
	sort.Sort(sort.Reverse(sort.StringSlice(subdirs)))
	for _, name := range subdirs {
		rel, err := filepath.Rel(plan.root, name)
		if err != nil {
			return err
		}
		if plan.keep[rel] {
			continue
		}
		if isEmptyDir(name) {
			if err := os.Remove(name); err != nil {
				return newPathError(SandboxIOFailure, name, "cannot remove empty directory: %s", err)
			}
		}
	}
	return nil
}

// kept reports whether rel lies inside one of the plan's kept directories.
func (plan *sandboxPlan) kept(rel string) bool {
	for dir := range plan.keep {
		if strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

func isEmptyDir(name string) bool {
	entries, err := os.ReadDir(name)
	return err == nil && len(entries) == 0
}
