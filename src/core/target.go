package core

// A Target is one of the tagged-union target kinds: CppLibrary, CppBinary,
// GitRepository, or GenerateFiles. The set is closed; callers type-switch on
// it rather than implementing new kinds, since the kinds themselves are the
// contract ingestion rules produce.
type Target interface {
	isTarget()
	// TargetName returns the target's name within its declaring package.
	TargetName() string
	// TargetCondition returns the target's top-level condition, if any. A
	// target whose condition is false under the active baked config is
	// elided entirely from that pass.
	TargetCondition() Condition
	// TargetDeps returns the unresolved dependency label strings as declared.
	TargetDeps() []string
	// TargetVisibility returns the declared visibility labels. An empty list
	// means visible only within the declaring package and its subpackages;
	// a single ["PUBLIC"] entry means unrestricted.
	TargetVisibility() []string
}

// PublicVisibility is the sentinel visibility label marking a target visible
// to every package in the workspace.
const PublicVisibility = "PUBLIC"

// CppLibrary is a compiled static/object library: headers it exposes to
// dependents, sources compiled into it, and the include paths, defines, and
// flags it both uses privately and propagates publicly to its dependents.
type CppLibrary struct {
	Name             string
	Condition        Condition
	Hdrs             []string // glob patterns
	Srcs             []string
	PublicIncludes   []Expr
	PrivateIncludes  []Expr
	PublicDefines    []Expr
	PrivateDefines   []Expr
	CFlags           []Expr
	CxxFlags         []Expr
	LinkFlags        []Expr
	Deps             []string
	Visibility       []string
	Sandbox          bool
}

func (*CppLibrary) isTarget() {}

// TargetName implements Target.
func (t *CppLibrary) TargetName() string { return t.Name }

// TargetCondition implements Target.
func (t *CppLibrary) TargetCondition() Condition { return t.Condition }

// TargetDeps implements Target.
func (t *CppLibrary) TargetDeps() []string { return t.Deps }

// TargetVisibility implements Target.
func (t *CppLibrary) TargetVisibility() []string { return t.Visibility }

// CppBinary is a linked executable: its own sources and private flags, plus
// whatever it pulls in from its dependencies' public attributes.
type CppBinary struct {
	Name            string
	Condition       Condition
	Srcs            []string
	PrivateIncludes []Expr
	PrivateDefines  []Expr
	CFlags          []Expr
	CxxFlags        []Expr
	LinkFlags       []Expr
	Deps            []string
	Visibility      []string
	OutputPath      string
	Sandbox         bool
}

func (*CppBinary) isTarget() {}

// TargetName implements Target.
func (t *CppBinary) TargetName() string { return t.Name }

// TargetCondition implements Target.
func (t *CppBinary) TargetCondition() Condition { return t.Condition }

// TargetDeps implements Target.
func (t *CppBinary) TargetDeps() []string { return t.Deps }

// TargetVisibility implements Target.
func (t *CppBinary) TargetVisibility() []string { return t.Visibility }

// GitRepository is a non-buildable target whose "output" is the root of an
// externally fetched source checkout, used purely as a path-expansion
// target by other targets' {Pkg:Tgt} references.
type GitRepository struct {
	Name       string
	Condition  Condition
	Remote     string
	SHA        string
	Visibility []string
}

func (*GitRepository) isTarget() {}

// TargetName implements Target.
func (t *GitRepository) TargetName() string { return t.Name }

// TargetCondition implements Target.
func (t *GitRepository) TargetCondition() Condition { return t.Condition }

// TargetDeps implements Target.
func (t *GitRepository) TargetDeps() []string { return nil }

// TargetVisibility implements Target.
func (t *GitRepository) TargetVisibility() []string { return t.Visibility }

// GenerateFiles runs an external generator (out of scope here; only its
// declared inputs/outputs are modeled) and exposes its output directory
// under sandbox_root as a path-expansion target.
type GenerateFiles struct {
	Name       string
	Condition  Condition
	Generator  string
	Inputs     []string
	Outputs    []string
	Deps       []string
	Visibility []string
}

func (*GenerateFiles) isTarget() {}

// TargetName implements Target.
func (t *GenerateFiles) TargetName() string { return t.Name }

// TargetCondition implements Target.
func (t *GenerateFiles) TargetCondition() Condition { return t.Condition }

// TargetDeps implements Target.
func (t *GenerateFiles) TargetDeps() []string { return t.Deps }

// TargetVisibility implements Target.
func (t *GenerateFiles) TargetVisibility() []string { return t.Visibility }

// canSee returns true if the label of a dependent target may legally depend
// on dep, per the declaring target's visibility and the dependent's own
// package. A synthesized sub-target's visibility check is promoted to its
// Parent() label.
func canSee(depLabel Label, dep Target, dependentLabel Label) bool {
	if depLabel.PackageName == dependentLabel.PackageName {
		return true
	}
	vis := dep.TargetVisibility()
	if len(vis) == 0 {
		return isSubpackageOf(depLabel.PackageName, dependentLabel.PackageName)
	}
	for _, v := range vis {
		if v == PublicVisibility {
			return true
		}
		if isSubpackageOf(v, dependentLabel.Parent().PackageName) || v == dependentLabel.PackageName {
			return true
		}
	}
	return false
}

// isSubpackageOf returns true if pkg is base or a subpackage beneath it.
func isSubpackageOf(base, pkg string) bool {
	if base == pkg {
		return true
	}
	return len(pkg) > len(base) && pkg[:len(base)] == base && pkg[len(base)] == '/'
}
