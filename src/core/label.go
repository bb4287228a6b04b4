package core

import (
	"fmt"
	"strings"
)

// A Label is a fully-qualified identifier of a target, e.g. spam/eggs:ham
// corresponds to Label{PackageName: spam/eggs, Name: ham}. The shorthand
// :ham, parsed relative to a current package, is always resolved to this
// absolute form before a Label value is constructed.
type Label struct {
	PackageName string
	Name        string
}

// String returns a string representation of this label.
func (label Label) String() string {
	if label == (Label{}) {
		return ""
	}
	return label.PackageName + ":" + label.Name
}

// NewLabel constructs a new label from the given components. Panics on failure.
func NewLabel(pkgName, name string) Label {
	label, err := TryNewLabel(pkgName, name)
	if err != nil {
		panic(err)
	}
	return label
}

// TryNewLabel constructs a new label from the given components.
func TryNewLabel(pkgName, name string) (Label, error) {
	if err := validateNames(pkgName, name); err != nil {
		return Label{}, err
	}
	return Label{PackageName: pkgName, Name: name}, nil
}

// validateNames returns an error if the package path or target name isn't accepted.
func validateNames(pkgName, name string) error {
	if !validatePackageName(pkgName) {
		return fmt.Errorf("invalid package path: %q", pkgName)
	} else if !validateTargetName(name) {
		return fmt.Errorf("invalid target name: %q", name)
	}
	return nil
}

// validatePackageName checks whether this string is a valid, workspace-relative
// package path: forward-slash separated, no leading/trailing slash, no empty segments.
func validatePackageName(name string) bool {
	if name == "" {
		return true // the workspace root package
	}
	if name[0] == '/' || name[len(name)-1] == '/' || strings.Contains(name, "//") {
		return false
	}
	return !strings.ContainsAny(name, `:|$*?[]{}()&\`)
}

// validateTargetName checks whether this string is a valid target name,
// matching [A-Za-z0-9_.-]+ per the data model.
func validateTargetName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '_' || c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

// ParseLabel parses a single label from a string, given the package path it
// should be resolved relative to for the :name shorthand. Panics on failure.
func ParseLabel(target, currentPackage string) Label {
	label, err := TryParseLabel(target, currentPackage)
	if err != nil {
		panic(err)
	}
	return label
}

// TryParseLabel attempts to parse a single label from a string. Accepts both
// the absolute form pkg/path:name and the shorthand :name, the latter
// resolved against currentPackage.
func TryParseLabel(target, currentPackage string) (Label, error) {
	if target == "" {
		return Label{}, fmt.Errorf("empty label")
	}
	if target[0] == ':' {
		name := target[1:]
		if !validateTargetName(name) {
			return Label{}, fmt.Errorf("invalid label: %q", target)
		}
		return Label{PackageName: currentPackage, Name: name}, nil
	}
	idx := strings.LastIndexByte(target, ':')
	if idx == -1 {
		return Label{}, fmt.Errorf("label %q is missing a :target_name component", target)
	}
	pkg, name := target[:idx], target[idx+1:]
	return TryNewLabel(pkg, name)
}

// Parent returns what would be the parent of a label, or the label itself if
// it's parentless. Sub-targets synthesized by the core are named with the
// _name#tag convention; this strips that back to the user-visible label.
func (label Label) Parent() Label {
	if !strings.HasPrefix(label.Name, "_") {
		return label
	}
	index := strings.IndexByte(label.Name, '#')
	if index == -1 {
		return label
	}
	label.Name = strings.TrimLeft(label.Name[:index], "_")
	return label
}

// IsHidden returns whether this label names an intermediate target
// synthesized by the core rather than declared directly.
func (label Label) IsHidden() bool {
	return label.Name != "" && label.Name[0] == '_'
}

// HasParent returns true if the label has a parent that's not itself.
func (label Label) HasParent() bool {
	return label.Parent() != label
}

// UnmarshalFlag unmarshals a label from a command line flag. Implementation
// of the flags.Unmarshaler interface.
func (label *Label) UnmarshalFlag(value string) error {
	l, err := TryParseLabel(value, "")
	if err != nil {
		return err
	}
	*label = l
	return nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface, used by
// gcfg to unmarshal labels embedded in config files.
func (label *Label) UnmarshalText(text []byte) error {
	l, err := TryParseLabel(string(text), "")
	if err != nil {
		return err
	}
	*label = l
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface.
func (label Label) MarshalText() ([]byte, error) {
	return []byte(label.String()), nil
}
