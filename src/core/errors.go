package core

import "fmt"

// An ErrorKind identifies the taxonomy of a fatal core error, so that the
// CLI collaborator can report it programmatically rather than scraping a
// message string.
type ErrorKind string

// The full error taxonomy. Every *Error carries exactly one of these kinds.
// Errors coming from the config file parser, from directory walks during
// globbing, and from absolute-path resolution are returned as they are, not
// wrapped in an *Error.
const (
	DuplicateTarget        ErrorKind = "DuplicateTarget"
	DuplicatePackage       ErrorKind = "DuplicatePackage"
	DuplicateConfig        ErrorKind = "DuplicateConfig"
	UnknownDependency      ErrorKind = "UnknownDependency"
	DependencyCycle        ErrorKind = "DependencyCycle"
	UnknownConfigKey       ErrorKind = "UnknownConfigKey"
	MatrixLeakage          ErrorKind = "MatrixLeakage"
	UnreferencedPathTarget ErrorKind = "UnreferencedPathTarget"
	MalformedPathReference ErrorKind = "MalformedPathReference"
	MissingGenerator       ErrorKind = "MissingGenerator"
	UnsupportedPlatform    ErrorKind = "UnsupportedPlatform"
	SandboxIOFailure       ErrorKind = "SandboxIOFailure"
	VisibilityViolation    ErrorKind = "VisibilityViolation"
)

// An Error is the fatal error value the core returns for failures in its own
// taxonomy. It is reported as (kind, label-or-path, message); at most one of
// Label or Path is populated. Errors not tied to one target or file (for
// example UnknownConfigKey, MatrixLeakage, DuplicateConfig and
// MissingGenerator) carry neither, and print an empty middle field.
type Error struct {
	Kind    ErrorKind
	Label   Label  // populated for label-addressed errors
	Path    string // populated for path-addressed errors (SandboxIOFailure)
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Label, e.Message)
}

// newLabelError constructs an Error addressed at a label.
func newLabelError(kind ErrorKind, label Label, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Label: label, Message: fmt.Sprintf(format, args...)}
}

// newPathError constructs an Error addressed at a filesystem path.
func newPathError(kind ErrorKind, path string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}
