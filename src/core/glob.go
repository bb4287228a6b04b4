package core

import (
	"regexp"
	"sort"
	"strings"

	deferredregex "github.com/peterebden/go-deferred-regex"

	"github.com/builderer/builderer/src/fs"
)

// Used to identify the fixed part at the start of a glob pattern, so we can start
// walking there rather than at the base directory. e.g. glob(["src/**/*.cpp"])
// can't possibly match anything outside src, and not descending into a massive
// third_party tree at the same level is a significant saving since globbing is
// synchronous with the rest of the generate pass.
var initialFixedPart = deferredregex.DeferredRegex{Re: `^([^\*\?]+)/(.*)`}

// ExcludePrefix marks a pattern in a glob list as an exclusion.
const ExcludePrefix = "!"

// IsGlob returns true if the given pattern requires globbing (i.e. contains characters that would be expanded by it)
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// Glob enumerates the files under base matching the given pattern list.
// Patterns prefixed with ! are exclusions; the result is the union of all
// include matches minus the union of all exclude matches, deduplicated, as
// base-relative paths in lexicographic order. Matching is case-sensitive on
// every platform. A base or fixed pattern prefix that doesn't exist yields no
// matches rather than an error, so optional platform source trees are cheap
// to declare.
func Glob(base string, patterns []string) ([]string, error) {
	var includes, excludes []string
	for _, p := range patterns {
		if strings.HasPrefix(p, ExcludePrefix) {
			excludes = append(excludes, strings.TrimPrefix(p, ExcludePrefix))
		} else {
			includes = append(includes, p)
		}
	}
	excludeRegexes := make([]*regexp.Regexp, len(excludes))
	for i, excl := range excludes {
		regex, err := compileGlob(excl)
		if err != nil {
			return nil, err
		}
		excludeRegexes[i] = regex
	}
	seen := map[string]bool{}
	files := []string{}
	for _, include := range includes {
		matches, err := glob(base, include)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if seen[match] || shouldExcludeMatch(match, excludeRegexes) {
				continue
			}
			seen[match] = true
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

// shouldExcludeMatch returns true if any of the exclude patterns matches the
// given base-relative path.
func shouldExcludeMatch(match string, excludes []*regexp.Regexp) bool {
	for _, excl := range excludes {
		if excl.MatchString(match) {
			return true
		}
	}
	return false
}

// glob matches a single include pattern under base, returning base-relative paths.
func glob(base, pattern string) ([]string, error) {
	if !IsGlob(pattern) {
		if fs.FileExists(joinPath(base, pattern)) {
			return []string{pattern}, nil
		}
		return nil, nil
	}

	// When the pattern has a fixed part at the start, walk from there instead of base.
	prefix := ""
	walkRoot := base
	if submatches := initialFixedPart.FindStringSubmatch(pattern); submatches != nil && !IsGlob(submatches[1]) {
		prefix = submatches[1] + "/"
		walkRoot = joinPath(base, submatches[1])
	}
	if !fs.IsDirectory(walkRoot) {
		return nil, nil
	}

	regex, err := compileGlob(pattern)
	if err != nil {
		return nil, err
	}
	matches := []string{}
	err = fs.Walk(walkRoot, func(name string, isDir bool) error {
		if isDir {
			return nil
		}
		rel := prefix + strings.TrimPrefix(strings.TrimPrefix(name, walkRoot), "/")
		if regex.MatchString(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	return matches, err
}

// compileGlob turns a glob pattern into an anchored regex over slash-separated
// relative paths: * matches within a path segment, ** matches across segments,
// ? matches a single non-separator character. Character classes and braces are
// not glob syntax here and match themselves literally.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") && (i == 0 || pattern[i-1] == '/') {
				// A whole **/ component matches zero or more intermediate segments.
				b.WriteString(`(?:[^/]+/)*`)
				i += 3
			} else if strings.HasPrefix(pattern[i:], "**") {
				b.WriteString(`.*`)
				i += 2
			} else {
				b.WriteString(`[^/]*`)
				i++
			}
		case '?':
			b.WriteString(`[^/]`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// joinPath joins two forward-slash paths without cleaning away a relative base.
func joinPath(base, rel string) string {
	if base == "" {
		return rel
	}
	return base + "/" + rel
}
