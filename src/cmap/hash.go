package cmap

import "github.com/cespare/xxhash/v2"

// XXHash returns a 64-bit xxhash of a string. Used as the default hasher for
// maps keyed by a single string (e.g. a package name).
func XXHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// XXHashes returns a 64-bit xxhash of a series of strings, each separated by
// a NUL byte so that ("ab", "c") and ("a", "bc") don't collide. Used to key
// maps by a composite identity, e.g. a label's (package, name).
func XXHashes(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		d.WriteString(p) //nolint:errcheck // xxhash.Digest.Write never returns an error
		d.Write(sepByte)
	}
	return d.Sum64()
}

var sepByte = []byte{0}
