package core

import "fmt"

// BakeMatrix expands a matrix ConfigRecord into the deterministic ordered
// list of baked configs produced by the Cartesian product over every axis
// whose value is a sequence. Axes given as a bare scalar remain
// scalar in every baked config. Iteration is axis-by-axis in the record's
// declaration order (reserved axes first, then user-defined axes sorted
// lexicographically; see ConfigRecord.axisNames), with the first axis
// varying slowest. An empty sequence on any axis yields no baked configs.
func BakeMatrix(record *ConfigRecord) []*BakedConfig {
	names := record.axisNames()
	scalars := map[string]Scalar{}
	var seqAxes []string
	var seqs [][]Scalar
	for _, name := range names {
		if seq, ok := sequenceValue(record.Values[name]); ok {
			if len(seq) == 0 {
				return nil
			}
			seqAxes = append(seqAxes, name)
			seqs = append(seqs, seq)
		} else {
			scalars[name] = record.Values[name]
		}
	}
	if len(seqAxes) == 0 {
		values := copyScalars(scalars)
		return []*BakedConfig{newBakedConfig(record.Name, values)}
	}
	var out []*BakedConfig
	combos := cartesian(seqs)
	for _, combo := range combos {
		values := copyScalars(scalars)
		var slugParts []string
		for i, axis := range seqAxes {
			values[axis] = combo[i]
			slugParts = append(slugParts, fmt.Sprintf("%v", combo[i]))
		}
		out = append(out, newBakedConfig(slug(record.Name, slugParts), values))
	}
	return out
}

// cartesian returns the Cartesian product of the given sequences, with the
// first sequence varying slowest (outermost loop) so that caller iteration
// order matches declaration order of the axes.
func cartesian(seqs [][]Scalar) [][]Scalar {
	if len(seqs) == 0 {
		return nil
	}
	combos := [][]Scalar{{}}
	for _, seq := range seqs {
		var next [][]Scalar
		for _, combo := range combos {
			for _, v := range seq {
				c := make([]Scalar, len(combo)+1)
				copy(c, combo)
				c[len(combo)] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

// slug assembles the stable name fragment for a baked config from its
// sequence-axis values, e.g. slug("release", []string{"x86-64", "debug"})
// returns "x86-64.debug". Uniqueness within the matrix follows from the
// Cartesian product never repeating a combination.
func slug(_ string, parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func copyScalars(m map[string]Scalar) map[string]Scalar {
	out := make(map[string]Scalar, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
