package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixRecord(values map[string]interface{}) *ConfigRecord {
	record := NewConfigRecord("test")
	for k, v := range values {
		record.Values[k] = v
	}
	return record
}

func TestBakeMatrixOrder(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisArchitecture: []Scalar{"x86-64", "arm64"},
		AxisBuildConfig:  []Scalar{"debug", "release"},
	})
	baked := BakeMatrix(record)
	require.Len(t, baked, 4)
	// First axis varies slowest.
	assert.Equal(t, "x86-64", baked[0].Values[AxisArchitecture])
	assert.Equal(t, "debug", baked[0].Values[AxisBuildConfig])
	assert.Equal(t, "x86-64", baked[1].Values[AxisArchitecture])
	assert.Equal(t, "release", baked[1].Values[AxisBuildConfig])
	assert.Equal(t, "arm64", baked[2].Values[AxisArchitecture])
	assert.Equal(t, "debug", baked[2].Values[AxisBuildConfig])
	assert.Equal(t, "arm64", baked[3].Values[AxisArchitecture])
	assert.Equal(t, "release", baked[3].Values[AxisBuildConfig])
}

func TestBakeMatrixSlugsAreUnique(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisArchitecture: []Scalar{"x86-64", "arm64"},
		AxisBuildConfig:  []Scalar{"debug", "release"},
	})
	baked := BakeMatrix(record)
	slugs := map[string]bool{}
	for _, config := range baked {
		assert.False(t, slugs[config.Slug], "duplicate slug %s", config.Slug)
		slugs[config.Slug] = true
	}
	assert.Equal(t, "x86-64.debug", baked[0].Slug)
}

func TestBakeMatrixScalarAxesPassThrough(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisPlatform:     "linux",
		AxisArchitecture: []Scalar{"x86-64", "arm64"},
	})
	baked := BakeMatrix(record)
	require.Len(t, baked, 2)
	for _, config := range baked {
		assert.Equal(t, "linux", config.Values[AxisPlatform])
	}
}

func TestBakeMatrixAllScalar(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisPlatform:    "linux",
		AxisBuildConfig: "debug",
	})
	baked := BakeMatrix(record)
	require.Len(t, baked, 1)
	assert.Equal(t, "test", baked[0].Slug) // falls back to the record name
}

func TestBakeMatrixEmptyAxisYieldsNothing(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisArchitecture: []Scalar{},
		AxisBuildConfig:  []Scalar{"debug"},
	})
	assert.Empty(t, BakeMatrix(record))
}

func TestBakeMatrixProjectionLaw(t *testing.T) {
	// Projecting the baked list back onto an axis recovers the declared
	// sequence (as the set of values seen, in first-seen order).
	architectures := []Scalar{"x86-64", "arm64", "riscv"}
	record := matrixRecord(map[string]interface{}{
		AxisArchitecture: architectures,
		AxisBuildConfig:  []Scalar{"debug", "release"},
	})
	baked := BakeMatrix(record)
	require.Len(t, baked, 6)
	var seen []Scalar
	for _, config := range baked {
		v := config.Values[AxisArchitecture]
		if len(seen) == 0 || seen[len(seen)-1] != v {
			seen = append(seen, v)
		}
	}
	assert.Equal(t, architectures, seen)
}

func TestBakedConfigsAreBaked(t *testing.T) {
	record := matrixRecord(map[string]interface{}{
		AxisPlatform: []Scalar{"linux", "windows"},
	})
	for _, config := range BakeMatrix(record) {
		_, err := Condition{AxisPlatform: "linux"}.holds(config)
		require.NoError(t, err)
	}
}
