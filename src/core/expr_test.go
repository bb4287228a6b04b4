package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baked(values map[string]Scalar) *BakedConfig {
	return newBakedConfig("test", values)
}

func TestResolveScalar(t *testing.T) {
	values, err := Resolve(baked(nil), Lit{Value: "-O2"})
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"-O2"}, values)
}

func TestResolveSeqConcatenates(t *testing.T) {
	values, err := Resolve(baked(nil), Seq{Lit{Value: "a"}, Seq{Lit{Value: "b"}, Lit{Value: "c"}}, Lit{Value: "d"}})
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"a", "b", "c", "d"}, values)
}

func TestResolveOptional(t *testing.T) {
	expr := Optional{
		Cond: Condition{"platform": "linux"},
		Then: Seq{Lit{Value: "-pthread"}},
	}
	values, err := Resolve(baked(map[string]Scalar{"platform": "linux"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"-pthread"}, values)

	values, err = Resolve(baked(map[string]Scalar{"platform": "windows"}), expr)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestResolveSwitchFirstMatchWins(t *testing.T) {
	expr := Switch{
		Case{Cond: Condition{"platform": "windows"}, Then: Seq{Lit{Value: "/std:c++20"}}},
		Case{Cond: Condition{"platform": ConfigSet{"linux", "macos"}}, Then: Seq{Lit{Value: "-std=c++20"}}},
	}
	values, err := Resolve(baked(map[string]Scalar{"platform": "linux"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"-std=c++20"}, values)

	values, err = Resolve(baked(map[string]Scalar{"platform": "windows"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"/std:c++20"}, values)
}

func TestResolveSwitchNoMatchIsEmpty(t *testing.T) {
	expr := Switch{
		Case{Cond: Condition{"platform": "windows"}, Then: Seq{Lit{Value: "/std:c++20"}}},
		Case{Cond: Condition{"platform": ConfigSet{"linux", "macos"}}, Then: Seq{Lit{Value: "-std=c++20"}}},
	}
	values, err := Resolve(baked(map[string]Scalar{"platform": "android"}), expr)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestResolveSwitchDefaultCase(t *testing.T) {
	expr := Switch{
		Case{Cond: Condition{"build_config": "debug"}, Then: Seq{Lit{Value: "-O0"}}},
		Case{Cond: Condition{}, Then: Seq{Lit{Value: "-O2"}}},
	}
	values, err := Resolve(baked(map[string]Scalar{"build_config": "release"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"-O2"}, values)
}

func TestResolveNestedSwitchInOptional(t *testing.T) {
	// Flattening is left-to-right, depth-first, with empty branches dropped.
	expr := Seq{
		Lit{Value: "first"},
		Optional{
			Cond: Condition{"platform": "linux"},
			Then: Seq{
				Switch{
					Case{Cond: Condition{"build_config": "debug"}, Then: Seq{Lit{Value: "-g"}}},
				},
				Lit{Value: "last"},
			},
		},
	}
	values, err := Resolve(baked(map[string]Scalar{"platform": "linux", "build_config": "release"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"first", "last"}, values)

	values, err = Resolve(baked(map[string]Scalar{"platform": "linux", "build_config": "debug"}), expr)
	require.NoError(t, err)
	assert.Equal(t, []Scalar{"first", "-g", "last"}, values)
}

func TestUnknownConfigKey(t *testing.T) {
	_, err := Resolve(baked(map[string]Scalar{"platform": "linux"}), Optional{Cond: Condition{"no_such_key": "x"}})
	require.Error(t, err)
	assert.Equal(t, UnknownConfigKey, err.(*Error).Kind)
}

func TestMatrixLeakage(t *testing.T) {
	unbaked := &BakedConfig{Values: map[string]Scalar{"platform": "linux"}}
	_, err := Resolve(unbaked, Optional{Cond: Condition{"platform": "linux"}})
	require.Error(t, err)
	assert.Equal(t, MatrixLeakage, err.(*Error).Kind)
}

func TestEmptyConditionAlwaysHolds(t *testing.T) {
	ok, err := Condition{}.holds(baked(nil))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = Condition(nil).holds(baked(nil))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConditionIsConjunction(t *testing.T) {
	cond := Condition{"platform": "linux", "build_config": "debug"}
	ok, err := cond.holds(baked(map[string]Scalar{"platform": "linux", "build_config": "debug"}))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cond.holds(baked(map[string]Scalar{"platform": "linux", "build_config": "release"}))
	require.NoError(t, err)
	assert.False(t, ok)
}
