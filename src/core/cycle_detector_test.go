package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleDetectorAcyclic(t *testing.T) {
	cd := newCycleDetector()
	a, b, c := label("src:a"), label("src:b"), label("src:c")
	cd.AddDependency(a, b)
	cd.AddDependency(a, c)
	cd.AddDependency(b, c)
	assert.NoError(t, cd.Check([]Label{a, b, c}))
}

func TestCycleDetectorFindsCycle(t *testing.T) {
	cd := newCycleDetector()
	a, b, c := label("src:a"), label("src:b"), label("src:c")
	cd.AddDependency(a, b)
	cd.AddDependency(b, c)
	cd.AddDependency(c, a)
	err := cd.Check([]Label{a, b, c})
	require.Error(t, err)
	assert.Equal(t, DependencyCycle, err.(*Error).Kind)
	assert.Contains(t, err.Error(), "src:a")
	assert.Contains(t, err.Error(), "src:b")
	assert.Contains(t, err.Error(), "src:c")
}

func TestCycleDetectorSelfCycle(t *testing.T) {
	cd := newCycleDetector()
	a := label("src:a")
	cd.AddDependency(a, a)
	err := cd.Check([]Label{a})
	require.Error(t, err)
	assert.Equal(t, DependencyCycle, err.(*Error).Kind)
}

func TestCycleDetectorDiamondIsNotACycle(t *testing.T) {
	cd := newCycleDetector()
	top, l, r, base := label("src:top"), label("src:l"), label("src:r"), label("src:base")
	cd.AddDependency(top, l)
	cd.AddDependency(top, r)
	cd.AddDependency(l, base)
	cd.AddDependency(r, base)
	assert.NoError(t, cd.Check([]Label{top, l, r, base}))
}

func TestCycleDetectorReportsChain(t *testing.T) {
	cd := newCycleDetector()
	a, b := label("src:a"), label("src:b")
	cd.AddDependency(a, b)
	cd.AddDependency(b, a)
	err := cd.Check([]Label{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src:a\n -> src:b\n -> src:a")
}
