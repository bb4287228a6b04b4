package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates empty files at the given base-relative paths.
func writeTree(t *testing.T, base string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		abs := filepath.Join(base, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0775))
		require.NoError(t, os.WriteFile(abs, []byte(p), 0644))
	}
}

func TestGlobIncludeExclude(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "src/a.cpp", "src/platform/win.cpp", "src/b_test.cpp", "src/c.cpp")
	files, err := Glob(base, []string{"src/**/*.cpp", "!src/platform/**", "!src/**/*_test.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.cpp", "src/c.cpp"}, files)
}

func TestGlobStarWithinSegment(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "a.h", "b.h", "sub/c.h")
	files, err := Glob(base, []string{"*.h"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.h", "b.h"}, files)
}

func TestGlobDoubleStarMatchesZeroSegments(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "include/u.h", "include/detail/v.h")
	files, err := Glob(base, []string{"include/**/*.h"})
	require.NoError(t, err)
	assert.Equal(t, []string{"include/detail/v.h", "include/u.h"}, files)
}

func TestGlobQuestionMark(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "a1.c", "a22.c", "b1.c")
	files, err := Glob(base, []string{"a?.c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1.c"}, files)
}

func TestGlobLiteralFile(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "main.cpp")
	files, err := Glob(base, []string{"main.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.cpp"}, files)
	files, err = Glob(base, []string{"missing.cpp"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGlobMissingBaseIsEmpty(t *testing.T) {
	files, err := Glob(filepath.Join(t.TempDir(), "nonexistent"), []string{"**/*.cpp"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGlobMissingFixedPrefixIsEmpty(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "src/a.cpp")
	// Optional platform source trees glob to nothing when absent.
	files, err := Glob(base, []string{"src/linux/**/*.cpp"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGlobExcludeMatchingNothing(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "src/a.cpp", "src/b.cpp")
	files, err := Glob(base, []string{"src/*.cpp", "!src/zzz/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.cpp", "src/b.cpp"}, files)
}

func TestGlobDeduplicatesOverlappingIncludes(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "src/a.cpp")
	files, err := Glob(base, []string{"src/*.cpp", "src/**/*.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.cpp"}, files)
}

func TestGlobResultIsSorted(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "src/z.cpp", "src/a.cpp", "src/m/q.cpp")
	files, err := Glob(base, []string{"src/**/*.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.cpp", "src/m/q.cpp", "src/z.cpp"}, files)
}

func TestGlobCaseSensitive(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "Main.CPP")
	files, err := Glob(base, []string{"*.cpp"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsGlob(t *testing.T) {
	assert.True(t, IsGlob("src/*.cpp"))
	assert.True(t, IsGlob("a?.c"))
	assert.False(t, IsGlob("src/main.cpp"))
}
