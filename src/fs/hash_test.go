package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsStable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(f, []byte("some contents"), 0644))
	h1, err := NewHasher().Hash(f)
	require.NoError(t, err)
	h2, err := NewHasher().Hash(f)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashDiffersOnContent(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1.txt")
	f2 := filepath.Join(dir, "f2.txt")
	require.NoError(t, os.WriteFile(f1, []byte("one"), 0644))
	require.NoError(t, os.WriteFile(f2, []byte("two"), 0644))
	h := NewHasher()
	h1, err := h.Hash(f1)
	require.NoError(t, err)
	h2, err := h.Hash(f2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashIsMemoised(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(f, []byte("before"), 0644))
	h := NewHasher()
	h1, err := h.Hash(f)
	require.NoError(t, err)
	// The memo means a rewrite within the same pass isn't observed.
	require.NoError(t, os.WriteFile(f, []byte("after"), 0644))
	h2, err := h.Hash(f)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	h3, err := NewHasher().Hash(f)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashMissingFile(t *testing.T) {
	_, err := NewHasher().Hash(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
