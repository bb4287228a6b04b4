package fs

import (
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// A Hasher hashes file contents and remembers the results. It is used to
// answer "has this file changed" questions cheaply when reconciling mirrored
// trees; a Hasher's memo is only valid for as long as the files it has seen
// don't change, so callers construct a fresh one per pass.
type Hasher struct {
	memo  map[string]uint64
	mutex sync.RWMutex
}

// NewHasher returns a new Hasher with an empty memo.
func NewHasher() *Hasher {
	return &Hasher{memo: map[string]uint64{}}
}

// Hash returns the content hash of the file at path. Results are memoised by
// path, so once a hash is stored the file is not read again by this Hasher;
// concurrent first calls for the same path may each read it.
func (h *Hasher) Hash(path string) (uint64, error) {
	h.mutex.RLock()
	cached, present := h.memo[path]
	h.mutex.RUnlock()
	if present {
		return cached, nil
	}
	result, err := hashFile(path)
	if err != nil {
		return 0, err
	}
	h.mutex.Lock()
	h.memo[path] = result
	h.mutex.Unlock()
	return result, nil
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}
