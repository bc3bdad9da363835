// Package content implements the content registry: the single place that
// reads file bytes from disk and interns them by content hash, so every
// other component (analyzer, cache, walker) can refer to a file by a
// cheap, comparable hash rather than re-reading or re-hashing it.
package content

import (
	"os"
	"sort"
	"sync"

	"github.com/ct-build/ct-cppdeps/internal/common"
)

// File is an interned, immutable file: its path, content hash, and bytes.
// Once constructed it is never mutated, matching the registry's
// write-mostly-at-startup / read-only-thereafter discipline (spec §5).
type File struct {
	Path  string
	Hash  common.SHA256
	Bytes []byte
	Lines LineIndex
}

// LineIndex is a sorted list of byte offsets, one per line start,
// enabling O(log n) mapping from a byte offset to a 1-based line number.
type LineIndex []int

// BuildLineIndex scans b once and records the offset immediately after
// every '\n', plus an implicit offset 0 for line 1.
func BuildLineIndex(b []byte) LineIndex {
	idx := make(LineIndex, 0, 64)
	idx = append(idx, 0)
	for i, c := range b {
		if c == '\n' && i+1 < len(b) {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// LineAt returns the 1-based line number containing byte offset pos.
func (li LineIndex) LineAt(pos int) int {
	// sort.Search finds the first index whose offset is > pos; the line
	// containing pos is the one before that.
	n := sort.Search(len(li), func(i int) bool { return li[i] > pos })
	if n == 0 {
		return 1
	}
	return n
}

// Registry interns FileContent by content hash. A single path may be
// loaded more than once (e.g. reached via two different include chains);
// the registry only stores distinct bytes once, keyed by hash, and keeps
// a path->hash index so repeated loads of the same path are a cache hit.
type Registry struct {
	mu     sync.RWMutex
	byPath map[string]common.SHA256
	byHash map[common.SHA256]*File
}

// NewRegistry creates an empty content registry.
func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]common.SHA256),
		byHash: make(map[common.SHA256]*File),
	}
}

// Load reads path (unless already interned for that exact path), hashes
// it, and returns the interned File. Concurrent calls for distinct paths
// may proceed in parallel; calls for the same path are serialized by the
// registry's lock, which is cheap since file analysis itself happens
// outside the lock.
func (r *Registry) Load(path string) (*File, error) {
	r.mu.RLock()
	if h, ok := r.byPath[path]; ok {
		f := r.byHash[h]
		r.mu.RUnlock()
		return f, nil
	}
	r.mu.RUnlock()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Intern(path, b), nil
}

// Intern registers bytes read by the caller (e.g. a test, or a caller
// that already had the bytes in hand) under path, deduplicating by hash.
func (r *Registry) Intern(path string, b []byte) *File {
	h := common.GetBytesSHA256(b)

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.byHash[h]; ok {
		r.byPath[path] = h
		return f
	}

	f := &File{
		Path:  path,
		Hash:  h,
		Bytes: b,
		Lines: BuildLineIndex(b),
	}
	r.byHash[h] = f
	r.byPath[path] = h
	return f
}

// Get returns the interned File for a path already Load()ed or Intern()ed,
// or nil if unknown.
func (r *Registry) Get(path string) *File {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byPath[path]
	if !ok {
		return nil
	}
	return r.byHash[h]
}

// ByHash returns the interned File for a known hash, or nil.
func (r *Registry) ByHash(h common.SHA256) *File {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byHash[h]
}

// Count returns the number of distinct (by hash) files interned.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHash)
}
