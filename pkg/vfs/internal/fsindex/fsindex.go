// Package fsindex implements the façade's entry interning table: a mapping
// from canonical path to Entry with rename-aware bulk mutation.
package fsindex

import (
	"strings"
	"sync"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

// Index is an intern table from canonical path to *entry.Entry. At most one
// entry exists per canonical path (invariant: Get(e.FullPath()) == e for
// every e currently in the index). It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry.Entry
}

// New creates an empty Index.
func New() *Index {
	return &Index{entries: make(map[string]*entry.Entry)}
}

// Get performs an exact lookup by canonical path.
func (idx *Index) Get(path string) *entry.Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries[path]
}

// Add inserts e into the index. The caller must have already confirmed
// there is no existing entry at e.FullPath() (e.g. via Get); Add overwrites
// silently otherwise, which would violate the one-entry-per-path invariant,
// so callers must guarantee absence themselves.
func (idx *Index) Add(e *entry.Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[e.FullPath()] = e
}

// GetOrCreate returns the entry already indexed at path, or atomically
// creates one via create and inserts it if absent. This is the mechanism
// that guarantees the index's one-entry-per-path / stable-identity
// invariant under concurrent lookups: unlike a separate Get followed by
// Add, the check and insert happen under a single lock acquisition.
func (idx *Index) GetOrCreate(path string, create func() *entry.Entry) *entry.Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if e, ok := idx.entries[path]; ok {
		return e
	}
	e := create()
	idx.entries[path] = e
	return e
}

// Remove deletes e from the index by its current path.
func (idx *Index) Remove(e *entry.Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, e.FullPath())
}

// RemoveByPath deletes whatever entry is keyed at path, if any.
func (idx *Index) RemoveByPath(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, path)
}

// RemoveSubtree deletes every entry whose full path begins with prefix,
// including an entry exactly at prefix. It's used when pruning the index
// beneath an unwatched or externally removed directory.
func (idx *Index) RemoveSubtree(prefix string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for path := range idx.entries {
		if path == prefix || strings.HasPrefix(path, prefix) {
			delete(idx.entries, path)
		}
	}
}

// VisitAll iterates over every entry currently in the index, in unspecified
// order. The visitor must not mutate the index.
func (idx *Index) VisitAll(visitor func(*entry.Entry)) {
	idx.mu.RLock()
	snapshot := make([]*entry.Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		snapshot = append(snapshot, e)
	}
	idx.mu.RUnlock()

	for _, e := range snapshot {
		visitor(e)
	}
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]*entry.Entry)
}

// Len reports the number of entries currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// EntryRenamed updates every entry whose full path begins with oldPath,
// replacing that prefix with newPath, recomputing name/parentPath, and
// re-keying the map, all while preserving object identity.
func (idx *Index) EntryRenamed(oldPath, newPath string, isDirectory bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var affected []*entry.Entry
	for path, e := range idx.entries {
		if path == oldPath || strings.HasPrefix(path, oldPath) {
			affected = append(affected, e)
			delete(idx.entries, path)
		}
	}

	for _, e := range affected {
		suffix := strings.TrimPrefix(e.FullPath(), oldPath)
		newFullPath := newPath + suffix
		name, parentPath := entry.SplitPath(newFullPath, e.Kind() == entry.Directory)
		e.Rekey(newFullPath, name, parentPath)
		idx.entries[newFullPath] = e
	}
}
