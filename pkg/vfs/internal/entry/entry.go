// Package entry implements the File/Directory handle type shared by the
// index, the watched-root registry, and the façade. An Entry is a stable,
// interned handle to a canonical path; its stat and (for directories)
// contents caches are populated lazily and invalidated by the façade as
// watches come and go.
package entry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/watchfs/watchfs/pkg/vfs/backend"
)

// Kind distinguishes a File entry from a Directory entry.
type Kind int

const (
	// File is a regular file entry.
	File Kind = iota
	// Directory is a directory entry.
	Directory
)

// String renders a Kind for logging.
func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// ErrNotDirectory is returned by directory-only operations performed against
// a File entry.
var ErrNotDirectory = errors.New("entry is not a directory")

// Core is the capability surface an Entry needs from the owning façade: a
// backend to delegate I/O to, the index filter used to decide which
// discovered children are auto-indexed, and a way to intern those children
// as entries of their own. Entries hold this as a non-owning capability
// reference; they must not outlive the façade that created them.
type Core interface {
	Backend() backend.Backend
	ShouldIndex(parentPath, name string) bool
	Intern(fullPath, name, parentPath string, kind Kind) *Entry
}

// Entry is a handle to a canonical filesystem path. The zero value is not
// valid; use New.
type Entry struct {
	core Core

	// These fields are fixed at construction except for rekeying by the
	// index on rename (Index.EntryRenamed), which holds the index's lock
	// while calling Rekey.
	mu         sync.RWMutex
	fullPath   string
	name       string
	parentPath string
	kind       Kind

	stat     *backend.Stat
	contents []*Entry // nil means uncached; only meaningful for directories
}

// New constructs an entry for the given canonical path. fullPath must
// already be normalized (trailing slash iff kind == Directory).
func New(core Core, fullPath string, kind Kind) *Entry {
	name, parentPath := SplitPath(fullPath, kind == Directory)
	return &Entry{
		core:       core,
		fullPath:   fullPath,
		name:       name,
		parentPath: parentPath,
		kind:       kind,
	}
}

// SplitPath derives an entry's name and parent path from its canonical full
// path: directories always end in '/'; parentPath is empty for the
// filesystem root.
func SplitPath(fullPath string, isDirectory bool) (name, parentPath string) {
	if fullPath == "/" {
		return "", ""
	}

	trimmed := fullPath
	if isDirectory {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[idx+1:], trimmed[:idx+1]
}

// FullPath returns the entry's canonical absolute path.
func (e *Entry) FullPath() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fullPath
}

// Name returns the entry's last path segment.
func (e *Entry) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// ParentPath returns the canonical path of the entry's parent directory, or
// an empty string if the entry is the filesystem root.
func (e *Entry) ParentPath() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parentPath
}

// Kind returns whether this entry is a File or a Directory.
func (e *Entry) Kind() Kind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.kind
}

// IsDirectory is a convenience equivalent to Kind() == Directory.
func (e *Entry) IsDirectory() bool {
	return e.Kind() == Directory
}

// CachedStat returns the entry's cached stat snapshot, or nil if uncached.
func (e *Entry) CachedStat() *backend.Stat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stat
}

// AdoptStat installs stat as the entry's cached stat without performing a
// backend round-trip. It's used when a caller already has an authoritative
// stat in hand (e.g. from a directory listing or a watcher event).
func (e *Entry) AdoptStat(stat *backend.Stat) {
	e.mu.Lock()
	e.stat = stat
	e.mu.Unlock()
}

// ClearStat discards the entry's cached stat, e.g. on unwatch or a wholesale
// change.
func (e *Entry) ClearStat() {
	e.mu.Lock()
	e.stat = nil
	e.mu.Unlock()
}

// CachedContents returns the entry's cached directory listing, or nil if
// uncached. It is always nil for File entries.
func (e *Entry) CachedContents() []*Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contents
}

// ClearContents discards the entry's cached directory listing.
func (e *Entry) ClearContents() {
	e.mu.Lock()
	e.contents = nil
	e.mu.Unlock()
}

// Stat performs a fresh backend stat of the entry's path, caching and
// returning the result. An explicit call here is what causes a stat to
// become (or remain) cached even outside a watched root.
func (e *Entry) Stat(ctx context.Context) (*backend.Stat, error) {
	stat, err := e.core.Backend().Stat(ctx, e.FullPath())
	if err != nil {
		return nil, err
	}
	e.AdoptStat(stat)
	return stat, nil
}

// GetContents reloads this directory's contents from the backend, interning
// each child that passes the index filter, caching, and returning the
// resulting ordered list. It fails with ErrNotDirectory for File entries.
func (e *Entry) GetContents(ctx context.Context) ([]*Entry, error) {
	if e.Kind() != Directory {
		return nil, ErrNotDirectory
	}

	fullPath := e.FullPath()
	names, stats, err := e.core.Backend().Readdir(ctx, fullPath)
	if err != nil {
		return nil, err
	}

	children := make([]*Entry, 0, len(names))
	for i, name := range names {
		if !e.core.ShouldIndex(fullPath, name) {
			continue
		}
		stat := stats[i]
		childKind := File
		if stat != nil && !stat.IsFile {
			childKind = Directory
		}
		childPath := fullPath + name
		if childKind == Directory {
			childPath += "/"
		}
		child := e.core.Intern(childPath, name, fullPath, childKind)
		if stat != nil {
			child.AdoptStat(stat)
		}
		children = append(children, child)
	}

	e.mu.Lock()
	e.contents = children
	e.mu.Unlock()

	return children, nil
}

// VisitFunc is invoked for each child discovered by Visit that passes the
// supplied filter.
type VisitFunc func(path string, kind Kind)

// FilterFunc decides whether a child should be included (and, if it is a
// directory, recursed into) during Visit.
type FilterFunc func(name, parentPath string) bool

// Visit performs a raw recursive enumeration of this directory's subtree,
// invoking visit for every descendant whose name passes filter. A filter
// that rejects a directory prunes that entire subtree. Unlike GetContents,
// Visit does not consult or populate the index or entry caches; it exists
// purely to drive watch enumeration for non-recursive backends.
func (e *Entry) Visit(ctx context.Context, filter FilterFunc, visit VisitFunc) error {
	if e.Kind() != Directory {
		return ErrNotDirectory
	}
	return e.visit(ctx, e.FullPath(), filter, visit)
}

func (e *Entry) visit(ctx context.Context, directoryPath string, filter FilterFunc, visit VisitFunc) error {
	names, stats, err := e.core.Backend().Readdir(ctx, directoryPath)
	if err != nil {
		return err
	}

	for i, name := range names {
		if !filter(name, directoryPath) {
			continue
		}
		stat := stats[i]
		kind := File
		if stat != nil && !stat.IsFile {
			kind = Directory
		}
		childPath := directoryPath + name
		if kind == Directory {
			childPath += "/"
		}
		visit(childPath, kind)
		if kind == Directory {
			if err := e.visit(ctx, childPath, filter, visit); err != nil {
				return err
			}
		}
	}

	return nil
}

// Rekey updates the entry's identity in place after a rename, preserving
// object identity as required by the index's EntryRenamed operation. It is
// intended to be called only by the index while holding its lock.
func (e *Entry) Rekey(fullPath, name, parentPath string) {
	e.mu.Lock()
	e.fullPath = fullPath
	e.name = name
	e.parentPath = parentPath
	e.mu.Unlock()
}
