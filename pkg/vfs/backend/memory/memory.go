// Package memory implements an in-memory backend.Backend, suitable for unit
// tests and for the demo CLI's --memory mode. It models a filesystem purely
// as a tree of nodes held in process memory: no bytes are ever written to
// disk, and "watching" is implemented by recording the set of watched paths
// and emitting a change only for paths at or beneath one of them, rather
// than by any native OS facility.
//
// The backend declares itself non-recursive, which exercises the façade's
// enumeration-based watch dispatch on every test that uses it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/watchfs/watchfs/pkg/vfs/backend"
)

// ErrNotExist indicates that the requested path has no corresponding node.
var ErrNotExist = errors.New("memory: no such path")

type node struct {
	isFile   bool
	modTime  time.Time
	size     uint64
	children map[string]*node // directories only
}

// Backend is an in-memory filesystem. The zero value is not valid; use New.
type Backend struct {
	mu   sync.Mutex
	root *node

	watchedMu sync.Mutex
	watched   map[string]bool

	changes chan backend.Change
	offline chan struct{}
}

// New creates an empty in-memory backend, with just the root directory.
func New() *Backend {
	return &Backend{
		root: &node{
			modTime:  time.Now(),
			children: make(map[string]*node),
		},
		watched: make(map[string]bool),
	}
}

// RecursiveWatch always reports false: the memory backend requires the
// façade to enumerate and watch every directory individually, exercising
// the non-recursive dispatch path.
func (b *Backend) RecursiveWatch() bool { return false }

// NormalizeUNCPaths reports false; the memory backend has no notion of UNC
// shares.
func (b *Backend) NormalizeUNCPaths() bool { return false }

// InitWatchers starts delivering change notifications. Changes are only
// ever emitted in response to MakeFile, MakeDirectory, Remove, or Rename
// calls made directly against this Backend (there is no external actor),
// which makes this backend useful for deterministic tests of change
// coordination.
func (b *Backend) InitWatchers() (<-chan backend.Change, <-chan struct{}) {
	b.changes = make(chan backend.Change, 64)
	b.offline = make(chan struct{})
	return b.changes, b.offline
}

// Offline simulates the backend's watching facility going offline, closing
// the channel returned by InitWatchers.
func (b *Backend) Offline() {
	close(b.offline)
}

func split(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (b *Backend) lookup(path string) *node {
	segments := split(path)
	n := b.root
	for _, s := range segments {
		if n.children == nil {
			return nil
		}
		n = n.children[s]
		if n == nil {
			return nil
		}
	}
	return n
}

func (b *Backend) stat(n *node) *backend.Stat {
	return &backend.Stat{
		IsFile:   n.isFile,
		Size:     n.size,
		ModTime:  n.modTime,
		RealPath: "",
	}
}

// Stat implements backend.Backend.
func (b *Backend) Stat(ctx context.Context, path string) (*backend.Stat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.lookup(strings.TrimSuffix(path, "/"))
	if n == nil {
		return nil, ErrNotExist
	}
	return b.stat(n), nil
}

// Readdir implements backend.Backend.
func (b *Backend) Readdir(ctx context.Context, path string) ([]string, []*backend.Stat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.lookup(strings.TrimSuffix(path, "/"))
	if n == nil {
		return nil, nil, ErrNotExist
	}
	if n.isFile {
		return nil, nil, errors.New("memory: not a directory")
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]*backend.Stat, len(names))
	for i, name := range names {
		stats[i] = b.stat(n.children[name])
	}
	return names, stats, nil
}

// Rename implements backend.Backend, moving the subtree at oldPath to
// newPath and emitting synthetic delete/add notifications the way a real
// watcher typically would (this is what exercises the façade's
// rename-vs-delete+add coordination in tests).
func (b *Backend) Rename(ctx context.Context, oldPath, newPath string) error {
	oldTrim := strings.TrimSuffix(oldPath, "/")
	newTrim := strings.TrimSuffix(newPath, "/")

	b.mu.Lock()
	parentSegs := split(oldTrim)
	if len(parentSegs) == 0 {
		b.mu.Unlock()
		return errors.New("memory: cannot rename root")
	}
	name := parentSegs[len(parentSegs)-1]
	parent := b.root
	for _, s := range parentSegs[:len(parentSegs)-1] {
		parent = parent.children[s]
		if parent == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
	}
	n, ok := parent.children[name]
	if !ok {
		b.mu.Unlock()
		return ErrNotExist
	}

	newParentSegs := split(newTrim)
	newName := newParentSegs[len(newParentSegs)-1]
	newParent := b.root
	for _, s := range newParentSegs[:len(newParentSegs)-1] {
		if newParent.children == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
		newParent = newParent.children[s]
		if newParent == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
	}

	delete(parent.children, name)
	n.modTime = time.Now()
	newParent.children[newName] = n
	b.mu.Unlock()

	b.emit(oldPath, nil)
	b.emit(newPath, b.stat(n))
	return nil
}

// MakeFile creates (or overwrites) a file at path with the given size,
// timestamped at the current time, and emits a change notification.
func (b *Backend) MakeFile(path string, size uint64) error {
	return b.create(path, false, size)
}

// MakeDirectory creates a directory at path and emits a change
// notification.
func (b *Backend) MakeDirectory(path string) error {
	return b.create(path, true, 0)
}

func (b *Backend) create(path string, isDirectory bool, size uint64) error {
	trimmed := strings.TrimSuffix(path, "/")
	segments := split(trimmed)
	if len(segments) == 0 {
		return errors.New("memory: cannot create root")
	}

	b.mu.Lock()
	parent := b.root
	for _, s := range segments[:len(segments)-1] {
		if parent.children == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
		next := parent.children[s]
		if next == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
		parent = next
	}

	name := segments[len(segments)-1]
	n := &node{isFile: !isDirectory, modTime: time.Now(), size: size}
	if isDirectory {
		n.children = make(map[string]*node)
	}
	parent.children[name] = n
	b.mu.Unlock()

	b.emit(path, b.stat(n))
	return nil
}

// Remove deletes the node at path and emits a change notification for path
// itself, with a nil stat.
func (b *Backend) Remove(path string) error {
	trimmed := strings.TrimSuffix(path, "/")
	segments := split(trimmed)
	if len(segments) == 0 {
		return errors.New("memory: cannot remove root")
	}

	b.mu.Lock()
	parent := b.root
	for _, s := range segments[:len(segments)-1] {
		if parent.children == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
		parent = parent.children[s]
		if parent == nil {
			b.mu.Unlock()
			return ErrNotExist
		}
	}
	name := segments[len(segments)-1]
	if _, ok := parent.children[name]; !ok {
		b.mu.Unlock()
		return ErrNotExist
	}
	delete(parent.children, name)
	b.mu.Unlock()

	b.emit(path, nil)
	return nil
}

func (b *Backend) emit(path string, stat *backend.Stat) {
	b.watchedMu.Lock()
	watched := b.isWatchedLocked(path)
	b.watchedMu.Unlock()
	if !watched || b.changes == nil {
		return
	}
	select {
	case b.changes <- backend.Change{Path: path, Stat: stat}:
	default:
	}
}

func (b *Backend) isWatchedLocked(path string) bool {
	trimmed := strings.TrimSuffix(path, "/")
	for w := range b.watched {
		wTrim := strings.TrimSuffix(w, "/")
		if trimmed == wTrim || strings.HasPrefix(trimmed, wTrim+"/") {
			return true
		}
	}
	return false
}

// WatchPath implements backend.Backend, recording path as watched.
func (b *Backend) WatchPath(ctx context.Context, path string) error {
	b.watchedMu.Lock()
	b.watched[path] = true
	b.watchedMu.Unlock()
	return nil
}

// UnwatchPath implements backend.Backend, forgetting path.
func (b *Backend) UnwatchPath(ctx context.Context, path string) error {
	b.watchedMu.Lock()
	delete(b.watched, path)
	b.watchedMu.Unlock()
	return nil
}

// UnwatchAll implements backend.Backend.
func (b *Backend) UnwatchAll() {
	b.watchedMu.Lock()
	b.watched = make(map[string]bool)
	b.watchedMu.Unlock()
}

// ShowOpenDialog implements backend.Backend by returning an empty selection;
// there is no UI to back it in-memory.
func (b *Backend) ShowOpenDialog(ctx context.Context, multiple, directories bool, title, initialPath string, fileTypes []string) ([]string, error) {
	return nil, nil
}

// ShowSaveDialog implements backend.Backend by returning initialPath
// concatenated with proposedName; there is no UI to back it in-memory.
func (b *Backend) ShowSaveDialog(ctx context.Context, title, initialPath, proposedName string) (string, error) {
	return initialPath + proposedName, nil
}
