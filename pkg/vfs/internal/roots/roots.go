// Package roots implements the façade's watched-root registry: the set of
// subtrees currently under watch, with the invariant that no two active
// roots are in an ancestor/descendant relation.
package roots

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

// Errors returned by Registry.Begin and Registry.End.
var (
	// ErrParentAlreadyWatched indicates that the requested path itself, or
	// an ancestor of it, is already an active watched root.
	ErrParentAlreadyWatched = errors.New("a parent of this path is already watched")
	// ErrChildAlreadyWatched indicates that a descendant of the requested
	// path is already an active watched root.
	ErrChildAlreadyWatched = errors.New("a child of this path is already watched")
	// ErrNotWatched indicates that the path has no registered watched root.
	ErrNotWatched = errors.New("path is not watched")
)

// Root is a single watched subtree: the entry at its root, the filter used to
// decide which descendants participate in non-recursive watch dispatch and
// auto-indexing, and whether the backend dispatch has completed.
type Root struct {
	Entry  *entry.Entry
	Filter entry.FilterFunc
	Active bool
}

// Registry tracks the current set of watched roots. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	roots map[string]*Root
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{roots: make(map[string]*Root)}
}

// checkOverlap reports whether path would overlap an existing active root.
// Must be called with mu held.
func (r *Registry) checkOverlap(path string) error {
	for p, root := range r.roots {
		if !root.Active {
			continue
		}
		if p == path {
			return ErrParentAlreadyWatched
		}
		if strings.HasPrefix(path, p) {
			return ErrParentAlreadyWatched
		}
		if strings.HasPrefix(p, path) {
			return ErrChildAlreadyWatched
		}
	}
	return nil
}

// Begin registers a pending (inactive) root at e's path after checking it
// does not overlap any active root. The caller must follow with Activate on
// successful backend dispatch, or Abort on failure.
func (r *Registry) Begin(e *entry.Entry, filter entry.FilterFunc) error {
	path := e.FullPath()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOverlap(path); err != nil {
		return err
	}
	r.roots[path] = &Root{Entry: e, Filter: filter, Active: false}
	return nil
}

// Activate marks the pending root at path as active.
func (r *Registry) Activate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if root, ok := r.roots[path]; ok {
		root.Active = true
	}
}

// Abort removes the pending root at path, used when backend dispatch fails.
func (r *Registry) Abort(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roots, path)
}

// End removes the root at path unconditionally, returning it, or
// ErrNotWatched if no root is registered there.
func (r *Registry) End(path string) (*Root, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, ok := r.roots[path]
	if !ok {
		return nil, ErrNotWatched
	}
	root.Active = false
	delete(r.roots, path)
	return root, nil
}

// Get returns the root registered at path, or nil.
func (r *Registry) Get(path string) *Root {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roots[path]
}

// All returns a snapshot of every registered root, active or not.
func (r *Registry) All() []*Root {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Root, 0, len(r.roots))
	for _, root := range r.roots {
		out = append(out, root)
	}
	return out
}

// ActiveRootFor returns the active watched root whose path is a prefix of
// (or equal to) path, or nil if path is not under any active root. The
// no-overlap invariant guarantees at most one such root exists.
func (r *Registry) ActiveRootFor(path string) *Root {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for p, root := range r.roots {
		if root.Active && strings.HasPrefix(path, p) {
			return root
		}
	}
	return nil
}

// Clear removes every registered root, returning the ones that were active.
// Used by unwatchAll in response to the backend going offline.
func (r *Registry) Clear() []*Root {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*Root
	for _, root := range r.roots {
		if root.Active {
			active = append(active, root)
		}
		root.Active = false
	}
	r.roots = make(map[string]*Root)
	return active
}
