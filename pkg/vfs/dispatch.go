package vfs

import (
	"context"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/watchqueue"
)

// Watch registers e as a watched root with filter, rejecting overlap with
// any existing active root (ErrParentAlreadyWatched, ErrChildAlreadyWatched).
// It blocks until the backend dispatch completes; all watch/unwatch
// dispatches across the Core execute strictly serially regardless of how
// many are requested concurrently.
func (c *Core) Watch(ctx context.Context, e *entry.Entry, filter entry.FilterFunc) error {
	path := e.FullPath()
	if err := c.watchRoots.Begin(e, filter); err != nil {
		return err
	}

	result := make(chan error, 1)
	c.queue.Enqueue(watchqueue.Job{
		Label: "watch " + path,
		Work: func() error {
			return c.dispatchWatch(ctx, e, filter)
		},
		Done: func(err error) {
			if err != nil {
				c.watchRoots.Abort(path)
			} else {
				c.watchRoots.Activate(path)
			}
			result <- err
		},
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unwatch tears down the watched root at e's path. Regardless of whether
// the backend dispatch succeeds, the root is deregistered and the index is
// pruned of every entry whose path begins with e's (stale cached data under
// an unwatched subtree must never be served).
func (c *Core) Unwatch(ctx context.Context, e *entry.Entry) error {
	path := e.FullPath()
	root, err := c.watchRoots.End(path)
	if err != nil {
		return err
	}

	result := make(chan error, 1)
	c.queue.Enqueue(watchqueue.Job{
		Label: "unwatch " + path,
		Work: func() error {
			return c.dispatchUnwatch(ctx, e, root.Filter)
		},
		Done: func(err error) {
			c.index.RemoveSubtree(path)
			result <- err
		},
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatchWatch issues the backend watch calls for e. A recursive backend
// takes a single call at the root. A non-recursive backend requires
// enumerating every directory under e that passes filter and issuing one
// backend call per such directory (plus the root itself).
func (c *Core) dispatchWatch(ctx context.Context, e *entry.Entry, filter entry.FilterFunc) error {
	be := c.Backend()
	if be.RecursiveWatch() {
		return be.WatchPath(ctx, e.FullPath())
	}

	paths, err := enumerateWatchSet(ctx, e, filter)
	if err != nil {
		return err
	}
	return dispatchAll(ctx, paths, be.WatchPath)
}

// dispatchUnwatch mirrors dispatchWatch for tearing a watch down.
func (c *Core) dispatchUnwatch(ctx context.Context, e *entry.Entry, filter entry.FilterFunc) error {
	be := c.Backend()
	if be.RecursiveWatch() {
		return be.UnwatchPath(ctx, e.FullPath())
	}

	paths, err := enumerateWatchSet(ctx, e, filter)
	if err != nil {
		return err
	}
	return dispatchAll(ctx, paths, be.UnwatchPath)
}

// enumerateWatchSet collects the root's own path plus every descendant
// directory that passes filter: a child (file or directory) passes filter
// iff filter(name, parentPath) returns true; a directory that fails filter
// has its entire subtree pruned from enumeration, but only directories (and
// the root) end up in the watch set.
func enumerateWatchSet(ctx context.Context, root *entry.Entry, filter entry.FilterFunc) ([]string, error) {
	paths := []string{root.FullPath()}
	err := root.Visit(ctx, filter, func(path string, kind entry.Kind) {
		if kind == entry.Directory {
			paths = append(paths, path)
		}
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// dispatchAll issues call against every path concurrently: the backend
// calls making up one watch/unwatch dispatch may run concurrently with each
// other; dispatchAll only returns once all have completed, surfacing the
// first error if any.
func dispatchAll(ctx context.Context, paths []string, call func(context.Context, string) error) error {
	if len(paths) == 0 {
		return nil
	}

	errs := make(chan error, len(paths))
	for _, p := range paths {
		p := p
		go func() { errs <- call(ctx, p) }()
	}

	var first error
	for range paths {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}
