package vfs

import (
	"context"
	"sync"

	"github.com/watchfs/watchfs/pkg/vfs/backend"
	"github.com/watchfs/watchfs/pkg/vfs/internal/coordinator"
	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/pathutil"
	"github.com/watchfs/watchfs/pkg/vfs/internal/watchqueue"
)

// handleExternalChange processes a single drained external change. It is
// the Handler given to the change coordinator, so it only ever runs once
// activeChangeCount has returned to zero, and never re-entrantly while a
// mutation is in flight.
func (c *Core) handleExternalChange(ctx context.Context, change coordinator.Change) {
	if change.Path == "" {
		// Wholesale change: the backend cannot say what changed, so every
		// cached stat and directory listing is invalidated.
		c.index.VisitAll(func(e *entry.Entry) {
			e.ClearStat()
			e.ClearContents()
		})
		c.dispatcher.FireChange(nil, nil, nil)
		return
	}

	canonical, err := pathutil.Normalize(change.Path, false, c.uncSupport)
	if err != nil {
		c.logger.Warn(err)
		return
	}

	e := c.index.Get(canonical)
	if e == nil {
		// We don't speculatively instantiate entries nobody asked for.
		return
	}

	if e.Kind() == entry.File {
		c.handleFileChange(ctx, e, change.Stat)
		return
	}
	c.handleDirectoryChange(ctx, e, change.Stat)
}

// handleFileChange handles an external change reported against a File
// entry: if the reported stat matches what's cached (by mtime, millisecond
// precision), the change is a dedup and nothing fires. Otherwise the cached
// contents (meaningless for a file, but cleared for symmetry with a kind
// change) are dropped, the new stat adopted, and a change event fires.
func (c *Core) handleFileChange(ctx context.Context, e *entry.Entry, stat *backend.Stat) {
	if stat != nil && backend.StatsFresh(stat, e.CachedStat()) {
		return
	}

	e.ClearContents()
	if stat != nil {
		e.AdoptStat(stat)
	} else if _, err := e.Stat(ctx); err != nil {
		c.logger.Warn(err)
	}

	c.dispatcher.FireChange(e, nil, nil)
}

// handleDirectoryChange handles an external change reported against a
// Directory entry: reload contents, diff against the prior listing by entry
// identity, and either prune the index directly (directory not under any
// active watched root) or extend/retract backend watches on the
// added/removed children before pruning and firing.
func (c *Core) handleDirectoryChange(ctx context.Context, e *entry.Entry, stat *backend.Stat) {
	old := e.CachedContents()
	updated, err := e.GetContents(ctx)
	if err != nil {
		c.logger.Warn(err)
		return
	}

	added, removed := diffContents(old, updated)

	if c.watchRoots.ActiveRootFor(e.FullPath()) != nil {
		c.reconcileBackendWatches(ctx, added, removed)
	}

	for _, r := range removed {
		c.index.RemoveSubtree(r.FullPath())
	}

	if stat != nil {
		e.AdoptStat(stat)
	}

	c.dispatcher.FireChange(e, added, removed)
}

// reconcileBackendWatches issues a watch request for each added directory
// and an unwatch request for each removed one, waiting for all to complete
// before returning (the change event only fires once every reconciling
// request has completed). Each request goes through the same serial
// watch-request queue as every other watch/unwatch dispatch.
func (c *Core) reconcileBackendWatches(ctx context.Context, added, removed []*entry.Entry) {
	var wg sync.WaitGroup

	for _, r := range removed {
		if !r.IsDirectory() {
			continue
		}
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.queueBackendCall(ctx, "unwatch "+r.FullPath(), func() error {
				return c.Backend().UnwatchPath(ctx, r.FullPath())
			}); err != nil {
				c.logger.Warn(err)
			}
		}()
	}

	for _, a := range added {
		if !a.IsDirectory() {
			continue
		}
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.queueBackendCall(ctx, "watch "+a.FullPath(), func() error {
				return c.Backend().WatchPath(ctx, a.FullPath())
			}); err != nil {
				c.logger.Warn(err)
			}
		}()
	}

	wg.Wait()
}

// queueBackendCall enqueues work on the watch-request queue and blocks for
// its result.
func (c *Core) queueBackendCall(ctx context.Context, label string, work func() error) error {
	result := make(chan error, 1)
	c.queue.Enqueue(watchqueue.Job{
		Label: label,
		Work:  work,
		Done:  func(err error) { result <- err },
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// diffContents compares two directory listings by entry identity, returning
// entries present in updated but not old (added) and vice versa (removed).
func diffContents(old, updated []*entry.Entry) (added, removed []*entry.Entry) {
	oldSet := make(map[*entry.Entry]bool, len(old))
	for _, e := range old {
		oldSet[e] = true
	}

	newSet := make(map[*entry.Entry]bool, len(updated))
	for _, e := range updated {
		newSet[e] = true
		if !oldSet[e] {
			added = append(added, e)
		}
	}

	for _, e := range old {
		if !newSet[e] {
			removed = append(removed, e)
		}
	}

	return added, removed
}
