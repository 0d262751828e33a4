package vfs

import (
	"context"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/pathutil"
)

// Rename moves e to newPath: it performs the backend rename, updates the
// index (preserving identity for e and every descendant via entryRenamed),
// and fires a rename event. The whole operation is bracketed by the change
// coordinator so that the backend's own watcher notifications for the
// rename (typically a delete of the old path and an add of the new one) are
// deferred until the index has already been updated; handleExternalChange
// then finds the entry at its new path and either dedupes or fires a benign
// change rather than a misleading delete/add pair.
func (c *Core) Rename(ctx context.Context, e *entry.Entry, newPath string) error {
	canonical, err := pathutil.Normalize(newPath, e.IsDirectory(), c.uncSupport)
	if err != nil {
		return err
	}
	oldPath := e.FullPath()

	c.coord.BeginChange()
	defer c.coord.EndChange(ctx)

	if err := c.Backend().Rename(ctx, oldPath, canonical); err != nil {
		return err
	}

	c.index.EntryRenamed(oldPath, canonical, e.IsDirectory())
	c.dispatcher.FireRename(oldPath, canonical)
	return nil
}
