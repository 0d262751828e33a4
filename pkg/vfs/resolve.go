package vfs

import (
	"context"

	"github.com/watchfs/watchfs/pkg/vfs/backend"
	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/pathutil"
)

// Resolve looks path up in the index first as a file, then as a directory.
// If an entry is found, stat it fresh. If neither is indexed, fall back to
// a raw backend stat of the original path to decide File vs Directory,
// adopting the resulting stat onto the new handle only if it falls inside
// an active watched root (outside one, the cache would never be refreshed
// by watcher events).
func (c *Core) Resolve(ctx context.Context, path string) (*entry.Entry, *backend.Stat, error) {
	filePath, err := pathutil.Normalize(path, false, c.uncSupport)
	if err != nil {
		return nil, nil, err
	}
	if e := c.index.Get(filePath); e != nil {
		stat, err := e.Stat(ctx)
		return e, stat, err
	}

	dirPath, err := pathutil.Normalize(path, true, c.uncSupport)
	if err != nil {
		return nil, nil, err
	}
	if e := c.index.Get(dirPath); e != nil {
		stat, err := e.Stat(ctx)
		return e, stat, err
	}

	stat, err := c.Backend().Stat(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	kind := entry.File
	canonical := filePath
	if !stat.IsFile {
		kind = entry.Directory
		canonical = dirPath
	}

	e := c.index.GetOrCreate(canonical, func() *entry.Entry {
		return entry.New(c, canonical, kind)
	})

	if c.watchRoots.ActiveRootFor(canonical) != nil {
		e.AdoptStat(stat)
	}

	return e, stat, nil
}
