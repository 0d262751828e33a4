// Package vfs implements a virtual filesystem façade over a pluggable
// storage backend: stable, deduplicated handles to files and directories, a
// directory-listing/stat cache kept fresh by the backend's watcher
// notifications, and rename-vs-delete+add coordination so observers see a
// single rename event instead of a spurious delete/add pair.
//
// A Core is a process-wide singleton in spirit: construct one with New,
// bind it to a backend with Init exactly once, and share it across callers.
package vfs

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/watchfs/watchfs/pkg/logging"
	"github.com/watchfs/watchfs/pkg/state"
	"github.com/watchfs/watchfs/pkg/vfs/backend"
	"github.com/watchfs/watchfs/pkg/vfs/internal/coordinator"
	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/events"
	"github.com/watchfs/watchfs/pkg/vfs/internal/fsindex"
	"github.com/watchfs/watchfs/pkg/vfs/internal/pathutil"
	"github.com/watchfs/watchfs/pkg/vfs/internal/roots"
	"github.com/watchfs/watchfs/pkg/vfs/internal/watchqueue"
)

// ErrAlreadyInitialized is returned by Init if the Core has already been
// bound to a backend.
var ErrAlreadyInitialized = errors.New("vfs: already initialized")

// ErrNotInitialized describes a Core that has not yet been bound to a
// backend by Init. Core's methods do not check for that state and do not
// return this error.
var ErrNotInitialized = errors.New("vfs: not initialized")

// Core is the façade's bound state: the entry index, watched-root registry,
// watch-request queue, change coordinator, and event dispatcher.
type Core struct {
	logger *logging.Logger

	mu          sync.Mutex
	initialized bool
	be          backend.Backend
	uncSupport  bool
	cancelPump  context.CancelFunc

	index      *fsindex.Index
	watchRoots *roots.Registry
	queue      *watchqueue.Queue
	dispatcher *events.Dispatcher
	coord      *coordinator.Coordinator

	// tracker gives callers (notably the CLI's watch command) a way to
	// block until the next change or rename fires, instead of polling
	// OnChange/OnRename with a hand-rolled channel. It is bumped by an
	// internal observer registered in New.
	tracker *state.Tracker
}

// New creates an uninitialized Core. Call Init before performing any other
// operation.
func New(logger *logging.Logger) *Core {
	c := &Core{
		logger:     logger,
		index:      fsindex.New(),
		watchRoots: roots.New(),
		dispatcher: events.New(),
		tracker:    state.NewTracker(),
	}
	c.queue = watchqueue.New(logger.Sublogger("watchqueue"))
	c.coord = coordinator.New(logger.Sublogger("coordinator"), c.handleExternalChange)
	c.dispatcher.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) {
		c.tracker.NotifyOfChange()
	})
	c.dispatcher.OnRename(func(oldPath, newPath string) {
		c.tracker.NotifyOfChange()
	})
	return c
}

// WaitForChange blocks until a change or rename event fires after
// previousIndex was last observed, returning the new index. Pass 0 to read
// the current index immediately without waiting. This is the mechanism the
// CLI's "watch" subcommand uses to print events as they occur without
// busy-polling OnChange/OnRename.
func (c *Core) WaitForChange(ctx context.Context, previousIndex uint64) (uint64, error) {
	return c.tracker.WaitForChange(ctx, previousIndex)
}

// Stats is a diagnostic snapshot of the Core's internal state, exposed for
// the CLI's "debug" subcommand. It exists to make the otherwise-opaque
// index, registry, and queues inspectable.
type Stats struct {
	IndexedEntries       int
	ActiveWatchedRoots   int
	PendingWatchedRoots  int
	PendingWatchRequests int
}

// Stats returns a snapshot of the Core's current internal counters.
func (c *Core) Stats() Stats {
	var active, pending int
	for _, root := range c.watchRoots.All() {
		if root.Active {
			active++
		} else {
			pending++
		}
	}
	return Stats{
		IndexedEntries:       c.index.Len(),
		ActiveWatchedRoots:   active,
		PendingWatchedRoots:  pending,
		PendingWatchRequests: c.queue.Len(),
	}
}

// Init binds b as the backend this Core delegates all I/O to. It may be
// called exactly once; subsequent calls return ErrAlreadyInitialized.
func (c *Core) Init(b backend.Backend) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.initialized = true
	c.be = b
	c.uncSupport = b.NormalizeUNCPaths()
	c.mu.Unlock()

	changes, offline := b.InitWatchers()

	pumpCtx, cancel := context.WithCancel(context.Background())
	c.cancelPump = cancel
	go c.pump(pumpCtx, changes, offline)

	return nil
}

// pump forwards backend-reported changes into the change coordinator, and
// treats the backend going offline as an implicit unwatchAll.
func (c *Core) pump(ctx context.Context, changes <-chan backend.Change, offline <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			c.coord.EnqueueExternalChange(ctx, coordinator.Change{Path: change.Path, Stat: change.Stat})
		case <-offline:
			c.unwatchAllLocked(ctx)
			return
		}
	}
}

// Close stops watching everything and clears all cached state. The Core
// must not be used afterward.
func (c *Core) Close() error {
	c.mu.Lock()
	be := c.be
	cancel := c.cancelPump
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if be != nil {
		be.UnwatchAll()
	}
	c.index.Clear()
	c.watchRoots.Clear()
	c.tracker.Terminate()
	return nil
}

// unwatchAllLocked tears down every watched root and fires a single
// wholesale change event. Named "Locked" only by convention with the rest
// of the façade's internal methods; it takes no lock of its own since
// Registry.Clear is already atomic.
func (c *Core) unwatchAllLocked(ctx context.Context) {
	c.watchRoots.Clear()
	c.index.Clear()
	c.dispatcher.FireChange(nil, nil, nil)
}

// Backend implements entry.Core.
func (c *Core) Backend() backend.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.be
}

// ShouldIndex implements entry.Core: a discovered child is auto-indexed if
// it passes its active watched root's filter, or unconditionally if it
// falls outside any active watched root.
func (c *Core) ShouldIndex(parentPath, name string) bool {
	if root := c.watchRoots.ActiveRootFor(parentPath); root != nil {
		return root.Filter(name, parentPath)
	}
	return true
}

// Intern implements entry.Core, interning a newly discovered child entry
// while preserving the index's one-entry-per-path invariant.
func (c *Core) Intern(fullPath, name, parentPath string, kind entry.Kind) *entry.Entry {
	return c.index.GetOrCreate(fullPath, func() *entry.Entry {
		return entry.New(c, fullPath, kind)
	})
}

// GetFileForPath returns a stable handle for path interpreted as a file.
// It never fails except for path-validity errors (ErrAbsolutePathRequired,
// ErrInvalidPath) and may return a handle for a path that doesn't currently
// exist.
func (c *Core) GetFileForPath(path string) (*entry.Entry, error) {
	return c.getForPath(path, entry.File)
}

// GetDirectoryForPath returns a stable handle for path interpreted as a
// directory; the returned entry's FullPath always ends in "/".
func (c *Core) GetDirectoryForPath(path string) (*entry.Entry, error) {
	return c.getForPath(path, entry.Directory)
}

func (c *Core) getForPath(path string, kind entry.Kind) (*entry.Entry, error) {
	canonical, err := pathutil.Normalize(path, kind == entry.Directory, c.uncSupport)
	if err != nil {
		return nil, err
	}
	return c.index.GetOrCreate(canonical, func() *entry.Entry {
		return entry.New(c, canonical, kind)
	}), nil
}

// ShowOpenDialog is a direct passthrough to the backend.
func (c *Core) ShowOpenDialog(ctx context.Context, multiple, directories bool, title, initialPath string, fileTypes []string) ([]string, error) {
	return c.Backend().ShowOpenDialog(ctx, multiple, directories, title, initialPath, fileTypes)
}

// ShowSaveDialog is a direct passthrough to the backend.
func (c *Core) ShowSaveDialog(ctx context.Context, title, initialPath, proposedName string) (string, error) {
	return c.Backend().ShowSaveDialog(ctx, title, initialPath, proposedName)
}

// OnChange registers a change observer and returns a token for Off.
func (c *Core) OnChange(handler events.ChangeHandler) interface{} {
	return c.dispatcher.OnChange(handler)
}

// OnRename registers a rename observer and returns a token for Off.
func (c *Core) OnRename(handler events.RenameHandler) interface{} {
	return c.dispatcher.OnRename(handler)
}

// Off deregisters an observer previously registered with OnChange or
// OnRename.
func (c *Core) Off(token interface{}) {
	c.dispatcher.Off(token)
}

// IsAbsolutePath is a static utility exposing the path-validity test used by
// path normalization, without requiring a Core instance.
func IsAbsolutePath(path string) bool {
	return pathutil.IsAbsolute(path)
}
