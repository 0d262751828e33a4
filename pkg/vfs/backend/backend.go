// Package backend defines the contract that the façade requires from a
// low-level storage backend (local disk, remote server, in-memory). The core
// in pkg/vfs never performs byte I/O, stat syscalls, or native watching
// itself (it delegates all of that to an implementation of Backend and
// limits itself to path normalization, entry interning, caching, and change
// coordination).
//
// Blocking calls take a context and return results directly, and the two
// event streams (changes and going offline) are delivered over channels.
// The façade runs its watch/unwatch requests strictly serially in
// submission order, though the per-directory backend calls that make up a
// single request may run concurrently. Implementations must deliver change
// notifications for distinct paths in the order in which they occurred.
package backend

import (
	"context"
	"time"
)

// Stat is an immutable snapshot of a filesystem entry's metadata. Two stats
// are considered to represent the same observed state iff their ModTime
// values are equal at millisecond precision; see StatsFresh.
type Stat struct {
	// IsFile indicates whether the entry is a file (as opposed to a
	// directory).
	IsFile bool
	// Size is the size of the entry in bytes. It is only meaningful for
	// files.
	Size uint64
	// ModTime is the modification time of the entry.
	ModTime time.Time
	// RealPath is the backend's canonical path for the entry, which may
	// differ from the requested path (e.g. after resolving symlinks).
	RealPath string
}

// StatsFresh reports whether two stats represent the same observed state, by
// comparing modification time at millisecond precision.
func StatsFresh(a, b *Stat) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ModTime.Truncate(time.Millisecond).Equal(b.ModTime.Truncate(time.Millisecond))
}

// Change is a single external-change notification delivered on the channel
// returned by Backend.InitWatchers. An empty Path indicates a wholesale change (the
// backend cannot say what changed, e.g. after reconnecting).
type Change struct {
	// Path is the raw (backend-reported) path that changed, or empty for a
	// wholesale change.
	Path string
	// Stat is the new stat for Path, if the backend has one readily
	// available. It may be nil even for a non-wholesale change.
	Stat *Stat
}

// Backend is the external collaborator that the façade delegates all actual
// I/O to. Implementations are responsible for their own internal
// concurrency. The façade's watch-request queue runs one watch or unwatch
// request at a time, but a request against a non-recursive backend issues
// its per-directory WatchPath/UnwatchPath calls concurrently.
type Backend interface {
	// RecursiveWatch reports whether the backend's native watching facility
	// can watch an entire subtree with a single call (true), or whether the
	// façade must enumerate and watch every directory individually (false).
	RecursiveWatch() bool

	// NormalizeUNCPaths reports whether the backend understands and
	// preserves UNC-style paths (leading "//").
	NormalizeUNCPaths() bool

	// InitWatchers starts the backend's global watcher and returns the
	// channel on which it delivers change notifications, and a channel that
	// is closed if the backend's watching facilities go offline (e.g. a
	// remote connection drops), requiring every watch to be considered
	// lost. It must be called at most once.
	InitWatchers() (changes <-chan Change, offline <-chan struct{})

	// Stat retrieves metadata for the entry at path.
	Stat(ctx context.Context, path string) (*Stat, error)

	// Readdir retrieves the immediate children of the directory at path,
	// returning parallel slices of child names and their stats.
	Readdir(ctx context.Context, path string) (names []string, stats []*Stat, err error)

	// Rename moves the entry at oldPath to newPath. The façade brackets this
	// call with its change coordinator so that the backend's own watcher
	// notifications for the rename (typically a delete of oldPath and an add
	// of newPath) are deferred until the façade's index has been updated.
	Rename(ctx context.Context, oldPath, newPath string) error

	// WatchPath begins watching path. It may be called concurrently with
	// other WatchPath/UnwatchPath calls belonging to the same watch request,
	// but never with calls from a different request.
	WatchPath(ctx context.Context, path string) error

	// UnwatchPath stops watching path.
	UnwatchPath(ctx context.Context, path string) error

	// UnwatchAll stops watching every path, e.g. as part of shutdown.
	UnwatchAll()

	// ShowOpenDialog presents a native (or simulated) open dialog and
	// returns the user's selection. A user-cancelled dialog is reported as
	// a successful call with an empty selection.
	ShowOpenDialog(ctx context.Context, multiple, directories bool, title, initialPath string, fileTypes []string) ([]string, error)

	// ShowSaveDialog presents a native (or simulated) save dialog and
	// returns the chosen path. A user-cancelled dialog is reported as a
	// successful call with an empty chosen path.
	ShowSaveDialog(ctx context.Context, title, initialPath, proposedName string) (string, error)
}
