// Package local implements a backend.Backend over the real local disk: it
// stats and lists with the standard library's os package and watches with
// fsnotify. It is the backend the demo CLI uses by default.
//
// fsnotify is inherently non-recursive (a watch on a directory only reports
// events for that directory's immediate children), so RecursiveWatch always
// reports false; the façade is responsible for enumerating and watching
// every descendant directory individually.
package local

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/watchfs/watchfs/pkg/logging"
	"github.com/watchfs/watchfs/pkg/state"
	"github.com/watchfs/watchfs/pkg/vfs/backend"
)

// DefaultCoalesceWindow is the debounce window used to collapse the bursts
// of fsnotify events that a single logical write often produces (editors
// routinely write a temp file, rename it into place, and touch permissions
// as three separate syscalls).
const DefaultCoalesceWindow = 75 * time.Millisecond

// Backend is a local-disk backend.Backend. The zero value is not valid; use
// New.
type Backend struct {
	logger *logging.Logger

	watcher *fsnotify.Watcher
	window  time.Duration

	changes chan backend.Change
	offline chan struct{}
	marker  state.Marker // guards idempotent closure of offline

	coalescer *state.Coalescer
	dirtyMu   sync.Mutex
	dirty     map[string]*backend.Stat
}

// New creates a local-disk backend. It does not start watching until
// InitWatchers is called by the façade's Core.Init.
func New(logger *logging.Logger) (*Backend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "local: unable to create watcher")
	}
	return &Backend{
		logger:  logger,
		watcher: watcher,
		window:  DefaultCoalesceWindow,
		dirty:   make(map[string]*backend.Stat),
	}, nil
}

// RecursiveWatch always reports false; see the package doc comment.
func (b *Backend) RecursiveWatch() bool { return false }

// NormalizeUNCPaths reports whether this process is running on Windows,
// where "//server/share" paths are meaningful.
func (b *Backend) NormalizeUNCPaths() bool {
	return runtime.GOOS == "windows"
}

// InitWatchers starts the fsnotify event loop and the coalescing goroutine
// that turns bursts of raw fsnotify events into debounced backend.Change
// notifications.
func (b *Backend) InitWatchers() (<-chan backend.Change, <-chan struct{}) {
	b.changes = make(chan backend.Change, 256)
	b.offline = make(chan struct{})
	b.coalescer = state.NewCoalescer(b.window)

	go b.pumpRaw()
	go b.pumpCoalesced()

	return b.changes, b.offline
}

// pumpRaw drains the fsnotify watcher's Events and Errors channels,
// recording dirty paths and strobing the coalescer. It exits (and declares
// the backend offline) if the watcher's channels close, which fsnotify does
// only when the watcher itself has been closed.
func (b *Backend) pumpRaw() {
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				b.goOffline()
				return
			}
			b.markDirty(event.Name)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				b.goOffline()
				return
			}
			b.logger.Warn(errors.Wrap(err, "local: watcher reported an error"))
		}
	}
}

// markDirty records path as having changed and wakes the coalescer.
func (b *Backend) markDirty(path string) {
	stat, err := b.Stat(context.Background(), path)
	if err != nil {
		stat = nil // deleted or otherwise unreadable; let the façade re-stat lazily
	}

	b.dirtyMu.Lock()
	b.dirty[path] = stat
	b.dirtyMu.Unlock()

	b.coalescer.Strobe()
}

// pumpCoalesced drains the debounced coalescer signal, draining and
// emitting one backend.Change per path that was marked dirty since the
// last emission. It exits once the offline channel closes: Coalescer.Events
// is never closed by Terminate, so relying on range alone would leak this
// goroutine past shutdown.
func (b *Backend) pumpCoalesced() {
	for {
		select {
		case <-b.offline:
			return
		case _, ok := <-b.coalescer.Events():
			if !ok {
				return
			}
		}

		b.dirtyMu.Lock()
		batch := b.dirty
		b.dirty = make(map[string]*backend.Stat)
		b.dirtyMu.Unlock()

		for path, stat := range batch {
			select {
			case b.changes <- backend.Change{Path: path, Stat: stat}:
			default:
				b.logger.Warn(fmt.Errorf("local: change channel full, dropping event for %s", path))
			}
		}
	}
}

func (b *Backend) goOffline() {
	b.coalescer.Terminate()
	if !b.marker.Marked() {
		b.marker.Mark()
		close(b.offline)
	}
}

// Stat implements backend.Backend.
func (b *Backend) Stat(ctx context.Context, path string) (*backend.Stat, error) {
	info, err := os.Stat(trimSlash(path))
	if err != nil {
		return nil, errors.Wrapf(err, "local: unable to stat %s", path)
	}
	return statFromInfo(path, info), nil
}

// Readdir implements backend.Backend.
func (b *Backend) Readdir(ctx context.Context, path string) ([]string, []*backend.Stat, error) {
	entries, err := os.ReadDir(trimSlash(path))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "local: unable to read directory %s", path)
	}

	names := make([]string, 0, len(entries))
	stats := make([]*backend.Stat, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// The entry may have been removed between readdir and stat; skip
			// it rather than failing the whole listing.
			continue
		}
		names = append(names, e.Name())
		stats = append(stats, statFromInfo(filepath.Join(trimSlash(path), e.Name()), info))
	}
	return names, stats, nil
}

// Rename implements backend.Backend.
func (b *Backend) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := os.Rename(trimSlash(oldPath), trimSlash(newPath)); err != nil {
		return errors.Wrapf(err, "local: unable to rename %s to %s", oldPath, newPath)
	}
	return nil
}

// WatchPath implements backend.Backend by adding path to the fsnotify
// watcher. fsnotify tolerates watching both files and directories.
func (b *Backend) WatchPath(ctx context.Context, path string) error {
	if err := b.watcher.Add(trimSlash(path)); err != nil {
		return errors.Wrapf(err, "local: unable to watch %s", path)
	}
	return nil
}

// UnwatchPath implements backend.Backend.
func (b *Backend) UnwatchPath(ctx context.Context, path string) error {
	if err := b.watcher.Remove(trimSlash(path)); err != nil {
		return errors.Wrapf(err, "local: unable to unwatch %s", path)
	}
	return nil
}

// UnwatchAll implements backend.Backend by closing the fsnotify watcher
// outright; its Events/Errors channels closing is what drives goOffline.
func (b *Backend) UnwatchAll() {
	b.watcher.Close()
}

// ShowOpenDialog implements backend.Backend with a stdin prompt: this pack
// has no GUI toolkit dependency to back a native file picker, but the
// façade's passthrough contract still deserves end-to-end exercise.
func (b *Backend) ShowOpenDialog(ctx context.Context, multiple, directories bool, title, initialPath string, fileTypes []string) ([]string, error) {
	fmt.Printf("%s [%s]: ", title, initialPath)
	line, err := readLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	if !multiple {
		return []string{line}, nil
	}
	return strings.Fields(line), nil
}

// ShowSaveDialog implements backend.Backend with a stdin prompt.
func (b *Backend) ShowSaveDialog(ctx context.Context, title, initialPath, proposedName string) (string, error) {
	fmt.Printf("%s [%s]: ", title, filepath.Join(initialPath, proposedName))
	line, err := readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", nil
	}
	return line, nil
}

func readLine() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "local: unable to read dialog response")
	}
	return strings.TrimSpace(line), nil
}

func trimSlash(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

func statFromInfo(path string, info os.FileInfo) *backend.Stat {
	real, err := filepath.EvalSymlinks(trimSlash(path))
	if err != nil {
		real = trimSlash(path)
	}
	return &backend.Stat{
		IsFile:   !info.IsDir(),
		Size:     uint64(info.Size()),
		ModTime:  info.ModTime(),
		RealPath: real,
	}
}
