package vfs

import (
	"context"
	"testing"
	"time"

	"github.com/watchfs/watchfs/pkg/vfs/backend/memory"
	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
	"github.com/watchfs/watchfs/pkg/vfs/internal/pathutil"
	"github.com/watchfs/watchfs/pkg/vfs/internal/roots"
)

func newTestCore(t *testing.T) (*Core, *memory.Backend) {
	t.Helper()
	be := memory.New()
	c := New(nil)
	if err := c.Init(be); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, be
}

// Two different spellings of the same path should resolve to
// identity-equal handles.
func TestGetFileForPathDedups(t *testing.T) {
	c, _ := newTestCore(t)

	a, err := c.GetFileForPath("/a//b/../b/c.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := c.GetFileForPath("/a/b/c.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatal("expected identity-equal handles")
	}
	if a.FullPath() != "/a/b/c.txt" {
		t.Fatalf("unexpected full path: %s", a.FullPath())
	}
}

// A directory path should always come back with a trailing slash.
func TestGetDirectoryForPathAppendsSlash(t *testing.T) {
	c, _ := newTestCore(t)

	dir, err := c.GetDirectoryForPath("/x/y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.FullPath() != "/x/y/" {
		t.Fatalf("expected trailing slash, got %s", dir.FullPath())
	}
}

// An invalid ".." that would walk above the root is rejected synchronously.
func TestGetFileForPathRejectsInvalidDotDot(t *testing.T) {
	c, _ := newTestCore(t)

	if _, err := c.GetFileForPath("/../a"); err != pathutil.ErrInvalidPath {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

// Watched-root overlap is rejected symmetrically, for both a parent and a
// child of an already-watched root.
func TestWatchRejectsOverlap(t *testing.T) {
	c, be := newTestCore(t)
	ctx := context.Background()

	if err := be.MakeDirectory("/proj"); err != nil {
		t.Fatal(err)
	}
	if err := be.MakeDirectory("/proj/sub"); err != nil {
		t.Fatal(err)
	}

	proj, err := c.GetDirectoryForPath("/proj")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Watch(ctx, proj, func(name, parent string) bool { return true }); err != nil {
		t.Fatalf("watch /proj failed: %v", err)
	}

	sub, err := c.GetDirectoryForPath("/proj/sub")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Watch(ctx, sub, func(name, parent string) bool { return true }); err != roots.ErrParentAlreadyWatched {
		t.Fatalf("expected ErrParentAlreadyWatched, got %v", err)
	}

	root, err := c.GetDirectoryForPath("/")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Watch(ctx, root, func(name, parent string) bool { return true }); err != roots.ErrChildAlreadyWatched {
		t.Fatalf("expected ErrChildAlreadyWatched, got %v", err)
	}
}

// An in-process rename should produce exactly one rename event, not a
// spurious delete/add pair, even though the backend separately reports a
// delete of the old path and an add of the new one.
func TestRenameIsNotObservedAsDeleteAdd(t *testing.T) {
	c, be := newTestCore(t)
	ctx := context.Background()

	if err := be.MakeDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	if err := be.MakeFile("/a/b", 10); err != nil {
		t.Fatal(err)
	}

	dir, err := c.GetDirectoryForPath("/a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Watch(ctx, dir, func(name, parent string) bool { return true }); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	file, err := c.GetFileForPath("/a/b")
	if err != nil {
		t.Fatal(err)
	}

	var renames []string
	var changes int
	c.OnRename(func(oldPath, newPath string) {
		renames = append(renames, oldPath+"->"+newPath)
	})
	c.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) {
		changes++
	})

	if err := c.Rename(ctx, file, "/a/c"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	// Give the backend's asynchronously-delivered delete/add notifications
	// (emitted by memory.Backend.Rename) a moment to reach the pump.
	deadline := time.Now().Add(time.Second)
	for changes == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if len(renames) != 1 || renames[0] != "/a/b->/a/c" {
		t.Fatalf("expected exactly one rename event, got %v", renames)
	}
	if file.FullPath() != "/a/c" {
		t.Fatalf("renamed entry should keep its identity at the new path, got %s", file.FullPath())
	}
	if changes > 1 {
		t.Fatalf("expected at most one benign dedup/change after the rename, got %d", changes)
	}
}

func TestIsAbsolutePath(t *testing.T) {
	if !IsAbsolutePath("/a/b") {
		t.Fatal("expected /a/b to be absolute")
	}
	if IsAbsolutePath("a/b") {
		t.Fatal("expected a/b to be relative")
	}
}
