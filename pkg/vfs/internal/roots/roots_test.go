package roots

import (
	"testing"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

func mustFilter(name, parent string) bool { return true }

func TestBeginRejectsParentOverlap(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/", entry.Directory)
	if err := r.Begin(proj, mustFilter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Activate("/proj/")

	sub := entry.New(nil, "/proj/sub/", entry.Directory)
	if err := r.Begin(sub, mustFilter); err != ErrParentAlreadyWatched {
		t.Fatalf("expected ErrParentAlreadyWatched, got %v", err)
	}
}

func TestBeginRejectsChildOverlap(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/sub/", entry.Directory)
	if err := r.Begin(proj, mustFilter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Activate("/proj/sub/")

	root := entry.New(nil, "/", entry.Directory)
	if err := r.Begin(root, mustFilter); err != ErrChildAlreadyWatched {
		t.Fatalf("expected ErrChildAlreadyWatched, got %v", err)
	}
}

func TestUnactivatedRootDoesNotBlock(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/", entry.Directory)
	if err := r.Begin(proj, mustFilter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Never activated (simulating a failed dispatch) -- should not block.
	r.Abort("/proj/")

	again := entry.New(nil, "/proj/", entry.Directory)
	if err := r.Begin(again, mustFilter); err != nil {
		t.Fatalf("expected no overlap after Abort, got %v", err)
	}
}

func TestEndRemovesRoot(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/", entry.Directory)
	r.Begin(proj, mustFilter)
	r.Activate("/proj/")

	root, err := r.End("/proj/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Entry != proj {
		t.Fatal("End returned wrong root")
	}
	if r.Get("/proj/") != nil {
		t.Fatal("root still registered after End")
	}

	if _, err := r.End("/proj/"); err != ErrNotWatched {
		t.Fatalf("expected ErrNotWatched, got %v", err)
	}
}

func TestActiveRootFor(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/", entry.Directory)
	r.Begin(proj, mustFilter)
	r.Activate("/proj/")

	if r.ActiveRootFor("/proj/sub/file.txt") == nil {
		t.Fatal("expected descendant path to resolve to active root")
	}
	if r.ActiveRootFor("/other/file.txt") != nil {
		t.Fatal("unrelated path incorrectly matched a root")
	}
}

func TestClearDeactivatesAndReturnsActiveRoots(t *testing.T) {
	r := New()
	proj := entry.New(nil, "/proj/", entry.Directory)
	r.Begin(proj, mustFilter)
	r.Activate("/proj/")

	active := r.Clear()
	if len(active) != 1 || active[0].Entry != proj {
		t.Fatalf("expected one active root returned, got %v", active)
	}
	if len(r.All()) != 0 {
		t.Fatal("registry not empty after Clear")
	}
}
