package fsindex

import (
	"testing"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

func TestAddGetIdentity(t *testing.T) {
	idx := New()
	e := entry.New(nil, "/a/b.txt", entry.File)
	idx.Add(e)

	if got := idx.Get("/a/b.txt"); got != e {
		t.Fatalf("Get returned different identity")
	}
}

func TestRemove(t *testing.T) {
	idx := New()
	e := entry.New(nil, "/a/b.txt", entry.File)
	idx.Add(e)
	idx.Remove(e)
	if idx.Get("/a/b.txt") != nil {
		t.Fatal("entry still present after Remove")
	}
}

func TestEntryRenamedUpdatesPrefixedEntries(t *testing.T) {
	idx := New()
	dir := entry.New(nil, "/a/b/", entry.Directory)
	file := entry.New(nil, "/a/b/c.txt", entry.File)
	idx.Add(dir)
	idx.Add(file)

	idx.EntryRenamed("/a/b/", "/a/c/", true)

	if idx.Get("/a/b/") != nil || idx.Get("/a/b/c.txt") != nil {
		t.Fatal("old paths still present after rename")
	}
	if got := idx.Get("/a/c/"); got != dir {
		t.Fatal("renamed directory lost identity or not re-keyed")
	}
	if got := idx.Get("/a/c/c.txt"); got != file {
		t.Fatal("renamed child lost identity or not re-keyed")
	}
	if dir.Name() != "c" || dir.ParentPath() != "/a/" {
		t.Fatalf("directory not updated: name=%q parent=%q", dir.Name(), dir.ParentPath())
	}
	if file.ParentPath() != "/a/c/" {
		t.Fatalf("child parent path not updated: %q", file.ParentPath())
	}
}

func TestClearAndLen(t *testing.T) {
	idx := New()
	idx.Add(entry.New(nil, "/a.txt", entry.File))
	idx.Add(entry.New(nil, "/b.txt", entry.File))
	if idx.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", idx.Len())
	}
	idx.Clear()
	if idx.Len() != 0 {
		t.Fatal("expected empty index after Clear")
	}
}

func TestRemoveSubtree(t *testing.T) {
	idx := New()
	idx.Add(entry.New(nil, "/a/", entry.Directory))
	idx.Add(entry.New(nil, "/a/b.txt", entry.File))
	idx.Add(entry.New(nil, "/a/c/", entry.Directory))
	idx.Add(entry.New(nil, "/other.txt", entry.File))

	idx.RemoveSubtree("/a/")

	if idx.Get("/a/") != nil || idx.Get("/a/b.txt") != nil || idx.Get("/a/c/") != nil {
		t.Fatal("subtree entries still present")
	}
	if idx.Get("/other.txt") == nil {
		t.Fatal("unrelated entry incorrectly pruned")
	}
}
