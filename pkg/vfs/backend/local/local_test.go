package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watchfs/watchfs/pkg/logging"
	"github.com/watchfs/watchfs/pkg/vfs/backend/local"
)

func TestStatAndReaddir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	b, err := local.New(logging.RootLogger)
	require.NoError(t, err)
	ctx := context.Background()

	st, err := b.Stat(ctx, dir)
	require.NoError(t, err)
	require.False(t, st.IsFile)

	names, stats, err := b.Readdir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, names, 2)
	require.Len(t, stats, 2)
}

func TestWatchPathReportsRename(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))

	b, err := local.New(logging.RootLogger)
	require.NoError(t, err)

	changes, _ := b.InitWatchers()
	ctx := context.Background()
	require.NoError(t, b.WatchPath(ctx, dir))

	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, b.Rename(ctx, oldPath, newPath))

	select {
	case c := <-changes:
		require.NotEmpty(t, c.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rename change notification")
	}

	b.UnwatchAll()
}

func TestRecursiveWatchIsFalse(t *testing.T) {
	b, err := local.New(logging.RootLogger)
	require.NoError(t, err)
	require.False(t, b.RecursiveWatch())
}
