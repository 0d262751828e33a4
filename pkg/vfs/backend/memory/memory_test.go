package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/watchfs/watchfs/pkg/vfs/backend"
	"github.com/watchfs/watchfs/pkg/vfs/backend/memory"
)

func TestBackendCapabilities(t *testing.T) {
	b := memory.New()
	require.False(t, b.RecursiveWatch())
	require.False(t, b.NormalizeUNCPaths())
}

func TestStatAndReaddir(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.MakeDirectory("/proj/"))
	require.NoError(t, b.MakeFile("/proj/a.txt", 10))
	require.NoError(t, b.MakeFile("/proj/b.txt", 20))

	ctx := context.Background()

	st, err := b.Stat(ctx, "/proj/a.txt")
	require.NoError(t, err)
	require.True(t, st.IsFile)
	require.EqualValues(t, 10, st.Size)

	names, stats, err := b.Readdir(ctx, "/proj/")
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, names)
	require.Len(t, stats, 2)
}

func TestStatMissingPath(t *testing.T) {
	b := memory.New()
	_, err := b.Stat(context.Background(), "/nope")
	require.ErrorIs(t, err, memory.ErrNotExist)
}

func TestRenameEmitsDeleteThenAdd(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.MakeDirectory("/proj/"))
	require.NoError(t, b.MakeFile("/proj/a.txt", 1))

	changes, _ := b.InitWatchers()
	ctx := context.Background()
	require.NoError(t, b.WatchPath(ctx, "/proj/"))

	require.NoError(t, b.Rename(ctx, "/proj/a.txt", "/proj/c.txt"))

	first := <-changes
	require.Equal(t, "/proj/a.txt", first.Path)
	require.Nil(t, first.Stat)

	second := <-changes
	require.Equal(t, "/proj/c.txt", second.Path)
	require.NotNil(t, second.Stat)
	require.True(t, second.Stat.IsFile)
}

func TestUnwatchedPathsDoNotEmit(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.MakeDirectory("/proj/"))

	changes, _ := b.InitWatchers()
	require.NoError(t, b.MakeFile("/proj/unwatched.txt", 1))

	select {
	case c := <-changes:
		t.Fatalf("unexpected change for unwatched path: %+v", c)
	default:
	}
}

func TestOfflineClosesChannel(t *testing.T) {
	b := memory.New()
	_, offline := b.InitWatchers()
	b.Offline()
	_, ok := <-offline
	require.False(t, ok)
}

func TestStatsFresh(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.MakeFile("/f.txt", 1))
	st, err := b.Stat(context.Background(), "/f.txt")
	require.NoError(t, err)
	require.True(t, backend.StatsFresh(st, st))
	require.False(t, backend.StatsFresh(st, nil))
}

func TestDialogsReturnWithoutError(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	selection, err := b.ShowOpenDialog(ctx, false, false, "Open", "/", nil)
	require.NoError(t, err)
	require.Empty(t, selection)

	chosen, err := b.ShowSaveDialog(ctx, "Save", "/proj/", "new.txt")
	require.NoError(t, err)
	require.Equal(t, "/proj/new.txt", chosen)
}
