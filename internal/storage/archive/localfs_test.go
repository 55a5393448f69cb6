// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"testing"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte(`{"time_key":"2024-03-05","close":382.4}` + "\n")

	require.NoError(t, fs.Write(ctx, "klines/HK/202403/HK.00700_240305.jsonl", data))

	got, err := fs.Read(ctx, "klines/HK/202403/HK.00700_240305.jsonl")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Read(context.Background(), "absent.jsonl")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLocalFS_Exists(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := fs.Exists(ctx, "nonexistent.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Write(ctx, "exists.txt", []byte("data")))
	exists, err = fs.Exists(ctx, "exists.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalFS_List(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "orders/HK/202403/a.jsonl", []byte("a")))
	require.NoError(t, fs.Write(ctx, "orders/HK/202403/b.jsonl", []byte("b")))
	require.NoError(t, fs.Write(ctx, "prompts/c.txt", []byte("c")))

	paths, err := fs.List(ctx, "orders")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders/HK/202403/a.jsonl", "orders/HK/202403/b.jsonl"}, paths)

	paths, err = fs.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalFS_Delete(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "delete.txt", []byte("data")))
	require.NoError(t, fs.Delete(ctx, "delete.txt"))

	exists, err := fs.Exists(ctx, "delete.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalFS_WriteCanceled(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, fs.Write(ctx, "x.txt", []byte("x")), context.Canceled)
}
