package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestNew_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_MkdirAllError(t *testing.T) {
	store, err := New("/dev/null/cannot/create")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestStore_Location(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "chapters.json"), store.Location("chapters"))
}

func TestStore_Load_Missing(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	var v map[string]any
	err = store.Load(context.Background(), "metadata", &v)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveLoad_Chapters(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := map[int]domain.Chapter{
		7: {
			ID:        1,
			ChapterID: 7,
			Title:     "Receiving",
			Content:   domain.BlockContent(domain.TextBlock("scan"), domain.ContentBlock{}),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	require.NoError(t, store.Save(ctx, "chapters", in))

	var out map[int]domain.Chapter
	require.NoError(t, store.Load(ctx, "chapters", &out))
	require.Contains(t, out, 7)
	assert.Equal(t, "Receiving", out[7].Title)
	assert.Equal(t, "scan ", out[7].Content.Flatten())
	assert.True(t, now.Equal(out[7].CreatedAt))
}

func TestStore_Save_PrettyPrinted(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "metadata", map[string]string{"a": "b"}))

	data, err := os.ReadFile(store.Location("metadata"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"b\"\n}", string(data))
}

func TestStore_Save_Overwrites(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "metadata", map[string]int{"a": 1, "b": 2}))
	require.NoError(t, store.Save(ctx, "metadata", map[string]int{"c": 3}))

	var out map[string]int
	require.NoError(t, store.Load(ctx, "metadata", &out))
	assert.Equal(t, map[string]int{"c": 3}, out)
}

func TestStore_Save_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "search_index", []int{1, 2, 3}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "search_index.json", entries[0].Name())
}

func TestStore_Save_FilePermissions(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "embeddings", map[string]any{}))

	info, err := os.Stat(store.Location("embeddings"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_Save_UnencodableKeepsPrevious(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "metadata", map[string]int{"a": 1}))
	err = store.Save(ctx, "metadata", map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	var out map[string]int
	require.NoError(t, store.Load(ctx, "metadata", &out))
	assert.Equal(t, 1, out["a"])
}

func TestStore_Save_CancelledContext(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Save(ctx, "metadata", map[string]int{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Load_Corrupt(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Location("chapters"), []byte("{oops"), 0600))

	var out map[int]domain.Chapter
	err = store.Load(context.Background(), "chapters", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
