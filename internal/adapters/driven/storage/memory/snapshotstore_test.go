package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestNewSnapshotStore(t *testing.T) {
	store := NewSnapshotStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.snapshots)
	assert.Equal(t, 0, store.Saves())
}

func TestSnapshotStore_Load_Missing(t *testing.T) {
	store := NewSnapshotStore()

	var v map[string]string
	err := store.Load(context.Background(), "chapters", &v)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	in := map[int]domain.MetadataEntry{1: {Value: "one"}}
	require.NoError(t, store.Save(ctx, "metadata", in))

	var out map[int]domain.MetadataEntry
	require.NoError(t, store.Load(ctx, "metadata", &out))
	assert.Equal(t, "one", out[1].Value)
	assert.Equal(t, 1, store.Saves())
}

func TestSnapshotStore_Load_Corrupt(t *testing.T) {
	store := NewSnapshotStore()
	store.PutRaw("chapters", []byte("{not json"))

	var v map[string]any
	err := store.Load(context.Background(), "chapters", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_FailSaves(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	boom := errors.New("disk full")

	store.FailSaves(boom)
	assert.ErrorIs(t, store.Save(ctx, "chapters", 1), boom)
	assert.Nil(t, store.Raw("chapters"))

	store.FailSaves(nil)
	require.NoError(t, store.Save(ctx, "chapters", 1))
	assert.Equal(t, "1", string(store.Raw("chapters")))
}

func TestSnapshotStore_Location(t *testing.T) {
	assert.Equal(t, "memory://embeddings", NewSnapshotStore().Location("embeddings"))
}

func TestSnapshotStore_ConcurrentAccess(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Save(ctx, "chapters", n)
		}(i)
		go func() {
			defer wg.Done()
			var v int
			_ = store.Load(ctx, "chapters", &v)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Saves())
}
