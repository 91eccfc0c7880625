package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/hashvocab"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
)

// gatedEmbedder blocks every Embed call until release is closed and
// closes started on the first call.
type gatedEmbedder struct {
	driven.EmbeddingService
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedEmbedder() *gatedEmbedder {
	return &gatedEmbedder{
		EmbeddingService: hashvocab.NewEmbeddingService(hashvocab.Config{}),
		started:          make(chan struct{}),
		release:          make(chan struct{}),
	}
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.EmbeddingService.Embed(ctx, text)
}

func newTestIndexService(t *testing.T) (*IndexService, *DocumentStore, *VectorIndex) {
	t.Helper()
	snapshots := memory.NewSnapshotStore()
	embedder := hashvocab.NewEmbeddingService(hashvocab.Config{})
	store := NewDocumentStore(snapshots)
	vectors := NewVectorIndex(embedder, snapshots, 2)
	return NewIndexService(store, vectors, embedder), store, vectors
}

func TestIndexService_Rebuild(t *testing.T) {
	svc, store, vectors := newTestIndexService(t)
	ctx := context.Background()

	for _, ch := range testChapters() {
		require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
			ChapterID: ch.ChapterID, Title: ch.Title, Content: ch.Content,
		}))
	}

	report, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.True(t, vectors.Ready())

	stats := svc.Stats(ctx)
	assert.Equal(t, 3, stats.TotalEmbeddings)
	assert.True(t, stats.IsInitialized)
}

func TestIndexService_UpsertDoesNotReembed(t *testing.T) {
	svc, store, _ := newTestIndexService(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: 1, Title: "Склад"}))
	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	before, err := svc.GetVector(ctx, 1)
	require.NoError(t, err)

	// A plain upsert leaves the embedding stale.
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: 1, Title: "Принтер"}))
	stale, err := svc.GetVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Embedding, stale.Embedding)
	assert.Equal(t, "Склад", stale.Title)

	// The explicit path re-embeds.
	require.NoError(t, svc.UpsertAndIndex(ctx, domain.ChapterInput{ChapterID: 1, Title: "Принтер"}))
	fresh, err := svc.GetVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Принтер", fresh.Title)
	assert.Equal(t, hashvocab.TermVector("принтер", 128), fresh.Embedding)
}

func TestIndexService_UpsertAndIndex_NotReady(t *testing.T) {
	svc, store, vectors := newTestIndexService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertAndIndex(ctx, receivingInput()))
	assert.False(t, vectors.Ready())

	_, err := store.GetChapter(ctx, 1)
	assert.NoError(t, err)
}

func TestIndexService_UpsertAndIndex_Invalid(t *testing.T) {
	svc, _, _ := newTestIndexService(t)

	err := svc.UpsertAndIndex(context.Background(), domain.ChapterInput{ChapterID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexService_DeleteAndUnindex(t *testing.T) {
	svc, _, vectors := newTestIndexService(t)
	ctx := context.Background()

	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.UpsertAndIndex(ctx, receivingInput()))
	assert.Equal(t, 1, vectors.Stats().TotalEmbeddings)

	deleted, err := svc.DeleteAndUnindex(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, vectors.Stats().TotalEmbeddings)

	deleted, err = svc.DeleteAndUnindex(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestIndexService_ExpandVocabulary(t *testing.T) {
	svc, _, _ := newTestIndexService(t)
	ctx := context.Background()

	added, err := svc.ExpandVocabulary(ctx, []string{"pallet", "склад"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, len(hashvocab.BaseVocabulary)+1, svc.Stats(ctx).Model.VocabularySize)
}

func TestIndexService_ExpandVocabulary_Unsupported(t *testing.T) {
	svc := NewIndexService(NewDocumentStore(nil), nil, nil)

	_, err := svc.ExpandVocabulary(context.Background(), []string{"pallet"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIndexService_NoVectorIndex(t *testing.T) {
	svc := NewIndexService(NewDocumentStore(nil), nil, nil)
	ctx := context.Background()

	_, err := svc.Rebuild(ctx)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	_, err = svc.GetVector(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	require.NoError(t, svc.UpsertAndIndex(ctx, receivingInput()))
	assert.Equal(t, domain.VectorStats{}, svc.Stats(ctx))
}

func TestIndexService_UpsertDuringRebuildIsKept(t *testing.T) {
	snapshots := memory.NewSnapshotStore()
	embedder := newGatedEmbedder()
	store := NewDocumentStore(snapshots)
	vectors := NewVectorIndex(embedder, snapshots, 1)
	svc := NewIndexService(store, vectors, embedder)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: 1, Title: "Склад"}))

	rebuilt := make(chan error, 1)
	go func() {
		_, err := svc.Rebuild(ctx)
		rebuilt <- err
	}()
	<-embedder.started

	upserted := make(chan error, 1)
	go func() {
		upserted <- svc.UpsertAndIndex(ctx, domain.ChapterInput{ChapterID: 2, Title: "Принтер"})
	}()

	// The write waits for the rebuild in flight.
	select {
	case <-upserted:
		t.Fatal("upsert finished while the rebuild was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(embedder.release)
	require.NoError(t, <-rebuilt)
	require.NoError(t, <-upserted)

	_, err := store.GetChapter(ctx, 2)
	require.NoError(t, err)
	rec, err := vectors.GetVector(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Принтер", rec.Title)
	assert.Equal(t, 2, vectors.Stats().TotalEmbeddings)
}

func TestIndexService_UpsertChaptersAndIndex(t *testing.T) {
	svc, store, vectors := newTestIndexService(t)
	ctx := context.Background()

	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	result, err := svc.UpsertChaptersAndIndex(ctx, []domain.ChapterInput{
		{ChapterID: 1, Title: "Склад", Content: domain.TextContent("склад")},
		{ChapterID: 2},
		{ChapterID: 3, Title: "Принтер"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	assert.Equal(t, 2, vectors.Stats().TotalEmbeddings)
	rec, err := vectors.GetVector(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, hashvocab.TermVector("принтер", 128), rec.Embedding)
	_, err = vectors.GetVector(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetChapter(ctx, 1)
	assert.NoError(t, err)
}

func TestIndexService_UpsertChaptersAndIndex_NotReady(t *testing.T) {
	svc, store, vectors := newTestIndexService(t)
	ctx := context.Background()

	result, err := svc.UpsertChaptersAndIndex(ctx, []domain.ChapterInput{receivingInput()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.False(t, vectors.Ready())

	_, err = store.GetChapter(ctx, 1)
	assert.NoError(t, err)
}
