package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
)

func newTestDocumentStore(t *testing.T) (*DocumentStore, *memory.SnapshotStore) {
	t.Helper()
	snapshots := memory.NewSnapshotStore()
	return NewDocumentStore(snapshots), snapshots
}

func receivingInput() domain.ChapterInput {
	return domain.ChapterInput{
		ChapterID:   1,
		Title:       "Receiving goods",
		Content:     domain.TextContent("Receiving process description"),
		TablesCount: 1,
	}
}

func TestNewDocumentStore(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	require.NotNil(t, store)

	stats, err := store.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChapters)
}

func TestDocumentStore_ReceivingScenario(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))

	results, err := store.SearchChapters(ctx, "receiving", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Chapter.ChapterID)
	assert.Equal(t, 11, results[0].Score)

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChapters)
	assert.Equal(t, 1, stats.ChaptersWithContent)
	assert.Equal(t, 1, stats.ChaptersWithTables)
	assert.Equal(t, 1, stats.TotalTables)
	assert.Equal(t, 0, stats.ChaptersWithImages)
	assert.Equal(t, 1, stats.TotalContentLines)
}

func TestDocumentStore_UpsertChapter_Validation(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input domain.ChapterInput
	}{
		{"missing chapter id", domain.ChapterInput{Title: "x"}},
		{"blank title", domain.ChapterInput{ChapterID: 1, Title: "  "}},
		{"negative tables", domain.ChapterInput{ChapterID: 1, Title: "x", TablesCount: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpsertChapter(ctx, tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	all, err := store.AllChapters(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 0, snapshots.Saves())
}

func TestDocumentStore_UpsertChapter_LastWriteWins(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	store.now = func() time.Time { return created }
	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))

	store.now = func() time.Time { return updated }
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 1,
		Title:     "Shipping",
		Content:   domain.TextContent("line one\nline two"),
	}))

	ch, err := store.GetChapter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Shipping", ch.Title)
	assert.Equal(t, 1, ch.ID)
	assert.Equal(t, 2, ch.ContentLines)
	assert.Equal(t, 0, ch.TablesCount)
	assert.True(t, created.Equal(ch.CreatedAt))
	assert.True(t, updated.Equal(ch.UpdatedAt))

	// The old title must no longer be searchable.
	results, err := store.SearchChapters(ctx, "receiving goods", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocumentStore_UpsertChapter_SequentialIDs(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	for _, id := range []int{30, 10, 20} {
		require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: id, Title: "t"}))
	}

	for want, chapterID := range map[int]int{1: 30, 2: 10, 3: 20} {
		ch, err := store.GetChapter(ctx, chapterID)
		require.NoError(t, err)
		assert.Equal(t, want, ch.ID)
	}
}

func TestDocumentStore_UpsertChapter_ExplicitContentLines(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID:    5,
		Title:        "Blocks",
		Content:      domain.BlockContent(domain.TextBlock("a"), domain.TextBlock("b")),
		ContentLines: 42,
	}))

	ch, err := store.GetChapter(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 42, ch.ContentLines)
}

func TestDocumentStore_UpsertChapters(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()

	result, err := store.UpsertChapters(ctx, []domain.ChapterInput{
		receivingInput(),
		{ChapterID: 2, Title: "  "},
		{ChapterID: 3, Title: "Inventory", Content: domain.TextContent("a\nb")},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, 2, result.Errors[0].ChapterID)

	// One write of each snapshot for the whole batch.
	assert.Equal(t, 3, snapshots.Saves())

	ch, err := store.GetChapter(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.ContentLines)
}

func TestDocumentStore_UpsertChapters_AllInvalid(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)

	result, err := store.UpsertChapters(context.Background(), []domain.ChapterInput{{Title: "No id"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 0, snapshots.Saves())
}

func TestDocumentStore_GetChapter_NotFound(t *testing.T) {
	store, _ := newTestDocumentStore(t)

	ch, err := store.GetChapter(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, ch)
}

func TestDocumentStore_DeleteChapter(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))
	saves := snapshots.Saves()

	deleted, err := store.DeleteChapter(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Greater(t, snapshots.Saves(), saves)

	_, err = store.GetChapter(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := store.SearchChapters(ctx, "receiving", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	deleted, err = store.DeleteChapter(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDocumentStore_ListChapters_Pagination(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	for id := 1; id <= 7; id++ {
		require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: id, Title: "Chapter"}))
	}

	var seen []int
	for page := 1; page <= 3; page++ {
		result, err := store.ListChapters(ctx, page, 3, "")
		require.NoError(t, err)
		assert.Equal(t, 7, result.Pagination.Total)
		assert.Equal(t, 3, result.Pagination.Pages)
		for _, ch := range result.Chapters {
			seen = append(seen, ch.ChapterID)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)

	beyond, err := store.ListChapters(ctx, 10, 3, "")
	require.NoError(t, err)
	assert.Empty(t, beyond.Chapters)
}

func TestDocumentStore_ListChapters_HugePageOrLimit(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	for id := 1; id <= 3; id++ {
		require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{ChapterID: id, Title: "Chapter"}))
	}

	tests := []struct {
		name      string
		page      int
		limit     int
		wantCount int
		wantPages int
	}{
		{"page overflows offset", 1 << 62, 4, 0, 1},
		{"max page", math.MaxInt, 1, 0, 3},
		{"max limit", 1, math.MaxInt, 3, 1},
		{"max page and limit", math.MaxInt, math.MaxInt, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.ListChapters(ctx, tt.page, tt.limit, "")

			require.NoError(t, err)
			assert.Len(t, result.Chapters, tt.wantCount)
			assert.Equal(t, 3, result.Pagination.Total)
			assert.Equal(t, tt.wantPages, result.Pagination.Pages)
			assert.Equal(t, tt.page, result.Pagination.Page)
		})
	}
}

func TestDocumentStore_ListChapters_Defaults(t *testing.T) {
	store, _ := newTestDocumentStore(t)

	result, err := store.ListChapters(context.Background(), 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, DefaultPageLimit, result.Pagination.Limit)
	assert.Equal(t, 0, result.Pagination.Pages)
	assert.Empty(t, result.Chapters)
}

func TestDocumentStore_ListChapters_Search(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 2, Title: "Printing", Content: domain.TextContent("Label PRINTER setup"),
	}))

	result, err := store.ListChapters(ctx, 1, 10, "printer")
	require.NoError(t, err)
	require.Len(t, result.Chapters, 1)
	assert.Equal(t, 2, result.Chapters[0].ChapterID)
	assert.Equal(t, 1, result.Pagination.Total)
}

func TestDocumentStore_SearchChapters_Ordering(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 3, Title: "Other", Content: domain.TextContent("mentions scanner once"),
	}))
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 2, Title: "Scanner", Content: domain.TextContent("scanner setup"),
	}))
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 1, Title: "More", Content: domain.TextContent("scanner too"),
	}))

	results, err := store.SearchChapters(ctx, "Scanner", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Chapter.ChapterID)
	assert.Equal(t, 11, results[0].Score)
	// Equal scores fall back to ascending chapter id.
	assert.Equal(t, 1, results[1].Chapter.ChapterID)
	assert.Equal(t, 3, results[2].Chapter.ChapterID)

	limited, err := store.SearchChapters(ctx, "scanner", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDocumentStore_SearchChapters_EmptyQuery(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))

	results, err := store.SearchChapters(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocumentStore_Metadata(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	_, err := store.GetMetadata(ctx, "document_title")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SetMetadata(ctx, "document_title", "Manual"))
	require.NoError(t, store.SetMetadata(ctx, "document_title", "Manual v2"))

	value, err := store.GetMetadata(ctx, "document_title")
	require.NoError(t, err)
	assert.Equal(t, "Manual v2", value)

	assert.ErrorIs(t, store.SetMetadata(ctx, "", "x"), domain.ErrInvalidInput)
}

func TestDocumentStore_DocumentInfo(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	ctx := context.Background()

	info, err := store.DocumentInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDocumentTitle, info.Title)
	assert.Nil(t, info.PageCount)

	require.NoError(t, store.SetMetadata(ctx, domain.MetaDocumentTitle, "Mobile SMARTS"))
	require.NoError(t, store.SetMetadata(ctx, domain.MetaPageCount, "120"))
	require.NoError(t, store.SetMetadata(ctx, domain.MetaFileSize, "not a number"))

	info, err = store.DocumentInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mobile SMARTS", info.Title)
	require.NotNil(t, info.PageCount)
	assert.Equal(t, 120, *info.PageCount)
	assert.Nil(t, info.FileSize)
}

func TestDocumentStore_LoadRoundTrip(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))
	require.NoError(t, store.UpsertChapter(ctx, domain.ChapterInput{
		ChapterID: 9,
		Title:     "Blocks",
		Content:   domain.BlockContent(domain.TextBlock("scan"), domain.ContentBlock{Extra: map[string]any{"type": "image"}}),
	}))
	require.NoError(t, store.SetMetadata(ctx, "document_title", "Manual"))

	reloaded := NewDocumentStore(snapshots)
	require.NoError(t, reloaded.Load(ctx))

	ch, err := reloaded.GetChapter(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.ID)
	assert.Equal(t, "scan ", ch.Content.Flatten())

	results, err := reloaded.SearchChapters(ctx, "receiving", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	value, err := reloaded.GetMetadata(ctx, "document_title")
	require.NoError(t, err)
	assert.Equal(t, "Manual", value)

	// Next sequential id continues after the loaded maximum.
	require.NoError(t, reloaded.UpsertChapter(ctx, domain.ChapterInput{ChapterID: 50, Title: "New"}))
	ch, err = reloaded.GetChapter(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, ch.ID)
}

func TestDocumentStore_Load_RebuildsMissingSearchIndex(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))

	snapshots.PutRaw(driven.SnapshotSearchIndex, []byte("{corrupt"))

	reloaded := NewDocumentStore(snapshots)
	require.NoError(t, reloaded.Load(ctx))

	results, err := reloaded.SearchChapters(ctx, "receiving", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDocumentStore_Load_Empty(t *testing.T) {
	store, _ := newTestDocumentStore(t)
	require.NoError(t, store.Load(context.Background()))

	all, err := store.AllChapters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDocumentStore_SaveFailureKeepsMemoryState(t *testing.T) {
	store, snapshots := newTestDocumentStore(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	snapshots.FailSaves(boom)

	err := store.UpsertChapter(ctx, receivingInput())
	assert.ErrorIs(t, err, boom)

	ch, err := store.GetChapter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Receiving goods", ch.Title)
}

func TestDocumentStore_NilSnapshots(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.UpsertChapter(ctx, receivingInput()))

	all, err := store.AllChapters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
