package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// Ensure DocumentStore implements the interface.
var _ driving.ChapterService = (*DocumentStore)(nil)

// Listing and search defaults.
const (
	DefaultPageLimit   = 20
	DefaultSearchLimit = 10
)

// DocumentStore is the chapter and metadata repository of record.
// It owns the chapter table, the metadata table and the lexical index,
// and rewrites all three snapshots after every mutation.
type DocumentStore struct {
	mu        sync.RWMutex
	snapshots driven.SnapshotStore
	chapters  map[int]domain.Chapter
	metadata  map[string]domain.MetadataEntry
	lexical   *LexicalIndex
	nextID    int
	now       func() time.Time
}

// NewDocumentStore creates an empty document store persisting through snapshots.
// A nil snapshot store keeps everything in memory.
func NewDocumentStore(snapshots driven.SnapshotStore) *DocumentStore {
	return &DocumentStore{
		snapshots: snapshots,
		chapters:  make(map[int]domain.Chapter),
		metadata:  make(map[string]domain.MetadataEntry),
		lexical:   NewLexicalIndex(),
		nextID:    1,
		now:       time.Now,
	}
}

// Load reads the chapter, metadata and search index snapshots.
// Missing snapshots leave the table empty. Unreadable snapshots are logged
// and also treated as empty so the store keeps serving in degraded mode.
func (s *DocumentStore) Load(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chapters := make(map[int]domain.Chapter)
	s.loadSnapshot(ctx, driven.SnapshotChapters, &chapters)
	metadata := make(map[string]domain.MetadataEntry)
	s.loadSnapshot(ctx, driven.SnapshotMetadata, &metadata)
	records := make(map[int]domain.SearchRecord)
	indexLoaded := s.loadSnapshot(ctx, driven.SnapshotSearchIndex, &records)

	s.chapters = chapters
	s.metadata = metadata
	s.lexical.Replace(records)

	s.nextID = 1
	for _, ch := range s.chapters {
		if ch.ID >= s.nextID {
			s.nextID = ch.ID + 1
		}
	}

	// Regenerate records the index snapshot does not cover.
	if !indexLoaded || s.lexical.Len() != len(s.chapters) {
		now := s.now()
		for id := range s.chapters {
			if _, ok := s.lexical.Get(id); !ok {
				ch := s.chapters[id]
				s.lexical.Put(&ch, now)
			}
		}
	}

	logger.Info("Document store loaded: %d chapters, %d metadata keys", len(s.chapters), len(s.metadata))
	return nil
}

// loadSnapshot reports whether the snapshot was read successfully.
func (s *DocumentStore) loadSnapshot(ctx context.Context, name string, v any) bool {
	err := s.snapshots.Load(ctx, name, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Snapshot %s not found, starting empty", name)
	default:
		logger.Warn("Snapshot %s unreadable, starting empty: %v", s.snapshots.Location(name), err)
	}
	return false
}

// save rewrites every snapshot (caller must hold the write lock).
func (s *DocumentStore) save(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Save(ctx, driven.SnapshotChapters, s.chapters); err != nil {
		return s.saveFailed(driven.SnapshotChapters, err)
	}
	if err := s.snapshots.Save(ctx, driven.SnapshotMetadata, s.metadata); err != nil {
		return s.saveFailed(driven.SnapshotMetadata, err)
	}
	if err := s.snapshots.Save(ctx, driven.SnapshotSearchIndex, s.lexical.Records()); err != nil {
		return s.saveFailed(driven.SnapshotSearchIndex, err)
	}
	return nil
}

func (s *DocumentStore) saveFailed(name string, err error) error {
	logger.Warn("Saving snapshot %s failed, in-memory state kept: %v", s.snapshots.Location(name), err)
	return fmt.Errorf("save %s snapshot: %w", name, err)
}

// UpsertChapter validates and stores a chapter, replacing any chapter with
// the same ChapterID. The search record is regenerated; embeddings are not.
func (s *DocumentStore) UpsertChapter(ctx context.Context, input domain.ChapterInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(input)
	return s.save(ctx)
}

// UpsertChapters stores every valid input and writes the snapshots once.
func (s *DocumentStore) UpsertChapters(
	ctx context.Context, inputs []domain.ChapterInput,
) (*domain.BulkResult, error) {
	result := &domain.BulkResult{Total: len(inputs), Errors: []domain.BulkError{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, input := range inputs {
		if err := input.Validate(); err != nil {
			result.Errors = append(result.Errors, domain.BulkError{
				Index:     i,
				ChapterID: input.ChapterID,
				Error:     err.Error(),
			})
			result.ErrorCount++
			continue
		}
		s.putLocked(input)
		result.SuccessCount++
	}

	logger.Debug("Bulk upsert: %d stored, %d rejected", result.SuccessCount, result.ErrorCount)
	if result.SuccessCount == 0 {
		return result, nil
	}
	return result, s.save(ctx)
}

// putLocked writes a validated chapter (caller must hold the write lock).
func (s *DocumentStore) putLocked(input domain.ChapterInput) {
	now := s.now()
	ch := domain.Chapter{
		ChapterID:    input.ChapterID,
		Title:        input.Title,
		Content:      input.Content,
		PageStart:    input.PageStart,
		ContentLines: input.ContentLines,
		ImagesCount:  input.ImagesCount,
		TablesCount:  input.TablesCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ch.ContentLines == 0 {
		ch.ContentLines = input.Content.Lines()
	}

	if existing, ok := s.chapters[input.ChapterID]; ok {
		ch.ID = existing.ID
		ch.CreatedAt = existing.CreatedAt
	} else {
		ch.ID = s.nextID
		s.nextID++
	}

	s.chapters[ch.ChapterID] = ch
	s.lexical.Put(&ch, now)
	logger.Debug("Upserted chapter %d (%q)", ch.ChapterID, ch.Title)
}

// GetChapter retrieves a chapter by ChapterID.
func (s *DocumentStore) GetChapter(_ context.Context, chapterID int) (*domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.chapters[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ch, nil
}

// DeleteChapter removes a chapter together with its search record.
// The snapshot write completes before DeleteChapter returns.
func (s *DocumentStore) DeleteChapter(ctx context.Context, chapterID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chapters[chapterID]; !ok {
		s.lexical.Remove(chapterID)
		return false, nil
	}

	delete(s.chapters, chapterID)
	s.lexical.Remove(chapterID)

	logger.Debug("Deleted chapter %d", chapterID)
	return true, s.save(ctx)
}

// ListChapters returns one page of chapters sorted by ChapterID.
// A non-empty search keeps chapters whose title or content contains it.
func (s *DocumentStore) ListChapters(
	_ context.Context, page, limit int, search string,
) (*domain.ChapterPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}

	s.mu.RLock()
	chapters := make([]domain.Chapter, 0, len(s.chapters))
	needle := strings.ToLower(search)
	for id := range s.chapters {
		ch := s.chapters[id]
		if needle != "" &&
			!strings.Contains(strings.ToLower(ch.Title), needle) &&
			!strings.Contains(strings.ToLower(ch.Content.Flatten()), needle) {
			continue
		}
		chapters = append(chapters, ch)
	}
	s.mu.RUnlock()

	sortByChapterID(chapters)

	total := len(chapters)
	offset, end := pageBounds(total, page, limit)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	return &domain.ChapterPage{
		Chapters: chapters[offset:end],
		Pagination: domain.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// pageBounds returns the slice bounds of a page within total items.
// Pages past the end are empty; page and limit are positive.
func pageBounds(total, page, limit int) (offset, end int) {
	if page-1 > total/limit {
		return total, total
	}
	offset = min((page-1)*limit, total)
	if limit >= total-offset {
		return offset, total
	}
	return offset, offset + limit
}

// SearchChapters returns chapters whose search text contains the query,
// ordered by descending relevance score and then ascending ChapterID.
func (s *DocumentStore) SearchChapters(
	_ context.Context, query string, limit int,
) ([]domain.ScoredChapter, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.ScoredChapter{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	ids := s.lexical.Match(q)
	results := make([]domain.ScoredChapter, 0, len(ids))
	for _, id := range ids {
		ch, ok := s.chapters[id]
		if !ok {
			continue
		}
		results = append(results, domain.ScoredChapter{
			Chapter: ch,
			Score:   RelevanceScore(&ch, q),
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chapter.ChapterID < results[j].Chapter.ChapterID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	logger.Debug("Chapter search %q: %d results", q, len(results))
	return results, nil
}

// AllChapters returns every chapter sorted by ChapterID.
func (s *DocumentStore) AllChapters(_ context.Context) ([]domain.Chapter, error) {
	s.mu.RLock()
	chapters := make([]domain.Chapter, 0, len(s.chapters))
	for id := range s.chapters {
		chapters = append(chapters, s.chapters[id])
	}
	s.mu.RUnlock()

	sortByChapterID(chapters)
	return chapters, nil
}

// Statistics aggregates counts over all chapters.
func (s *DocumentStore) Statistics(_ context.Context) (*domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Statistics{TotalChapters: len(s.chapters)}
	for id := range s.chapters {
		ch := s.chapters[id]
		if ch.Content.HasText() {
			stats.ChaptersWithContent++
		}
		if ch.TablesCount > 0 {
			stats.ChaptersWithTables++
		}
		if ch.ImagesCount > 0 {
			stats.ChaptersWithImages++
		}
		stats.TotalContentLines += ch.ContentLines
		stats.TotalTables += ch.TablesCount
		stats.TotalImages += ch.ImagesCount
	}
	return stats, nil
}

// SetMetadata upserts a metadata value, keeping the original creation time.
func (s *DocumentStore) SetMetadata(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: metadata key is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := domain.MetadataEntry{Value: value, CreatedAt: now, UpdatedAt: now}
	if existing, ok := s.metadata[key]; ok {
		entry.CreatedAt = existing.CreatedAt
	}
	s.metadata[key] = entry

	return s.save(ctx)
}

// GetMetadata reads a metadata value.
func (s *DocumentStore) GetMetadata(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.metadata[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return entry.Value, nil
}

// DocumentInfo summarises the imported document from metadata.
func (s *DocumentStore) DocumentInfo(ctx context.Context) (*domain.DocumentInfo, error) {
	info := &domain.DocumentInfo{Title: domain.DefaultDocumentTitle}
	if title, err := s.GetMetadata(ctx, domain.MetaDocumentTitle); err == nil && title != "" {
		info.Title = title
	}
	info.PageCount = s.metadataInt(ctx, domain.MetaPageCount)
	info.FileSize = s.metadataInt(ctx, domain.MetaFileSize)
	info.TotalChapters = s.metadataInt(ctx, domain.MetaTotalChapters)
	info.ChaptersWithContent = s.metadataInt(ctx, domain.MetaChaptersWithContent)
	return info, nil
}

func (s *DocumentStore) metadataInt(ctx context.Context, key string) *int {
	raw, err := s.GetMetadata(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

func sortByChapterID(chapters []domain.Chapter) {
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].ChapterID < chapters[j].ChapterID
	})
}
