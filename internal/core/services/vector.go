package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// DefaultBuildWorkers is the embedding pool size used when none is configured.
const DefaultBuildWorkers = 4

// embeddingsSnapshot is the persisted form of the vector index.
type embeddingsSnapshot struct {
	Metadata   snapshotMetadata               `json:"metadata"`
	Embeddings map[int]domain.EmbeddingRecord `json:"embeddings"`
}

type snapshotMetadata struct {
	Model           domain.ModelInfo `json:"model"`
	GeneratedAt     time.Time        `json:"generated_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	TotalEmbeddings int              `json:"total_embeddings"`
}

// VectorIndex holds one embedding per chapter and answers similarity queries.
// It is not ready until Build or Load has succeeded.
type VectorIndex struct {
	mu          sync.RWMutex
	embedder    driven.EmbeddingService
	snapshots   driven.SnapshotStore
	entries     map[int]domain.EmbeddingRecord
	ready       bool
	generatedAt time.Time
	workers     int
	now         func() time.Time
}

// NewVectorIndex creates an empty, not-ready vector index.
// A nil snapshot store keeps the index in memory only.
func NewVectorIndex(embedder driven.EmbeddingService, snapshots driven.SnapshotStore, workers int) *VectorIndex {
	if workers <= 0 {
		workers = DefaultBuildWorkers
	}
	return &VectorIndex{
		embedder:  embedder,
		snapshots: snapshots,
		entries:   make(map[int]domain.EmbeddingRecord),
		workers:   workers,
		now:       time.Now,
	}
}

// Ready reports whether the index has been built or loaded.
func (v *VectorIndex) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ready
}

// Build embeds every chapter on a worker pool and replaces the index.
// Chapters that fail to embed are counted in the report and left out.
func (v *VectorIndex) Build(ctx context.Context, chapters []domain.Chapter) (*domain.BuildReport, error) {
	if v.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Building vector index")
	logger.Info("Embedding %d chapters with %s (%d workers)", len(chapters), v.embedder.ModelName(), v.workers)

	pool, err := ants.NewPool(v.workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	generated := v.now()
	records := make([]*domain.EmbeddingRecord, len(chapters))
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var failures int

	for i := range chapters {
		ch := chapters[i]
		idx := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vec, err := v.embedder.Embed(ctx, domain.EmbeddingText(ch.Title, ch.Content))
			if err != nil {
				errMu.Lock()
				failures++
				errMu.Unlock()
				logger.Warn("Embedding chapter %d failed: %v", ch.ChapterID, err)
				return
			}
			records[idx] = &domain.EmbeddingRecord{Embedding: vec, Title: ch.Title, GeneratedAt: generated}
		})
		if submitErr != nil {
			wg.Done()
			errMu.Lock()
			failures++
			errMu.Unlock()
			logger.Warn("Scheduling chapter %d failed: %v", ch.ChapterID, submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make(map[int]domain.EmbeddingRecord, len(chapters))
	for i, rec := range records {
		if rec != nil {
			entries[chapters[i].ChapterID] = *rec
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries = entries
	v.ready = true
	v.generatedAt = generated

	report := &domain.BuildReport{Total: len(chapters), Processed: len(entries), Errors: failures}
	logger.Info("Vector index built: %d processed, %d errors", report.Processed, report.Errors)

	if err := v.persistLocked(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// SemanticSearch ranks chapters by cosine similarity to the embedded query,
// best first. Negative similarities are kept; a similarity of exactly zero
// means no shared vocabulary and is left out.
func (v *VectorIndex) SemanticSearch(ctx context.Context, query string, limit int) ([]domain.RankedResult, error) {
	if !v.Ready() {
		return nil, domain.ErrNotReady
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	queryVec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	v.mu.RLock()
	results := make([]domain.RankedResult, 0, len(v.entries))
	for id, entry := range v.entries {
		sim, err := domain.CosineSimilarity(queryVec, entry.Embedding)
		if err != nil {
			v.mu.RUnlock()
			return nil, fmt.Errorf("chapter %d: %w", id, err)
		}
		if sim == 0 {
			continue
		}
		results = append(results, newRankedResult(id, entry, sim, domain.SearchTypeSemantic))
	}
	v.mu.RUnlock()

	sortRanked(results, func(r domain.RankedResult) float64 { return r.Similarity })
	return truncateRanked(results, limit), nil
}

// KeywordSearch scores each indexed title by the fraction of query words
// it contains as a substring. Chapters matching no word are left out.
func (v *VectorIndex) KeywordSearch(_ context.Context, query string, limit int) ([]domain.RankedResult, error) {
	if !v.Ready() {
		return nil, domain.ErrNotReady
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []domain.RankedResult{}, nil
	}

	v.mu.RLock()
	results := make([]domain.RankedResult, 0)
	for id, entry := range v.entries {
		title := strings.ToLower(entry.Title)
		matches := 0
		for _, word := range words {
			if strings.Contains(title, word) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		sim := float64(matches) / float64(len(words))
		results = append(results, newRankedResult(id, entry, sim, domain.SearchTypeKeyword))
	}
	v.mu.RUnlock()

	sortRanked(results, func(r domain.RankedResult) float64 { return r.Similarity })
	return truncateRanked(results, limit), nil
}

// GetVector returns the embedding record of a chapter.
func (v *VectorIndex) GetVector(_ context.Context, chapterID int) (*domain.EmbeddingRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.ready {
		return nil, domain.ErrNotReady
	}
	entry, ok := v.entries[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// AddOrUpdate embeds one chapter, replaces its entry and persists the index.
func (v *VectorIndex) AddOrUpdate(ctx context.Context, chapterID int, title string, content domain.Content) error {
	if !v.Ready() {
		return domain.ErrNotReady
	}

	vec, err := v.embedder.Embed(ctx, domain.EmbeddingText(title, content))
	if err != nil {
		return fmt.Errorf("embed chapter %d: %w", chapterID, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries[chapterID] = domain.EmbeddingRecord{Embedding: vec, Title: title, GeneratedAt: v.now()}
	logger.Debug("Indexed chapter %d", chapterID)
	return v.persistLocked(ctx)
}

// AddOrUpdateMany embeds several chapters and persists the index once.
// Nothing is replaced when any chapter fails to embed.
func (v *VectorIndex) AddOrUpdateMany(ctx context.Context, chapters []domain.Chapter) error {
	if !v.Ready() {
		return domain.ErrNotReady
	}
	if len(chapters) == 0 {
		return nil
	}

	vectors := make([][]float32, len(chapters))
	for i, ch := range chapters {
		vec, err := v.embedder.Embed(ctx, domain.EmbeddingText(ch.Title, ch.Content))
		if err != nil {
			return fmt.Errorf("embed chapter %d: %w", ch.ChapterID, err)
		}
		vectors[i] = vec
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	generated := v.now()
	for i, ch := range chapters {
		v.entries[ch.ChapterID] = domain.EmbeddingRecord{Embedding: vectors[i], Title: ch.Title, GeneratedAt: generated}
	}
	logger.Debug("Indexed %d chapters", len(chapters))
	return v.persistLocked(ctx)
}

// Remove drops the entry of a chapter and persists the index.
// Removing from an index that is not ready is a no-op.
func (v *VectorIndex) Remove(ctx context.Context, chapterID int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.ready {
		return nil
	}
	if _, ok := v.entries[chapterID]; !ok {
		return nil
	}
	delete(v.entries, chapterID)
	logger.Debug("Unindexed chapter %d", chapterID)
	return v.persistLocked(ctx)
}

// Stats reports the index size, readiness and embedding model.
func (v *VectorIndex) Stats() domain.VectorStats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return domain.VectorStats{
		TotalEmbeddings: len(v.entries),
		IsInitialized:   v.ready,
		Model:           v.modelInfo(),
	}
}

// Persist writes the embeddings snapshot.
func (v *VectorIndex) Persist(ctx context.Context) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.persistLocked(ctx)
}

// Load reads the embeddings snapshot and marks the index ready.
// A missing snapshot leaves the index not ready. An unreadable snapshot is
// logged and treated the same way.
func (v *VectorIndex) Load(ctx context.Context) error {
	if v.snapshots == nil {
		return nil
	}

	var snap embeddingsSnapshot
	if err := v.snapshots.Load(ctx, driven.SnapshotEmbeddings, &snap); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("No embeddings snapshot, vector index not ready")
			return nil
		}
		logger.Warn("Embeddings snapshot %s unreadable, vector index not ready: %v",
			v.snapshots.Location(driven.SnapshotEmbeddings), err)
		return nil
	}

	if snap.Embeddings == nil {
		snap.Embeddings = make(map[int]domain.EmbeddingRecord)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	current := v.modelInfo()
	if snap.Metadata.Model.Dimension != 0 && current.Dimension != 0 &&
		snap.Metadata.Model.Dimension != current.Dimension {
		logger.Warn("Embeddings were built with %s (%d dims) but %s produces %d dims; run 'chapterdex index build'",
			snap.Metadata.Model.Name, snap.Metadata.Model.Dimension, current.Name, current.Dimension)
	}

	v.entries = snap.Embeddings
	v.generatedAt = snap.Metadata.GeneratedAt
	v.ready = true

	logger.Info("Vector index loaded: %d embeddings", len(v.entries))
	return nil
}

// persistLocked writes the snapshot (caller must hold a lock).
func (v *VectorIndex) persistLocked(ctx context.Context) error {
	if v.snapshots == nil {
		return nil
	}

	snap := embeddingsSnapshot{
		Metadata: snapshotMetadata{
			Model:           v.modelInfo(),
			GeneratedAt:     v.generatedAt,
			UpdatedAt:       v.now(),
			TotalEmbeddings: len(v.entries),
		},
		Embeddings: v.entries,
	}

	if err := v.snapshots.Save(ctx, driven.SnapshotEmbeddings, snap); err != nil {
		logger.Warn("Saving embeddings snapshot failed, in-memory index kept: %v", err)
		return fmt.Errorf("save embeddings snapshot: %w", err)
	}
	return nil
}

func (v *VectorIndex) modelInfo() domain.ModelInfo {
	if v.embedder == nil {
		return domain.ModelInfo{}
	}
	if describer, ok := v.embedder.(driven.ModelDescriber); ok {
		return describer.ModelInfo()
	}
	return domain.ModelInfo{
		Name:      v.embedder.ModelName(),
		Dimension: v.embedder.Dimensions(),
		IsLoaded:  true,
	}
}

func newRankedResult(id int, entry domain.EmbeddingRecord, sim float64, t domain.SearchType) domain.RankedResult {
	return domain.RankedResult{
		ChapterID:  id,
		Title:      entry.Title,
		Similarity: sim,
		FinalScore: sim,
		SearchType: t,
		Metadata: domain.ResultMetadata{
			ChapterID:   id,
			GeneratedAt: entry.GeneratedAt,
		},
	}
}

// sortRanked orders by descending score, then ascending chapter id.
func sortRanked(results []domain.RankedResult, score func(domain.RankedResult) float64) {
	sort.Slice(results, func(i, j int) bool {
		si, sj := score(results[i]), score(results[j])
		if si != sj {
			return si > sj
		}
		return results[i].ChapterID < results[j].ChapterID
	})
}

func truncateRanked(results []domain.RankedResult, limit int) []domain.RankedResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
