package domain

import (
	"fmt"
	"math"
	"time"
)

// EmbeddingRecord is the vector index entry for one chapter.
type EmbeddingRecord struct {
	Embedding   []float32 `json:"embedding"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ModelInfo describes the embedding backend that produced a set of vectors.
type ModelInfo struct {
	Name           string `json:"name"`
	Dimension      int    `json:"dimension"`
	IsLoaded       bool   `json:"isLoaded"`
	VocabularySize int    `json:"vocabularySize"`
}

// VectorStats reports the state of the vector index.
type VectorStats struct {
	TotalEmbeddings int       `json:"total_embeddings"`
	IsInitialized   bool      `json:"is_initialized"`
	Model           ModelInfo `json:"model_info"`
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// Vectors of different length are an embedder mismatch and fail with
// ErrDimensionMismatch. A zero vector on either side yields exactly 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// BuildReport summarises a full vector index rebuild.
type BuildReport struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// EmbeddingText combines a chapter title and content into the text that is
// embedded: the title, a blank line, then the flattened content.
func EmbeddingText(title string, content Content) string {
	if content.Kind() == ContentNone {
		return title
	}
	return title + "\n\n" + content.Flatten()
}
