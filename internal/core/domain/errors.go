package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown import format or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	// The index and the query were produced by different embedders.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNotReady indicates the vector index has not been built or loaded.
	// Callers may fall back to keyword-only search.
	ErrNotReady = errors.New("vector index not ready")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the document store is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
