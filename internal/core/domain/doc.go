// Package domain defines the core business entities for chapterdex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chapter: A titled unit of documentation with its content variant
//   - SearchRecord: The lexical index entry derived from a chapter
//   - EmbeddingRecord: The vector index entry derived from a chapter
//   - RankedResult: A hit from the vector index or hybrid ranker
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
