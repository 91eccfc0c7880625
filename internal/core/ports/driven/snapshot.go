package driven

import "context"

// Snapshot names used by the core. Each maps to one file in the data directory.
const (
	SnapshotChapters    = "chapters"
	SnapshotMetadata    = "metadata"
	SnapshotSearchIndex = "search_index"
	SnapshotEmbeddings  = "embeddings"
)

// SnapshotStore persists whole in-memory tables as named snapshots.
// Every Save rewrites the complete snapshot; there is no append log.
type SnapshotStore interface {
	// Load decodes the named snapshot into v.
	// Returns domain.ErrNotFound if the snapshot has never been written.
	Load(ctx context.Context, name string, v any) error

	// Save encodes v and replaces the named snapshot.
	// Implementations must not leave a truncated snapshot behind on failure.
	Save(ctx context.Context, name string, v any) error

	// Location returns a human-readable location for the named snapshot.
	Location(name string) string
}
