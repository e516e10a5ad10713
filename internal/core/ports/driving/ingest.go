package driving

import "context"

// Ingestor fills the retrieval collections.
type Ingestor interface {
	// IngestMaterials loads every material under dir whose extension is in exts,
	// chunks it and upserts it into the materials collection.
	IngestMaterials(ctx context.Context, dir string, exts []string) (*IngestStats, error)

	// IngestHistory walks the whole course feed and upserts every answered
	// question as a Q&A pair into the history collection.
	IngestHistory(ctx context.Context) (*IngestStats, error)
}

// IngestStats summarises an ingestion run.
type IngestStats struct {
	// Files is the number of material files or posts inspected.
	Files int

	// Skipped counts inputs ignored (unsupported, empty, unanswered).
	Skipped int

	// Failed counts inputs that errored; they are logged and skipped.
	Failed int

	// Chunks is the number of chunks upserted.
	Chunks int
}
