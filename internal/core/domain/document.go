package domain

// Document is a course material loaded from disk, before chunking.
type Document struct {
	// ID is the stable identifier, derived from the file stem.
	ID string

	// Source is the label used in retrieval headers (usually the file name).
	Source string

	// URI is the original location of the material.
	URI string

	// Content is the extracted plain text.
	Content string

	// Metadata contains arbitrary key-value pairs copied onto every chunk.
	Metadata map[string]any
}

// Chunk represents a retrievable unit stored in a vector collection.
type Chunk struct {
	// ID is deterministic from (source, position) so re-ingesting overwrites.
	ID string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the source document.
	Position int

	// Embedding is the vector representation used for similarity search.
	Embedding []float32

	// Metadata contains the source label, chunk index and extra tags.
	Metadata map[string]any
}

// Metadata keys shared between ingestion and retrieval.
const (
	MetaSource     = "source"
	MetaChunkIndex = "chunk_index"
	MetaFilename   = "filename"
	MetaPostNumber = "post_nr"
	MetaTags       = "tags"
)
