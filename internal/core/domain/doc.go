// Package domain defines the core business entities for tutorbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Post: A forum thread fetched from the Q&A platform
//   - AnsweredRecord: A ledger row marking a post as handled
//   - Document: A course material loaded for ingestion
//   - Chunk: A retrievable slice of a document or past Q&A
//   - RetrievalResult: A scored chunk returned by a similarity query
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
