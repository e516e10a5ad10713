// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements the bot's stores
// through a single database connection:
//
//   - AnsweredStore: The dedup ledger of handled posts
//   - VectorStore: Named cosine-distance collections for retrieval
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Vector Search
//
// Collections are searched exhaustively: every stored vector of the collection
// is scored against the query. Course-sized corpora (a few thousand chunks)
// stay well within a millisecond budget per query.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
