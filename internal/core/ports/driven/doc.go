// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the bot to function:
//
//   - ForumClient: Reads posts from and writes answers to the Q&A platform
//   - AnsweredStore: Durable dedup ledger of handled posts
//   - LLMService: Drafts the answer text
//   - PromptStore: Persona prompt templates
//
// # Optional Interfaces
//
// These can be nil - the bot then answers without retrieved context:
//
//   - EmbeddingService: Generates vector embeddings for chunks and questions.
//   - VectorStore / VectorIndex: Persistent similarity search collections.
//   - MaterialLoader: Extracts text from course material files for ingestion.
//   - PostProcessor: Splits loaded text into chunks.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
