// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - EmbeddingService: Turns fragments and queries into vectors
//   - VectorStore: Remote nearest-neighbour index (Pinecone, or in-memory offline)
//   - LLMService: Completion provider that answers from assembled context
//   - Chunker: Splits entity records into fragments
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ConversationStore: Session history persistence. Defaults to in-memory.
//   - IndexRunStore: Indexing audit trail. Without it, runs are not recorded.
//   - EntitySource: Reads entity records from files for the CLI.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
