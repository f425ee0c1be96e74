// Package knowledge persists document chunks and their embeddings in
// PostgreSQL with pgvector, and performs nearest-neighbor similarity search.
//
// The store owns no business logic: chunking, embedding and retrieval policy
// live in the ingest and rag packages. Every chunk row is identified by its
// (source, chunk_index) pair; inserts for one source are transactional so a
// failed ingestion never leaves partial rows behind.
package knowledge

import "errors"

// ErrStorage indicates the persistence layer is unavailable or rejected an
// operation. Wrapped by every failing store method; never silently ignored.
var ErrStorage = errors.New("storage error")

// Chunk is one ingested segment of a source document.
type Chunk struct {
	Source     string
	ChunkIndex int
	Content    string
}

// SearchHit is one similarity-search result, closest first.
type SearchHit struct {
	Source     string
	ChunkIndex int
	Content    string
}
