package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Store manages chunk rows in the documents table.
//
// Store is safe for concurrent use by multiple goroutines; PostgreSQL
// handles concurrent readers and writers.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store over the given connection pool.
// A nil logger falls back to slog.Default().
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Insert bulk-inserts the chunks of one source with their embeddings,
// assigning sequential chunk_index values in input order. The whole call is
// one transaction: all rows commit or none do. Empty input is a no-op.
func (s *Store) Insert(ctx context.Context, source string, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors for %q", ErrStorage, len(chunks), len(vectors), source)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin insert for %q: %w", ErrStorage, source, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		batch.Queue(
			`INSERT INTO documents (source, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)`,
			source, i, chunk, pgvector.NewVector(vectors[i]),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("%w: insert chunks for %q: %w", ErrStorage, source, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("%w: close batch for %q: %w", ErrStorage, source, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit insert for %q: %w", ErrStorage, source, err)
	}

	s.logger.Debug("inserted chunks", "source", source, "count", len(chunks))
	return nil
}

// Exists reports whether at least one chunk of the source is present.
func (s *Store) Exists(ctx context.Context, source string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM documents WHERE source = $1 LIMIT 1`, source).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists check for %q: %w", ErrStorage, source, err)
	}
	return true, nil
}

// DeleteBySource removes all chunks for the source. Idempotent: deleting a
// source with no rows succeeds.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return fmt.Errorf("%w: delete %q: %w", ErrStorage, source, err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Debug("deleted chunks", "source", source, "count", tag.RowsAffected())
	}
	return nil
}

// Count returns the number of chunks stored for the source.
func (s *Store) Count(ctx context.Context, source string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE source = $1`, source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q: %w", ErrStorage, source, err)
	}
	return count, nil
}

// SimilaritySearch returns the k chunks closest to the query vector under
// cosine distance, ascending by distance. Ties break by insertion order via
// the id column. k <= 0 returns an empty result, not an error.
func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT source, chunk_index, content
		 FROM documents
		 ORDER BY embedding <=> $1, id
		 LIMIT $2`,
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %w", ErrStorage, err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Source, &h.ChunkIndex, &h.Content); err != nil {
			return nil, fmt.Errorf("%w: scan search row: %w", ErrStorage, err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: similarity search rows: %w", ErrStorage, err)
	}

	return hits, nil
}
