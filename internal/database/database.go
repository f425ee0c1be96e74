// Package database manages the PostgreSQL connection pool and the documents
// table schema, including the one-time destructive migration that runs when
// the configured embedding dimension no longer matches the stored one.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a connection pool and verifies connectivity with a ping.
// Vector values travel through pgvector-go's Valuer and Scanner, so no
// per-connection type registration is needed.
func Open(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Bootstrap ensures the vector extension and the documents table exist with
// the configured embedding dimension.
//
// If the table already exists with a different vector dimension it is
// dropped and recreated: old embeddings are not comparable to new ones, so
// keeping them would silently corrupt every similarity search. This is a
// rare, operator-triggered event (an embedder model change) and is logged
// loudly; it is not safe to run concurrently with ingestion.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, dim int, logger *slog.Logger) error {
	if dim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	stored, err := storedDimension(ctx, pool)
	if err != nil {
		return err
	}
	if stored > 0 && stored != dim {
		logger.Warn("embedding dimension changed, dropping documents table",
			"stored_dim", stored, "configured_dim", dim)
		if _, err := pool.Exec(ctx, `DROP TABLE documents`); err != nil {
			return fmt.Errorf("dropping incompatible documents table: %w", err)
		}
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, dim)
	if _, err := pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	if _, err := pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS documents_source_idx ON documents (source)`); err != nil {
		return fmt.Errorf("creating source index: %w", err)
	}

	logger.Debug("database ready", "embedding_dim", dim)
	return nil
}

// storedDimension introspects the current vector dimension of the embedding
// column, or 0 if the documents table does not exist.
func storedDimension(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var typmod int
	err := pool.QueryRow(ctx, `
		SELECT a.atttypmod FROM pg_attribute a
		JOIN pg_class c ON a.attrelid = c.oid
		JOIN pg_namespace n ON c.relnamespace = n.oid
		WHERE n.nspname = 'public' AND c.relname = 'documents'
		  AND a.attname = 'embedding' AND a.attnum > 0 AND NOT a.attisdropped`).Scan(&typmod)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("introspecting embedding dimension: %w", err)
	}
	// For the vector type, atttypmod carries the declared dimension directly.
	return typmod, nil
}
