//go:build integration

package database

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/tahoebot/tahoebot/internal/log"
	"github.com/tahoebot/tahoebot/internal/testutil"
)

func TestBootstrapCreatesSchema(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := Bootstrap(ctx, db.Pool, 3, log.NewNop()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh table count = %d, want 0", count)
	}
}

func TestBootstrapRejectsInvalidDimension(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	if err := Bootstrap(context.Background(), db.Pool, 0, log.NewNop()); err == nil {
		t.Error("Bootstrap(dim=0) should fail")
	}
}

func TestBootstrapIdempotentAtSameDimension(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := Bootstrap(ctx, db.Pool, 3, log.NewNop()); err != nil {
		t.Fatalf("first Bootstrap() error = %v", err)
	}

	vec := pgvector.NewVector([]float32{1, 0, 0})
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO documents (source, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)`,
		"guide.pdf", 0, "chunk", vec); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	if err := Bootstrap(ctx, db.Pool, 3, log.NewNop()); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 1 {
		t.Errorf("re-bootstrap at same dimension lost data: count = %d, want 1", count)
	}
}

func TestBootstrapMigratesChangedDimension(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := Bootstrap(ctx, db.Pool, 3, log.NewNop()); err != nil {
		t.Fatalf("Bootstrap(3) error = %v", err)
	}

	vec := pgvector.NewVector([]float32{1, 0, 0})
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO documents (source, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)`,
		"guide.pdf", 0, "chunk", vec); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	// A dimension change drops the table: old vectors are not comparable to
	// new ones.
	if err := Bootstrap(ctx, db.Pool, 4, log.NewNop()); err != nil {
		t.Fatalf("Bootstrap(4) error = %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 0 {
		t.Errorf("dimension change should drop old rows: count = %d, want 0", count)
	}

	// The new dimension must accept inserts.
	vec4 := pgvector.NewVector([]float32{1, 0, 0, 0})
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO documents (source, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)`,
		"guide.pdf", 0, "chunk", vec4); err != nil {
		t.Errorf("insert at new dimension failed: %v", err)
	}
}
