package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tahoebot/tahoebot/internal/log"
)

// fakeStore is an in-memory ChunkStore recording inserts per source.
type fakeStore struct {
	rows      map[string][]string
	insertErr map[string]error
	existsErr error
	deleteErr error
	inserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:      make(map[string][]string),
		insertErr: make(map[string]error),
	}
}

func (f *fakeStore) Exists(_ context.Context, source string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.rows[source]
	return ok, nil
}

func (f *fakeStore) DeleteBySource(_ context.Context, source string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, source)
	return nil
}

func (f *fakeStore) Insert(_ context.Context, source string, chunks []string, vectors [][]float32) error {
	if err := f.insertErr[source]; err != nil {
		return err
	}
	if len(chunks) != len(vectors) {
		return errors.New("chunk/vector length mismatch")
	}
	f.inserts++
	f.rows[source] = append([]string(nil), chunks...)
	return nil
}

// fakeEmbedder returns fixed-size vectors, or a configured error.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Documents(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1, 2}
	}
	return vectors, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func newTestPipeline(store ChunkStore, embedder Embedder) *Pipeline {
	return NewPipeline(store, embedder, NewChunker(50, 10), log.NewNop())
}

func TestIngestFileStoresChunksInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tahoe.txt", "First paragraph about Tahoe.\n\nSecond paragraph about Spotlight improvements and more.")
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{})

	ingested, err := p.IngestFile(context.Background(), filepath.Join(dir, "tahoe.txt"), true)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if !ingested {
		t.Error("IngestFile() = false, want true")
	}

	chunks := store.rows["tahoe.txt"]
	if len(chunks) < 2 {
		t.Fatalf("stored %d chunks, want at least 2", len(chunks))
	}
	// Insert receives chunks in split order; the store assigns chunk_index
	// sequentially from that order.
	want := NewChunker(50, 10).Split("First paragraph about Tahoe.\n\nSecond paragraph about Spotlight improvements and more.")
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("stored chunks out of order:\n got %q\nwant %q", chunks, want)
	}
}

func TestIngestFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.txt", "macOS Tahoe supports feature X across all Apple silicon Macs today.")
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{})
	path := filepath.Join(dir, "guide.txt")

	first, err := p.IngestFile(context.Background(), path, true)
	if err != nil || !first {
		t.Fatalf("first ingest = (%v, %v), want (true, nil)", first, err)
	}
	second, err := p.IngestFile(context.Background(), path, true)
	if err != nil {
		t.Fatalf("second ingest error = %v", err)
	}
	if second {
		t.Error("second ingest = true, want skipped")
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1 (no duplicate chunks)", store.inserts)
	}
}

func TestIngestFileEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "")
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	p := newTestPipeline(store, embedder)

	ingested, err := p.IngestFile(context.Background(), filepath.Join(dir, "empty.txt"), true)
	if err != nil {
		t.Fatalf("IngestFile(empty) error = %v", err)
	}
	if !ingested {
		t.Error("empty document should count as ingested")
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for empty document", embedder.calls)
	}
	if store.inserts != 0 {
		t.Errorf("inserts = %d, want 0", store.inserts)
	}
}

func TestIngestFileEmbedFailureAbortsWithoutInsert(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "Enough text to produce at least one chunk for embedding.")
	store := newFakeStore()
	wantErr := errors.New("rate limited")
	p := newTestPipeline(store, &fakeEmbedder{err: wantErr})

	_, err := p.IngestFile(context.Background(), filepath.Join(dir, "doc.txt"), true)
	if !errors.Is(err, wantErr) {
		t.Fatalf("IngestFile() error = %v, want wrapped %v", err, wantErr)
	}
	if store.inserts != 0 {
		t.Errorf("inserts = %d after embed failure, want 0", store.inserts)
	}
}

func TestIngestFolderAccounting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Content of document b, long enough to chunk at least once here.")
	writeFile(t, dir, "a.txt", "Content of document a, long enough to chunk at least once here.")
	writeFile(t, dir, "notes.xyz", "ignored extension")
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{})

	processed, skipped, err := p.IngestFolder(context.Background(), dir, nil, false)
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
	// Lexical order.
	if !reflect.DeepEqual(processed, []string{"a.txt", "b.txt"}) {
		t.Errorf("processed = %v", processed)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want empty", skipped)
	}

	// Second run: everything already present.
	processed, skipped, err = p.IngestFolder(context.Background(), dir, nil, false)
	if err != nil {
		t.Fatalf("second IngestFolder() error = %v", err)
	}
	if len(processed) != 0 {
		t.Errorf("second run processed = %v, want empty", processed)
	}
	if !reflect.DeepEqual(skipped, []string{"a.txt", "b.txt"}) {
		t.Errorf("second run skipped = %v", skipped)
	}
}

func TestIngestFolderFilenameFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", "Document that the filter keeps in the ingestion batch today.")
	writeFile(t, dir, "drop.txt", "Document that the filter leaves out of the batch entirely.")
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{})

	processed, skipped, err := p.IngestFolder(context.Background(), dir, []string{" keep.txt ", ""}, false)
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
	if !reflect.DeepEqual(processed, []string{"keep.txt"}) {
		t.Errorf("processed = %v, want [keep.txt]", processed)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}
	if _, ok := store.rows["drop.txt"]; ok {
		t.Error("filtered file was ingested")
	}
}

func TestIngestFolderForceReplaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "Original content, sized to yield a couple of chunks when split.")
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{})
	ctx := context.Background()

	if _, _, err := p.IngestFolder(ctx, dir, nil, false); err != nil {
		t.Fatal(err)
	}

	// Shrink the file, then force: stale rows must not survive.
	writeFile(t, dir, "doc.txt", "Tiny now.")
	processed, _, err := p.IngestFolder(ctx, dir, nil, true)
	if err != nil {
		t.Fatalf("forced IngestFolder() error = %v", err)
	}
	if !reflect.DeepEqual(processed, []string{"doc.txt"}) {
		t.Errorf("processed = %v", processed)
	}
	if got := store.rows["doc.txt"]; len(got) != 1 || got[0] != "Tiny now." {
		t.Errorf("store kept stale rows: %q", got)
	}
}

func TestIngestFolderContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", "This document's insert is configured to fail at the store.")
	writeFile(t, dir, "good.txt", "This document ingests cleanly and must appear in processed.")
	store := newFakeStore()
	store.insertErr["bad.txt"] = errors.New("connection reset")
	p := newTestPipeline(store, &fakeEmbedder{})

	processed, skipped, err := p.IngestFolder(context.Background(), dir, nil, false)
	if err != nil {
		t.Fatalf("IngestFolder() error = %v, failures must not abort the batch", err)
	}
	if !reflect.DeepEqual(processed, []string{"good.txt"}) {
		t.Errorf("processed = %v, want [good.txt]", processed)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, failed file must appear in neither list", skipped)
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	if _, err := ExtractText("slides.pptx"); err == nil {
		t.Error("ExtractText(.pptx) should fail")
	}
}

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "# Tahoe\nrelease notes")

	got, err := ExtractText(filepath.Join(dir, "readme.md"))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "# Tahoe\nrelease notes" {
		t.Errorf("ExtractText() = %q", got)
	}
}
