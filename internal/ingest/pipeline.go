// Package ingest turns source documents into embedded chunks in the vector
// store: extract text, chunk, embed, persist. Ingestion is idempotent per
// source and supports forced re-ingestion (delete then reinsert).
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ChunkStore is the subset of the vector store the pipeline needs.
// Defined here, by the consumer.
type ChunkStore interface {
	Exists(ctx context.Context, source string) (bool, error)
	DeleteBySource(ctx context.Context, source string) error
	Insert(ctx context.Context, source string, chunks []string, vectors [][]float32) error
}

// Embedder maps a batch of chunk texts to embedding vectors.
type Embedder interface {
	Documents(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates document ingestion.
type Pipeline struct {
	store    ChunkStore
	embedder Embedder
	chunker  *Chunker
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline. A nil logger falls back to slog.Default().
func NewPipeline(store ChunkStore, embedder Embedder, chunker *Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
	}
}

// IngestFile ingests one source file. Returns true if the file was newly
// ingested and false if it was skipped because its source already exists.
//
// The pipeline aborts at the first failing step; the transactional store
// insert guarantees no partial chunk rows on failure. A file with no
// extractable text ingests successfully with zero chunks.
func (p *Pipeline) IngestFile(ctx context.Context, path string, skipIfExists bool) (bool, error) {
	source := filepath.Base(path)

	if skipIfExists {
		exists, err := p.store.Exists(ctx, source)
		if err != nil {
			return false, fmt.Errorf("checking %q: %w", source, err)
		}
		if exists {
			return false, nil
		}
	}

	text, err := ExtractText(path)
	if err != nil {
		return false, fmt.Errorf("extracting %q: %w", source, err)
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		p.logger.Info("no extractable text", "source", source)
		return true, nil
	}

	vectors, err := p.embedder.Documents(ctx, chunks)
	if err != nil {
		return false, fmt.Errorf("embedding %q: %w", source, err)
	}

	if err := p.store.Insert(ctx, source, chunks, vectors); err != nil {
		return false, fmt.Errorf("storing %q: %w", source, err)
	}

	p.logger.Info("ingested", "source", source, "chunks", len(chunks))
	return true, nil
}

// IngestFolder ingests every supported file in dir, in lexical order.
//
// filenames, when non-empty, restricts the batch to those base names.
// force deletes any existing chunks for each candidate before re-ingesting,
// bypassing the skip check.
//
// Per-file failure policy: continue-on-error. A failing file is logged and
// appears in neither processed nor skipped; the rest of the batch carries
// on and its accounting is unaffected.
func (p *Pipeline) IngestFolder(ctx context.Context, dir string, filenames []string, force bool) (processed, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading folder %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Strings(candidates)

	if filter := filenameSet(filenames); filter != nil {
		kept := candidates[:0]
		for _, name := range candidates {
			if filter[name] {
				kept = append(kept, name)
			}
		}
		candidates = kept
	}

	processed = []string{}
	skipped = []string{}
	for _, name := range candidates {
		path := filepath.Join(dir, name)

		if force {
			if delErr := p.store.DeleteBySource(ctx, name); delErr != nil {
				p.logger.Error("force delete failed, skipping file", "source", name, "error", delErr)
				continue
			}
		}

		ingested, fileErr := p.IngestFile(ctx, path, !force)
		if fileErr != nil {
			p.logger.Error("ingestion failed", "source", name, "error", fileErr)
			continue
		}
		if ingested {
			processed = append(processed, name)
		} else {
			skipped = append(skipped, name)
		}
	}

	return processed, skipped, nil
}

// filenameSet builds the filter set, ignoring blank entries.
// Returns nil when no usable names remain, meaning "no filter".
func filenameSet(filenames []string) map[string]bool {
	set := make(map[string]bool)
	for _, name := range filenames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			set[trimmed] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
