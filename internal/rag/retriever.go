// Package rag implements the online retrieval path: query reformulation,
// parallel document and web evidence gathering, and context fusion.
//
// The pipeline threads explicit per-stage values instead of a mutable state
// bag: Query (reformulation) feeds Evidence (retrieval) feeds Result
// (fusion), each stage adding fields without touching the previous stage's.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tahoebot/tahoebot/internal/knowledge"
	"github.com/tahoebot/tahoebot/internal/session"
	"github.com/tahoebot/tahoebot/internal/websearch"
)

// Query is the reformulation stage output.
type Query struct {
	Question     string
	Reformulated string
}

// Evidence is the retrieval stage output: both lists are ordered by rank
// (similarity for documents, source-service order for web snippets).
type Evidence struct {
	Query
	DocSources []string
	WebSources []string
}

// Result is the fusion stage output, consumed by generation.
type Result struct {
	Evidence
	Context string
}

// QueryEmbedder embeds the reformulated query.
type QueryEmbedder interface {
	Query(ctx context.Context, text string) ([]float32, error)
}

// DocumentSearcher performs similarity search over stored chunks.
type DocumentSearcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]knowledge.SearchHit, error)
}

// WebSearcher returns bounded web snippets for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Config holds the retrieval parameters.
type Config struct {
	TopK          int // document chunks per query
	WebTopK       int // web snippets per query
	HistoryWindow int // history entries considered by BuildQuery
}

// Retriever runs the document and web sub-paths for a question.
type Retriever struct {
	embedder QueryEmbedder
	store    DocumentSearcher
	web      WebSearcher
	cfg      Config
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. web may be nil, which behaves like a
// searcher that always fails (and therefore always degrades to no web
// evidence). A nil logger falls back to slog.Default().
func NewRetriever(embedder QueryEmbedder, store DocumentSearcher, web WebSearcher, cfg Config, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		web:      web,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve reformulates the question once, gathers document and web evidence
// in parallel, and fuses both into one labeled context block.
//
// Document grounding is a primary responsibility: embedding or store
// failures propagate as hard errors. Web grounding is best-effort: any web
// error is logged and converted to empty evidence, never surfaced.
func (r *Retriever) Retrieve(ctx context.Context, question string, history []session.Turn) (*Result, error) {
	q := Query{
		Question:     question,
		Reformulated: BuildQuery(question, history, r.cfg.HistoryWindow),
	}
	r.logger.Info("retrieval query", "query", q.Reformulated)

	type docResult struct {
		sources []string
		err     error
	}

	// Buffered so neither goroutine blocks if the caller returns early on a
	// context error.
	docCh := make(chan docResult, 1)
	webCh := make(chan []string, 1)

	go func() {
		sources, err := r.retrieveDocuments(ctx, q.Reformulated)
		docCh <- docResult{sources, err}
	}()

	go func() {
		webCh <- r.retrieveWeb(ctx, q.Reformulated)
	}()

	docs := <-docCh
	web := <-webCh
	if docs.err != nil {
		return nil, docs.err
	}

	evidence := Evidence{Query: q, DocSources: docs.sources, WebSources: web}
	r.logger.Info("retrieved context", "docs", len(evidence.DocSources), "web", len(evidence.WebSources))

	return &Result{
		Evidence: evidence,
		Context:  FuseContext(evidence.DocSources, evidence.WebSources),
	}, nil
}

// retrieveDocuments runs the embed-then-search document sub-path.
func (r *Retriever) retrieveDocuments(ctx context.Context, query string) ([]string, error) {
	vector, err := r.embedder.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.store.SimilaritySearch(ctx, vector, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	sources := make([]string, len(hits))
	for i, hit := range hits {
		sources[i] = fmt.Sprintf("Source: %s (chunk %d)\n%s", hit.Source, hit.ChunkIndex, hit.Content)
	}
	return sources, nil
}

// retrieveWeb runs the best-effort web sub-path. The degradation policy
// lives here, visibly: every error variant becomes empty evidence.
func (r *Retriever) retrieveWeb(ctx context.Context, query string) []string {
	if r.web == nil {
		return nil
	}

	snippets, err := r.web.Search(ctx, query, r.cfg.WebTopK)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, websearch.ErrNotConfigured):
			r.logger.Debug("web search skipped", "error", err)
		default:
			r.logger.Warn("web search degraded to empty evidence", "error", err)
		}
		return nil
	}
	return snippets
}
