package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tahoebot/tahoebot/internal/knowledge"
	"github.com/tahoebot/tahoebot/internal/log"
	"github.com/tahoebot/tahoebot/internal/session"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	asked  string
}

func (f *fakeEmbedder) Query(_ context.Context, text string) ([]float32, error) {
	f.asked = text
	return f.vector, f.err
}

type fakeSearcher struct {
	hits []knowledge.SearchHit
	err  error
	k    int
}

func (f *fakeSearcher) SimilaritySearch(_ context.Context, _ []float32, k int) ([]knowledge.SearchHit, error) {
	f.k = k
	return f.hits, f.err
}

type fakeWeb struct {
	snippets []string
	err      error
	limit    int
}

func (f *fakeWeb) Search(_ context.Context, _ string, limit int) ([]string, error) {
	f.limit = limit
	return f.snippets, f.err
}

func testConfig() Config {
	return Config{TopK: 5, WebTopK: 3, HistoryWindow: 6}
}

func TestRetrieveFusesBothSources(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	store := &fakeSearcher{hits: []knowledge.SearchHit{
		{Source: "guide.pdf", ChunkIndex: 0, Content: "Tahoe ships Liquid Glass."},
		{Source: "guide.pdf", ChunkIndex: 3, Content: "Spotlight gains quick keys."},
	}}
	web := &fakeWeb{snippets: []string{"Apple Newsroom - https://apple.com/newsroom"}}

	r := NewRetriever(embedder, store, web, testConfig(), log.NewNop())
	result, err := r.Retrieve(context.Background(), "What is new?", nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(result.DocSources) != 2 {
		t.Fatalf("DocSources len = %d, want 2", len(result.DocSources))
	}
	if want := "Source: guide.pdf (chunk 0)\nTahoe ships Liquid Glass."; result.DocSources[0] != want {
		t.Errorf("DocSources[0] = %q, want %q", result.DocSources[0], want)
	}
	if len(result.WebSources) != 1 {
		t.Fatalf("WebSources len = %d, want 1", len(result.WebSources))
	}

	if !strings.Contains(result.Context, "[Documents]") || !strings.Contains(result.Context, "[Web]") {
		t.Errorf("Context missing labeled blocks: %q", result.Context)
	}
	if docIdx, webIdx := strings.Index(result.Context, "[Documents]"), strings.Index(result.Context, "[Web]"); docIdx > webIdx {
		t.Errorf("documents block should precede web block in %q", result.Context)
	}
	if store.k != 5 {
		t.Errorf("SimilaritySearch k = %d, want 5", store.k)
	}
	if web.limit != 3 {
		t.Errorf("web Search limit = %d, want 3", web.limit)
	}
}

func TestRetrieveWebFailureIsolated(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{hits: []knowledge.SearchHit{
		{Source: "guide.pdf", ChunkIndex: 1, Content: "content"},
	}}
	web := &fakeWeb{err: errors.New("quota exhausted")}

	r := NewRetriever(embedder, store, web, testConfig(), log.NewNop())
	result, err := r.Retrieve(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want web failure absorbed", err)
	}

	if len(result.WebSources) != 0 {
		t.Errorf("WebSources = %v, want empty after web failure", result.WebSources)
	}
	if len(result.DocSources) != 1 {
		t.Errorf("DocSources len = %d, want doc path unaffected", len(result.DocSources))
	}
	if !strings.Contains(result.Context, "[Documents]") {
		t.Errorf("Context should still carry document block: %q", result.Context)
	}
	if strings.Contains(result.Context, "[Web]") {
		t.Errorf("Context should omit empty web block: %q", result.Context)
	}
}

func TestRetrieveNilWebSearcher(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{}

	r := NewRetriever(embedder, store, nil, testConfig(), log.NewNop())
	result, err := r.Retrieve(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.WebSources) != 0 {
		t.Errorf("WebSources = %v, want empty without web searcher", result.WebSources)
	}
}

func TestRetrieveEmbedFailurePropagates(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedder down")}
	store := &fakeSearcher{}
	web := &fakeWeb{snippets: []string{"snippet"}}

	r := NewRetriever(embedder, store, web, testConfig(), log.NewNop())
	if _, err := r.Retrieve(context.Background(), "q", nil); err == nil {
		t.Fatal("Retrieve() error = nil, want embedding failure to propagate")
	}
}

func TestRetrieveSearchFailurePropagates(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{err: knowledge.ErrStorage}
	r := NewRetriever(embedder, store, nil, testConfig(), log.NewNop())

	_, err := r.Retrieve(context.Background(), "q", nil)
	if !errors.Is(err, knowledge.ErrStorage) {
		t.Fatalf("Retrieve() error = %v, want wrapped storage error", err)
	}
}

func TestRetrieveBothEmpty(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{}
	web := &fakeWeb{}

	r := NewRetriever(embedder, store, web, testConfig(), log.NewNop())
	result, err := r.Retrieve(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.Context != "" {
		t.Errorf("Context = %q, want empty when no evidence", result.Context)
	}
}

func TestRetrieveUsesReformulatedQuery(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{}
	history := []session.Turn{{Role: session.RoleUser, Content: "Tell me about Tahoe"}}

	r := NewRetriever(embedder, store, nil, testConfig(), log.NewNop())
	result, err := r.Retrieve(context.Background(), "what else?", history)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	want := "Tell me about Tahoe | Follow-up: what else?"
	if embedder.asked != want {
		t.Errorf("embedded query = %q, want %q", embedder.asked, want)
	}
	if result.Reformulated != want {
		t.Errorf("Result.Reformulated = %q, want %q", result.Reformulated, want)
	}
	if result.Question != "what else?" {
		t.Errorf("Result.Question = %q, want original question", result.Question)
	}
}

func TestFuseContextLayout(t *testing.T) {
	got := FuseContext([]string{"doc a", "doc b"}, []string{"web a"})
	want := "[Documents]\ndoc a\n\ndoc b\n\n[Web]\nweb a"
	if got != want {
		t.Errorf("FuseContext() = %q, want %q", got, want)
	}
}

func TestFuseContextWebOnly(t *testing.T) {
	got := FuseContext(nil, []string{"web a"})
	if got != "[Web]\nweb a" {
		t.Errorf("FuseContext() = %q, want web block only", got)
	}
}
