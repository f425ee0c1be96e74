// Package websearch queries Gemini with the Google Search grounding tool and
// returns a bounded list of textual snippets.
//
// The adapter is strictly best-effort from the caller's point of view: it
// returns typed errors instead of raising them into the answer path, and the
// retriever converts any error into empty web evidence. A bounded timeout
// keeps a stuck search from hanging the whole request.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	// ErrNotConfigured indicates no API key is available for web search.
	ErrNotConfigured = errors.New("web search not configured")

	// ErrUnavailable indicates the search service failed or returned an
	// unusable response.
	ErrUnavailable = errors.New("web search unavailable")
)

// DefaultTimeout bounds a single grounded search call.
const DefaultTimeout = 15 * time.Second

// Searcher performs grounded web lookups.
type Searcher struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Searcher for the given grounding model.
//
// When no API key is present the Searcher is still constructed but every
// Search returns ErrNotConfigured, so the rest of the system keeps working
// without web evidence. A nil logger falls back to slog.Default().
func New(ctx context.Context, model string, timeout time.Duration, logger *slog.Logger) (*Searcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Searcher{model: model, timeout: timeout, logger: logger}

	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		logger.Info("web search disabled: no API key in environment")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	s.client = client
	return s, nil
}

// Search runs a grounded query and returns at most limit snippets: the
// model's grounded summary first, then source references from the grounding
// metadata. Failures are typed, never panics, and the call never outlives
// the configured timeout.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(query),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	snippets := collectSnippets(resp, limit)
	s.logger.Info("web search results", "count", len(snippets))
	return snippets, nil
}

// collectSnippets extracts the grounded answer text and source references,
// capped at limit.
func collectSnippets(resp *genai.GenerateContentResponse, limit int) []string {
	var snippets []string

	if text := strings.TrimSpace(resp.Text()); text != "" {
		snippets = append(snippets, text)
	}

	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if len(snippets) >= limit {
				return snippets
			}
			if chunk.Web == nil {
				continue
			}
			ref := strings.TrimSpace(chunk.Web.Title)
			if chunk.Web.URI != "" {
				if ref != "" {
					ref += " - "
				}
				ref += chunk.Web.URI
			}
			if ref != "" {
				snippets = append(snippets, ref)
			}
		}
	}

	if len(snippets) > limit {
		snippets = snippets[:limit]
	}
	return snippets
}
