// Package api exposes the question answering and ingestion pipeline over a
// small JSON HTTP surface.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tahoebot/tahoebot/internal/session"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    *slog.Logger
	Retriever Retriever     // required
	Generator Generator     // required
	Ingestor  Ingestor      // required
	Sessions  session.Store // required
	DataDir   string        // document folder served by POST /api/v1/ingest

	RateRPS    float64 // rate limiter refill per IP (0 = default 1/sec)
	RateBurst  int     // rate limiter burst per IP (0 = default 30)
	TrustProxy bool    // trust X-Real-IP / X-Forwarded-For
}

// Server is the JSON API HTTP server.
type Server struct {
	mux http.Handler
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.Ingestor == nil {
		return nil, errors.New("ingestor is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		sessions:  cfg.Sessions,
		logger:    logger,
	}
	ih := &ingestHandler{
		ingestor: cfg.Ingestor,
		dataDir:  cfg.DataDir,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("POST /api/v1/ingest", ih.run)
	mux.HandleFunc("GET /{$}", index)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 1.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}
	rl := newRateLimiter(rps, burst)

	// Middleware stack, outermost first:
	//   Recovery -> Logging -> RateLimit -> Routes
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// health serves liveness probes.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
