// Package app wires configuration into the running object graph: database
// pool, schema bootstrap, Genkit, embedder, knowledge store, ingestion
// pipeline, retriever, generator, and session store.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahoebot/tahoebot/internal/chat"
	"github.com/tahoebot/tahoebot/internal/config"
	"github.com/tahoebot/tahoebot/internal/database"
	"github.com/tahoebot/tahoebot/internal/embed"
	"github.com/tahoebot/tahoebot/internal/ingest"
	"github.com/tahoebot/tahoebot/internal/knowledge"
	"github.com/tahoebot/tahoebot/internal/log"
	"github.com/tahoebot/tahoebot/internal/rag"
	"github.com/tahoebot/tahoebot/internal/session"
	"github.com/tahoebot/tahoebot/internal/websearch"
)

// App is the application container. Fields are exported for the cmd layer
// and for integration tests that need to reach a specific component.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Knowledge *knowledge.Store
	Embedder  *embed.Embedder
	Pipeline  *ingest.Pipeline
	Web       *websearch.Searcher
	Retriever *rag.Retriever
	Generator *chat.Generator
	Sessions  session.Store
}

// Setup builds the full object graph from configuration. It connects to
// PostgreSQL, bootstraps the schema at the configured embedding dimension,
// and initializes Genkit with the Google AI plugin.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := database.Bootstrap(ctx, pool, cfg.EmbeddingDim, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := embed.New(googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel))
	store := knowledge.NewStore(pool, logger)

	chunker := ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	pipeline := ingest.NewPipeline(store, embedder, chunker, logger)

	web, err := websearch.New(ctx, cfg.GroundingModel,
		time.Duration(cfg.WebSearchTimeoutSec)*time.Second, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating web searcher: %w", err)
	}

	retriever := rag.NewRetriever(embedder, store, web, rag.Config{
		TopK:          cfg.TopK,
		WebTopK:       cfg.WebTopK,
		HistoryWindow: cfg.HistoryWindow,
	}, logger)

	generator, err := chat.NewGenerator(chat.Config{
		Genkit:      g,
		Logger:      logger,
		ModelName:   cfg.FullGenerationModel(),
		Temperature: float64(cfg.Temperature),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Genkit:    g,
		Pool:      pool,
		Knowledge: store,
		Embedder:  embedder,
		Pipeline:  pipeline,
		Web:       web,
		Retriever: retriever,
		Generator: generator,
		Sessions:  session.NewMemoryStore(cfg.MaxTurns),
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
}
