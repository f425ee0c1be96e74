package config

import (
	"fmt"
	"strings"
)

// Validate checks all configuration values and fails fast with wrapped
// sentinel errors so callers can use errors.Is.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.GenerationModel) == "" {
		return fmt.Errorf("%w: generation_model is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.GroundingModel) == "" {
		return fmt.Errorf("%w: grounding_model is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidModelName)
	}

	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding_dim must be positive, got %d", ErrInvalidDimension, c.EmbeddingDim)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.WebTopK < 0 {
		return fmt.Errorf("%w: web_top_k must not be negative, got %d", ErrInvalidTopK, c.WebTopK)
	}

	if c.MaxTurns <= 0 {
		return fmt.Errorf("%w: max_turns must be positive, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("%w: history_window must not be negative, got %d", ErrInvalidMaxTurns, c.HistoryWindow)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: postgres_host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: postgres_port must be 1-65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: postgres_db_name is empty", ErrInvalidPostgresDBName)
	}

	return nil
}

// ValidateForServe performs the additional checks required before starting
// the HTTP server or the ask command, where the Gemini API must be reachable.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !HasAPIKey() {
		return fmt.Errorf("%w: set GEMINI_API_KEY or GOOGLE_API_KEY", ErrMissingAPIKey)
	}
	return nil
}
