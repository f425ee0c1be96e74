package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// Ingestor runs the batch ingestion pipeline over the data directory.
type Ingestor interface {
	IngestFolder(ctx context.Context, dir string, filenames []string, force bool) (processed, skipped []string, err error)
}

type ingestHandler struct {
	ingestor Ingestor
	dataDir  string
	logger   *slog.Logger
}

type ingestRequest struct {
	Filenames []string `json:"filenames,omitempty"`
	Force     bool     `json:"force,omitempty"`
}

type ingestResponse struct {
	Processed []string `json:"processed"`
	Skipped   []string `json:"skipped"`
}

// run ingests the data directory. An empty body means "everything, skip
// what is already stored".
func (h *ingestHandler) run(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	processed, skipped, err := h.ingestor.IngestFolder(r.Context(), h.dataDir, req.Filenames, req.Force)
	if err != nil {
		h.logger.Error("ingestion failed", "error", err, "dir", h.dataDir)
		writeError(w, http.StatusInternalServerError, "ingest_failed", "failed to ingest documents")
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Processed: processed, Skipped: skipped})
}
