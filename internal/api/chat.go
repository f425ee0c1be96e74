package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tahoebot/tahoebot/internal/rag"
	"github.com/tahoebot/tahoebot/internal/session"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// Retriever gathers document and web evidence for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, history []session.Turn) (*rag.Result, error)
}

// Generator produces the final answer from question, history, and evidence.
type Generator interface {
	Answer(ctx context.Context, question string, history []session.Turn, evidence string) (string, error)
}

type chatHandler struct {
	retriever Retriever
	generator Generator
	sessions  session.Store
	logger    *slog.Logger
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Answer     string   `json:"answer"`
	DocSources []string `json:"doc_sources"`
	WebSources []string `json:"web_sources"`
	SessionID  string   `json:"session_id"`
}

// send answers one question. A missing session id mints a fresh session, so
// every response carries the id the client should send next.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question must not be empty")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}
	history := h.sessions.History(sessionID)

	result, err := h.retriever.Retrieve(r.Context(), question, history)
	if err != nil {
		h.logger.Error("retrieval failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusBadGateway, "retrieval_failed", "failed to retrieve context")
		return
	}

	answer, err := h.generator.Answer(r.Context(), question, history, result.Context)
	if err != nil {
		h.logger.Error("generation failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusBadGateway, "generation_failed", "failed to generate answer")
		return
	}

	// Only a fully answered exchange lands in history; failed requests
	// leave the session untouched.
	h.sessions.Append(sessionID,
		session.Turn{Role: session.RoleUser, Content: question},
		session.Turn{Role: session.RoleAssistant, Content: answer},
	)

	docSources := result.DocSources
	if docSources == nil {
		docSources = []string{}
	}
	webSources := result.WebSources
	if webSources == nil {
		webSources = []string{}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:     answer,
		DocSources: docSources,
		WebSources: webSources,
		SessionID:  sessionID,
	})
}
