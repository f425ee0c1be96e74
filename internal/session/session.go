// Package session keeps per-conversation history in process memory.
//
// Histories are keyed by an opaque session id and bounded: each append trims
// the session to the most recent MaxTurns exchanges (two turns per exchange).
// There is no persistence across restarts and no cross-session visibility.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Role constants define valid turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is the session state abstraction consumed by the retrieval and
// generation paths. It is injected, never a package-level singleton, so a
// persistent backing store can substitute the in-memory one later.
type Store interface {
	// History returns the session's turns in chronological order.
	// Unknown ids yield an empty slice, not an error.
	History(sessionID string) []Turn

	// Append adds turns to the session, creating it on first use, and trims
	// the history to its configured bound.
	Append(sessionID string, turns ...Turn)

	// Evict removes a session entirely. No-op for unknown ids.
	Evict(sessionID string)
}

// NewID mints a fresh opaque session identifier.
func NewID() string {
	return uuid.NewString()
}

// MemoryStore is the in-process Store implementation.
// Safe for concurrent use; appends racing on the same session interleave
// with last-write-wins semantics, which is acceptable for chat history.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewMemoryStore creates a MemoryStore bounding each session to maxTurns
// exchanges (maxTurns*2 stored entries). Non-positive maxTurns falls back
// to 10.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

// History returns a copy of the session's turns.
func (s *MemoryStore) History(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns and trims to the most recent maxTurns*2 entries,
// oldest discarded first.
func (s *MemoryStore) Append(sessionID string, turns ...Turn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], turns...)
	if limit := s.maxTurns * 2; len(history) > limit {
		history = history[len(history)-limit:]
	}
	s.sessions[sessionID] = history
}

// Evict removes a session and its history.
func (s *MemoryStore) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
