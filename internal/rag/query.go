package rag

import (
	"fmt"
	"strings"

	"github.com/tahoebot/tahoebot/internal/session"
)

// BuildQuery folds recent user turns into the current question so follow-up
// references ("does it work offline?") resolve without a context-aware
// embedder. Only turns from the last window history entries contribute, and
// only user-authored ones. With no prior user turns the question passes
// through unchanged.
func BuildQuery(question string, history []session.Turn, window int) string {
	if window <= 0 || len(history) == 0 {
		return question
	}

	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	var userTurns []string
	for _, turn := range recent {
		if turn.Role == session.RoleUser && turn.Content != "" {
			userTurns = append(userTurns, turn.Content)
		}
	}
	if len(userTurns) == 0 {
		return question
	}

	return fmt.Sprintf("%s | Follow-up: %s", strings.Join(userTurns, " | "), question)
}
