// Package chat turns retrieved evidence into grounded answers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/tahoebot/tahoebot/internal/session"
)

// ErrGeneration indicates the model failed to produce an answer. It wraps
// transport failures and empty model output alike.
var ErrGeneration = errors.New("generation failed")

// systemPrompt fixes the assistant persona. Evidence arrives per request in
// the user message, never here.
const systemPrompt = "You are a friendly, clear assistant for macOS Tahoe (macOS 26). " +
	"Answer directly in a helpful tone, using short paragraphs or bullet " +
	"points when listing items. If you do not have enough information, " +
	"say so briefly and suggest what details would help."

// Config contains the required parameters for a Generator.
type Config struct {
	Genkit *genkit.Genkit
	Logger *slog.Logger

	ModelName   string  // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Temperature float64 // sampling temperature, 0.0 to 2.0
}

// Generator produces answers from a question, conversation history, and a
// fused evidence context. It is stateless; history is supplied per call and
// owned by the caller.
type Generator struct {
	g           *genkit.Genkit
	logger      *slog.Logger
	modelName   string
	temperature float64
}

// NewGenerator creates a Generator. A nil logger falls back to slog.Default().
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		g:           cfg.Genkit,
		logger:      logger,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
	}, nil
}

// Answer generates a grounded answer. The fused context rides inside the
// final user message rather than the system prompt, so multi-turn history
// replays cleanly and each turn carries only its own evidence.
//
// An empty context is passed through as-is; the persona instructs the model
// to acknowledge missing information instead of inventing it.
func (gen *Generator) Answer(ctx context.Context, question string, history []session.Turn, evidence string) (string, error) {
	messages := make([]*ai.Message, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case session.RoleUser:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		}
	}
	prompt := fmt.Sprintf("Question: %s\n\nContext:\n%s", question, evidence)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(prompt)))

	response, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(gen.temperature)),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	answer := strings.TrimSpace(response.Text())
	if answer == "" {
		return "", fmt.Errorf("%w: model returned empty response", ErrGeneration)
	}

	gen.logger.Debug("generated answer", "model", gen.modelName, "chars", len(answer))
	return answer, nil
}
