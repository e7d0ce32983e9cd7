// Package chat implements the text companion: persona-aware conversation
// turns against a text LLM, with the same tool bindings as the voice
// assistant so typed requests ("log a headache for me") have the same side
// effects as spoken ones.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maitri-mission/maitri/internal/assistant"
	"github.com/maitri-mission/maitri/internal/observe"
	"github.com/maitri-mission/maitri/internal/persona"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/provider/live"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// maxToolRounds bounds the tool-execution loop within a single turn so a
// model that keeps requesting tools cannot spin forever.
const maxToolRounds = 4

// Message is one entry of the conversation history as sent by the client.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`
	Text string `json:"text"`
}

// Reply is the assistant's answer to one turn.
type Reply struct {
	// Text is the assistant's message to display.
	Text string `json:"text"`

	// Persona is the classifier tag chosen for this turn.
	Persona persona.Tag `json:"persona"`
}

// Service runs chat turns for astronauts. It is safe for concurrent use.
type Service struct {
	provider llm.Provider
	store    store.Store
	scenes   *scene.Generator
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// NewService creates a chat service over the given text provider, store, and
// scene generator.
func NewService(provider llm.Provider, st store.Store, scenes *scene.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		store:    st,
		scenes:   scenes,
		logger:   logger,
		metrics:  observe.DefaultMetrics(),
	}
}

// Respond produces the assistant's reply to the conversation in history. The
// last user message selects the persona for the whole turn. Tool calls
// requested by the model are executed against the astronaut's store before
// the final confirmation text is generated.
func (s *Service) Respond(ctx context.Context, astronaut string, history []Message) (*Reply, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("chat: empty conversation history")
	}
	if _, err := s.store.Get(ctx, astronaut); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	tag := persona.Classify(lastUserText(history))
	dispatcher := assistant.NewDispatcher(astronaut, s.store, s.scenes, nil, s.logger)

	messages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Text})
	}

	req := llm.CompletionRequest{
		SystemPrompt: persona.Instruction(tag, astronaut),
		Messages:     messages,
		Tools:        assistant.Declarations(),
	}

	for round := 0; ; round++ {
		start := time.Now()
		resp, err := s.provider.Complete(ctx, req)
		s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("chat: completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 || round >= maxToolRounds {
			return &Reply{Text: resp.Content, Persona: tag}, nil
		}

		// Execute the requested tools and feed the results back so the model
		// can confirm what it did.
		req.Messages = append(req.Messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			result := dispatcher.Dispatch(ctx, live.ToolCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Arguments,
			})
			req.Messages = append(req.Messages, llm.Message{
				Role:       "tool",
				Content:    result.Result,
				Name:       tc.Name,
				ToolCallID: tc.ID,
			})
		}
	}
}

// lastUserText returns the text of the most recent user message, or the
// empty string.
func lastUserText(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Text
		}
	}
	return ""
}
