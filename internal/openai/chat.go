package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/prompts"
)

const chatTemperature = 0.5

type streamingClient interface {
	StreamChatCompletion(ctx context.Context, body *ChatRequest, onChunk func(*StreamChunk) error) error
}

// ChatEngine answers follow-up questions about a job/resume pair, streaming
// partial tokens to the caller as they arrive.
type ChatEngine struct {
	client       streamingClient
	defaultModel string
	logger       *zap.Logger
}

// NewChatEngine creates a ChatEngine sharing the analyzer's client.
func NewChatEngine(client streamingClient, defaultModel string, logger *zap.Logger) *ChatEngine {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatEngine{
		client:       client,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// AskRequest describes one chat turn.
type AskRequest struct {
	Question       string
	JobDescription string
	ResumeText     string
	// Model overrides the engine default when non-empty.
	Model      string
	PromptName string
	// History continues an earlier conversation. When nil a fresh
	// conversation is built and the static job/resume context is sent
	// once; on continuation only the new question is appended.
	History []Message
}

// ChatMeta is the accounting attached to a completed chat turn.
type ChatMeta struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	ElapsedMS    int64   `json:"elapsed"`
}

// ChatResult is the terminal value of a streamed chat turn, distinct from
// the incremental fragments: the full concatenated answer, the updated
// history (with the assistant turn appended), and call metadata.
type ChatResult struct {
	Answer  string    `json:"answer"`
	History []Message `json:"history"`
	Meta    ChatMeta  `json:"_meta"`
}

// AskStream issues one streamed chat turn. Each partial text fragment is
// delivered to onDelta in arrival order; the terminal result is returned
// once the stream is exhausted. The caller's history slice is never
// mutated. Cancelling ctx aborts the stream with an error and no result.
func (e *ChatEngine) AskStream(ctx context.Context, req AskRequest, onDelta func(string)) (*ChatResult, error) {
	model := e.defaultModel
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}

	messages, err := e.buildMessages(req)
	if err != nil {
		return nil, err
	}

	chatReq := &ChatRequest{
		Model:         model,
		Messages:      messages,
		StreamOptions: &StreamOptions{IncludeUsage: true},
	}
	if SupportsTemperature(model) {
		temp := chatTemperature
		chatReq.Temperature = &temp
	}

	var (
		answer       strings.Builder
		inputTokens  int
		outputTokens int
	)

	start := time.Now()
	err = e.client.StreamChatCompletion(ctx, chatReq, func(chunk *StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			answer.WriteString(choice.Delta.Content)
			if onDelta != nil {
				onDelta(choice.Delta.Content)
			}
		}

		// Usage arrives in a trailing chunk when the provider honors
		// include_usage; keep the last reported counts.
		if chunk.Usage != nil {
			if chunk.Usage.PromptTokens > 0 {
				inputTokens = chunk.Usage.PromptTokens
			}
			if chunk.Usage.CompletionTokens > 0 {
				outputTokens = chunk.Usage.CompletionTokens
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("streaming chat turn: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	cost := EstimateCost(model, inputTokens, outputTokens)

	e.logger.Debug("chat turn finished",
		zap.String("model", model),
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens),
		zap.Float64("cost_usd", cost.TotalCostUSD),
		zap.Int64("elapsed_ms", elapsed),
	)

	history := append(messages, Message{Role: RoleAssistant, Content: answer.String()})

	return &ChatResult{
		Answer:  answer.String(),
		History: history,
		Meta: ChatMeta{
			Model:        model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalCostUSD: cost.TotalCostUSD,
			ElapsedMS:    elapsed,
		},
	}, nil
}

// buildMessages assembles the request messages. A fresh conversation sends
// the system prompt and static context once; a continued one only appends
// the new question.
func (e *ChatEngine) buildMessages(req AskRequest) ([]Message, error) {
	question := Message{Role: RoleUser, Content: req.Question}

	if len(req.History) == 0 {
		prompt, err := prompts.Load(req.PromptName)
		if err != nil {
			return nil, err
		}

		return []Message{
			{Role: RoleSystem, Content: prompt.System},
			{Role: RoleUser, Content: prompt.RenderUser(req.JobDescription, req.ResumeText)},
			question,
		}, nil
	}

	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	return append(messages, question), nil
}
