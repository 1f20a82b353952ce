// Package openai implements the analysis and chat engines on top of the
// OpenAI chat-completions API.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/utils"
)

const (
	apiURL      = "https://api.openai.com/v1"
	contentType = "application/json"

	// Roles used in chat message lists.
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role" mapstructure:"role"`
	Content string `json:"content" mapstructure:"content"`
}

// ResponseFormat hints the provider about the desired output shape.
type ResponseFormat struct {
	Type string `json:"type"`
}

// StreamOptions controls streaming behaviour. IncludeUsage asks the provider
// to append a final chunk carrying token usage counts.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatRequest is the JSON body for POST /chat/completions.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *StreamOptions  `json:"stream_options,omitempty"`
}

// Usage carries the provider's token accounting for a call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one completion alternative in a non-streaming response.
type Choice struct {
	Message Message `json:"message"`
}

// ChatResponse is the body of a non-streaming completion.
type ChatResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage"`
}

// StreamDelta is the incremental content carried by one streamed chunk.
type StreamDelta struct {
	Content string `json:"content"`
}

// StreamChoice is one completion alternative within a streamed chunk.
type StreamChoice struct {
	Delta StreamDelta `json:"delta"`
}

// StreamChunk is a single server-sent event from a streaming completion.
// Either Choices carries partial content, or Usage carries the final token
// counts, or both are empty (keep-alive).
type StreamChunk struct {
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage"`
}

// Client talks to the OpenAI chat-completions API. Construct it once and
// share it across engine instances.
type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
	// MaxRetries bounds additional attempts after a rate-limited call.
	MaxRetries int
	// RetryDelay is the base backoff, doubled on each further attempt.
	RetryDelay time.Duration
}

// New creates a Client with the given API key.
func New(apiKey string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: apiKey,
		logger: logger,
		APIURL: apiURL,
		// No client-side timeout: a slow model is not an error, and
		// streaming calls stay open for the whole answer.
		HTTPClient: &http.Client{},
		MaxRetries: 2,
		RetryDelay: time.Second,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, body *ChatRequest) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// ChatCompletion issues a non-streaming completion call. Rate-limited calls
// are retried with doubling backoff up to MaxRetries additional attempts.
func (c *Client) ChatCompletion(ctx context.Context, body *ChatRequest) (*ChatResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.RetryDelay << (attempt - 1)
			c.logger.Debug("rate limited, retrying chat completion",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := utils.WaitFor(ctx, delay); err != nil {
				return nil, err
			}
		}

		out, retry, err := c.chatCompletionOnce(ctx, body)
		if err == nil {
			return out, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) chatCompletionOnce(ctx context.Context, body *ChatRequest) (*ChatResponse, bool, error) {
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode == http.StatusTooManyRequests, apiError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decoding chat completion response: %w", err)
	}

	return &out, false, nil
}

// StreamChatCompletion issues a streaming completion call and invokes
// onChunk for every server-sent event until the stream is exhausted.
// An error returned by onChunk aborts the stream and is propagated.
func (c *Client) StreamChatCompletion(ctx context.Context, body *ChatRequest, onChunk func(*StreamChunk) error) error {
	streamBody := *body
	streamBody.Stream = true

	req, err := c.newRequest(ctx, &streamBody)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("streaming chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	// A single SSE line can carry a large delta.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}

		data := bytes.TrimPrefix(line, []byte("data: "))
		if bytes.Equal(bytes.TrimSpace(data), []byte("[DONE]")) {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk", zap.Error(err))
			continue
		}

		if err := onChunk(&chunk); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading completion stream: %w", err)
	}

	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("openai api status %d: %s", resp.StatusCode, msg)
}
