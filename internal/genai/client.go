// Package genai wraps the OpenAI API for chat completion, streaming, and
// text embedding.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// Default model names and sampling parameters for the coach.
const (
	DefaultChatModel      = "gpt-4o"
	DefaultEmbeddingModel = "text-embedding-3-large"

	defaultTemperature = 0.8
	defaultTopP        = 0.9
	defaultMaxTokens   = 600
)

// ErrNoChoicesReturned indicates the completion API returned an empty choice
// list.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService is the slice of the OpenAI client the Client needs for chat,
// so tests can substitute a mock.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

// embeddingService is the slice of the OpenAI client used for embeddings.
type embeddingService interface {
	New(ctx context.Context, params openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

// The real services carry their methods on pointer receivers.
var (
	_ chatService      = (*openai.ChatCompletionService)(nil)
	_ embeddingService = (*openai.EmbeddingService)(nil)
)

// Client wraps the OpenAI chat and embedding services.
type Client struct {
	chat       chatService
	embeddings embeddingService

	chatModel      string
	embeddingModel string
}

// Opts holds configuration for creating a Client.
type Opts struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
}

// Option configures the Client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key explicitly.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithChatModel overrides the chat model.
func WithChatModel(model string) Option {
	return func(o *Opts) { o.ChatModel = model }
}

// WithEmbeddingModel overrides the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(o *Opts) { o.EmbeddingModel = model }
}

// NewClient creates a Client. The API key falls back to the OPENAI_API_KEY
// environment variable; model names fall back to OPENAI_MODEL and
// OPENAI_EMBEDDING_MODEL, then to the package defaults.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = os.Getenv("OPENAI_MODEL")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = os.Getenv("OPENAI_EMBEDDING_MODEL")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai client created", "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)
	return &Client{
		chat:           &cli.Chat.Completions,
		embeddings:     &cli.Embeddings,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

// buildParams converts transcript messages into completion parameters.
func (c *Client) buildParams(messages []models.Message) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			converted = append(converted, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(m.Content))
		default:
			converted = append(converted, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.chatModel),
		Messages:    converted,
		Temperature: openai.Float(defaultTemperature),
		TopP:        openai.Float(defaultTopP),
		MaxTokens:   openai.Int(defaultMaxTokens),
	}
}

// Complete runs one chat completion over the given transcript and returns the
// reply text.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (string, error) {
	resp, err := c.chat.New(ctx, c.buildParams(messages))
	if err != nil {
		slog.Error("chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream runs one streaming chat completion, calling onToken for each content
// delta, and returns the full assembled reply.
func (c *Client) Stream(ctx context.Context, messages []models.Message, onToken func(string)) (string, error) {
	stream := c.chat.NewStreaming(ctx, c.buildParams(messages))
	defer stream.Close()

	var full string
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onToken != nil {
			onToken(delta)
		}
	}
	if err := stream.Err(); err != nil {
		slog.Error("chat stream failed", "error", err)
		return "", fmt.Errorf("chat stream failed: %w", err)
	}
	return full, nil
}

// Embed returns the embedding vector for one piece of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		slog.Error("embedding request failed", "error", err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
