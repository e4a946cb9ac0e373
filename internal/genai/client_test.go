package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockChatService) NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk] {
	m.params = params
	return nil
}

// mockEmbeddingService implements embeddingService for testing.
type mockEmbeddingService struct {
	resp openai.CreateEmbeddingResponse
	err  error
}

func (m *mockEmbeddingService) New(ctx context.Context, params openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func testMessages() []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: "coach persona"},
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
	}
}

func TestComplete_Success(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Sounds like a good week."}},
			},
		},
	}
	client := &Client{chat: mock, chatModel: "test-model"}
	out, err := client.Complete(context.Background(), testMessages())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Sounds like a good week." {
		t.Errorf("unexpected reply: %q", out)
	}
	if mock.params.Model != "test-model" {
		t.Errorf("model = %q, want test-model", mock.params.Model)
	}
	if len(mock.params.Messages) != 3 {
		t.Errorf("expected 3 converted messages, got %d", len(mock.params.Messages))
	}
}

func TestComplete_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}, chatModel: "m"}
	_, err := client.Complete(context.Background(), testMessages())
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{}, chatModel: "m"}
	_, err := client.Complete(context.Background(), testMessages())
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestEmbed_Success(t *testing.T) {
	mock := &mockEmbeddingService{
		resp: openai.CreateEmbeddingResponse{
			Data: []openai.Embedding{{Embedding: []float64{0.1, 0.2, 0.3}}},
		},
	}
	client := &Client{embeddings: mock, embeddingModel: "embed-model"}
	vec, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(vec))
	}
	if vec[1] != float32(0.2) {
		t.Errorf("vec[1] = %v", vec[1])
	}
}

func TestEmbed_Empty(t *testing.T) {
	client := &Client{embeddings: &mockEmbeddingService{}, embeddingModel: "m"}
	_, err := client.Embed(context.Background(), "text")
	if err == nil {
		t.Error("expected error for empty embedding response")
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithChatModel("m1"), WithEmbeddingModel("m2"))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli.chatModel != "m1" || cli.embeddingModel != "m2" {
		t.Errorf("model overrides not applied: %q %q", cli.chatModel, cli.embeddingModel)
	}
	if cli.chat == nil || cli.embeddings == nil {
		t.Error("chat and embedding services should be wired")
	}
}
