package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/tildaslashalef/methodgen/internal/claude"
	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/ollama"
)

func promptMessages() []Message {
	return []Message{
		{Role: RoleSystem, Content: "You are a helpful code assistant."},
		{Role: RoleUser, Content: "Write a valid Java method"},
	}
}

func TestOpenAIAdapter(t *testing.T) {
	var sent map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-3.5-turbo-0125",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "public int add(int a, int b) {\n  return a + b;\n}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 31, "completion_tokens": 14, "total_tokens": 45}
		}`))
	}))
	defer server.Close()

	adapter := newOpenAIClientAdapter(config.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
		Seed:    42,
		Timeout: 5 * time.Second,
	})

	resp, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages()})
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", sent["model"])
	assert.Equal(t, float64(42), sent["seed"])
	temp, ok := sent["temperature"].(float64)
	require.True(t, ok, "temperature must be sent")
	assert.Less(t, temp, 1e-30)
	assert.Len(t, sent["messages"], 2)

	assert.Contains(t, resp.Content, "return a + b;")
	assert.Equal(t, "gpt-3.5-turbo-0125", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, Usage{PromptTokens: 31, CompletionTokens: 14}, resp.Usage)
}

func TestOpenAIAdapter_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	adapter := newOpenAIClientAdapter(config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})

	_, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages()})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestOpenAITemperature(t *testing.T) {
	assert.Greater(t, openAITemperature(0), float32(0))
	assert.Equal(t, float32(0.5), openAITemperature(0.5))
}

func TestOllamaAdapter(t *testing.T) {
	var sent ollama.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_ = json.NewEncoder(w).Encode(ollama.ChatResponse{
			Model:           "codellama",
			Message:         ollama.Message{Role: "assistant", Content: "void f() {}"},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 9,
			EvalCount:       4,
		})
	}))
	defer server.Close()

	cfg := config.OllamaConfig{Endpoint: server.URL, Model: "codellama", Seed: 42, Temperature: 0.3, Timeout: 5 * time.Second}
	adapter := newOllamaClientAdapter(ollama.NewClient(cfg), cfg)

	zero := 0.0
	resp, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages(), Temperature: &zero, MaxTokens: 64})
	require.NoError(t, err)

	assert.Equal(t, "codellama", sent.Model)
	require.NotNil(t, sent.Options)
	assert.Equal(t, 0.0, *sent.Options.Temperature)
	assert.Equal(t, 42, *sent.Options.Seed)
	assert.Equal(t, 64, *sent.Options.NumPredict)
	assert.Equal(t, "system", sent.Messages[0].Role)

	assert.Equal(t, "void f() {}", resp.Content)
	assert.Equal(t, Usage{PromptTokens: 9, CompletionTokens: 4}, resp.Usage)
}

func TestClaudeAdapter(t *testing.T) {
	var sent claude.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_ = json.NewEncoder(w).Encode(claude.ChatResponse{
			Model:      "claude-3-7-sonnet-20250219",
			Content:    []claude.ContentBlock{{Type: "text", Text: "void f() {}"}},
			StopReason: "end_turn",
			Usage:      claude.UsageInfo{InputTokens: 11, OutputTokens: 3},
		})
	}))
	defer server.Close()

	cfg := config.ClaudeConfig{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second}
	adapter := newClaudeClientAdapter(claude.NewClient(cfg), cfg)

	resp, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages()})
	require.NoError(t, err)

	assert.Equal(t, "You are a helpful code assistant.", sent.System)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user", sent.Messages[0].Role)
	assert.Equal(t, "void f() {}", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 3}, resp.Usage)
}

// fakeGeminiModels records the request and returns a canned response
type fakeGeminiModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGeminiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiAdapter(t *testing.T) {
	fake := &fakeGeminiModels{
		resp: &genai.GenerateContentResponse{
			ModelVersion: "gemini-2.0-flash-001",
			Candidates: []*genai.Candidate{{
				Content:      genai.NewContentFromText("void f() {}", genai.RoleModel),
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 5},
		},
	}
	adapter := &geminiClientAdapter{
		models: fake,
		config: config.GeminiConfig{Model: "gemini-2.0-flash", Seed: 42, MaxTokens: 1024},
	}

	resp, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages()})
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "Write a valid Java method", fake.contents[0].Parts[0].Text)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "You are a helpful code assistant.", fake.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, float32(0), *fake.config.Temperature)
	assert.Equal(t, int32(42), *fake.config.Seed)
	assert.Equal(t, int32(1024), fake.config.MaxOutputTokens)

	assert.Equal(t, "void f() {}", resp.Content)
	assert.Equal(t, "gemini-2.0-flash-001", resp.Model)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 5}, resp.Usage)
}

func TestGeminiAdapter_Error(t *testing.T) {
	fake := &fakeGeminiModels{err: genai.APIError{Code: 503, Message: "overloaded"}}
	adapter := &geminiClientAdapter{models: fake, config: config.GeminiConfig{Model: "gemini-2.0-flash"}}

	_, err := adapter.GenerateChat(context.Background(), ChatRequest{Messages: promptMessages()})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.True(t, IsRetryable(err))
}
