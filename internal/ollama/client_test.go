package ollama

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
	"github.com/tildaslashalef/methodgen/internal/config"
)

// setupTestServer creates a test HTTP server that simulates the Ollama API
func setupTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)

	cfg := config.OllamaConfig{
		Endpoint:            server.URL + "/",
		Timeout:             5 * time.Second,
		Model:               "test-model",
		Seed:                42,
		MaxTokens:           256,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return server, NewClient(cfg)
}

func TestNewClient(t *testing.T) {
	cfg := config.OllamaConfig{
		Endpoint: "http://localhost:11434/",
		Timeout:  30 * time.Second,
	}

	client := NewClient(cfg)
	assert.Equal(t, "http://localhost:11434", client.config.Endpoint)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestGetVersion(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(VersionResponse{Version: "0.6.2"})
	})
	defer server.Close()

	version, err := client.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.6.2", version)
}

func TestGenerateChat(t *testing.T) {
	tests := []struct {
		name       string
		request    ChatRequest
		status     int
		response   interface{}
		wantErr    bool
		checkSent  func(t *testing.T, sent ChatRequest)
		checkReply func(t *testing.T, resp *ChatResponse)
	}{
		{
			name: "defaults applied",
			request: ChatRequest{
				Messages: []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "complete"}},
			},
			status: http.StatusOK,
			response: ChatResponse{
				Model:           "test-model",
				Message:         Message{Role: "assistant", Content: "void f() {}"},
				Done:            true,
				PromptEvalCount: 20,
				EvalCount:       5,
			},
			checkSent: func(t *testing.T, sent ChatRequest) {
				assert.Equal(t, "test-model", sent.Model)
				assert.False(t, sent.Stream)
				require.NotNil(t, sent.Options)
				require.NotNil(t, sent.Options.Temperature)
				assert.Equal(t, 0.0, *sent.Options.Temperature)
				assert.Equal(t, 42, *sent.Options.Seed)
				assert.Equal(t, 256, *sent.Options.NumPredict)
				assert.Len(t, sent.Messages, 2)
			},
			checkReply: func(t *testing.T, resp *ChatResponse) {
				assert.Equal(t, "void f() {}", resp.Message.Content)
				assert.Equal(t, 5, resp.EvalCount)
			},
		},
		{
			name: "explicit options kept",
			request: ChatRequest{
				Model:    "codellama:13b",
				Messages: []Message{{Role: "user", Content: "complete"}},
				Options:  &RequestOptions{Temperature: Float64Ptr(0.7), Seed: IntPtr(7)},
			},
			status:   http.StatusOK,
			response: ChatResponse{Model: "codellama:13b", Done: true},
			checkSent: func(t *testing.T, sent ChatRequest) {
				assert.Equal(t, "codellama:13b", sent.Model)
				assert.Equal(t, 0.7, *sent.Options.Temperature)
				assert.Equal(t, 7, *sent.Options.Seed)
			},
		},
		{
			name:     "model error in body",
			request:  ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}},
			status:   http.StatusOK,
			response: ChatResponse{Error: "model not found"},
			wantErr:  true,
		},
		{
			name:     "server error",
			request:  ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}},
			status:   http.StatusServiceUnavailable,
			response: map[string]string{"error": "loading"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent ChatRequest
			server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/chat", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.response)
			})
			defer server.Close()

			resp, err := client.GenerateChat(context.Background(), tt.request)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkSent != nil {
				tt.checkSent(t, sent)
			}
			if tt.checkReply != nil {
				tt.checkReply(t, resp)
			}
		})
	}
}

func TestAPIErrorTemporary(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer server.Close()

	_, err := client.GetVersion(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.False(t, (&APIError{StatusCode: http.StatusNotFound}).Temporary())
}

func TestGenerateChat_ContextCancelled(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GenerateChat(ctx, ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
