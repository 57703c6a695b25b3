package claude

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

// errorTransport is an http.RoundTripper that returns an error
type errorTransport struct {
	err error
}

func (t *errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, t.err
}

func setupTestServer(_ *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(handler)

	client := NewClient(config.ClaudeConfig{
		APIKey:  "test-api-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	return server, client
}

func TestNewClient(t *testing.T) {
	cases := []struct {
		name            string
		baseURL         string
		expectedBaseURL string
	}{
		{"normal URL", "https://api.anthropic.com", "https://api.anthropic.com"},
		{"URL with trailing slash", "https://api.anthropic.com/", "https://api.anthropic.com"},
		{"empty URL", "", "https://api.anthropic.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(config.ClaudeConfig{
				APIKey:  "test-key",
				BaseURL: tc.baseURL,
				Timeout: 10 * time.Second,
			})
			assert.Equal(t, tc.expectedBaseURL, client.baseURL)
			assert.Equal(t, "test-key", client.apiKey)
			assert.Equal(t, "2023-06-01", client.apiVersion)
			assert.Equal(t, 4096, client.defaultMaxTokens)
			assert.NotNil(t, client.httpClient)
		})
	}
}

func TestGenerateChat(t *testing.T) {
	cases := []struct {
		name           string
		request        ChatRequest
		serverResponse interface{}
		serverStatus   int
		expectError    bool
		temporary      bool
		validate       func(t *testing.T, got ChatRequest, resp *ChatResponse)
	}{
		{
			name: "successful request",
			request: ChatRequest{
				Model:    "claude-3-opus-20240229",
				System:   "You are a Java developer.",
				Messages: []Message{{Role: "user", Content: "Hello"}},
			},
			serverResponse: ChatResponse{
				ID:      "msg_123",
				Type:    "message",
				Role:    "assistant",
				Model:   "claude-3-opus-20240229",
				Content: []ContentBlock{{Type: "text", Text: "public void run() {"}, {Type: "text", Text: "}"}},
				Usage:   UsageInfo{InputTokens: 12, OutputTokens: 7},
			},
			serverStatus: http.StatusOK,
			validate: func(t *testing.T, got ChatRequest, resp *ChatResponse) {
				assert.Equal(t, "You are a Java developer.", got.System)
				require.NotNil(t, got.Temperature)
				assert.Equal(t, 0.0, *got.Temperature)
				assert.Equal(t, 4096, got.MaxTokens)
				assert.Equal(t, "public void run() {}", resp.Text())
				assert.Equal(t, 7, resp.Usage.OutputTokens)
			},
		},
		{
			name:    "default model used when not specified",
			request: ChatRequest{Messages: []Message{{Role: "user", Content: "Hello"}}},
			serverResponse: ChatResponse{
				Model:   "claude-3-7-sonnet-20250219",
				Content: []ContentBlock{{Type: "text", Text: "ok"}},
			},
			serverStatus: http.StatusOK,
			validate: func(t *testing.T, got ChatRequest, resp *ChatResponse) {
				assert.Equal(t, "claude-3-7-sonnet-20250219", got.Model)
			},
		},
		{
			name:    "rate limited",
			request: ChatRequest{Messages: []Message{{Role: "user", Content: "Hello"}}},
			serverResponse: map[string]interface{}{
				"type":  "error",
				"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
			},
			serverStatus: http.StatusTooManyRequests,
			expectError:  true,
			temporary:    true,
		},
		{
			name:    "invalid request",
			request: ChatRequest{Messages: []Message{{Role: "user", Content: "Hello"}}},
			serverResponse: map[string]interface{}{
				"type":  "error",
				"error": map[string]string{"type": "invalid_request_error", "message": "bad model"},
			},
			serverStatus: http.StatusBadRequest,
			expectError:  true,
			temporary:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ChatRequest
			server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/messages", r.URL.Path)
				assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
				assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.serverStatus)
				_ = json.NewEncoder(w).Encode(tc.serverResponse)
			})
			defer server.Close()

			resp, err := client.GenerateChat(context.Background(), tc.request)
			if tc.expectError {
				require.Error(t, err)
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tc.serverStatus, apiErr.StatusCode)
				assert.Equal(t, tc.temporary, apiErr.Temporary())
				return
			}

			require.NoError(t, err)
			tc.validate(t, got, resp)
		})
	}
}

func TestGenerateChat_NonJSONError(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})
	defer server.Close()

	_, err := client.GenerateChat(context.Background(), ChatRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.Contains(t, apiErr.Error(), "upstream unavailable")
}

func TestGenerateChat_TransportError(t *testing.T) {
	client := NewClient(config.ClaudeConfig{APIKey: "k", BaseURL: "http://example.invalid"})
	client.httpClient.Transport = &errorTransport{err: errors.New("connection refused")}

	_, err := client.GenerateChat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
