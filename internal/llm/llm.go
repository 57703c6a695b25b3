package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/methodgen/internal/claude"
	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/loggy"
	"github.com/tildaslashalef/methodgen/internal/ollama"
)

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrProviderNotConfigured is returned by GetClient for a provider without credentials
var ErrProviderNotConfigured = errors.New("LLM provider not configured")

// Message represents a chat message with role and content
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a generic chat request to any LLM.
// Nil Temperature and Seed fall back to the provider configuration.
type ChatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Seed        *int      `json:"seed,omitempty"`
}

// Usage reports the tokens a provider billed for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatResponse represents a response from a chat request
type ChatResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Client defines the interface for LLM clients
type Client interface {
	// GenerateChat sends a non-streaming chat request
	GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ClientType defines the type of LLM client
type ClientType string

const (
	OpenAI ClientType = config.ProviderOpenAI
	Ollama ClientType = config.ProviderOllama
	Claude ClientType = config.ProviderClaude
	Gemini ClientType = config.ProviderGemini
)

// Factory creates and returns LLM clients. Every client it hands out
// is wrapped with the provider's rate limiter and the shared retry policy.
type Factory struct {
	config *config.Config
	policy RetryPolicy
	logger *loggy.Logger

	ollama *ollama.Client
	claude *claude.Client

	limiters map[ClientType]*rate.Limiter
	adapters map[ClientType]Client
}

// newLimiter builds a rate limiter from requests per minute and burst
func newLimiter(rpm, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// NewFactory creates a new LLM client factory
func NewFactory(ctx context.Context, cfg *config.Config, logger *loggy.Logger) (*Factory, error) {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}

	f := &Factory{
		config:   cfg,
		policy:   NewRetryPolicy(cfg.Retry),
		logger:   logger,
		limiters: make(map[ClientType]*rate.Limiter),
		adapters: make(map[ClientType]Client),
	}

	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.BaseURL != "" {
		f.adapters[OpenAI] = newOpenAIClientAdapter(cfg.OpenAI)
		f.limiters[OpenAI] = newLimiter(cfg.OpenAI.RequestsPerMinute, cfg.OpenAI.BurstLimit)
		logger.Info("initialized OpenAI client", "model", cfg.OpenAI.Model, "rpm", cfg.OpenAI.RequestsPerMinute)
	}

	if cfg.Ollama.Endpoint != "" {
		f.ollama = ollama.NewClient(cfg.Ollama)
		f.adapters[Ollama] = newOllamaClientAdapter(f.ollama, cfg.Ollama)
		f.limiters[Ollama] = newLimiter(cfg.Ollama.RequestsPerMinute, cfg.Ollama.BurstLimit)
		logger.Info("initialized Ollama client", "endpoint", cfg.Ollama.Endpoint, "rpm", cfg.Ollama.RequestsPerMinute)
	}

	if cfg.Claude.APIKey != "" {
		f.claude = claude.NewClient(cfg.Claude)
		f.adapters[Claude] = newClaudeClientAdapter(f.claude, cfg.Claude)
		f.limiters[Claude] = newLimiter(cfg.Claude.RequestsPerMinute, cfg.Claude.BurstLimit)
		logger.Info("initialized Claude client", "model", cfg.Claude.Model, "rpm", cfg.Claude.RequestsPerMinute)
	}

	if cfg.Gemini.APIKey != "" {
		adapter, err := newGeminiClientAdapter(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		f.adapters[Gemini] = adapter
		f.limiters[Gemini] = newLimiter(cfg.Gemini.RequestsPerMinute, cfg.Gemini.BurstLimit)
		logger.Info("initialized Gemini client", "model", cfg.Gemini.Model, "rpm", cfg.Gemini.RequestsPerMinute)
	}

	return f, nil
}

// GetClient returns a rate limited, retrying client of the specified type
func (f *Factory) GetClient(clientType ClientType) (Client, error) {
	switch clientType {
	case OpenAI, Ollama, Claude, Gemini:
	default:
		return nil, fmt.Errorf("unknown client type: %s", clientType)
	}

	adapter, ok := f.adapters[clientType]
	if !ok {
		return nil, fmt.Errorf("%s: %w", clientType, ErrProviderNotConfigured)
	}

	return newRetryingClient(string(clientType), adapter, f.limiters[clientType], f.policy, f.logger), nil
}

// GetDefaultClient returns the client for the configured default provider
func (f *Factory) GetDefaultClient() (Client, ClientType, error) {
	clientType := ClientType(f.config.DefaultLLMProvider)
	client, err := f.GetClient(clientType)
	if err != nil {
		return nil, "", fmt.Errorf("default provider %s: %w", clientType, err)
	}
	return client, clientType, nil
}

// DefaultModel returns the configured model of a provider
func (f *Factory) DefaultModel(clientType ClientType) string {
	switch clientType {
	case OpenAI:
		return f.config.OpenAI.Model
	case Ollama:
		return f.config.Ollama.Model
	case Claude:
		return f.config.Claude.Model
	case Gemini:
		return f.config.Gemini.Model
	default:
		return ""
	}
}

// Ollama returns the raw Ollama client, or nil
func (f *Factory) Ollama() *ollama.Client {
	return f.ollama
}

// splitSystem separates system messages from the conversation, for
// providers that take the system prompt as a separate field
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func float64Or(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
