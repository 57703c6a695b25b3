package llm

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/ollama"
)

// ollamaClientAdapter adapts the Ollama client to the LLM Client interface
type ollamaClientAdapter struct {
	client *ollama.Client
	config config.OllamaConfig
}

func newOllamaClientAdapter(client *ollama.Client, cfg config.OllamaConfig) *ollamaClientAdapter {
	return &ollamaClientAdapter{client: client, config: cfg}
}

// GenerateChat implements the Client interface for Ollama
func (a *ollamaClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.config.MaxTokens
	}

	options := &ollama.RequestOptions{
		Temperature: ollama.Float64Ptr(float64Or(req.Temperature, a.config.Temperature)),
		Seed:        ollama.IntPtr(intOr(req.Seed, a.config.Seed)),
	}
	if maxTokens > 0 {
		options.NumPredict = ollama.IntPtr(maxTokens)
	}

	resp, err := a.client.GenerateChat(ctx, ollama.ChatRequest{
		Model:    req.Model,
		Messages: convertMessagesToOllama(req.Messages),
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat generation failed: %w", err)
	}

	return &ChatResponse{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		FinishReason: resp.DoneReason,
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
		},
	}, nil
}

func convertMessagesToOllama(messages []Message) []ollama.Message {
	out := make([]ollama.Message, len(messages))
	for i, msg := range messages {
		out[i] = ollama.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}
