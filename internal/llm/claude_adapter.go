package llm

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/methodgen/internal/claude"
	"github.com/tildaslashalef/methodgen/internal/config"
)

// claudeClientAdapter adapts the Claude client to the LLM Client interface
type claudeClientAdapter struct {
	client *claude.Client
	config config.ClaudeConfig
}

func newClaudeClientAdapter(client *claude.Client, cfg config.ClaudeConfig) *claudeClientAdapter {
	return &claudeClientAdapter{client: client, config: cfg}
}

// GenerateChat implements the Client interface for Claude.
// Claude has no seed parameter; Seed is ignored.
func (a *claudeClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, rest := splitSystem(req.Messages)

	messages := make([]claude.Message, len(rest))
	for i, msg := range rest {
		messages[i] = claude.Message{Role: msg.Role, Content: msg.Content}
	}

	resp, err := a.client.GenerateChat(ctx, claude.ChatRequest{
		Model:       req.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: claude.Float64Ptr(float64Or(req.Temperature, a.config.Temperature)),
	})
	if err != nil {
		return nil, fmt.Errorf("claude chat generation failed: %w", err)
	}

	return &ChatResponse{
		Content:      resp.Text(),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
