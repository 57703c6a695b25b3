package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/tildaslashalef/methodgen/internal/config"
)

// geminiModels is the part of genai.Models the adapter uses
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// geminiClientAdapter adapts the genai SDK to the LLM Client interface
type geminiClientAdapter struct {
	models geminiModels
	config config.GeminiConfig
}

func newGeminiClientAdapter(ctx context.Context, cfg config.GeminiConfig) (*geminiClientAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, err
	}
	return &geminiClientAdapter{models: client.Models, config: cfg}, nil
}

// GenerateChat implements the Client interface for Gemini
func (a *geminiClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.config.MaxTokens
	}

	temperature := float32(float64Or(req.Temperature, a.config.Temperature))
	seed := int32(intOr(req.Seed, a.config.Seed))

	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		Seed:            &seed,
		MaxOutputTokens: int32(maxTokens),
	}

	system, rest := splitSystem(req.Messages)
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := make([]*genai.Content, len(rest))
	for i, msg := range rest {
		contents[i] = genai.NewContentFromText(msg.Content, convertRoleToGemini(msg.Role))
	}

	resp, err := a.models.GenerateContent(ctx, model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini chat generation failed: %w", wrapGeminiError(err))
	}

	out := &ChatResponse{
		Content: resp.Text(),
		Model:   resp.ModelVersion,
	}
	if out.Model == "" {
		out.Model = model
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

func convertRoleToGemini(role string) genai.Role {
	if role == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// wrapGeminiError converts genai.APIError into a StatusError for retry handling
func wrapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
	}
	// the SDK returns the error by value
	var valErr genai.APIError
	if errors.As(err, &valErr) {
		return &StatusError{Provider: "gemini", StatusCode: valErr.Code, Err: err}
	}
	return err
}
