package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.5-flash"

// Gemini implements Provider on the Google Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed provider. The API key is required.
func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, &ConfigError{Kind: "gemini", Reason: "API key not configured"}
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = geminiDefaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the provider name
func (c *Gemini) Name() string { return "gemini" }

// Complete generates content for a prompt
func (c *Gemini) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyGeminiError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Provider: "gemini", Code: CodeProviderError, Message: "no content generated"}
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: "gemini",
			Code:     classifyStatus(apiErr.Code),
			Status:   apiErr.Code,
			Message:  apiErr.Message,
			wrapped:  err,
		}
	}
	return transportError("gemini", err)
}
