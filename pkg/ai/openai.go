package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIDefaultModel   = "gpt-4o"
	openAIDefaultBaseURL = "https://api.openai.com/v1"
)

// OpenAI implements Provider against the chat completions API
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// OpenAIOption configures the client
type OpenAIOption func(*OpenAI)

// WithOpenAIModel overrides the default model. Empty keeps the default.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAI) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOpenAIBaseURL overrides the API base URL
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *OpenAI) { c.baseURL = url }
}

// WithOpenAIHTTPClient overrides the HTTP client
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAI) { c.httpClient = client }
}

// NewOpenAI creates an OpenAI-backed provider. The API key is required.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, &ConfigError{Kind: "openai", Reason: "API key not configured"}
	}
	c := &OpenAI{
		apiKey:     apiKey,
		model:      openAIDefaultModel,
		baseURL:    openAIDefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name
func (c *OpenAI) Name() string { return "openai" }

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Complete dispatches a single-turn chat completion
func (c *OpenAI) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := openAIChatRequest{
		Model:       c.model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.baseURL, "/")+"/chat/completions", buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", transportError("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError("openai", resp.StatusCode, string(data))
	}

	var decoded openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Code: CodeProviderError, Message: "empty choices"}
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
