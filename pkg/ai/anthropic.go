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
	anthropicDefaultModel   = "claude-3-sonnet-20240229"
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// Anthropic implements Provider against the messages API
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// AnthropicOption configures the client
type AnthropicOption func(*Anthropic)

// WithAnthropicModel overrides the default model. Empty keeps the default.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *Anthropic) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAnthropicBaseURL overrides the API base URL
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(c *Anthropic) { c.baseURL = url }
}

// WithAnthropicHTTPClient overrides the HTTP client
func WithAnthropicHTTPClient(client *http.Client) AnthropicOption {
	return func(c *Anthropic) { c.httpClient = client }
}

// NewAnthropic creates an Anthropic-backed provider. The API key is required.
func NewAnthropic(apiKey string, opts ...AnthropicOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, &ConfigError{Kind: "anthropic", Reason: "API key not configured"}
	}
	c := &Anthropic{
		apiKey:     apiKey,
		model:      anthropicDefaultModel,
		baseURL:    anthropicDefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name
func (c *Anthropic) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete dispatches a single-turn message
func (c *Anthropic) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.baseURL, "/")+"/messages", buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", transportError("anthropic", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError("anthropic", resp.StatusCode, string(data))
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(decoded.Content) == 0 {
		return "", &ProviderError{Provider: "anthropic", Code: CodeProviderError, Message: "empty content"}
	}

	return strings.TrimSpace(decoded.Content[0].Text), nil
}
