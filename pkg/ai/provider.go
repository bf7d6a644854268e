// Package ai provides interchangeable text-generation backends behind a
// single Provider interface, plus the retry/backoff/fallback gateway
// that the rest of the system calls through.
package ai

import (
	"context"
	"fmt"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

// Provider is the uniform interface to one text-generation backend
type Provider interface {
	// Name identifies the backend kind
	Name() string

	// Complete generates text for a prompt, bounded by maxTokens
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// New constructs the provider selected by configuration. A missing API
// key for the selected kind is a configuration error reported here,
// before any network call is possible.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, WithOpenAIModel(cfg.Model))
	case "anthropic":
		return NewAnthropic(cfg.AnthropicAPIKey, WithAnthropicModel(cfg.Model))
	case "gemini":
		return NewGemini(cfg.GeminiAPIKey, cfg.Model)
	case "fallback":
		return NewFallback(), nil
	default:
		return nil, &ConfigError{Kind: cfg.Provider, Reason: "unsupported provider kind"}
	}
}

// ConfigError indicates a backend cannot be constructed at all, e.g. a
// missing API key. Fatal at startup, never a runtime retry case.
type ConfigError struct {
	Kind   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ai provider %q: %s", e.Kind, e.Reason)
}
