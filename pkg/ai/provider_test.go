package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

func TestNew_MissingSecretFailsImmediately(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.AIConfig
	}{
		{"openai", config.AIConfig{Provider: "openai"}},
		{"anthropic", config.AIConfig{Provider: "anthropic"}},
		{"gemini", config.AIConfig{Provider: "gemini"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.name, cfgErr.Kind)
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(config.AIConfig{Provider: "cohere"})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNew_Fallback(t *testing.T) {
	p, err := New(config.AIConfig{Provider: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", p.Name())
}

func TestNew_OpenAI(t *testing.T) {
	p, err := New(config.AIConfig{Provider: "openai", OpenAIAPIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestOpenAI_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": " generated text "}}]
		}`))
	}))
	defer ts.Close()

	p, err := NewOpenAI("sk-test", WithOpenAIBaseURL(ts.URL))
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
}

func TestOpenAI_RateLimitClassified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer ts.Close()

	p, err := NewOpenAI("sk-test", WithOpenAIBaseURL(ts.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "prompt", 100)
	assert.True(t, IsRateLimited(err))
}

func TestOpenAI_ServerErrorTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	p, err := NewOpenAI("sk-test", WithOpenAIBaseURL(ts.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "prompt", 100)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeTransient, pe.Code)
	assert.False(t, IsRateLimited(err))
}

func TestAnthropic_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "generated text"}]
		}`))
	}))
	defer ts.Close()

	p, err := NewAnthropic("sk-ant-test", WithAnthropicBaseURL(ts.URL))
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
}

func TestAnthropic_RateLimitClassified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p, err := NewAnthropic("sk-ant-test", WithAnthropicBaseURL(ts.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "prompt", 100)
	assert.True(t, IsRateLimited(err))
}

func TestGatewayWithHTTPProvider_DegradesToFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p, err := NewOpenAI("sk-test", WithOpenAIBaseURL(ts.URL))
	require.NoError(t, err)

	gw := NewGateway(p, WithBaseDelay(time.Millisecond))

	out, err := gw.Complete(context.Background(), "please summarize this email", 100)
	require.NoError(t, err)
	assert.Contains(t, out, "important information")
}
