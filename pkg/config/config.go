package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Session  SessionConfig  `yaml:"session" json:"session"`
	OAuth    OAuthConfig    `yaml:"oauth" json:"oauth"`
	AI       AIConfig       `yaml:"ai" json:"ai"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Outbound OutboundConfig `yaml:"outbound" json:"outbound"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	BaseURL       string `yaml:"base_url" json:"base_url"`             // External base URL for OAuth redirects
	ChatRateLimit int    `yaml:"chat_rate_limit" json:"chat_rate_limit"` // Chat messages per minute per session (0 = unlimited)
}

// SessionConfig contains session lifecycle settings
type SessionConfig struct {
	TTL           string `yaml:"ttl" json:"ttl"`                       // Session lifetime (default: "24h")
	SweepInterval string `yaml:"sweep_interval" json:"sweep_interval"` // Expired-session sweep period (default: "10m")
}

// GetTTL returns the session TTL as a time.Duration
func (s SessionConfig) GetTTL() (time.Duration, error) {
	return time.ParseDuration(s.TTL)
}

// GetSweepInterval returns the sweep interval as a time.Duration
func (s SessionConfig) GetSweepInterval() (time.Duration, error) {
	return time.ParseDuration(s.SweepInterval)
}

// OAuthConfig contains the Google OAuth2 client settings
type OAuthConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	RedirectURL  string `yaml:"redirect_url" json:"redirect_url"`
}

// AIConfig contains text-generation backend settings
type AIConfig struct {
	Provider        string `yaml:"provider" json:"provider"` // "openai", "anthropic", "gemini" or "fallback"
	Model           string `yaml:"model" json:"model"`       // Optional model override
	OpenAIAPIKey    string `yaml:"openai_api_key" json:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key" json:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key" json:"gemini_api_key"`
	MaxAttempts     int    `yaml:"max_attempts" json:"max_attempts"` // Total attempts before fallback (default: 3)
	BaseDelay       string `yaml:"base_delay" json:"base_delay"`     // Initial backoff delay, doubles per attempt (default: "1s")
}

// GetBaseDelay returns the backoff base delay as a time.Duration
func (a AIConfig) GetBaseDelay() (time.Duration, error) {
	return time.ParseDuration(a.BaseDelay)
}

// CacheConfig contains summary cache settings
type CacheConfig struct {
	Type  string           `yaml:"type" json:"type"` // "memory", "leveldb" or "redis" (default: "memory")
	TTL   string           `yaml:"ttl" json:"ttl"`   // Entry lifetime (default: "1h")
	Path  string           `yaml:"path" json:"path"` // LevelDB directory (used when type is "leveldb")
	Redis RedisCacheConfig `yaml:"redis" json:"redis"`
}

// RedisCacheConfig contains Redis cache backend settings
type RedisCacheConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"` // Key prefix (default: "summary:")
}

// GetTTL returns the cache entry TTL as a time.Duration
func (c CacheConfig) GetTTL() (time.Duration, error) {
	return time.ParseDuration(c.TTL)
}

// OutboundConfig contains settings for sending mail on the user's behalf
type OutboundConfig struct {
	SenderType string         `yaml:"sender_type" json:"sender_type"` // "gmail" (default) or "sendgrid"
	SendGrid   SendGridConfig `yaml:"sendgrid" json:"sendgrid"`
	Product    ProductConfig  `yaml:"product" json:"product"`
}

// SendGridConfig contains SendGrid API settings
type SendGridConfig struct {
	APIKey   string `yaml:"api_key" json:"api_key"`
	From     string `yaml:"from" json:"from"`
	FromName string `yaml:"from_name" json:"from_name"`
}

// ProductConfig brands rendered HTML emails
type ProductConfig struct {
	Name    string `yaml:"name" json:"name"`
	Link    string `yaml:"link" json:"link"`
	LogoURL string `yaml:"logo_url" json:"logo_url"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		return ErrOAuthClientRequired
	}
	if c.OAuth.RedirectURL == "" {
		return ErrRedirectURLRequired
	}

	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai requires ai.openai_api_key", ErrProviderKeyMissing)
		}
	case "anthropic":
		if c.AI.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: anthropic requires ai.anthropic_api_key", ErrProviderKeyMissing)
		}
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("%w: gemini requires ai.gemini_api_key", ErrProviderKeyMissing)
		}
	case "fallback":
		// No secret needed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.AI.Provider)
	}

	if _, err := c.Session.GetTTL(); err != nil {
		return fmt.Errorf("invalid session.ttl: %w", err)
	}
	if _, err := c.Session.GetSweepInterval(); err != nil {
		return fmt.Errorf("invalid session.sweep_interval: %w", err)
	}
	if _, err := c.AI.GetBaseDelay(); err != nil {
		return fmt.Errorf("invalid ai.base_delay: %w", err)
	}
	if c.AI.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	switch c.Cache.Type {
	case "memory", "redis", "leveldb":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheType, c.Cache.Type)
	}
	if c.Cache.Type == "redis" && c.Cache.Redis.Addr == "" {
		return ErrRedisAddrRequired
	}
	if c.Cache.Type == "leveldb" && c.Cache.Path == "" {
		return ErrLevelDBPathRequired
	}

	switch c.Outbound.SenderType {
	case "gmail":
	case "sendgrid":
		if c.Outbound.SendGrid.APIKey == "" || c.Outbound.SendGrid.From == "" {
			return ErrSendGridConfigRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSenderType, c.Outbound.SenderType)
	}

	return nil
}
