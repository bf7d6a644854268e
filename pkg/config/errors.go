package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when the config file is not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrOAuthClientRequired is returned when OAuth client credentials are missing
	ErrOAuthClientRequired = errors.New("oauth.client_id and oauth.client_secret are required")

	// ErrRedirectURLRequired is returned when the OAuth redirect URL is missing
	ErrRedirectURLRequired = errors.New("oauth.redirect_url is required")

	// ErrProviderKeyMissing is returned when the selected AI provider has no API key.
	// This is a startup-fatal configuration error, never retried at request time.
	ErrProviderKeyMissing = errors.New("missing API key for selected AI provider")

	// ErrUnknownProvider is returned for an unrecognized AI provider kind
	ErrUnknownProvider = errors.New("unknown AI provider")

	// ErrInvalidMaxAttempts is returned when the retry ceiling is not positive
	ErrInvalidMaxAttempts = errors.New("ai.max_attempts must be at least 1")

	// ErrUnknownCacheType is returned for an unrecognized cache backend
	ErrUnknownCacheType = errors.New("unknown cache type (allowed: memory, leveldb, redis)")

	// ErrRedisAddrRequired is returned when the redis cache has no address
	ErrRedisAddrRequired = errors.New("cache.redis.addr is required when cache type is redis")

	// ErrLevelDBPathRequired is returned when the leveldb cache has no path
	ErrLevelDBPathRequired = errors.New("cache.path is required when cache type is leveldb")

	// ErrUnknownSenderType is returned for an unrecognized outbound sender
	ErrUnknownSenderType = errors.New("unknown sender type (allowed: gmail, sendgrid)")

	// ErrSendGridConfigRequired is returned when sendgrid is selected without credentials
	ErrSendGridConfigRequired = errors.New("outbound.sendgrid.api_key and outbound.sendgrid.from are required")
)
