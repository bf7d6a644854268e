// Package auth implements the Google authorization-code flow and the
// credential lifecycle for acting on a user's mailbox.
package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta is subtracted from the reported expiry when judging token
// validity, so a token about to expire mid-request counts as stale.
const expiryDelta = 10 * time.Second

// Credentials is the token bundle obtained from the authorization server.
// It is an immutable value: a refresh produces a new bundle that replaces
// the old one atomically in the session store.
type Credentials struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	TokenEndpoint string    `json:"token_endpoint"`
	ClientID      string    `json:"client_id"`
	ClientSecret  string    `json:"client_secret"`
	Scopes        []string  `json:"scopes"`
	Expiry        time.Time `json:"expiry"`
}

// Valid reports whether the access token can still be presented to the
// resource API.
func (c *Credentials) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return now.Before(c.Expiry.Add(-expiryDelta))
}

// CanRefresh reports whether the bundle carries a refresh token.
func (c *Credentials) CanRefresh() bool {
	return c != nil && c.RefreshToken != ""
}

// Token converts the bundle into an oauth2 token.
func (c *Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Clone returns an independent copy of the bundle.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Scopes = append([]string(nil), c.Scopes...)
	return &dup
}

// HTTPClient returns an HTTP client presenting the access token as-is.
// The token source is static: staleness is handled by RefreshIfNeeded
// before the bundle reaches a resource call, never mid-flight.
func (c *Credentials) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(c.Token()))
}

// endpointConfig rebuilds the oauth2 client configuration the bundle was
// issued under, for talking to its token endpoint.
func (c *Credentials) endpointConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL: c.TokenEndpoint,
		},
	}
}
