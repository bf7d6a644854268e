package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreds() *Credentials {
	return &Credentials{
		AccessToken:   "live-token",
		RefreshToken:  "refresh-token",
		TokenEndpoint: "https://oauth2.googleapis.com/token",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		Scopes:        []string{"scope-a"},
		Expiry:        time.Now().Add(time.Hour),
	}
}

func TestRefreshIfNeeded_StillValid(t *testing.T) {
	creds := validCreds()

	refreshed, got, err := RefreshIfNeeded(context.Background(), creds)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Same(t, creds, got)
}

func TestRefreshIfNeeded_ExpiredWithoutRefreshToken(t *testing.T) {
	creds := validCreds()
	creds.RefreshToken = ""
	creds.Expiry = time.Now().Add(-time.Minute)

	refreshed, got, err := RefreshIfNeeded(context.Background(), creds)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Same(t, creds, got)
}

func TestRefreshIfNeeded_Refreshes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "fresh-token",
			"token_type": "Bearer",
			"expires_in": 3600
		}`))
	}))
	defer ts.Close()

	creds := validCreds()
	creds.TokenEndpoint = ts.URL
	creds.Expiry = time.Now().Add(-time.Minute)

	refreshed, got, err := RefreshIfNeeded(context.Background(), creds)
	require.NoError(t, err)
	assert.True(t, refreshed)

	// New bundle, old one untouched
	assert.Equal(t, "fresh-token", got.AccessToken)
	assert.Equal(t, "live-token", creds.AccessToken)
	// Refresh token carried over when the endpoint does not rotate it
	assert.Equal(t, "refresh-token", got.RefreshToken)
	assert.True(t, got.Expiry.After(time.Now()))
}

func TestRefreshIfNeeded_RotatedRefreshToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "fresh-token",
			"refresh_token": "rotated-refresh",
			"token_type": "Bearer",
			"expires_in": 3600
		}`))
	}))
	defer ts.Close()

	creds := validCreds()
	creds.TokenEndpoint = ts.URL
	creds.Expiry = time.Now().Add(-time.Minute)

	refreshed, got, err := RefreshIfNeeded(context.Background(), creds)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "rotated-refresh", got.RefreshToken)
}

func TestRefreshIfNeeded_RevokedGrant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer ts.Close()

	creds := validCreds()
	creds.TokenEndpoint = ts.URL
	creds.Expiry = time.Now().Add(-time.Minute)

	refreshed, got, err := RefreshIfNeeded(context.Background(), creds)
	assert.False(t, refreshed)
	assert.Same(t, creds, got)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
}

func TestCredentials_Valid(t *testing.T) {
	creds := validCreds()
	now := time.Now()

	assert.True(t, creds.Valid(now))

	creds.Expiry = now.Add(5 * time.Second) // inside the expiry delta
	assert.False(t, creds.Valid(now))

	creds.Expiry = time.Time{} // no reported expiry
	assert.True(t, creds.Valid(now))

	creds.AccessToken = ""
	assert.False(t, creds.Valid(now))
}

func TestCredentials_Clone(t *testing.T) {
	creds := validCreds()
	dup := creds.Clone()

	dup.AccessToken = "changed"
	dup.Scopes[0] = "changed"

	assert.Equal(t, "live-token", creds.AccessToken)
	assert.Equal(t, "scope-a", creds.Scopes[0])
}
