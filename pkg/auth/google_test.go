package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestIdentityFromIDToken(t *testing.T) {
	raw := signedIDToken(t, jwt.MapClaims{
		"email":   "User@Example.com",
		"name":    "Test User",
		"picture": "https://example.com/avatar.png",
	})

	identity, err := identityFromIDToken(raw)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
	assert.Equal(t, "https://example.com/avatar.png", identity.Picture)
}

func TestIdentityFromIDToken_MissingEmail(t *testing.T) {
	raw := signedIDToken(t, jwt.MapClaims{"name": "No Email"})

	_, err := identityFromIDToken(raw)
	assert.ErrorIs(t, err, ErrEmailNotFound)
}

func TestIdentityFromIDToken_Garbage(t *testing.T) {
	_, err := identityFromIDToken("not-a-jwt")
	assert.Error(t, err)
}

func TestFlow_Exchange(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{
		"email": "user@example.com",
		"name":  "Test User",
	})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-token",
			"refresh_token": "refresh-token",
			"token_type": "Bearer",
			"expires_in": 3600,
			"id_token": "` + idToken + `"
		}`))
	}))
	defer ts.Close()

	flow := NewFlow("client-id", "client-secret", "http://localhost/callback")
	flow.config.Endpoint = oauth2.Endpoint{TokenURL: ts.URL}

	creds, identity, err := flow.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "access-token", creds.AccessToken)
	assert.Equal(t, "refresh-token", creds.RefreshToken)
	assert.Equal(t, ts.URL, creds.TokenEndpoint)
	assert.Equal(t, "client-id", creds.ClientID)
	assert.Equal(t, Scopes, creds.Scopes)

	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
}

func TestFlow_ExchangeBadCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer ts.Close()

	flow := NewFlow("client-id", "client-secret", "http://localhost/callback")
	flow.config.Endpoint = oauth2.Endpoint{TokenURL: ts.URL}

	_, _, err := flow.Exchange(context.Background(), "bad-code")

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
}

func TestFlow_ExchangeFallsBackToUserInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-token",
			"token_type": "Bearer",
			"expires_in": 3600
		}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email": "user@example.com", "name": "Test User"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	flow := NewFlow("client-id", "client-secret", "http://localhost/callback")
	flow.config.Endpoint = oauth2.Endpoint{TokenURL: ts.URL + "/token"}
	flow.userInfoURL = ts.URL + "/userinfo"

	_, identity, err := flow.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity.Email)
}

func TestFlow_AuthCodeURL(t *testing.T) {
	flow := NewFlow("client-id", "client-secret", "http://localhost/callback")

	url := flow.AuthCodeURL("csrf-state")
	assert.Contains(t, url, "state=csrf-state")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=select_account")
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43) // 32 bytes base64url encoded
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@EXAMPLE.com "))
	assert.Equal(t, "", NormalizeEmail(strings.Repeat(" ", 3)))
}
