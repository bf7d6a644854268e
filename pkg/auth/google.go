package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested for mailbox access and profile identity
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
	"openid",
}

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity holds the profile claims established during login
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Flow drives the Google authorization-code flow
type Flow struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewFlow creates a flow for the given OAuth client
func NewFlow(clientID, clientSecret, redirectURL string) *Flow {
	return &Flow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL generates the authorization URL the browser is sent to.
// Offline access is requested so the token response includes a refresh
// token, and the account chooser is always shown.
func (f *Flow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange trades an authorization code for a credential bundle and the
// user's identity claims. A bad or expired code yields an *ExchangeError.
func (f *Flow) Exchange(ctx context.Context, code string) (*Credentials, *Identity, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, &ExchangeError{Err: err}
	}

	identity, err := f.identityFromToken(ctx, token)
	if err != nil {
		return nil, nil, &ExchangeError{Err: err}
	}

	creds := &Credentials{
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		TokenEndpoint: f.config.Endpoint.TokenURL,
		ClientID:      f.config.ClientID,
		ClientSecret:  f.config.ClientSecret,
		Scopes:        append([]string(nil), f.config.Scopes...),
		Expiry:        token.Expiry,
	}
	return creds, identity, nil
}

// identityFromToken extracts profile claims, preferring the ID token
// delivered alongside the access token. The ID token arrived directly
// from the token endpoint over TLS, so its claims are read without
// signature verification; the userinfo endpoint is the fallback.
func (f *Flow) identityFromToken(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		if identity, err := identityFromIDToken(raw); err == nil {
			return identity, nil
		}
	}
	return f.fetchUserInfo(ctx, token)
}

func identityFromIDToken(raw string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token: %w", err)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrEmailNotFound
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &Identity{
		Email:   NormalizeEmail(email),
		Name:    name,
		Picture: picture,
	}, nil
}

// fetchUserInfo retrieves profile claims from the userinfo endpoint
func (f *Flow) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client := f.config.Client(ctx, token)

	resp, err := client.Get(f.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if identity.Email == "" {
		return nil, ErrEmailNotFound
	}
	identity.Email = NormalizeEmail(identity.Email)

	return &identity, nil
}

// NormalizeEmail lowercases and trims an email address so it can serve
// as a stable owner key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateState generates a random state string for CSRF protection
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
