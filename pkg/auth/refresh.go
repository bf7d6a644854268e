package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// RefreshIfNeeded returns a fresh credential bundle when the current one
// has expired and a refresh token is available, and reports whether a
// refresh occurred. A bundle that is still valid, or that cannot be
// refreshed, is returned unchanged.
//
// At most one refresh attempt is made per call. A failed attempt yields
// a *RefreshError; the caller must treat that as session-fatal rather
// than retrying the operation with the stale token. Persisting the
// refreshed bundle back into the session store is the caller's job.
func RefreshIfNeeded(ctx context.Context, creds *Credentials) (bool, *Credentials, error) {
	if creds.Valid(time.Now()) {
		return false, creds, nil
	}
	if !creds.CanRefresh() {
		return false, creds, nil
	}

	src := creds.endpointConfig().TokenSource(ctx, &oauth2.Token{
		RefreshToken: creds.RefreshToken,
	})
	token, err := src.Token()
	if err != nil {
		return false, creds, &RefreshError{Err: err}
	}

	refreshed := creds.Clone()
	refreshed.AccessToken = token.AccessToken
	refreshed.Expiry = token.Expiry
	// Google only returns a refresh token on the initial grant; keep the
	// old one unless the endpoint rotated it.
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	return true, refreshed, nil
}
