package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailNotFound is returned when the user's email is missing from
	// the identity response
	ErrEmailNotFound = errors.New("user email not found in identity response")
)

// ExchangeError indicates the authorization code could not be exchanged
// for credentials. The user must restart the login flow.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("authorization code exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// RefreshError indicates a credential refresh attempt failed, typically
// because the refresh token was revoked. The session holding the bundle
// must be invalidated; retrying with the same bundle cannot succeed.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("credential refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
