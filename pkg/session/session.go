// Package session provides the in-memory store binding opaque session
// identifiers to user credentials for the lifetime of the process.
package session

import (
	"errors"
	"time"

	"github.com/inboxpilot/inboxpilot/pkg/auth"
)

var (
	// ErrSessionNotFound is returned when a session is missing or expired
	ErrSessionNotFound = errors.New("session not found")
)

// Profile is a snapshot of the user's identity taken at login
type Profile struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Session binds an opaque identifier to a user's credentials and profile.
// ExpiresAt is fixed at creation and never extended; only LastAccessedAt
// moves on reads.
type Session struct {
	ID             string
	Owner          string // Normalized email, the stable user key
	Credentials    *auth.Credentials
	Profile        Profile
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
}

// Expired reports whether the session has passed its fixed expiry
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store is the interface for session storage
type Store interface {
	// Create inserts a new session and returns its identifier.
	Create(owner string, creds *auth.Credentials, profile Profile) (string, error)

	// Lookup returns a copy of the session, updating its last-accessed
	// time. Missing or expired sessions yield ErrSessionNotFound;
	// expired entries are evicted.
	Lookup(id string) (*Session, error)

	// UpdateCredentials atomically replaces the credential bundle of an
	// existing, unexpired session. Returns false when there is no such
	// session; it never recreates one.
	UpdateCredentials(id string, creds *auth.Credentials) bool

	// Delete removes a session, reporting whether an entry existed.
	Delete(id string) bool

	// SweepExpired evicts every expired entry and returns the count.
	SweepExpired() int
}
