package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/inboxpilot/inboxpilot/pkg/auth"
)

// MemoryStore is an in-memory session store. Eviction is lazy on lookup
// plus a periodic sweep; per-entry timers would buy nothing at the
// session counts this serves. The lock guards only map access and is
// never held across network calls.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once

	now func() time.Time // Overridable clock for tests
}

// NewMemoryStore creates a store whose sessions live for ttl. A sweeper
// goroutine runs every sweepInterval so abandoned sessions that are
// never looked up again do not accumulate; pass 0 to disable it.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}

	if sweepInterval > 0 {
		go store.sweepLoop()
	}

	return store
}

// Create generates a cryptographically random identifier and inserts the
// session atomically. It performs no I/O.
func (s *MemoryStore) Create(owner string, creds *auth.Credentials, profile Profile) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	now := s.now()
	sess := &Session{
		ID:             id,
		Owner:          owner,
		Credentials:    creds,
		Profile:        profile,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
		LastAccessedAt: now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return id, nil
}

// Lookup retrieves a session by ID, evicting it if expired
func (s *MemoryStore) Lookup(id string) (*Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(now) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}

	sess.LastAccessedAt = now

	// Return a copy so callers never observe a partially-written record
	dup := *sess
	dup.Credentials = sess.Credentials.Clone()
	return &dup, nil
}

// UpdateCredentials swaps in a new credential bundle. The expiry is not
// reset; refreshing credentials does not prolong the session.
func (s *MemoryStore) UpdateCredentials(id string, creds *auth.Credentials) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return false
	}
	if sess.Expired(now) {
		delete(s.sessions, id)
		return false
	}

	sess.Credentials = creds
	return true
}

// Delete removes a session
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.sessions[id]
	delete(s.sessions, id)
	return existed
}

// SweepExpired removes all expired sessions
func (s *MemoryStore) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions, expired or not
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweeper goroutine. Idempotent.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpired()
		case <-s.stopSweep:
			return
		}
	}
}

// newSessionID returns 32 bytes of entropy, base64url encoded
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
