// Package ratelimit provides a per-key token bucket used to cap chat
// messages per session.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per key. Buckets idle longer than
// the key TTL are dropped so departed sessions do not accumulate.
type Limiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	perMinute int
	keyTTL    time.Duration

	now func() time.Time
}

// New creates a limiter allowing perMinute events per key. perMinute <= 0
// disables limiting.
func New(perMinute int) *Limiter {
	return &Limiter{
		entries:   make(map[string]*entry),
		perMinute: perMinute,
		keyTTL:    10 * time.Minute,
		now:       time.Now,
	}
}

// Allow reports whether the event for key fits within its budget
func (l *Limiter) Allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.entries[key] = e
	}
	e.lastSeen = now

	l.evictIdle(now)
	return e.limiter.Allow()
}

// evictIdle drops buckets not seen within the key TTL. Called under mu.
func (l *Limiter) evictIdle(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.keyTTL {
			delete(l.entries, key)
		}
	}
}

// Forget drops the bucket for key, used when a session ends
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
