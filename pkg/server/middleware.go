package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// sessionHandler is an http.HandlerFunc that has already passed session
// extraction
type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID string)

// sessionID reads the session identifier from the cookie, falling back
// to the Authorization bearer value for non-browser clients
func (s *Server) sessionID(r *http.Request) string {
	if ck, err := r.Cookie(sessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// withSession rejects requests carrying no session identifier. Whether
// the session is still alive is the assistant's call.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := s.sessionID(r)
		if id == "" {
			s.writeError(w, r, http.StatusUnauthorized, "not logged in")
			return
		}
		next(w, r, id)
	}
}

// rateLimited caps chat traffic per session
func (s *Server) rateLimited(next sessionHandler) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sessionID string) {
		if !s.limiter.Allow(sessionID) {
			s.writeError(w, r, http.StatusTooManyRequests, "too many messages, please slow down")
			return
		}
		next(w, r, sessionID)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags every request with a correlation id and logs its
// outcome
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn().Err(err).Msg("response write failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
