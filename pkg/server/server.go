// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/inboxpilot/inboxpilot/pkg/assistant"
	"github.com/inboxpilot/inboxpilot/pkg/auth"
	"github.com/inboxpilot/inboxpilot/pkg/config"
	"github.com/inboxpilot/inboxpilot/pkg/ratelimit"
)

const (
	sessionCookie = "inboxpilot_session"
	stateCookie   = "inboxpilot_state"

	stateCookieMaxAge = 10 * time.Minute
)

// Server wires the HTTP surface: login flow, chat operations,
// health checks
type Server struct {
	cfg       config.ServerConfig
	flow      *auth.Flow
	assistant *assistant.Assistant
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger

	httpServer *http.Server
}

// New creates a server over the given collaborators
func New(cfg config.ServerConfig, flow *auth.Flow, a *assistant.Assistant, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		flow:      flow,
		assistant: a,
		limiter:   ratelimit.New(cfg.ChatRateLimit),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/me", s.handleMe)
	mux.HandleFunc("GET /chat/welcome", s.withSession(s.handleWelcome))
	mux.HandleFunc("POST /chat/message", s.withSession(s.rateLimited(s.handleMessage)))
	mux.HandleFunc("POST /chat/draft", s.withSession(s.rateLimited(s.handleDraft)))
	mux.HandleFunc("POST /chat/reply", s.withSession(s.rateLimited(s.handleReply)))
	mux.HandleFunc("POST /chat/delete", s.withSession(s.handleDelete))
	mux.HandleFunc("POST /chat/send", s.withSession(s.rateLimited(s.handleSend)))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
