package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inboxpilot/inboxpilot/pkg/assistant"
	"github.com/inboxpilot/inboxpilot/pkg/auth"
	"github.com/inboxpilot/inboxpilot/pkg/mail"
)

// handleLogin starts the authorization flow. The state lives in a
// short-lived cookie so the callback can verify it came from us.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to initiate login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.flow.AuthCodeURL(state), http.StatusFound)
}

// handleCallback finishes the authorization flow: verify state,
// exchange the code, mint a session
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		s.logger.Warn().Str("error", errParam).Msg("authorization denied")
		s.writeError(w, r, http.StatusUnauthorized, "authorization denied")
		return
	}

	stateCk, err := r.Cookie(stateCookie)
	if err != nil || stateCk.Value == "" || stateCk.Value != r.URL.Query().Get("state") {
		s.writeError(w, r, http.StatusUnauthorized, "state mismatch")
		return
	}
	// The state is single-use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, r, http.StatusBadRequest, "missing authorization code")
		return
	}

	creds, identity, err := s.flow.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn().Err(err).Msg("code exchange failed")
		s.writeError(w, r, http.StatusUnauthorized, "authentication failed, please log in again")
		return
	}

	sessionID, err := s.assistant.CreateSession(identity, creds)
	if err != nil {
		s.logger.Error().Err(err).Msg("session creation failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Info().Str("email", identity.Email).Msg("login completed")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		s.assistant.Logout(id)
		s.limiter.Forget(id)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if id == "" {
		s.writeError(w, r, http.StatusUnauthorized, "not logged in")
		return
	}

	info, err := s.assistant.SessionInfo(id)
	if err != nil {
		s.writeError(w, r, http.StatusUnauthorized, "session expired, please log in again")
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request, sessionID string) {
	resp, err := s.assistant.Welcome(r.Context(), sessionID)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		s.writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.assistant.ProcessMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type draftRequest struct {
	MessageID    string `json:"message_id"`
	Instructions string `json:"instructions"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageID == "" {
		s.writeError(w, r, http.StatusBadRequest, "message_id is required")
		return
	}

	resp, err := s.assistant.DraftReply(r.Context(), sessionID, req.MessageID, req.Instructions)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type replyRequest struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageID == "" || req.Text == "" {
		s.writeError(w, r, http.StatusBadRequest, "message_id and text are required")
		return
	}

	resp, err := s.assistant.SendReply(r.Context(), sessionID, req.MessageID, req.Text)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type deleteRequest struct {
	MessageID string `json:"message_id"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageID == "" {
		s.writeError(w, r, http.StatusBadRequest, "message_id is required")
		return
	}

	resp, err := s.assistant.DeleteEmail(r.Context(), sessionID, req.MessageID)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" || req.Body == "" {
		s.writeError(w, r, http.StatusBadRequest, "to and body are required")
		return
	}

	resp, err := s.assistant.SendDraft(r.Context(), sessionID, req.To, req.Subject, req.Body)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAssistantError maps the error taxonomy onto status codes:
// authentication failures say "log in again", mailbox failures say
// "try again later", and neither leaks upstream detail
func (s *Server) writeAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *mail.APIError
	switch {
	case errors.Is(err, assistant.ErrAuthRequired):
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
		s.writeError(w, r, http.StatusUnauthorized, "session expired, please log in again")
	case errors.As(err, &apiErr):
		s.logger.Error().Err(err).Msg("mailbox operation failed")
		s.writeError(w, r, http.StatusBadGateway, "mailbox operation failed, please try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away, nothing useful to write
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, r, http.StatusInternalServerError, "sorry, something went wrong, please try again")
	}
}
