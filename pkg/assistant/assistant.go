// Package assistant composes sessions, credentials, the mailbox client
// and the provider gateway into chat operations.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inboxpilot/inboxpilot/pkg/ai"
	"github.com/inboxpilot/inboxpilot/pkg/auth"
	"github.com/inboxpilot/inboxpilot/pkg/cache"
	"github.com/inboxpilot/inboxpilot/pkg/intent"
	"github.com/inboxpilot/inboxpilot/pkg/mail"
	"github.com/inboxpilot/inboxpilot/pkg/session"
)

// ErrAuthRequired marks failures the client can only fix by logging in
// again. It stays distinct from operation failures so callers never
// confuse "log in again" with "try again later".
var ErrAuthRequired = errors.New("authentication required")

const (
	minReadCount = 1
	maxReadCount = 10

	// unreadFetchLimit bounds "fetch all unread", which has no user count
	unreadFetchLimit = 25

	summaryMaxTokens = 150
	replyMaxTokens   = 300
	chatMaxTokens    = 200
)

// EmailSummary is one mailbox message prepared for display
type EmailSummary struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	Snippet     string `json:"snippet"`
	Summary     string `json:"summary"`
	BodyPreview string `json:"body_preview,omitempty"`

	Categorization *Categorization `json:"categorization,omitempty"`
}

// Response is the assistant's answer to one chat message
type Response struct {
	Message string         `json:"message"`
	Action  string         `json:"action"`
	Emails  []EmailSummary `json:"emails,omitempty"`
}

// MailClientFactory builds a mailbox client for one user's credentials
type MailClientFactory func(ctx context.Context, creds *auth.Credentials) mail.Client

// SenderFactory builds an outbound sender for one user's credentials.
// A shared sender (SendGrid) ignores the credentials.
type SenderFactory func(ctx context.Context, creds *auth.Credentials) mail.Sender

// Assistant orchestrates one chat operation per call. It owns no
// session state itself; the store is injected and shared.
type Assistant struct {
	sessions  session.Store
	gateway   *ai.Gateway
	summaries cache.Store
	mailFor   MailClientFactory
	senderFor SenderFactory
	renderer  *mail.Renderer
	logger    zerolog.Logger
}

// Option configures the assistant
type Option func(*Assistant)

// WithMailClientFactory overrides how mailbox clients are built, used
// by tests to substitute fakes
func WithMailClientFactory(f MailClientFactory) Option {
	return func(a *Assistant) { a.mailFor = f }
}

// WithSenderFactory sets how outbound senders are resolved
func WithSenderFactory(f SenderFactory) Option {
	return func(a *Assistant) { a.senderFor = f }
}

// WithRenderer sets the HTML renderer for outbound mail
func WithRenderer(r *mail.Renderer) Option {
	return func(a *Assistant) { a.renderer = r }
}

// WithLogger sets the assistant logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

// New creates an assistant over the given collaborators
func New(sessions session.Store, gateway *ai.Gateway, summaries cache.Store, opts ...Option) *Assistant {
	a := &Assistant{
		sessions:  sessions,
		gateway:   gateway,
		summaries: summaries,
		mailFor: func(ctx context.Context, creds *auth.Credentials) mail.Client {
			return mail.NewGmail(creds.HTTPClient(ctx))
		},
		senderFor: func(ctx context.Context, creds *auth.Credentials) mail.Sender {
			return mail.NewGmailSender(creds.HTTPClient(ctx))
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// freshSession returns the session with usable credentials, refreshing
// and persisting them when stale. A failed refresh deletes the session:
// continuing with a dead token would only defer the failure.
func (a *Assistant) freshSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := a.sessions.Lookup(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}

	refreshed, creds, err := auth.RefreshIfNeeded(ctx, sess.Credentials)
	if err != nil {
		a.sessions.Delete(sessionID)
		a.logger.Warn().Err(err).Str("owner", sess.Owner).Msg("credential refresh failed, session invalidated")
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}
	if refreshed {
		if !a.sessions.UpdateCredentials(sessionID, creds) {
			// Session expired between lookup and write-back
			return nil, fmt.Errorf("%w: %w", ErrAuthRequired, session.ErrSessionNotFound)
		}
		sess.Credentials = creds
		a.logger.Debug().Str("owner", sess.Owner).Msg("credentials refreshed")
	}
	return sess, nil
}

// ProcessMessage classifies the user's message and runs the matching
// operation. Provider failures never surface; mailbox failures do, as
// operation errors that leave the session intact.
func (a *Assistant) ProcessMessage(ctx context.Context, sessionID, text string) (*Response, error) {
	sess, err := a.freshSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := intent.Extract(text)
	a.logger.Info().Str("owner", sess.Owner).Str("intent", string(result.Intent)).Msg("message classified")

	switch result.Intent {
	case intent.IntentRead:
		return a.readEmails(ctx, sess, result.Parameters)

	case intent.IntentSearch:
		return a.searchEmails(ctx, sess, result.Parameters)

	case intent.IntentReply:
		return &Response{
			Message: "I can help you reply. Please let me show you your recent emails first, then select one to reply to.",
			Action:  "read_emails_for_reply",
		}, nil

	case intent.IntentDelete:
		if result.Parameters.Sender != "" {
			return a.searchEmails(ctx, sess, result.Parameters)
		}
		return &Response{
			Message: "I can help you delete an email. Let me show you your recent emails first.",
			Action:  "read_emails_for_delete",
		}, nil

	case intent.IntentOrganize, intent.IntentPriority:
		return a.organizeEmails(ctx, sess, result.Parameters)

	case intent.IntentBulk:
		return &Response{
			Message: "Bulk operations work on a selection. Let me show you your recent emails so you can pick the ones to act on.",
			Action:  "read_emails_for_bulk",
		}, nil

	case intent.IntentTemplate:
		template, err := a.generateTemplate(ctx, text)
		if err != nil {
			return nil, err
		}
		return &Response{Message: template, Action: "show_template"}, nil

	default:
		return a.chat(ctx, sess, text)
	}
}

// readEmails fetches recent or unread messages and attaches summaries
func (a *Assistant) readEmails(ctx context.Context, sess *session.Session, params intent.Parameters) (*Response, error) {
	client := a.mailFor(ctx, sess.Credentials)

	var messages []mail.Message
	var err error
	if params.FilterType != "" {
		messages, err = client.Search(ctx, filterQuery(params.FilterType), fetchLimit(params.Count))
	} else {
		count := intent.DefaultReadCount
		if params.Count != nil {
			count = *params.Count
		}
		messages, err = client.Recent(ctx, intent.ClampCount(count, minReadCount, maxReadCount))
	}
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return &Response{Message: "You don't have any emails in your inbox.", Action: "no_emails"}, nil
	}

	summaries := a.summarizeAll(ctx, messages)
	return &Response{
		Message: fmt.Sprintf("Here are your %d most recent emails:", len(summaries)),
		Action:  "show_emails",
		Emails:  summaries,
	}, nil
}

// searchEmails runs a mailbox query built from the extracted parameters
func (a *Assistant) searchEmails(ctx context.Context, sess *session.Session, params intent.Parameters) (*Response, error) {
	var parts []string
	if params.Sender != "" {
		parts = append(parts, "from:"+params.Sender)
	}
	if params.SubjectKeyword != "" {
		parts = append(parts, "subject:"+params.SubjectKeyword)
	}
	if params.FilterType != "" {
		parts = append(parts, filterQuery(params.FilterType))
	}
	if len(parts) == 0 {
		return &Response{
			Message: "What would you like to search for? Specify a sender or subject keyword.",
			Action:  "general",
		}, nil
	}

	client := a.mailFor(ctx, sess.Credentials)
	messages, err := client.Search(ctx, strings.Join(parts, " "), intent.DefaultReadCount)
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return &Response{Message: "No emails found matching your search.", Action: "no_results"}, nil
	}

	summaries := a.summarizeAll(ctx, messages)
	return &Response{
		Message: fmt.Sprintf("Found %d emails:", len(summaries)),
		Action:  "show_emails",
		Emails:  summaries,
	}, nil
}

// organizeEmails categorizes recent messages by category and priority
func (a *Assistant) organizeEmails(ctx context.Context, sess *session.Session, params intent.Parameters) (*Response, error) {
	client := a.mailFor(ctx, sess.Credentials)

	count := intent.DefaultReadCount
	if params.Count != nil {
		count = *params.Count
	}
	messages, err := client.Recent(ctx, intent.ClampCount(count, minReadCount, maxReadCount))
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return &Response{Message: "You don't have any emails in your inbox.", Action: "no_emails"}, nil
	}

	summaries := make([]EmailSummary, 0, len(messages))
	for _, msg := range messages {
		categorization := a.categorize(ctx, msg)
		summaries = append(summaries, EmailSummary{
			ID:             msg.ID,
			Sender:         msg.Sender,
			SenderEmail:    msg.SenderEmail,
			Subject:        msg.Subject,
			Date:           msg.Date,
			Snippet:        msg.Snippet,
			Categorization: &categorization,
		})
	}

	return &Response{
		Message: fmt.Sprintf("Here are your %d most recent emails, organized:", len(summaries)),
		Action:  "show_organized",
		Emails:  summaries,
	}, nil
}

// DraftReply generates a professional reply to the given message
func (a *Assistant) DraftReply(ctx context.Context, sessionID, messageID, instructions string) (*Response, error) {
	sess, err := a.freshSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	client := a.mailFor(ctx, sess.Credentials)
	messages, err := client.Search(ctx, "rfc822msgid:"+messageID, 1)
	if err != nil || len(messages) == 0 {
		// Fall back to recent messages to find the id
		messages, err = client.Recent(ctx, maxReadCount)
		if err != nil {
			return nil, err
		}
	}

	var target *mail.Message
	for i := range messages {
		if messages[i].ID == messageID {
			target = &messages[i]
			break
		}
	}
	if target == nil {
		return &Response{Message: "I couldn't find that email. Let me show you your recent emails.", Action: "read_emails_for_reply"}, nil
	}

	draft, err := a.gateway.Complete(ctx, replyPrompt(target.Subject, target.Body, target.Sender, instructions), replyMaxTokens)
	if err != nil {
		return nil, err
	}
	return &Response{Message: draft, Action: "show_draft"}, nil
}

// SendReply sends reply text on the original message's thread
func (a *Assistant) SendReply(ctx context.Context, sessionID, messageID, text string) (*Response, error) {
	sess, err := a.freshSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	client := a.mailFor(ctx, sess.Credentials)
	if err := client.Reply(ctx, messageID, text); err != nil {
		return nil, err
	}
	return &Response{Message: "Reply sent.", Action: "reply_sent"}, nil
}

// DeleteEmail moves the given message to the trash
func (a *Assistant) DeleteEmail(ctx context.Context, sessionID, messageID string) (*Response, error) {
	sess, err := a.freshSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	client := a.mailFor(ctx, sess.Credentials)
	if err := client.Trash(ctx, messageID); err != nil {
		return nil, err
	}
	return &Response{Message: "Email moved to trash.", Action: "email_deleted"}, nil
}

// SendDraft delivers composed mail through the configured outbound
// sender, rendered as branded HTML with a plain text alternative
func (a *Assistant) SendDraft(ctx context.Context, sessionID, to, subject, body string) (*Response, error) {
	sess, err := a.freshSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	htmlBody, textBody := body, body
	if a.renderer != nil {
		htmlBody, textBody, err = a.renderer.Render(strings.Split(body, "\n\n")...)
		if err != nil {
			return nil, fmt.Errorf("render outbound mail: %w", err)
		}
	}

	sender := a.senderFor(ctx, sess.Credentials)
	if err := sender.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return nil, err
	}
	return &Response{Message: "Email sent to " + to + ".", Action: "email_sent"}, nil
}

// CreateSession mints a session from a completed login. The owner key
// is the normalized email so repeated logins map to the same user.
func (a *Assistant) CreateSession(identity *auth.Identity, creds *auth.Credentials) (string, error) {
	return a.sessions.Create(auth.NormalizeEmail(identity.Email), creds, session.Profile{
		DisplayName: identity.Name,
		AvatarURL:   identity.Picture,
	})
}

// SessionInfo describes who a session belongs to
type SessionInfo struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SessionInfo returns the profile behind a session id
func (a *Assistant) SessionInfo(sessionID string) (*SessionInfo, error) {
	sess, err := a.sessions.Lookup(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}
	return &SessionInfo{
		Email:     sess.Owner,
		Name:      sess.Profile.DisplayName,
		AvatarURL: sess.Profile.AvatarURL,
	}, nil
}

// Welcome returns the personalized greeting for a fresh chat
func (a *Assistant) Welcome(ctx context.Context, sessionID string) (*Response, error) {
	sess, err := a.sessions.Lookup(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}

	name := sess.Profile.DisplayName
	if name == "" {
		name = "there"
	}

	message := fmt.Sprintf(`Hello %s!

I'm your email assistant. I can help you manage your inbox:

- Read recent emails with summaries
- Draft and send replies
- Delete unwanted emails
- Search and organize your mail

Just tell me what you'd like. For example: "Show me my last 5 emails", "Help me reply to the email from John", or "Delete emails from spam@example.com".`, name)

	return &Response{Message: message, Action: "welcome"}, nil
}

// Logout deletes the session, reporting whether one existed
func (a *Assistant) Logout(sessionID string) bool {
	return a.sessions.Delete(sessionID)
}

// summarizeAll attaches a summary to each message, reusing cached ones.
// A failed summary degrades to the snippet, never to an error.
func (a *Assistant) summarizeAll(ctx context.Context, messages []mail.Message) []EmailSummary {
	summaries := make([]EmailSummary, 0, len(messages))
	for _, msg := range messages {
		summaries = append(summaries, EmailSummary{
			ID:          msg.ID,
			Sender:      msg.Sender,
			SenderEmail: msg.SenderEmail,
			Subject:     msg.Subject,
			Date:        msg.Date,
			Snippet:     msg.Snippet,
			Summary:     a.summarize(ctx, msg),
			BodyPreview: clampText(msg.Body, 200),
		})
	}
	return summaries
}

func (a *Assistant) summarize(ctx context.Context, msg mail.Message) string {
	if a.summaries != nil {
		if cached, err := a.summaries.Get(ctx, msg.ID); err == nil {
			return cached
		}
	}

	summary, err := a.gateway.Complete(ctx, summarizePrompt(msg.Subject, msg.Body), summaryMaxTokens)
	if err != nil {
		a.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("summary failed, using snippet")
		if snippet := clampText(msg.Snippet, 200); snippet != "" {
			return snippet
		}
		return "Email preview unavailable"
	}

	if a.summaries != nil {
		if err := a.summaries.Set(ctx, msg.ID, summary, 0); err != nil {
			a.logger.Warn().Err(err).Msg("summary cache write failed")
		}
	}
	return summary
}

func (a *Assistant) categorize(ctx context.Context, msg mail.Message) Categorization {
	response, err := a.gateway.Complete(ctx, categorizePrompt(msg.Subject, msg.Body), 50)
	if err == nil {
		if categorization, ok := parseCategorization(response); ok {
			return categorization
		}
	}
	return keywordCategorization(msg.Subject, msg.Body)
}

func filterQuery(filter intent.FilterType) string {
	switch filter {
	case intent.FilterUnread:
		return "is:unread"
	case intent.FilterImportant:
		return "is:important"
	case intent.FilterSpam:
		return "in:spam"
	case intent.FilterPromotions:
		return "category:promotions"
	default:
		return ""
	}
}

// fetchLimit sizes filtered listings: an explicit count is clamped, an
// absent one means "all", bounded by the fetch limit
func fetchLimit(count *int) int {
	if count == nil {
		return unreadFetchLimit
	}
	return intent.ClampCount(*count, minReadCount, maxReadCount)
}
