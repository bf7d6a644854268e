package mail

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Message is a normalized mailbox message
type Message struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	Subject     string `json:"subject"`
	Sender      string `json:"sender"`
	SenderEmail string `json:"sender_email"`
	Date        string `json:"date"`
	Snippet     string `json:"snippet"`
	Body        string `json:"body"`
}

// Client reads and mutates the authenticated user's mailbox
type Client interface {
	// Recent returns up to n inbox messages, newest first
	Recent(ctx context.Context, n int) ([]Message, error)

	// Search returns up to n messages matching the mailbox query syntax
	Search(ctx context.Context, query string, n int) ([]Message, error)

	// Reply sends a threaded reply to the message with the given id
	Reply(ctx context.Context, id, text string) error

	// Trash moves the message with the given id to the trash
	Trash(ctx context.Context, id string) error
}

// APIError reports a mailbox API failure. It is deliberately opaque:
// upstream status and payload stay out of user-facing text, and a
// mailbox failure never invalidates the session.
type APIError struct {
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mail: %s failed (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("mail: %s failed", e.Op)
}

func (e *APIError) Unwrap() error { return e.Err }

var senderPattern = regexp.MustCompile(`(.+?)\s*<(.+?)>`)

// ParseSender splits a From header into display name and address.
// A bare address is returned as both.
func ParseSender(sender string) (name, email string) {
	if m := senderPattern.FindStringSubmatch(sender); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`), strings.TrimSpace(m[2])
	}
	return sender, sender
}
