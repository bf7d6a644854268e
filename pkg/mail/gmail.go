package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const gmailDefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Gmail is a Client over the Gmail REST API. The HTTP client is
// expected to carry OAuth2 credentials for the mailbox owner.
type Gmail struct {
	httpClient *http.Client
	baseURL    string
}

// GmailOption configures the client
type GmailOption func(*Gmail)

// WithGmailBaseURL overrides the API base URL
func WithGmailBaseURL(url string) GmailOption {
	return func(g *Gmail) { g.baseURL = strings.TrimRight(url, "/") }
}

// NewGmail creates a Gmail client on top of an authenticated HTTP client
func NewGmail(httpClient *http.Client, opts ...GmailOption) *Gmail {
	g := &Gmail{
		httpClient: httpClient,
		baseURL:    gmailDefaultBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type gmailListResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Data string `json:"data"`
}

type gmailPart struct {
	MimeType string      `json:"mimeType"`
	Body     gmailBody   `json:"body"`
	Parts    []gmailPart `json:"parts"`
}

type gmailMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Snippet  string `json:"snippet"`
	Payload  struct {
		MimeType string        `json:"mimeType"`
		Headers  []gmailHeader `json:"headers"`
		Body     gmailBody     `json:"body"`
		Parts    []gmailPart   `json:"parts"`
	} `json:"payload"`
}

// Recent returns up to n inbox messages, newest first
func (g *Gmail) Recent(ctx context.Context, n int) ([]Message, error) {
	params := url.Values{
		"labelIds":   {"INBOX"},
		"maxResults": {strconv.Itoa(n)},
	}
	return g.list(ctx, "recent", params)
}

// Search returns up to n messages matching query
func (g *Gmail) Search(ctx context.Context, query string, n int) ([]Message, error) {
	params := url.Values{
		"q":          {query},
		"maxResults": {strconv.Itoa(n)},
	}
	return g.list(ctx, "search", params)
}

func (g *Gmail) list(ctx context.Context, op string, params url.Values) ([]Message, error) {
	var listed gmailListResponse
	if err := g.getJSON(ctx, op, "/users/me/messages?"+params.Encode(), &listed); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(listed.Messages))
	for _, ref := range listed.Messages {
		msg, err := g.fetch(ctx, op, ref.ID)
		if err != nil {
			// One unreadable message should not fail the whole listing
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (g *Gmail) fetch(ctx context.Context, op, id string) (Message, error) {
	var raw gmailMessage
	if err := g.getJSON(ctx, op, "/users/me/messages/"+id+"?format=full", &raw); err != nil {
		return Message{}, err
	}

	from := headerValue(raw.Payload.Headers, "From")
	name, email := ParseSender(from)

	return Message{
		ID:          raw.ID,
		ThreadID:    raw.ThreadID,
		Subject:     headerValue(raw.Payload.Headers, "Subject"),
		Sender:      name,
		SenderEmail: email,
		Date:        headerValue(raw.Payload.Headers, "Date"),
		Snippet:     raw.Snippet,
		Body:        extractBody(raw),
	}, nil
}

// Reply sends a threaded reply to the message with the given id
func (g *Gmail) Reply(ctx context.Context, id, text string) error {
	var original gmailMessage
	if err := g.getJSON(ctx, "reply", "/users/me/messages/"+id+"?format=full", &original); err != nil {
		return err
	}

	to := headerValue(original.Payload.Headers, "From")
	messageID := headerValue(original.Payload.Headers, "Message-ID")
	subject := headerValue(original.Payload.Headers, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	raw := buildRFC822(to, subject, messageID, text)

	payload := map[string]string{
		"raw":      base64.RawURLEncoding.EncodeToString([]byte(raw)),
		"threadId": original.ThreadID,
	}
	return g.postJSON(ctx, "reply", "/users/me/messages/send", payload)
}

// Trash moves the message with the given id to the trash
func (g *Gmail) Trash(ctx context.Context, id string) error {
	return g.postJSON(ctx, "trash", "/users/me/messages/"+id+"/trash", nil)
}

func (g *Gmail) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	return g.do(op, req, out)
}

func (g *Gmail) postJSON(ctx context.Context, op, path string, payload any) error {
	buf := &bytes.Buffer{}
	if payload != nil {
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return &APIError{Op: op, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, buf)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(op, req, nil)
}

func (g *Gmail) do(op string, req *http.Request, out any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &APIError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func headerValue(headers []gmailHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody prefers a text/plain part, falls back to text/html, then
// to the top-level body for single-part messages
func extractBody(msg gmailMessage) string {
	if len(msg.Payload.Parts) > 0 {
		var html string
		for _, part := range msg.Payload.Parts {
			switch part.MimeType {
			case "text/plain":
				if text := decodeBody(part.Body.Data); text != "" {
					return text
				}
			case "text/html":
				if html == "" {
					html = decodeBody(part.Body.Data)
				}
			}
		}
		return html
	}
	return decodeBody(msg.Payload.Body.Data)
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func buildRFC822(to, subject, inReplyTo, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	if inReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", inReplyTo)
	}
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
