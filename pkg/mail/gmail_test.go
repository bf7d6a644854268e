package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func fakeGmailServer(t *testing.T) (*httptest.Server, *map[string]any) {
	t.Helper()

	var sent map[string]any
	mux := http.NewServeMux()

	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			assert.Equal(t, "INBOX", r.URL.Query().Get("labelIds"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{
				{"id": "m1", "threadId": "t1"},
				{"id": "m2", "threadId": "t2"},
			},
		})
	})

	mux.HandleFunc("GET /gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "m1", "threadId": "t1", "snippet": "short preview",
			"payload": map[string]any{
				"mimeType": "multipart/alternative",
				"headers": []map[string]string{
					{"name": "Subject", "value": "Quarterly report"},
					{"name": "From", "value": `"Alice Example" <alice@example.com>`},
					{"name": "Date", "value": "Mon, 12 Jan 2026 09:00:00 +0000"},
					{"name": "Message-ID", "value": "<orig@example.com>"},
				},
				"parts": []map[string]any{
					{"mimeType": "text/html", "body": map[string]string{"data": b64url("<p>html</p>")}},
					{"mimeType": "text/plain", "body": map[string]string{"data": b64url("plain text body")}},
				},
			},
		})
	})

	mux.HandleFunc("GET /gmail/v1/users/me/messages/m2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "m2", "threadId": "t2", "snippet": "another",
			"payload": map[string]any{
				"mimeType": "text/plain",
				"headers": []map[string]string{
					{"name": "Subject", "value": "No display name"},
					{"name": "From", "value": "bob@example.com"},
				},
				"body": map[string]string{"data": b64url("single part body")},
			},
		})
	})

	mux.HandleFunc("POST /gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		sent = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&sent)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"sent1"}`))
	})

	mux.HandleFunc("POST /gmail/v1/users/me/messages/m1/trash", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &sent
}

func TestGmail_Recent(t *testing.T) {
	ts, _ := fakeGmailServer(t)
	g := NewGmail(ts.Client(), WithGmailBaseURL(ts.URL+"/gmail/v1"))

	messages, err := g.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "m1", first.ID)
	assert.Equal(t, "Quarterly report", first.Subject)
	assert.Equal(t, "Alice Example", first.Sender)
	assert.Equal(t, "alice@example.com", first.SenderEmail)
	assert.Equal(t, "short preview", first.Snippet)
	// text/plain preferred over text/html
	assert.Equal(t, "plain text body", first.Body)

	second := messages[1]
	assert.Equal(t, "bob@example.com", second.Sender)
	assert.Equal(t, "bob@example.com", second.SenderEmail)
	assert.Equal(t, "single part body", second.Body)
}

func TestGmail_Search(t *testing.T) {
	ts, _ := fakeGmailServer(t)
	g := NewGmail(ts.Client(), WithGmailBaseURL(ts.URL+"/gmail/v1"))

	messages, err := g.Search(context.Background(), "from:alice@example.com", 10)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestGmail_Reply(t *testing.T) {
	ts, sent := fakeGmailServer(t)
	g := NewGmail(ts.Client(), WithGmailBaseURL(ts.URL+"/gmail/v1"))

	require.NoError(t, g.Reply(context.Background(), "m1", "Thanks, received."))

	require.NotNil(t, *sent)
	assert.Equal(t, "t1", (*sent)["threadId"])

	raw, err := base64.RawURLEncoding.DecodeString((*sent)["raw"].(string))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "To: \"Alice Example\" <alice@example.com>")
	assert.Contains(t, text, "Subject: Re: Quarterly report")
	assert.Contains(t, text, "In-Reply-To: <orig@example.com>")
	assert.Contains(t, text, "Thanks, received.")
}

func TestGmail_Trash(t *testing.T) {
	ts, _ := fakeGmailServer(t)
	g := NewGmail(ts.Client(), WithGmailBaseURL(ts.URL+"/gmail/v1"))

	assert.NoError(t, g.Trash(context.Background(), "m1"))
}

func TestGmail_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	g := NewGmail(ts.Client(), WithGmailBaseURL(ts.URL))

	_, err := g.Recent(context.Background(), 5)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	// The message is opaque, no upstream payload leaks through
	assert.NotContains(t, apiErr.Error(), "Forbidden")
}

func TestParseSender(t *testing.T) {
	name, email := ParseSender(`"John Doe" <john@example.com>`)
	assert.Equal(t, "John Doe", name)
	assert.Equal(t, "john@example.com", email)

	name, email = ParseSender("Jane Roe <jane@example.com>")
	assert.Equal(t, "Jane Roe", name)
	assert.Equal(t, "jane@example.com", email)

	name, email = ParseSender("bare@example.com")
	assert.Equal(t, "bare@example.com", name)
	assert.Equal(t, "bare@example.com", email)
}

func TestExtractBody_HTMLFallback(t *testing.T) {
	var msg gmailMessage
	msg.Payload.Parts = []gmailPart{
		{MimeType: "text/html", Body: gmailBody{Data: b64url("<p>only html</p>")}},
	}
	assert.Equal(t, "<p>only html</p>", extractBody(msg))
}

func TestBuildRFC822(t *testing.T) {
	raw := buildRFC822("to@example.com", "Re: Hello", "<id@example.com>", "body text")
	lines := strings.Split(raw, "\r\n")
	assert.Equal(t, "To: to@example.com", lines[0])
	assert.Contains(t, raw, "References: <id@example.com>")
	assert.True(t, strings.HasSuffix(raw, "body text"))
}
