package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(config.ProductConfig{
		Name: "InboxPilot",
		Link: "https://inboxpilot.example.com",
	})

	htmlBody, textBody, err := r.Render("Here is your drafted reply.", "Review before sending.")
	require.NoError(t, err)

	assert.Contains(t, htmlBody, "InboxPilot")
	assert.Contains(t, htmlBody, "Here is your drafted reply.")
	assert.Contains(t, textBody, "Review before sending.")
	assert.NotContains(t, textBody, "<html")
}

func TestGmailSender_Send(t *testing.T) {
	var sent map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages/send", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = w.Write([]byte(`{"id":"sent1"}`))
	}))
	defer ts.Close()

	s := NewGmailSender(ts.Client(), WithGmailBaseURL(ts.URL))
	err := s.Send(context.Background(), "to@example.com", "Subject line", "<p>html</p>", "plain")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sent["raw"].(string))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "To: to@example.com")
	assert.Contains(t, text, "Subject: Subject line")
	assert.Contains(t, text, "multipart/alternative")
	assert.Contains(t, text, "<p>html</p>")
	assert.Contains(t, text, "plain")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.OutboundConfig{
		SenderType: "sendgrid",
		SendGrid:   config.SendGridConfig{APIKey: "sg-key", From: "svc@example.com"},
	})
	require.NoError(t, err)
	assert.NotNil(t, s)

	// Gmail delivery is per session, no shared sender exists
	s, err = NewSender(config.OutboundConfig{SenderType: "gmail"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewSender(config.OutboundConfig{SenderType: "pigeon"})
	assert.Error(t, err)
}
