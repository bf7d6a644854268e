package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	hermes "github.com/ideamans/hermes"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

// Sender delivers outbound mail on the assistant's behalf
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Renderer turns generated reply text into branded HTML mail with a
// plain text alternative
type Renderer struct {
	product hermes.Product
}

// NewRenderer creates a renderer branded with the configured product
func NewRenderer(cfg config.ProductConfig) *Renderer {
	return &Renderer{
		product: hermes.Product{
			Name:      cfg.Name,
			Link:      cfg.Link,
			Logo:      cfg.LogoURL,
			Copyright: "",
		},
	}
}

// Render produces HTML and plain text bodies for the given paragraphs
func (r *Renderer) Render(intros ...string) (htmlBody, textBody string, err error) {
	h := hermes.Hermes{Product: r.product}
	email := hermes.Email{
		Body: hermes.Body{
			Name:   "",
			Intros: intros,
		},
	}

	htmlBody, err = h.GenerateHTML(email)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate HTML email: %w", err)
	}
	textBody, err = h.GeneratePlainText(email)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate plain text email: %w", err)
	}
	return htmlBody, textBody, nil
}

// GmailSender sends mail as the authenticated user through the Gmail API
type GmailSender struct {
	httpClient *http.Client
	baseURL    string
}

// NewGmailSender creates a sender on top of an authenticated HTTP client
func NewGmailSender(httpClient *http.Client, opts ...GmailOption) *GmailSender {
	g := NewGmail(httpClient, opts...)
	return &GmailSender{httpClient: g.httpClient, baseURL: g.baseURL}
}

// Send delivers a multipart HTML message from the user's own address
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	raw := buildMultipart(to, subject, htmlBody, textBody)
	payload := map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString([]byte(raw)),
	}

	g := &Gmail{httpClient: s.httpClient, baseURL: s.baseURL}
	return g.postJSON(ctx, "send", "/users/me/messages/send", payload)
}

const multipartBoundary = "inboxpilot-alt"

func buildMultipart(to, subject, htmlBody, textBody string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", multipartBoundary)

	writePart(&b, "text/plain", textBody)
	writePart(&b, "text/html", htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", multipartBoundary)
	return b.String()
}

func writePart(b *strings.Builder, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", multipartBoundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=UTF-8\r\n\r\n", contentType)
	b.WriteString(body)
	b.WriteString("\r\n")
}
