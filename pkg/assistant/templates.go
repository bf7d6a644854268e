package assistant

import (
	"context"
	"strings"
)

// Canned templates for common scenarios. Placeholders use {name} syntax
// and survive unreplaced when no value is supplied.
var emailTemplates = map[string]string{
	"thank_you":       "Thank you for your email. I appreciate you reaching out and will review your message carefully.",
	"follow_up":       "I wanted to follow up on our previous conversation regarding {topic}. Please let me know if you have any updates.",
	"meeting_request": "I hope this email finds you well. I would like to schedule a meeting to discuss {topic}. Are you available {time}?",
	"out_of_office":   "Thank you for your email. I am currently out of the office and will respond to your message when I return on {return_date}.",
	"acknowledgment":  "I have received your email regarding {topic} and will get back to you within {timeframe}.",
}

// templateKeywords maps phrasing in the user's message to a canned
// template type, checked in order
var templateKeywords = []struct {
	keywords []string
	name     string
}{
	{[]string{"thank you", "thanks"}, "thank_you"},
	{[]string{"follow up", "follow-up", "followup"}, "follow_up"},
	{[]string{"meeting"}, "meeting_request"},
	{[]string{"out of office", "vacation", "away"}, "out_of_office"},
	{[]string{"acknowledge", "acknowledgment", "received"}, "acknowledgment"},
}

// RenderTemplate fills a canned template with the given values. Unknown
// template types return false so the caller can generate one instead.
func RenderTemplate(name string, values map[string]string) (string, bool) {
	template, ok := emailTemplates[name]
	if !ok {
		return "", false
	}
	for key, value := range values {
		template = strings.ReplaceAll(template, "{"+key+"}", value)
	}
	return template, true
}

// templateTypeFor picks a canned template type from the user's message,
// or "" when nothing matches
func templateTypeFor(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range templateKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.name
			}
		}
	}
	return ""
}

// generateTemplate returns a canned template when the message names a
// known scenario, otherwise asks the gateway for a custom one
func (a *Assistant) generateTemplate(ctx context.Context, text string) (string, error) {
	if name := templateTypeFor(text); name != "" {
		if rendered, ok := RenderTemplate(name, nil); ok {
			return rendered, nil
		}
	}

	prompt := "Generate a professional email template for: " + text +
		"\nMake it polite, concise, and professional."
	return a.gateway.Complete(ctx, prompt, 200)
}
