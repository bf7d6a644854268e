package assistant

import (
	"fmt"
	"strings"
)

// Prompt body clamps keep token usage bounded on large emails
const (
	summarizeBodyLimit  = 2000
	categorizeBodyLimit = 1000
	replyBodyLimit      = 1500
)

func clampText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func summarizePrompt(subject, body string) string {
	return fmt.Sprintf(`Summarize the following email in 2-3 concise sentences.

Subject: %s
Content: %s

Summary:`, subject, clampText(body, summarizeBodyLimit))
}

func categorizePrompt(subject, body string) string {
	return fmt.Sprintf(`Analyze this email and provide:
1. Category (Work, Personal, Promotions, Important, Spam)
2. Priority (High, Medium, Low)
3. Action needed (Reply, Read, Archive, Delete)

Subject: %s
Content: %s

Respond in format: Category|Priority|Action`, subject, clampText(body, categorizeBodyLimit))
}

func replyPrompt(subject, body, sender, context string) string {
	contextText := ""
	if context != "" {
		contextText = "\n\nContext: " + context
	}
	return fmt.Sprintf(`Write a professional email reply to %s.

Subject: %s
Original email: %s
%s

Reply:`, sender, subject, clampText(body, replyBodyLimit), contextText)
}

func chatPrompt(userMessage, context string) string {
	contextText := ""
	if context != "" {
		contextText = "\n\nContext: " + context
	}
	return fmt.Sprintf(`You are STRICTLY an email assistant for mailbox management only. Do not help with any non-email topics.

If the user asks about anything other than email management, respond with:
%q

Only help with: reading emails, replying to emails, deleting emails, searching emails, organizing emails.

User: %s
%s

Response:`, offTopicResponse, userMessage, contextText)
}

// Categorization is parsed from "Category|Priority|Action" output; a
// malformed response falls back to keyword scoring.
type Categorization struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

func parseCategorization(response string) (Categorization, bool) {
	parts := strings.Split(response, "|")
	if len(parts) < 3 {
		return Categorization{}, false
	}
	return Categorization{
		Category: strings.TrimSpace(parts[0]),
		Priority: strings.TrimSpace(parts[1]),
		Action:   strings.TrimSpace(parts[2]),
	}, true
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// keywordCategorization scores the email with fixed keyword sets when
// the model output is unusable
func keywordCategorization(subject, body string) Categorization {
	subjectLower := strings.ToLower(subject)
	combined := subjectLower + " " + strings.ToLower(body)

	var priority string
	switch {
	case containsAny(combined, "urgent", "asap", "deadline", "important"):
		priority = "High"
	case containsAny(combined, "meeting", "project", "work", "business"):
		priority = "Medium"
	default:
		priority = "Low"
	}

	var category string
	switch {
	case containsAny(subjectLower, "promotion", "sale", "offer", "discount"):
		category = "Promotions"
	case containsAny(combined, "work", "project", "meeting", "business"):
		category = "Work"
	default:
		category = "Personal"
	}

	return Categorization{Category: category, Priority: priority, Action: "Read"}
}
