package assistant

import (
	"context"
	"strings"

	"github.com/inboxpilot/inboxpilot/pkg/session"
)

const offTopicResponse = "I'm specifically designed as an email assistant for mailbox management only. " +
	"I can help you read, reply to, delete, search, and organize your emails. " +
	"For other topics, please use a general AI assistant. What would you like to do with your emails?"

// Exact-phrase small talk gets canned answers without spending tokens
var greetingPhrases = map[string]struct{}{
	"hi":        {},
	"hii":       {},
	"hello":     {},
	"hey":       {},
	"greetings": {},
}

var casualPhrases = map[string]string{
	"how are you":    "I'm doing great, thanks for asking! I'm here and ready to help you manage your emails. Want to check your inbox?",
	"how are u":      "I'm doing great, thanks for asking! I'm here and ready to help you manage your emails. Want to check your inbox?",
	"how's it going": "I'm doing great, thanks for asking! I'm here and ready to help you manage your emails. Want to check your inbox?",
	"what's up":      "Not much, just waiting to help you with your emails! What would you like to do?",
	"whats up":       "Not much, just waiting to help you with your emails! What would you like to do?",
	"sup":            "Not much, just waiting to help you with your emails! What would you like to do?",
}

// offTopicKeywords mark requests outside mailbox management. These are
// redirected without reaching the provider at all.
var offTopicKeywords = []string{
	"homework", "assignment", "study", "teach", "explain", "definition",
	"calculate", "solve", "math", "physics", "chemistry", "biology", "history",
	"weather", "news", "joke", "story", "recipe", "cooking", "travel", "movie",
	"music", "game", "sports", "politics", "medical", "diagnosis",
	"programming", "code", "python", "javascript", "database",
	"what is", "how to", "tell me about",
}

const greetingResponse = "Hello! I'm your email assistant. I can help you manage your inbox " +
	"with reading, replying, deleting, and searching emails. What would you like to do?"

// chat handles messages with no mailbox intent: small talk gets canned
// answers, off-topic requests are redirected, the rest goes to the
// provider with guardrail instructions
func (a *Assistant) chat(ctx context.Context, sess *session.Session, text string) (*Response, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	if _, ok := greetingPhrases[lower]; ok {
		return &Response{Message: greetingResponse, Action: "general"}, nil
	}
	if reply, ok := casualPhrases[lower]; ok {
		return &Response{Message: reply, Action: "general"}, nil
	}
	for _, keyword := range offTopicKeywords {
		if strings.Contains(lower, keyword) {
			return &Response{Message: offTopicResponse, Action: "general"}, nil
		}
	}

	chatContext := "User: " + sess.Owner + ". Can read/reply/delete/search emails."
	reply, err := a.gateway.Complete(ctx, chatPrompt(text, chatContext), chatMaxTokens)
	if err != nil {
		return nil, err
	}
	return &Response{Message: reply, Action: "general"}, nil
}
