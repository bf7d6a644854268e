package ai

import (
	"context"
	"strings"
)

// Fallback is the deterministic backend used when no real provider is
// configured or reachable. It never calls the network: output is derived
// from simple pattern rules on the prompt, keeping the assistant
// responsive with degraded quality.
type Fallback struct{}

// NewFallback creates the fallback provider
func NewFallback() *Fallback { return &Fallback{} }

// Name returns the provider name
func (f *Fallback) Name() string { return "fallback" }

var greetingWords = []string{"hi", "hello", "hey", "greetings"}

// Complete derives a canned response from the prompt text. Identical
// prompts always produce identical output.
func (f *Fallback) Complete(_ context.Context, prompt string, _ int) (string, error) {
	lower := strings.ToLower(prompt)

	if containsGreeting(lower) {
		return "Hello! I'm your email assistant. I can help you manage your inbox. What would you like to do?", nil
	}

	if strings.Contains(lower, "summarize") {
		return "This email contains important information. Please review the full content.", nil
	}

	if strings.Contains(lower, "reply") && strings.Contains(lower, "email") {
		return "Thank you for reaching out. I appreciate your message and will respond shortly with a detailed reply.", nil
	}

	if strings.Contains(lower, "classify") || strings.Contains(lower, "intent") {
		return `{"intent": "general", "parameters": {}}`, nil
	}

	return "I'm here to help with your emails. I can read recent messages, " +
		"draft replies, delete unwanted mail, search your inbox, and organize " +
		"messages by priority. What would you like to do?", nil
}

// containsGreeting matches whole words so "this" does not read as "hi"
func containsGreeting(lower string) bool {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, word := range words {
		for _, greeting := range greetingWords {
			if word == greeting {
				return true
			}
		}
	}
	return false
}
