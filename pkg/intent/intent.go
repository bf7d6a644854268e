// Package intent classifies free-text assistant commands into a fixed
// set of mailbox intents. Extraction is a pure function over the input
// text: no I/O, identical input always yields identical output.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is the classified purpose of a user message
type Intent string

const (
	IntentRead     Intent = "read"
	IntentReply    Intent = "reply"
	IntentDelete   Intent = "delete"
	IntentSearch   Intent = "search"
	IntentOrganize Intent = "organize"
	IntentBulk     Intent = "bulk"
	IntentTemplate Intent = "template"
	IntentPriority Intent = "priority"
	IntentGeneral  Intent = "general"
)

// FilterType narrows a mailbox operation to a label-like subset
type FilterType string

const (
	FilterUnread     FilterType = "unread"
	FilterImportant  FilterType = "important"
	FilterSpam       FilterType = "spam"
	FilterPromotions FilterType = "promotions"
)

// DefaultReadCount is used when a read request names no number
const DefaultReadCount = 5

// Parameters carries the structured arguments extracted from the text.
// Count is nil when absent; for read intents a nil count after
// extraction means "all unread" rather than a default batch.
type Parameters struct {
	Count          *int
	Sender         string
	SubjectKeyword string
	FilterType     FilterType
}

// Result is the outcome of classifying one message
type Result struct {
	Intent     Intent
	Parameters Parameters
}

// rule pairs a keyword set with the intent it selects. Rules are tested
// in a fixed priority order and the first match wins, so a message like
// "show and delete" resolves to read, not delete. Matching is substring
// containment on the lowercased text.
type rule struct {
	intent   Intent
	keywords []string
}

var rules = []rule{
	{IntentRead, []string{"show", "read", "get", "fetch", "last", "recent", "inbox"}},
	{IntentReply, []string{"reply", "respond", "answer", "write back"}},
	{IntentDelete, []string{"delete", "remove", "trash", "clear"}},
	{IntentSearch, []string{"search", "find", "look for", "filter"}},
	{IntentOrganize, []string{"organize", "sort", "categorize", "label"}},
	{IntentBulk, []string{"all", "bulk", "multiple", "mass"}},
	{IntentTemplate, []string{"template", "draft", "compose"}},
	{IntentPriority, []string{"important", "urgent", "priority"}},
}

var (
	numberRe = regexp.MustCompile(`\d+`)

	senderRes = []*regexp.Regexp{
		regexp.MustCompile(`from\s+([\w.@-]+(?:\s+[\w.-]+)*)`),
		regexp.MustCompile(`by\s+([\w.@-]+(?:\s+[\w.-]+)*)`),
		regexp.MustCompile(`sender\s+([\w.@-]+(?:\s+[\w.-]+)*)`),
	}

	subjectQuotedRes = []*regexp.Regexp{
		regexp.MustCompile(`subject\s+["']([^"']+)["']`),
		regexp.MustCompile(`about\s+["']([^"']+)["']`),
	}
	subjectBareRe = regexp.MustCompile(`(?:about|regarding)\s+([\w][\w\s]*)`)
)

// Extract classifies text into an intent plus structured parameters
func Extract(text string) Result {
	lower := strings.ToLower(text)

	result := Result{Intent: IntentGeneral}
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			result.Intent = r.intent
			break
		}
	}

	// The count is the first integer literal anywhere in the raw text,
	// independent of which keyword matched.
	if m := numberRe.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			result.Parameters.Count = &n
		}
	}

	if result.Intent == IntentRead {
		if strings.Contains(lower, "unread") {
			// "Fetch all unread" semantics: no count bound at all
			result.Parameters.Count = nil
		} else if result.Parameters.Count == nil {
			n := DefaultReadCount
			result.Parameters.Count = &n
		}
	}

	result.Parameters.Sender = extractSender(lower)
	result.Parameters.SubjectKeyword = extractSubjectKeyword(lower)
	result.Parameters.FilterType = extractFilterType(lower)

	return result
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func extractSender(lower string) string {
	for _, re := range senderRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractSubjectKeyword(lower string) string {
	for _, re := range subjectQuotedRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := subjectBareRe.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractFilterType(lower string) FilterType {
	switch {
	case strings.Contains(lower, "unread"):
		return FilterUnread
	case containsAny(lower, []string{"important", "urgent", "priority"}):
		return FilterImportant
	case strings.Contains(lower, "spam"):
		return FilterSpam
	case strings.Contains(lower, "promotions"):
		return FilterPromotions
	default:
		return ""
	}
}

// ClampCount bounds a read-batch size to the range the mailbox client
// will serve
func ClampCount(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
