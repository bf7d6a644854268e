package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out, ok := RenderTemplate("follow_up", map[string]string{"topic": "the contract"})
	assert.True(t, ok)
	assert.Contains(t, out, "regarding the contract")

	// Missing values leave the placeholder in place
	out, ok = RenderTemplate("meeting_request", map[string]string{"topic": "Q3 planning"})
	assert.True(t, ok)
	assert.Contains(t, out, "Q3 planning")
	assert.Contains(t, out, "{time}")

	_, ok = RenderTemplate("resignation", nil)
	assert.False(t, ok)
}

func TestTemplateTypeFor(t *testing.T) {
	assert.Equal(t, "thank_you", templateTypeFor("write a thank you note"))
	assert.Equal(t, "follow_up", templateTypeFor("I need a follow-up email"))
	assert.Equal(t, "meeting_request", templateTypeFor("draft a meeting invite"))
	assert.Equal(t, "out_of_office", templateTypeFor("set up my out of office message"))
	assert.Equal(t, "", templateTypeFor("draft something celebratory"))
}

func TestParseCategorization(t *testing.T) {
	c, ok := parseCategorization("Work | High | Reply")
	assert.True(t, ok)
	assert.Equal(t, Categorization{Category: "Work", Priority: "High", Action: "Reply"}, c)

	_, ok = parseCategorization("I could not categorize this email")
	assert.False(t, ok)
}

func TestKeywordCategorization(t *testing.T) {
	c := keywordCategorization("URGENT: deadline tomorrow", "please respond asap")
	assert.Equal(t, "High", c.Priority)

	c = keywordCategorization("Weekly sale offer", "discounts inside")
	assert.Equal(t, "Promotions", c.Category)

	c = keywordCategorization("Project meeting notes", "about the business review")
	assert.Equal(t, "Work", c.Category)
	assert.Equal(t, "Medium", c.Priority)

	c = keywordCategorization("hi", "just saying hello")
	assert.Equal(t, "Personal", c.Category)
	assert.Equal(t, "Low", c.Priority)
	assert.Equal(t, "Read", c.Action)
}

func TestClampText(t *testing.T) {
	long := strings.Repeat("x", 3000)
	assert.Len(t, clampText(long, summarizeBodyLimit), summarizeBodyLimit)
	assert.Equal(t, "short", clampText("short", summarizeBodyLimit))
}
