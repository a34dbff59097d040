package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt_WithThesis(t *testing.T) {
	p := buildUserPrompt("# Acme", "https://acme.ai", "AI infra", "2026-03-14T09:26:53.589Z")

	assert.True(t, strings.HasPrefix(p, "Analyze this company and return ONLY valid JSON matching the schema."))
	assert.Contains(t, p, "## Fund Investment Thesis\nAI infra\n\nUse this thesis to derive relevant investment signals.")
	assert.Contains(t, p, "## Company Content\n# Acme")
	assert.Contains(t, p, `{"url": "https://acme.ai", "timestamp": "2026-03-14T09:26:53.589Z"}`)
	assert.Less(t, strings.Index(p, "Thesis"), strings.Index(p, "Company Content"))
}

func TestBuildUserPrompt_WithoutThesis(t *testing.T) {
	p := buildUserPrompt("content", "https://acme.ai", "   ", "ts")
	assert.NotContains(t, p, "Fund Investment Thesis")
	assert.Contains(t, p, "## Important")
}

func TestBuildUserPrompt_CapsContent(t *testing.T) {
	content := strings.Repeat("x", MaxContentChars+500)
	p := buildUserPrompt(content, "https://acme.ai", "", "ts")
	assert.Contains(t, p, strings.Repeat("x", MaxContentChars))
	assert.NotContains(t, p, strings.Repeat("x", MaxContentChars+1))
}

func TestSystemPrompt_DescribesSchema(t *testing.T) {
	for _, field := range []string{"summary", "what_they_do", "keywords", "derived_signals", "sources", "timestamp"} {
		assert.Contains(t, systemPrompt, `"`+field+`"`)
	}
}

func TestSynthesizeContent(t *testing.T) {
	assert.Equal(t,
		"Company URL: https://acme.ai\n\nCompany Description: Acme builds pipelines.",
		synthesizeContent("https://acme.ai", "Acme builds pipelines."),
	)
}
