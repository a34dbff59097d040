package enrich

import (
	"fmt"
	"strings"
)

// MaxContentChars caps the page text embedded in a prompt.
const MaxContentChars = 12000

// Completion parameters sent with every extraction call.
const (
	completionTemperature = 0.3
	completionMaxTokens   = 1500
)

const systemPrompt = `You are an expert venture capital analyst. You MUST respond with valid JSON only. No markdown, no code fences, no explanation. The JSON must match this exact schema:
{
  "summary": "1-2 sentence summary of what the company does and its value proposition",
  "what_they_do": ["3-5 bullet points describing the product, technology, and business model"],
  "keywords": ["3-6 relevant industry keywords"],
  "derived_signals": ["2-4 investment signals such as market traction, defensibility, team strength, or regulatory tailwinds"],
  "sources": [{"url": "the company URL", "timestamp": "ISO 8601 timestamp"}]
}`

// buildUserPrompt assembles the analysis request for one company.
func buildUserPrompt(content, url, thesis, timestamp string) string {
	var b strings.Builder
	b.WriteString("Analyze this company and return ONLY valid JSON matching the schema.\n\n")

	if t := strings.TrimSpace(thesis); t != "" {
		b.WriteString("## Fund Investment Thesis\n")
		b.WriteString(t)
		b.WriteString("\n\nUse this thesis to derive relevant investment signals.\n\n")
	}

	b.WriteString("## Company Content\n")
	b.WriteString(truncateRunes(content, MaxContentChars))
	b.WriteString("\n\n")

	b.WriteString("## Important\n")
	fmt.Fprintf(&b, "- sources must include: {\"url\": %q, \"timestamp\": %q}\n", url, timestamp)
	b.WriteString("- Return raw JSON only. No markdown code fences. No explanation text.")

	return b.String()
}

// synthesizeContent stands in for page text when acquisition fails but the
// caller supplied a description.
func synthesizeContent(url, description string) string {
	return fmt.Sprintf("Company URL: %s\n\nCompany Description: %s", url, description)
}
