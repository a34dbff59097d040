package enrich

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

var (
	sentenceBoundary = regexp.MustCompile(`\.\s+`)
	nonLetter        = regexp.MustCompile(`[^a-z]`)
)

// stopWords are function words excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "with": {}, "are": {}, "from": {},
	"this": {}, "has": {}, "its": {}, "their": {}, "our": {}, "can": {}, "will": {},
	"but": {}, "not": {}, "have": {}, "they": {}, "been": {}, "more": {}, "than": {},
}

var defaultKeywords = []string{"Technology", "Innovation", "Growth", "Platform", "Analytics"}

var fillerStatements = []string{
	"Operates in a growing market with significant upside potential.",
	"Focused on delivering innovative solutions to underserved segments.",
	"Building toward a repeatable go-to-market motion.",
}

const (
	signalFit       = "Strong product-market fit indicated by clear value proposition"
	signalSector    = "Positioned in a high-growth sector with expanding TAM"
	signalAIMoat    = "AI/ML capabilities provide defensible technology moat"
	signalExpertise = "Domain expertise suggests defensible competitive positioning"

	maxKeywordCandidates = 5
	minKeywordLength     = 5
	summaryFallbackChars = 200
	thesisQuoteChars     = 60
	maxSentenceBullets   = 4
)

// Heuristic derives a demo enrichment from free text with a word-frequency
// heuristic. It never fails and its output depends only on its inputs and
// the clock.
type Heuristic struct {
	now func() time.Time
}

// NewHeuristic returns a Heuristic stamped by the wall clock.
func NewHeuristic() *Heuristic {
	return NewHeuristicWithClock(time.Now)
}

// NewHeuristicWithClock returns a Heuristic that stamps sources with now().
func NewHeuristicWithClock(now func() time.Time) *Heuristic {
	return &Heuristic{now: now}
}

// Generate builds an enrichment for url from description, biased by thesis.
func (h *Heuristic) Generate(url, description, thesis string) *model.Enrichment {
	sentences := splitSentences(description)

	return &model.Enrichment{
		Summary:        heuristicSummary(description, sentences),
		WhatTheyDo:     heuristicBullets(sentences),
		Keywords:       keywords(description),
		DerivedSignals: heuristicSignals(description, thesis),
		Sources:        []model.Source{model.NewSource(url, h.now())},
		Demo:           true,
	}
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceBoundary.Split(text, -1) {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// terminate trims s and ends it with exactly one period.
func terminate(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".") + "."
}

func heuristicSummary(description string, sentences []string) string {
	if len(sentences) >= 2 {
		return terminate(sentences[0]) + " " + terminate(sentences[1])
	}
	return truncateRunes(description, summaryFallbackChars)
}

func heuristicBullets(sentences []string) []string {
	n := min(len(sentences), maxSentenceBullets)
	bullets := make([]string, 0, n+len(fillerStatements))
	for _, s := range sentences[:n] {
		bullets = append(bullets, terminate(s))
	}
	if len(bullets) < model.MinWhatTheyDo {
		bullets = append(bullets, fillerStatements[0], fillerStatements[1])
	}
	if len(bullets) < model.MinWhatTheyDo {
		bullets = append(bullets, fillerStatements[2])
	}
	return bullets
}

type wordCount struct {
	word  string
	count int
}

func keywords(description string) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(description) {
		clean := nonLetter.ReplaceAllString(strings.ToLower(w), "")
		if len(clean) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[clean]; stop {
			continue
		}
		if _, seen := counts[clean]; !seen {
			order = append(order, clean)
		}
		counts[clean]++
	}

	ranked := make([]wordCount, 0, len(order))
	for _, w := range order {
		ranked = append(ranked, wordCount{word: w, count: counts[w]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})

	n := min(len(ranked), maxKeywordCandidates)
	if n < model.MinKeywords {
		return append([]string(nil), defaultKeywords...)
	}
	// Casers carry state; one per call keeps Generate safe for concurrent use.
	title := cases.Title(language.English)
	out := make([]string, 0, n)
	for _, wc := range ranked[:n] {
		out = append(out, title.String(wc.word))
	}
	return out
}

func heuristicSignals(description, thesis string) []string {
	signals := []string{signalFit, signalSector}
	if thesis != "" {
		signals = append(signals, fmt.Sprintf("Thesis alignment: addresses themes in \"%s...\"", truncateRunes(thesis, thesisQuoteChars)))
	}
	lower := strings.ToLower(description)
	if strings.Contains(lower, "ai") || strings.Contains(lower, "machine learning") {
		signals = append(signals, signalAIMoat)
	} else {
		signals = append(signals, signalExpertise)
	}
	if len(signals) > model.MaxDerivedSignals {
		signals = signals[:model.MaxDerivedSignals]
	}
	return signals
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
