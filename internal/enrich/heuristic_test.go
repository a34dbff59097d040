package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func fixedClock() time.Time { return fixedTime }

const acmeDescription = "Acme builds autonomous data pipelines for logistics companies. Acme reduces manual reconciliation by 80%. The platform integrates with major ERPs."

func TestHeuristic_Scenario(t *testing.T) {
	h := NewHeuristicWithClock(fixedClock)
	got := h.Generate("https://acme.ai", acmeDescription, "")

	assert.Equal(t, "Acme builds autonomous data pipelines for logistics companies. Acme reduces manual reconciliation by 80%.", got.Summary)
	assert.Equal(t, []string{
		"Acme builds autonomous data pipelines for logistics companies.",
		"Acme reduces manual reconciliation by 80%.",
		"The platform integrates with major ERPs.",
	}, got.WhatTheyDo)
	assert.Equal(t, []string{"Builds", "Autonomous", "Pipelines", "Logistics", "Companies"}, got.Keywords)
	assert.Equal(t, []string{signalFit, signalSector, signalExpertise}, got.DerivedSignals)
	assert.True(t, got.Demo)
	assert.Equal(t, []model.Source{{URL: "https://acme.ai", Timestamp: "2026-03-14T09:26:53.589Z"}}, got.Sources)
}

func TestHeuristic_Deterministic(t *testing.T) {
	calls := 0
	h := NewHeuristicWithClock(func() time.Time {
		calls++
		return fixedTime.Add(time.Duration(calls) * time.Second)
	})

	a := h.Generate("https://acme.ai", acmeDescription, "AI infra")
	b := h.Generate("https://acme.ai", acmeDescription, "AI infra")

	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.WhatTheyDo, b.WhatTheyDo)
	assert.Equal(t, a.Keywords, b.Keywords)
	assert.Equal(t, a.DerivedSignals, b.DerivedSignals)
	assert.NotEqual(t, a.Sources[0].Timestamp, b.Sources[0].Timestamp)
}

func TestHeuristic_Minimums(t *testing.T) {
	inputs := []string{
		"",
		"Tiny.",
		"One sentence only without a terminator",
		"Two. Sentences.",
		acmeDescription + " " + acmeDescription,
	}
	h := NewHeuristicWithClock(fixedClock)
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := h.Generate("https://x.io", in, "thesis")
			assert.GreaterOrEqual(t, len(got.Keywords), model.MinKeywords)
			assert.LessOrEqual(t, len(got.Keywords), model.MaxKeywords)
			assert.GreaterOrEqual(t, len(got.WhatTheyDo), model.MinWhatTheyDo)
			assert.LessOrEqual(t, len(got.WhatTheyDo), model.MaxWhatTheyDo)
			assert.GreaterOrEqual(t, len(got.DerivedSignals), model.MinDerivedSignals)
			assert.LessOrEqual(t, len(got.DerivedSignals), model.MaxDerivedSignals)
			require.Len(t, got.Sources, 1)
			assert.Equal(t, "https://x.io", got.Sources[0].URL)
		})
	}
}

func TestHeuristic_EmptyDescription(t *testing.T) {
	got := NewHeuristicWithClock(fixedClock).Generate("https://x.io", "", "")

	assert.Empty(t, got.Summary)
	assert.Equal(t, fillerStatements, got.WhatTheyDo)
	assert.Equal(t, defaultKeywords, got.Keywords)
	assert.Equal(t, []string{signalFit, signalSector, signalExpertise}, got.DerivedSignals)
}

func TestHeuristic_ShortDescriptionSummary(t *testing.T) {
	long := ""
	for len(long) < 300 {
		long += "word "
	}
	got := NewHeuristicWithClock(fixedClock).Generate("https://x.io", long, "")
	assert.Len(t, []rune(got.Summary), summaryFallbackChars)
}

func TestHeuristic_FillerPadding(t *testing.T) {
	got := NewHeuristicWithClock(fixedClock).Generate("https://x.io", "First thing. Second thing", "")
	assert.Equal(t, []string{"First thing.", "Second thing.", fillerStatements[0], fillerStatements[1]}, got.WhatTheyDo)
}

func TestHeuristic_BulletCap(t *testing.T) {
	got := NewHeuristicWithClock(fixedClock).Generate("https://x.io", "A one. B two. C three. D four. E five. F six.", "")
	assert.Len(t, got.WhatTheyDo, maxSentenceBullets)
	assert.Equal(t, "D four.", got.WhatTheyDo[3])
}

func TestHeuristic_Signals(t *testing.T) {
	tests := []struct {
		name        string
		description string
		thesis      string
		want        []string
	}{
		{
			name:        "ai substring",
			description: "We train models with a fair data policy.",
			want:        []string{signalFit, signalSector, signalAIMoat},
		},
		{
			name:        "machine learning",
			description: "Machine Learning for freight.",
			want:        []string{signalFit, signalSector, signalAIMoat},
		},
		{
			name:        "thesis quoted",
			description: "Freight software.",
			thesis:      "We invest in early-stage (Pre-Seed to Series A) technology companies building AI-native infrastructure",
			want: []string{
				signalFit,
				signalSector,
				`Thesis alignment: addresses themes in "We invest in early-stage (Pre-Seed to Series A) technology c..."`,
				signalExpertise,
			},
		},
		{
			name:        "short thesis",
			description: "AI for ports.",
			thesis:      "Vertical SaaS",
			want: []string{
				signalFit,
				signalSector,
				`Thesis alignment: addresses themes in "Vertical SaaS..."`,
				signalAIMoat,
			},
		},
	}

	h := NewHeuristicWithClock(fixedClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Generate("https://x.io", tt.description, tt.thesis)
			assert.Equal(t, tt.want, got.DerivedSignals)
		})
	}
}

func TestKeywords_FrequencyOrder(t *testing.T) {
	got := keywords("robots robots robots drones drones sensors lidar lidar lidar lidar cameras")
	assert.Equal(t, []string{"Lidar", "Robots", "Drones", "Sensors", "Cameras"}, got)
}

func TestKeywords_StripsPunctuationAndStopwords(t *testing.T) {
	got := keywords("Their (platform), their PLATFORM! their: customers... customers; vendors")
	assert.Equal(t, []string{"Platform", "Customers", "Vendors"}, got)
}

func TestKeywords_TopFive(t *testing.T) {
	got := keywords("alpha1 bravo charlie delta echoes foxtrot golfer")
	assert.Len(t, got, maxKeywordCandidates)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Empty(t, truncateRunes("héllo", 0))
}
