package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

// rawEnrichment mirrors the completion payload before validation.
type rawEnrichment struct {
	Summary        string         `json:"summary"`
	WhatTheyDo     []string       `json:"what_they_do"`
	Keywords       []string       `json:"keywords"`
	DerivedSignals []string       `json:"derived_signals"`
	Sources        []model.Source `json:"sources"`
}

// cleanJSON strips markdown code fences that models sometimes add despite
// being told not to.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// parseEnrichment decodes and validates a completion payload. Lists shorter
// than their minimum are rejected; longer lists are truncated.
func parseEnrichment(text string) (*model.Enrichment, error) {
	var raw rawEnrichment
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "invalid JSON in completion")
	}

	out := &model.Enrichment{Summary: strings.TrimSpace(raw.Summary)}
	if out.Summary == "" {
		return nil, eris.New("completion is missing summary")
	}

	var err error
	if out.WhatTheyDo, err = boundedList("what_they_do", raw.WhatTheyDo, model.MinWhatTheyDo, model.MaxWhatTheyDo); err != nil {
		return nil, err
	}
	if out.Keywords, err = boundedList("keywords", raw.Keywords, model.MinKeywords, model.MaxKeywords); err != nil {
		return nil, err
	}
	if out.DerivedSignals, err = boundedList("derived_signals", raw.DerivedSignals, model.MinDerivedSignals, model.MaxDerivedSignals); err != nil {
		return nil, err
	}

	for _, s := range raw.Sources {
		if u := strings.TrimSpace(s.URL); u != "" {
			out.Sources = append(out.Sources, model.Source{URL: u, Timestamp: strings.TrimSpace(s.Timestamp)})
		}
	}
	return out, nil
}

// boundedList trims blank entries and enforces [lo, hi].
func boundedList(field string, in []string, lo, hi int) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) < lo {
		return nil, eris.Errorf("completion field %s has %d entries, want at least %d", field, len(out), lo)
	}
	if len(out) > hi {
		out = out[:hi]
	}
	return out, nil
}
