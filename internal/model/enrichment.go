package model

import (
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for source timestamps
// (millisecond precision, UTC, trailing Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Cardinality bounds for the list fields of an Enrichment.
const (
	MinWhatTheyDo     = 3
	MaxWhatTheyDo     = 5
	MinKeywords       = 3
	MaxKeywords       = 6
	MinDerivedSignals = 2
	MaxDerivedSignals = 4
)

// Source is a provenance record attached to every enrichment.
type Source struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// NewSource builds a Source for url stamped at t.
func NewSource(url string, t time.Time) Source {
	return Source{URL: url, Timestamp: FormatTimestamp(t)}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Enrichment is the structured investment analysis produced for a company,
// either by a language model or by the heuristic generator.
type Enrichment struct {
	Summary        string   `json:"summary"`
	WhatTheyDo     []string `json:"what_they_do"`
	Keywords       []string `json:"keywords"`
	DerivedSignals []string `json:"derived_signals"`
	Sources        []Source `json:"sources"`
	// Demo is set only on heuristic output; consumers treat it as provisional.
	Demo bool `json:"demo,omitempty"`
}

// EnsureSource guarantees that Sources is non-empty and references url.
// An empty or missing Sources becomes a single {url, t} entry; a non-empty
// list that never mentions url gets that entry prepended.
func (e *Enrichment) EnsureSource(url string, t time.Time) {
	if len(e.Sources) == 0 {
		e.Sources = []Source{NewSource(url, t)}
		return
	}
	for _, s := range e.Sources {
		if s.URL == url {
			return
		}
	}
	e.Sources = append([]Source{NewSource(url, t)}, e.Sources...)
}

// HasSource reports whether any source entry references url.
func (e *Enrichment) HasSource(url string) bool {
	for _, s := range e.Sources {
		if s.URL == url {
			return true
		}
	}
	return false
}

// EnrichedAt returns the timestamp of the first source, if it parses.
func (e *Enrichment) EnrichedAt() (time.Time, bool) {
	if len(e.Sources) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(e.Sources[0].Timestamp))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
