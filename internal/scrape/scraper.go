// Package scrape acquires company page text for the enrichment pipeline.
package scrape

import "context"

// Result holds fetched page text with the scraper that produced it.
type Result struct {
	Text   string
	Source string // e.g. "jina", "local_http"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
