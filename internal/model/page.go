package model

import "time"

// CachedPage is reader output kept for reuse until ExpiresAt.
type CachedPage struct {
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the page is still usable at now.
func (p *CachedPage) Fresh(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}
