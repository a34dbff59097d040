package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedPage_Fresh(t *testing.T) {
	fetched := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	p := CachedPage{URL: "https://acme.ai", FetchedAt: fetched, ExpiresAt: fetched.Add(24 * time.Hour)}

	assert.True(t, p.Fresh(fetched))
	assert.True(t, p.Fresh(fetched.Add(23*time.Hour)))
	assert.False(t, p.Fresh(fetched.Add(24*time.Hour)))
	assert.False(t, p.Fresh(fetched.Add(25*time.Hour)))
}
