package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (s *stubScraper) Name() string           { return s.name }
func (s *stubScraper) Supports(_ string) bool { return s.supports }

func (s *stubScraper) Scrape(_ context.Context, _ string) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubScraper{name: "a", supports: true, result: &Result{Text: "from a", Source: "a"}}
	second := &stubScraper{name: "b", supports: true, result: &Result{Text: "from b", Source: "b"}}

	res, err := NewChain(first, second).Scrape(context.Background(), "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "from a", res.Text)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsThroughOnError(t *testing.T) {
	first := &stubScraper{name: "a", supports: true, err: errors.New("boom")}
	second := &stubScraper{name: "b", supports: true, result: &Result{Text: "from b", Source: "b"}}

	res, err := NewChain(first, second).Scrape(context.Background(), "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "b", res.Source)
	assert.Equal(t, 1, first.calls)
}

func TestChain_SkipsUnsupported(t *testing.T) {
	skipped := &stubScraper{name: "a", supports: false, result: &Result{Text: "nope"}}
	used := &stubScraper{name: "b", supports: true, result: &Result{Text: "yes", Source: "b"}}

	res, err := NewChain(skipped, used).Scrape(context.Background(), "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "yes", res.Text)
	assert.Zero(t, skipped.calls)
}

func TestChain_AllFail(t *testing.T) {
	first := &stubScraper{name: "a", supports: true, err: errors.New("first down")}
	second := &stubScraper{name: "b", supports: true, err: errors.New("second down")}

	_, err := NewChain(first, second).Scrape(context.Background(), "https://acme.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all scrapers failed")
	assert.Contains(t, err.Error(), "second down")
}

func TestChain_NoSuitableScraper(t *testing.T) {
	c := NewChain(&stubScraper{name: "a", supports: false})
	assert.False(t, c.Supports("https://acme.example"))

	_, err := c.Scrape(context.Background(), "https://acme.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable scraper")
}

func TestChain_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubScraper{name: "a", supports: true, err: context.Canceled}
	second := &stubScraper{name: "b", supports: true, result: &Result{Text: "late"}}

	_, err := NewChain(first, second).Scrape(ctx, "https://acme.example")
	require.Error(t, err)
	assert.Zero(t, second.calls)
}

func TestChain_Name(t *testing.T) {
	assert.Equal(t, "chain", NewChain().Name())
}
