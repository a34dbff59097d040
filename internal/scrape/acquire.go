package scrape

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

// MaxTextChars bounds acquired text.
const MaxTextChars = 12000

// Defaults for Acquirer.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 24 * time.Hour
)

// Acquisition is the outcome of fetching a company page. A failed
// acquisition is an ordinary result, not an error.
type Acquisition struct {
	Text      string
	Succeeded bool
	Source    string
	Cached    bool
}

// PageCache stores reader output between requests.
type PageCache interface {
	GetPage(ctx context.Context, url string, now time.Time) (*model.CachedPage, error)
	PutPage(ctx context.Context, page model.CachedPage) error
}

// Acquirer fetches page text through a Scraper with an optional page cache
// and a per-call deadline.
type Acquirer struct {
	scraper Scraper
	cache   PageCache
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithCache enables the page cache with the given TTL.
func WithCache(cache PageCache, ttl time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		a.cache = cache
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the clock used for cache freshness.
func WithClock(now func() time.Time) AcquirerOption {
	return func(a *Acquirer) {
		a.now = now
	}
}

// NewAcquirer creates an Acquirer over scraper.
func NewAcquirer(scraper Scraper, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		scraper: scraper,
		ttl:     DefaultCacheTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire returns the page text for url, truncated to MaxTextChars.
func (a *Acquirer) Acquire(ctx context.Context, url string) Acquisition {
	log := zap.L().With(zap.String("url", url))

	if a.cache != nil {
		page, err := a.cache.GetPage(ctx, url, a.now())
		switch {
		case err == nil:
			log.Debug("scrape: page cache hit", zap.String("source", page.Source))
			return Acquisition{Text: truncate(page.Content), Succeeded: true, Source: page.Source, Cached: true}
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("scrape: page cache read failed", zap.Error(err))
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.scraper.Scrape(fetchCtx, url)
	if err != nil {
		log.Warn("scrape: acquisition failed", zap.Error(err))
		return Acquisition{}
	}

	text := truncate(res.Text)
	if a.cache != nil {
		fetched := a.now()
		err := a.cache.PutPage(ctx, model.CachedPage{
			URL:       url,
			Content:   text,
			Source:    res.Source,
			FetchedAt: fetched,
			ExpiresAt: fetched.Add(a.ttl),
		})
		if err != nil {
			log.Warn("scrape: page cache write failed", zap.Error(err))
		}
	}

	log.Debug("scrape: acquired page", zap.String("source", res.Source), zap.Int("chars", len(text)))
	return Acquisition{Text: text, Succeeded: true, Source: res.Source}
}

// truncate keeps the first MaxTextChars runes of s.
func truncate(s string) string {
	n := 0
	for i := range s {
		if n == MaxTextChars {
			return s[:i]
		}
		n++
	}
	return s
}
