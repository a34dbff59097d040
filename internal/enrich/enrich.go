// Package enrich produces structured investment analyses for company URLs.
package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/llm"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/scrape"
)

// DefaultCompletionTimeout bounds a single completion call.
const DefaultCompletionTimeout = 30 * time.Second

// MsgInvalidURL is the caller-facing message for a missing or malformed url.
const MsgInvalidURL = "Missing or invalid 'url' parameter"

// Request is one enrichment call.
type Request struct {
	URL         string `json:"url"`
	Thesis      string `json:"thesis,omitempty"`
	Description string `json:"description,omitempty"`
}

// Acquirer fetches page text for a URL.
type Acquirer interface {
	Acquire(ctx context.Context, url string) scrape.Acquisition
}

// Service runs the enrichment pipeline. A nil completer means no
// credential is configured and every request is answered heuristically.
type Service struct {
	acquirer          Acquirer
	completer         llm.Completer
	heuristic         *Heuristic
	model             string
	completionTimeout time.Duration
	now               func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for source timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCompletionTimeout bounds each completion call.
func WithCompletionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.completionTimeout = d
		}
	}
}

// WithModel overrides the completer's default model.
func WithModel(m string) Option {
	return func(s *Service) {
		s.model = m
	}
}

// NewService creates a Service.
func NewService(acquirer Acquirer, completer llm.Completer, opts ...Option) *Service {
	s := &Service{
		acquirer:          acquirer,
		completer:         completer,
		completionTimeout: DefaultCompletionTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.heuristic = NewHeuristicWithClock(s.now)
	return s
}

// HeuristicOnly reports whether no completion backend is configured.
func (s *Service) HeuristicOnly() bool {
	return s.completer == nil
}

// Enrich validates req, acquires the page, and returns a model or heuristic
// analysis. Errors are *Error values carrying an HTTP status.
func (s *Service) Enrich(ctx context.Context, req Request) (*model.Enrichment, error) {
	target, err := ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("url", target))

	acq := s.acquirer.Acquire(ctx, target)
	content := acq.Text
	if !acq.Succeeded {
		if strings.TrimSpace(req.Description) == "" {
			return nil, &Error{
				Kind:    KindUpstreamUnavailable,
				Message: fmt.Sprintf("Could not fetch content from %s. Provide a company description as fallback.", target),
			}
		}
		log.Warn("enrich: acquisition failed, using caller description")
		content = synthesizeContent(target, req.Description)
	}

	if s.completer == nil {
		log.Info("enrich: no completion credential, returning heuristic analysis")
		return s.heuristic.Generate(target, req.Description, req.Thesis), nil
	}

	out, err := s.extract(ctx, content, target, req.Thesis)
	if err == nil {
		return out, nil
	}
	if KindOf(err) == KindRateLimited {
		log.Warn("enrich: completion rate limited, returning heuristic analysis", zap.Error(err))
		return s.heuristic.Generate(target, req.Description, req.Thesis), nil
	}
	log.Error("enrich: extraction failed", zap.Error(err))
	return nil, err
}

// ValidateURL trims raw and requires an absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalidRequest(MsgInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", invalidRequest(MsgInvalidURL)
	}
	return raw, nil
}
