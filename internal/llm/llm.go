// Package llm abstracts chat-completion providers behind a single Completer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Provider names accepted by New.
const (
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Request is a single-turn completion request.
type Request struct {
	System      string
	User        string
	Model       string // overrides the backend default when set
	Temperature float64
	MaxTokens   int
	JSON        bool // ask the provider for a JSON object response
}

// Completion is the text produced by a backend.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64 // estimated; 0 when the backend has no pricing
}

// Completer sends a prompt to a language model.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// RateLimitError reports that the provider rejected the request with HTTP 429.
// Backends return it unwrapped so callers can match it with errors.As.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is or wraps a *RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Config selects and configures a backend.
type Config struct {
	Provider string
	Key      string
	Model    string
	BaseURL  string
}

// New builds the configured backend. It returns a nil Completer and a nil
// error when no key is configured; callers treat that as heuristic-only mode.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGroq:
		return NewGroq(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
