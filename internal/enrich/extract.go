package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/llm"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

// extract asks the completer for a structured analysis of content. It fails
// with KindRateLimited or KindExtraction.
func (s *Service) extract(ctx context.Context, content, url, thesis string) (*model.Enrichment, error) {
	now := s.now()

	cctx, cancel := context.WithTimeout(ctx, s.completionTimeout)
	defer cancel()

	resp, err := s.completer.Complete(cctx, llm.Request{
		System:      systemPrompt,
		User:        buildUserPrompt(content, url, thesis, model.FormatTimestamp(now)),
		Model:       s.model,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		JSON:        true,
	})
	if err != nil {
		switch {
		case llm.IsRateLimited(err):
			return nil, &Error{Kind: KindRateLimited, Message: "completion service rate limited", Err: err}
		case errors.Is(cctx.Err(), context.DeadlineExceeded):
			return nil, extractionError(fmt.Sprintf("%s completion timed out after %s", s.completer.Name(), s.completionTimeout), err)
		default:
			return nil, extractionError(fmt.Sprintf("%s completion failed: %v", s.completer.Name(), err), err)
		}
	}

	zap.L().Info("enrich: completion usage",
		zap.String("provider", s.completer.Name()),
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.InputTokens),
		zap.Int64("output_tokens", resp.OutputTokens),
		zap.Float64("estimated_cost_usd", resp.CostUSD),
	)

	if strings.TrimSpace(resp.Text) == "" {
		return nil, extractionError(fmt.Sprintf("empty response from %s", s.completer.Name()), nil)
	}

	out, err := parseEnrichment(resp.Text)
	if err != nil {
		return nil, extractionError(err.Error(), err)
	}

	out.EnsureSource(url, now)
	return out, nil
}
