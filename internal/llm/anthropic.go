package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/ComradeParth/VC-Intelligence-Interface/pkg/anthropic"
)

const (
	defaultAnthropicModel     = "claude-haiku-4-5-20251001"
	defaultAnthropicMaxTokens = 1500
)

// jsonOnlySuffix is appended to the system prompt since the Messages API has
// no JSON response mode.
const jsonOnlySuffix = "\n\nRespond with a single JSON object and nothing else."

// Anthropic is a Completer backed by the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds an Anthropic backend from cfg.
func NewAnthropic(cfg Config) *Anthropic {
	var opts []anthropic.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return NewAnthropicWithClient(anthropic.NewClient(cfg.Key, opts...), cfg.Model)
}

// NewAnthropicWithClient wraps an existing client.
func NewAnthropicWithClient(client anthropic.Client, model string) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{client: client, model: model}
}

func (a *Anthropic) Name() string { return ProviderAnthropic }

func (a *Anthropic) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	system := req.System
	if req.JSON {
		system += jsonOnlySuffix
	}
	temp := req.Temperature

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: req.User}},
		Temperature: &temp,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			return nil, &RateLimitError{Provider: ProviderAnthropic, Err: err}
		}
		return nil, eris.Wrap(err, "llm: anthropic completion")
	}

	return &Completion{
		Text:         resp.Text(),
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      resp.Usage.EstimateCost(resp.Model),
	}, nil
}
