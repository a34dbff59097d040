package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/ComradeParth/VC-Intelligence-Interface/pkg/groq"
)

// Groq is a Completer backed by the Groq chat-completions API.
type Groq struct {
	client groq.Client
	model  string
}

// NewGroq builds a Groq backend from cfg.
func NewGroq(cfg Config) *Groq {
	var opts []groq.Option
	if cfg.BaseURL != "" {
		opts = append(opts, groq.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, groq.WithModel(cfg.Model))
	}
	return &Groq{client: groq.NewClient(cfg.Key, opts...), model: cfg.Model}
}

// NewGroqWithClient wraps an existing client.
func NewGroqWithClient(client groq.Client, model string) *Groq {
	return &Groq{client: client, model: model}
}

func (g *Groq) Name() string { return ProviderGroq }

func (g *Groq) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	creq := groq.ChatCompletionRequest{
		Model: model,
		Messages: []groq.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	temp := req.Temperature
	creq.Temperature = &temp
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		creq.MaxTokens = &maxTokens
	}
	if req.JSON {
		creq.ResponseFormat = groq.JSONObject
	}

	resp, err := g.client.ChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *groq.APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			return nil, &RateLimitError{Provider: ProviderGroq, Err: err}
		}
		return nil, eris.Wrap(err, "llm: groq completion")
	}

	return &Completion{
		Text:         resp.Content(),
		Model:        resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
