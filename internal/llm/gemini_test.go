package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotUser   string
	resp      *genai.GenerateContentResponse
	err       error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotUser = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func TestGemini_Complete(t *testing.T) {
	fake := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"summary":"x"}`}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     90,
			CandidatesTokenCount: 30,
		},
	}}
	g := &Gemini{models: fake, model: defaultGeminiModel}

	got, err := g.Complete(context.Background(), Request{
		System: "sys", User: "usr", Temperature: 0.3, MaxTokens: 1500, JSON: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"x"}`, got.Text)
	assert.Equal(t, defaultGeminiModel, got.Model)
	assert.Equal(t, int64(90), got.InputTokens)
	assert.Equal(t, int64(30), got.OutputTokens)

	assert.Equal(t, defaultGeminiModel, fake.gotModel)
	assert.Equal(t, "usr", fake.gotUser)
	require.NotNil(t, fake.gotConfig)
	assert.Equal(t, "application/json", fake.gotConfig.ResponseMIMEType)
	assert.Equal(t, int32(1500), fake.gotConfig.MaxOutputTokens)
	require.NotNil(t, fake.gotConfig.Temperature)
	assert.InDelta(t, 0.3, *fake.gotConfig.Temperature, 0.0001)
	require.NotNil(t, fake.gotConfig.SystemInstruction)
	assert.Equal(t, "sys", fake.gotConfig.SystemInstruction.Parts[0].Text)
}

func TestClassifyGeminiErr(t *testing.T) {
	tests := []struct {
		name      string
		in        error
		rateLimit bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, rateLimit: true},
		{name: "api_429_ptr", in: &genai.APIError{Code: 429}, rateLimit: true},
		{name: "api_500", in: genai.APIError{Code: 500}},
		{name: "api_401", in: genai.APIError{Code: 401}},
		{name: "flattened_429", in: errors.New(genai.APIError{Code: 429}.Error())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGeminiErr(tt.in)
			require.Error(t, got)
			assert.Equal(t, tt.rateLimit, IsRateLimited(got))
		})
	}
}

func TestGemini_CompleteError(t *testing.T) {
	g := &Gemini{models: &fakeGenerator{err: genai.APIError{Code: 429, Message: "quota"}}, model: "m"}
	_, err := g.Complete(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}
