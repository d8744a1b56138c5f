package llm

import (
	"context"
	"time"
)

// MockProvider implements Provider for testing. It records the prompts it
// received and returns a fixed response.
type MockProvider struct {
	FixedContent string
	PingErr      error
	GenerateErr  error

	LastSystemPrompt string
	LastUserPrompt   string
	LastOptions      Options
}

// NewMockProvider creates a mock provider with a canned JSON response.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{FixedContent: content}
}

func (p *MockProvider) Name() string { return "Mock" }

func (p *MockProvider) Ping(_ context.Context) error {
	return p.PingErr
}

func (p *MockProvider) Generate(_ context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error) {
	p.LastSystemPrompt = systemPrompt
	p.LastUserPrompt = userPrompt
	p.LastOptions = opts
	if p.GenerateErr != nil {
		return nil, p.GenerateErr
	}
	return &Response{
		Content:    p.FixedContent,
		Model:      "mock",
		TokensUsed: 100,
		Duration:   time.Millisecond,
	}, nil
}
