package llm

import (
	"context"
)

// MockClient implements Client for testing.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string) (string, error)
	Prompts             []string
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockClient) Close() error { return nil }
