package llm

import (
	"context"
)

// MockClient is a configurable generator for testing.
// Set GenerateFunc for per-call behavior, or GenerateResponse/GenerateError
// for a fixed one.
type MockClient struct {
	GenerateResponse string
	GenerateError    error
	GenerateFunc     func(ctx context.Context, prompt string) (string, error)

	// Call tracking for assertions
	GenerateCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		GenerateResponse: "Mock generation",
	}
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.GenerateCalls = append(m.GenerateCalls, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if m.GenerateError != nil {
		return "", m.GenerateError
	}
	return m.GenerateResponse, nil
}
