package embedding

import "context"

// MockClient returns a fixed embedding for any input.
type MockClient struct {
	EmbedResponse []float32
	EmbedError    error

	EmbedCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		EmbedResponse: make([]float32, 1536),
	}
}

func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	m.EmbedCalls = append(m.EmbedCalls, text)
	if m.EmbedError != nil {
		return nil, m.EmbedError
	}
	return m.EmbedResponse, nil
}
