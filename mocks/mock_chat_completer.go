package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderparse/internal/domain"
)

// MockChatCompleter is a mock implementation of port.ChatCompleter.
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockLLMExtractor is a mock implementation of port.LLMExtractor.
type MockLLMExtractor struct {
	mock.Mock
}

func (m *MockLLMExtractor) Extract(ctx context.Context, text string) *domain.ParseResult {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ParseResult)
}
