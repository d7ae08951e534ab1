package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderparse/internal/domain"
)

// MockTokenClassifier is a mock implementation of port.TokenClassifier.
type MockTokenClassifier struct {
	mock.Mock
}

func (m *MockTokenClassifier) Classify(ctx context.Context, text string) (*domain.TokenLogits, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenLogits), args.Error(1)
}

func (m *MockTokenClassifier) Labels() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockEntityExtractor is a mock implementation of port.EntityExtractor.
type MockEntityExtractor struct {
	mock.Mock
}

func (m *MockEntityExtractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}
