package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderparse/internal/domain"
)

// MockFileProcessor is a mock implementation of service.FileProcessor.
type MockFileProcessor struct {
	mock.Mock
}

func (m *MockFileProcessor) ProcessFile(ctx context.Context, path string) domain.BatchEntry {
	args := m.Called(ctx, path)
	return args.Get(0).(domain.BatchEntry)
}
