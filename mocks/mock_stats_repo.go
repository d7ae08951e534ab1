package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderparse/internal/domain"
)

// MockUsageStatsRepo is a mock implementation of port.UsageStatsRepository.
type MockUsageStatsRepo struct {
	mock.Mock
}

func (m *MockUsageStatsRepo) Load(ctx context.Context) (*domain.UsageCounters, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageCounters), args.Error(1)
}

func (m *MockUsageStatsRepo) Save(ctx context.Context, counters domain.UsageCounters) error {
	args := m.Called(ctx, counters)
	return args.Error(0)
}
