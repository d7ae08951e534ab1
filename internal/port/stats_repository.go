package port

import (
	"context"

	"orderparse/internal/domain"
)

// UsageStatsRepository persists strategy counters between process runs.
type UsageStatsRepository interface {
	// Load returns the last saved counters, or zero counters if nothing was saved yet.
	Load(ctx context.Context) (*domain.UsageCounters, error)
	Save(ctx context.Context, counters domain.UsageCounters) error
}
