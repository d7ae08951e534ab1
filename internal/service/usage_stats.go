package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// UsageStats counts which extraction path produced each returned result. Every document
// increments exactly one of the three path counters, so the processed total is always
// their sum. All counters are read and written under one lock.
type UsageStats struct {
	mu       sync.Mutex
	counters domain.UsageCounters
	repo     port.UsageStatsRepository
	now      func() time.Time
}

// NewUsageStats creates an empty UsageStats. repo may be nil when counters are not persisted.
func NewUsageStats(repo port.UsageStatsRepository) *UsageStats {
	return &UsageStats{repo: repo, now: time.Now}
}

// Increment records one document handled by path.
func (u *UsageStats) Increment(path domain.ExtractionPath) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch path {
	case domain.PathLLMForced:
		u.counters.LLMForced++
	case domain.PathLLMFallback:
		u.counters.LLMFallbackUsed++
	default:
		u.counters.NERUsed++
	}
	u.counters.DocumentsProcessed++
	u.counters.UpdatedAt = u.now().UTC()
}

// Snapshot returns a consistent copy of the counters.
func (u *UsageStats) Snapshot() domain.UsageCounters {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counters
}

// Reset zeroes every counter.
func (u *UsageStats) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counters = domain.UsageCounters{UpdatedAt: u.now().UTC()}
}

// Persist saves the current snapshot.
func (u *UsageStats) Persist(ctx context.Context) error {
	if u.repo == nil {
		return nil
	}
	if err := u.repo.Save(ctx, u.Snapshot()); err != nil {
		return fmt.Errorf("persisting usage stats: %w", err)
	}
	return nil
}

// Restore replaces the counters with the last saved snapshot. The processed total is
// recomputed from the path counters.
func (u *UsageStats) Restore(ctx context.Context) error {
	if u.repo == nil {
		return nil
	}
	saved, err := u.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring usage stats: %w", err)
	}
	if saved == nil {
		return nil
	}
	c := *saved
	c.DocumentsProcessed = c.NERUsed + c.LLMFallbackUsed + c.LLMForced

	u.mu.Lock()
	defer u.mu.Unlock()
	u.counters = c
	return nil
}
