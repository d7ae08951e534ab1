package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/domain"
	"orderparse/internal/repository/sqlite"
)

func openRepo(t *testing.T, path string) *sqlite.UsageStatsRepository {
	t.Helper()
	repo, err := sqlite.OpenUsageStatsRepository(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUsageStatsRepository_EmptyDatabase(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "stats.db"))

	c, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.UsageCounters{}, *c)
}

func TestUsageStatsRepository_SaveOverwritesSingleRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	repo := openRepo(t, path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.UsageCounters{NERUsed: 1, DocumentsProcessed: 1}))
	want := domain.UsageCounters{
		NERUsed:            5,
		LLMFallbackUsed:    2,
		LLMForced:          1,
		DocumentsProcessed: 8,
		UpdatedAt:          time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestUsageStatsRepository_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	first, err := sqlite.OpenUsageStatsRepository(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), domain.UsageCounters{LLMForced: 3, DocumentsProcessed: 3}))
	require.NoError(t, first.Close())

	got, err := openRepo(t, path).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), got.LLMForced)
	assert.True(t, got.UpdatedAt.IsZero())
}
