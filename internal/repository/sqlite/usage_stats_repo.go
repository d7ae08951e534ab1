// Package sqlite stores usage counters in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"orderparse/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_counters (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	ner_used INTEGER NOT NULL DEFAULT 0,
	llm_fallback_used INTEGER NOT NULL DEFAULT 0,
	llm_forced INTEGER NOT NULL DEFAULT 0,
	documents_processed INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT
);`

// UsageStatsRepository implements port.UsageStatsRepository on a single-row table.
type UsageStatsRepository struct {
	db *sql.DB
}

// OpenUsageStatsRepository opens (or creates) the database at path with WAL mode enabled.
func OpenUsageStatsRepository(ctx context.Context, path string) (*UsageStatsRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}
	return &UsageStatsRepository{db: db}, nil
}

// Close closes the database connection.
func (r *UsageStatsRepository) Close() error {
	return r.db.Close()
}

func (r *UsageStatsRepository) Load(ctx context.Context) (*domain.UsageCounters, error) {
	var (
		c         domain.UsageCounters
		updatedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT ner_used, llm_fallback_used, llm_forced, documents_processed, updated_at
		FROM usage_counters WHERE id = 1`,
	).Scan(&c.NERUsed, &c.LLMFallbackUsed, &c.LLMForced, &c.DocumentsProcessed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UsageCounters{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading usage counters: %w", err)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		c.UpdatedAt = t
	}
	return &c, nil
}

func (r *UsageStatsRepository) Save(ctx context.Context, c domain.UsageCounters) error {
	var updatedAt sql.NullString
	if !c.UpdatedAt.IsZero() {
		updatedAt = sql.NullString{String: c.UpdatedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_counters (id, ner_used, llm_fallback_used, llm_forced, documents_processed, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ner_used = excluded.ner_used,
			llm_fallback_used = excluded.llm_fallback_used,
			llm_forced = excluded.llm_forced,
			documents_processed = excluded.documents_processed,
			updated_at = excluded.updated_at`,
		c.NERUsed, c.LLMFallbackUsed, c.LLMForced, c.DocumentsProcessed, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving usage counters: %w", err)
	}
	return nil
}
