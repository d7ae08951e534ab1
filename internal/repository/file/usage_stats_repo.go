// Package file stores usage counters as a JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

type usageStatsRepository struct {
	path string
}

// NewUsageStatsRepository returns a repository reading and writing the JSON file at path.
func NewUsageStatsRepository(path string) port.UsageStatsRepository {
	return &usageStatsRepository{path: path}
}

func (r *usageStatsRepository) Load(ctx context.Context) (*domain.UsageCounters, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.UsageCounters{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}
	var c domain.UsageCounters
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.path, err)
	}
	return &c, nil
}

// Save writes to a temporary file in the same directory and renames it over the target,
// so readers never observe a partial document.
func (r *usageStatsRepository) Save(ctx context.Context, counters domain.UsageCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding usage stats: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replacing %s: %w", r.path, err)
	}
	return nil
}
