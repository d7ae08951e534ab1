package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"orderparse/internal/domain"
)

// BatchConfig controls a directory run.
type BatchConfig struct {
	OutDir      string
	Concurrency int
	// Delay is the minimum spacing between two documents starting.
	Delay    time.Duration
	ForceLLM bool
	// DryRun lists what would be processed without parsing or writing anything.
	DryRun bool
	// MaxFileBytes skips larger files; zero means no limit.
	MaxFileBytes int64
}

// BatchService parses every text document of a directory and writes one JSON result per file.
type BatchService struct {
	extraction ExtractionService
	cfg        BatchConfig
	logger     *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewBatchService creates a BatchService.
func NewBatchService(extraction ExtractionService, cfg BatchConfig, logger *slog.Logger) *BatchService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{
		extraction: extraction,
		cfg:        cfg,
		logger:     logger,
		entropy:    ulid.Monotonic(rand.Reader, 0),
		now:        time.Now,
	}
}

func (b *BatchService) newRunID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(b.now()), b.entropy).String()
}

// Run processes the regular files directly under inDir. Files that are not text are recorded
// as skipped. Per-file failures are recorded on their entry; the returned error is only set
// when the directory cannot be read or ctx is cancelled.
func (b *BatchService) Run(ctx context.Context, inDir string) (*domain.BatchSummary, error) {
	files, err := listFiles(inDir)
	if err != nil {
		return nil, err
	}

	summary := &domain.BatchSummary{
		RunID:     b.newRunID(),
		StartedAt: b.now().UTC(),
		DryRun:    b.cfg.DryRun,
		Entries:   make([]domain.BatchEntry, len(files)),
	}
	logger := b.logger.With("run_id", summary.RunID)
	logger.InfoContext(ctx, "batch.started", "dir", inDir, "files", len(files), "dry_run", b.cfg.DryRun)

	if !b.cfg.DryRun {
		if err := os.MkdirAll(b.cfg.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var limiter *rate.Limiter
	if b.cfg.Delay > 0 && !b.cfg.DryRun {
		limiter = rate.NewLimiter(rate.Every(b.cfg.Delay), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			summary.Entries[i] = b.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, e := range summary.Entries {
		switch {
		case e.Skipped:
			summary.Skipped++
		case e.Error != "":
			summary.Failed++
		case !b.cfg.DryRun:
			summary.Succeeded++
		}
	}
	summary.FinishedAt = b.now().UTC()
	logger.InfoContext(ctx, "batch.finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// ProcessFile parses one file and writes its result JSON into the output directory.
func (b *BatchService) ProcessFile(ctx context.Context, path string) domain.BatchEntry {
	entry := domain.BatchEntry{File: filepath.Base(path)}

	if b.cfg.MaxFileBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			entry.Error = fmt.Sprintf("reading file: %v", err)
			return entry
		}
		if info.Size() > b.cfg.MaxFileBytes {
			entry.Skipped = true
			entry.Error = fmt.Errorf("%w: file too large (%d bytes, limit %d)", domain.ErrUnsupportedInput, info.Size(), b.cfg.MaxFileBytes).Error()
			return entry
		}
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		entry.Error = fmt.Sprintf("detecting content type: %v", err)
		return entry
	}
	if !isText(mtype) {
		entry.Skipped = true
		entry.Error = fmt.Errorf("%w: content type %s", domain.ErrUnsupportedInput, mtype.String()).Error()
		return entry
	}
	if b.cfg.DryRun {
		return entry
	}

	data, err := os.ReadFile(path)
	if err != nil {
		entry.Error = fmt.Sprintf("reading file: %v", err)
		return entry
	}

	start := time.Now()
	res := b.extraction.ParseOrderDocument(ctx, string(data), ParseOptions{ForceLLM: b.cfg.ForceLLM})
	entry.ProcessingTime = time.Since(start)
	entry.Path = res.Path
	entry.OrderID = res.OrderID
	entry.Customer = res.Customer
	entry.LineItemCount = len(res.LineItems)
	entry.OverallConfidence = res.Confidence.Overall
	entry.Error = res.Error

	out := filepath.Join(b.cfg.OutDir, ResultFilename(path))
	if err := writeJSON(out, res); err != nil {
		b.logger.ErrorContext(ctx, "batch.write.failed", "file", entry.File, "error", err)
		entry.Error = err.Error()
		return entry
	}
	entry.OutputFile = filepath.Base(out)
	return entry
}

// ResultFilename is the name of the JSON result written for the document at path. The
// source extension is kept so a.txt and a.md do not overwrite each other.
func ResultFilename(path string) string {
	return filepath.Base(path) + ".json"
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
