package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"orderparse/internal/domain"
)

// FileProcessor parses one document file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) domain.BatchEntry
}

// WatchConfig holds settings for the watch worker.
type WatchConfig struct {
	Concurrency int
	// ParseTimeout bounds a single document, including LLM retries.
	ParseTimeout time.Duration
}

// WatchWorker consumes discovered file paths and dispatches them for parsing.
type WatchWorker struct {
	processor FileProcessor
	cfg       WatchConfig
	logger    *slog.Logger
	wg        sync.WaitGroup

	// OnEntry, when set, receives every finished entry.
	OnEntry func(domain.BatchEntry)
}

// NewWatchWorker creates a new WatchWorker.
func NewWatchWorker(processor FileProcessor, cfg WatchConfig, logger *slog.Logger) *WatchWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchWorker{processor: processor, cfg: cfg, logger: logger}
}

// Start dispatches paths until ctx is canceled or paths is closed. It blocks until all
// in-flight parses have finished.
func (w *WatchWorker) Start(ctx context.Context, paths <-chan string) {
	sem := make(chan struct{}, w.cfg.Concurrency)

	w.logger.InfoContext(ctx, "watch.started", "concurrency", w.cfg.Concurrency)
	defer func() {
		w.logger.InfoContext(ctx, "watch.draining")
		w.wg.Wait()
		w.logger.InfoContext(ctx, "watch.stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-sem }()

				// In-flight parses finish even during shutdown.
				parseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.ParseTimeout)
				defer cancel()

				entry := w.processor.ProcessFile(parseCtx, path)
				w.logger.InfoContext(ctx, "watch.file.done",
					"file", entry.File,
					"parser_used", entry.Path,
					"confidence", entry.OverallConfidence,
					"error", entry.Error,
				)
				if w.OnEntry != nil {
					w.OnEntry(entry)
				}
			}()
		}
	}
}
