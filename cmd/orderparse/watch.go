package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"orderparse/internal/ingest"
	"orderparse/internal/service"
)

var (
	watchOut         string
	watchInitialScan bool
	watchDebounce    time.Duration
	watchForceLLM    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Parse documents as they appear in a directory",
	Long: `Watch <dir> (recursively) and parse every .txt, .text, .eml or .md file that is
created or rewritten, writing one JSON result per document into --out.

Runs until interrupted; documents already being parsed are finished first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := os.MkdirAll(watchOut, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{args[0]},
			InitialScan: watchInitialScan,
			Debounce:    watchDebounce,
		}, logger)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		// Watcher errors are logged where they occur.
		go func() {
			for range errs {
			}
		}()

		batch := service.NewBatchService(a.extraction, service.BatchConfig{
			OutDir:       watchOut,
			ForceLLM:     watchForceLLM,
			MaxFileBytes: cfg.Batch.MaxFileMB << 20,
		}, logger)
		worker := service.NewWatchWorker(batch, service.WatchConfig{
			Concurrency:  cfg.Batch.Concurrency,
			ParseTimeout: 5 * time.Minute,
		}, logger)
		worker.Start(ctx, events)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "results", "directory for per-document results")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "also parse documents already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "coalesce bursts of file events")
	watchCmd.Flags().BoolVar(&watchForceLLM, "force-llm", false, "send every document straight to the LLM")
}
