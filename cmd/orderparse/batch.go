package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"orderparse/internal/csvexport"
	"orderparse/internal/domain"
	"orderparse/internal/output"
	"orderparse/internal/service"
	"orderparse/internal/xlsxexport"
)

var (
	batchOut         string
	batchConcurrency int
	batchDelay       time.Duration
	batchForceLLM    bool
	batchDryRun      bool
	batchSummary     string
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Parse every text document in a directory",
	Long: `Parse every text document directly under <dir>.

One JSON result is written per document into --out, followed by a run summary
(batch_<run-id>.json plus the --summary exports). Non-text files are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch batchSummary {
		case "csv", "xlsx", "both", "none":
		default:
			return fmt.Errorf("unknown --summary %q (want csv, xlsx, both or none)", batchSummary)
		}
		concurrency := batchConcurrency
		if !cmd.Flags().Changed("concurrency") {
			concurrency = cfg.Batch.Concurrency
		}
		delay := batchDelay
		if !cmd.Flags().Changed("delay") {
			delay = cfg.Batch.Delay
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		batch := service.NewBatchService(a.extraction, service.BatchConfig{
			OutDir:       batchOut,
			Concurrency:  concurrency,
			Delay:        delay,
			ForceLLM:     batchForceLLM,
			DryRun:       batchDryRun,
			MaxFileBytes: cfg.Batch.MaxFileMB << 20,
		}, logger)

		summary, err := batch.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !batchDryRun {
			if err := writeSummaries(batchOut, summary, batchSummary); err != nil {
				return err
			}
		}
		return output.WriteTo(cmd.OutOrStdout(), format, summary, true)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOut, "out", "results", "directory for per-document results")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "documents parsed in parallel")
	batchCmd.Flags().DurationVar(&batchDelay, "delay", 0, "minimum spacing between documents")
	batchCmd.Flags().BoolVar(&batchForceLLM, "force-llm", false, "send every document straight to the LLM")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "list the documents without parsing them")
	batchCmd.Flags().StringVar(&batchSummary, "summary", "both", "summary export: csv, xlsx, both or none")
}

func writeSummaries(dir string, summary *domain.BatchSummary, kind string) error {
	if err := writeFile(filepath.Join(dir, csvexport.BuildFilename(summary.RunID, "json")), func(w io.Writer) error {
		return output.WriteTo(w, output.FormatJSON, summary, true)
	}); err != nil {
		return err
	}
	if kind == "csv" || kind == "both" {
		if err := writeFile(filepath.Join(dir, csvexport.BuildFilename(summary.RunID, "csv")), func(w io.Writer) error {
			return csvexport.WriteSummary(w, summary)
		}); err != nil {
			return err
		}
	}
	if kind == "xlsx" || kind == "both" {
		if err := writeFile(filepath.Join(dir, csvexport.BuildFilename(summary.RunID, "xlsx")), func(w io.Writer) error {
			return xlsxexport.WriteSummary(w, summary)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
