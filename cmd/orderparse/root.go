package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"orderparse/internal/config"
	"orderparse/internal/output"
)

var (
	outputFlag string
	format     output.Format
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orderparse",
	Short: "Extract customer, order id, shipping address and line items from order documents",
	Long: `orderparse turns free-form order documents (emails, confirmations, pasted text)
into structured orders.

Each document goes through:
  - Regex extraction with per-field confidence
  - Named-entity recognition when required fields are still missing
  - An LLM fallback when the overall confidence stays under the threshold

Configuration is read from ORDERPARSE_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		f, err := output.ParseFormat(outputFlag)
		if err != nil {
			return err
		}
		format = f

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = newLogger(cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "json", "output format: json or yaml")

	rootCmd.AddCommand(parseCmd, batchCmd, watchCmd, statsCmd)
}

// newLogger builds the process logger. Logs go to stderr so results on stdout stay parseable.
func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
