package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"orderparse/internal/output"
	"orderparse/internal/service"
)

var (
	parseForceLLM bool
	parsePretty   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse one document and print the result",
	Long: `Parse a single order document and print the extraction result.

Reads from stdin when the argument is "-" or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.extraction.ParseOrderDocument(cmd.Context(), text, service.ParseOptions{ForceLLM: parseForceLLM})
		return output.WriteTo(cmd.OutOrStdout(), format, res, parsePretty)
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseForceLLM, "force-llm", false, "send the document straight to the LLM")
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "indent JSON output")
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
