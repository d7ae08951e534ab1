// Command orderparse extracts structured orders from plain-text order documents.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "orderparse/internal/parser/claude"
	_ "orderparse/internal/parser/gemini"
	_ "orderparse/internal/parser/openai"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
