package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// circuitState tracks rate-limit backoff for a single completer.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// NamedCompleter pairs a completer with the provider name used in logs and errors.
// Model is the model the completer calls when a request names none.
type NamedCompleter struct {
	Name      string
	Model     string
	Completer port.ChatCompleter
}

// FallbackCompleter tries completers in order, skipping those whose circuit opened after a 429.
// It implements port.ChatCompleter and port.RoutedCompleter.
type FallbackCompleter struct {
	entries  []NamedCompleter
	circuits []*circuitState
	now      func() time.Time
	logger   *slog.Logger
}

// NewFallbackCompleter creates a FallbackCompleter from an ordered list of completers.
func NewFallbackCompleter(entries []NamedCompleter, logger *slog.Logger) *FallbackCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	circuits := make([]*circuitState, len(entries))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackCompleter{
		entries:  entries,
		circuits: circuits,
		now:      time.Now,
		logger:   logger,
	}
}

func (f *FallbackCompleter) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	out, _, err := f.CompleteWithModel(ctx, req)
	return out, err
}

// CompleteWithModel is Complete that also returns the model of the provider that answered.
func (f *FallbackCompleter) CompleteWithModel(ctx context.Context, req domain.ChatRequest) (string, string, error) {
	now := f.now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, e := range f.entries {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.InfoContext(ctx, "llm.fallback.skipped",
				"provider", e.Name,
				"circuit_open_until", resetAt.Format(time.RFC3339),
			)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := e.Completer.Complete(ctx, req)
		if err == nil {
			model := req.Model
			if model == "" {
				model = e.Model
			}
			return out, model, nil
		}

		f.logger.WarnContext(ctx, "llm.fallback.provider_failed", "provider", e.Name, "error", err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return "", "", NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	if len(f.entries) == 1 {
		return "", "", lastErr
	}
	return "", "", fmt.Errorf("all providers failed: %w", lastErr)
}
