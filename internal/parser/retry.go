package parser

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// RetryPolicy bounds how often a completion call is attempted and how long to wait between
// attempts. The wait doubles after every failed attempt and there is no wait after the last.
type RetryPolicy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	// Timer replaces the real clock, mainly for tests.
	Timer retry.Timer
}

// DefaultRetryPolicy allows three attempts with waits of 2s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 2 * time.Second}
}

// Backoff returns the wait before retry number n (zero-based).
func (p RetryPolicy) Backoff(n uint) time.Duration {
	return p.InitialDelay << n
}

// Do calls fn until it succeeds, returns a non-transient error, or the attempts run out.
// The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func() error, onRetry func(attempt uint, err error)) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	var waits uint
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && IsTransient(err)
		}),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			d := p.Backoff(waits)
			waits++
			return d
		}),
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(onRetry))
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}
	return retry.Do(fn, opts...)
}

// RetryingCompleter applies a RetryPolicy to every call of the wrapped completer.
type RetryingCompleter struct {
	next   port.ChatCompleter
	name   string
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryingCompleter wraps next with policy.
func NewRetryingCompleter(next port.ChatCompleter, name string, policy RetryPolicy, logger *slog.Logger) *RetryingCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingCompleter{next: next, name: name, policy: policy, logger: logger}
}

// Model reports the wrapped completer's default model, or "" if it does not know it.
func (r *RetryingCompleter) Model() string {
	if m, ok := r.next.(port.ModelReporter); ok {
		return m.Model()
	}
	return ""
}

func (r *RetryingCompleter) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	var out string
	err := r.policy.Do(ctx, func() error {
		var err error
		out, err = r.next.Complete(ctx, req)
		return err
	}, func(attempt uint, err error) {
		r.logger.WarnContext(ctx, "llm.attempt.failed",
			"provider", r.name,
			"attempt", attempt+1,
			"max_attempts", r.policy.MaxAttempts,
			"transient", IsTransient(err),
			"error", err,
		)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
