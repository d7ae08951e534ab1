package port

import (
	"context"

	"orderparse/internal/domain"
)

// ChatCompleter is a hosted chat-completion endpoint.
// Implementations return *parser.RateLimitError for HTTP 429 and *parser.StatusError for
// any other non-2xx status; every other error is treated as a transport failure.
type ChatCompleter interface {
	Complete(ctx context.Context, req domain.ChatRequest) (string, error)
}

// ModelReporter is implemented by completers that know the model they call when a request
// does not name one.
type ModelReporter interface {
	Model() string
}

// RoutedCompleter is a ChatCompleter that also reports the model that produced the reply,
// which differs from the configured one when a fallback provider answered.
type RoutedCompleter interface {
	CompleteWithModel(ctx context.Context, req domain.ChatRequest) (reply, model string, err error)
}

// LLMExtractor turns document text into an order using a language model.
// It never returns an error: failures come back as a result with Error set.
type LLMExtractor interface {
	Extract(ctx context.Context, text string) *domain.ParseResult
}
