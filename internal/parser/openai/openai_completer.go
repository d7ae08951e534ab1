package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser"
	"orderparse/internal/port"
)

const (
	providerName = "openai"
	defaultModel = "gpt-3.5-turbo"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.LLMProviderConfig) (port.ChatCompleter, error) {
		return NewCompleter(cfg), nil
	})
}

// Completer implements port.ChatCompleter using the OpenAI Chat Completions API.
type Completer struct {
	client openai.Client
	model  string
}

// NewCompleter creates an OpenAI completer from a provider config. Retries are left to
// parser.RetryPolicy, so the SDK's own retries are disabled.
func NewCompleter(cfg *config.LLMProviderConfig) *Completer {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Completer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Model returns the model used when a request does not name one.
func (c *Completer) Model() string {
	return c.model
}

func (c *Completer) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices", domain.ErrEmptyCompletion)
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", fmt.Errorf("openai: %w: output truncated (finish_reason: length)", domain.ErrMalformedReply)
	}
	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("calling openai API: %w", err)
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if apiErr.Response != nil {
			retryAfter = parser.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
		}
		return parser.NewRateLimitError(providerName, err, retryAfter)
	}
	return &parser.StatusError{Provider: providerName, StatusCode: apiErr.StatusCode, Body: apiErr.Message}
}
