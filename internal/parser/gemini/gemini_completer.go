package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser"
	"orderparse/internal/port"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.0-flash"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.LLMProviderConfig) (port.ChatCompleter, error) {
		return NewCompleter(context.Background(), cfg)
	})
}

// Completer implements port.ChatCompleter using the Gemini API.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a Gemini completer from a provider config.
func NewCompleter(ctx context.Context, cfg *config.LLMProviderConfig) (*Completer, error) {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Completer{client: client, model: model}, nil
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
	temperature := float32(req.Temperature)
	gc := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return "", mapError(err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates", domain.ErrEmptyCompletion)
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("gemini: %w: output truncated (finish_reason: MAX_TOKENS)", domain.ErrMalformedReply)
	}
	if cand.Content == nil {
		return "", fmt.Errorf("gemini: %w: no content", domain.ErrEmptyCompletion)
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: %w", domain.ErrEmptyCompletion)
	}
	return sb.String(), nil
}

func mapError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return fmt.Errorf("calling gemini API: %w", err)
	}
	if code == http.StatusTooManyRequests {
		return parser.NewRateLimitError(providerName, err, 0)
	}
	return &parser.StatusError{Provider: providerName, StatusCode: code, Body: err.Error()}
}
