package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser"
	"orderparse/internal/port"
)

const (
	providerName = "claude"
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-3-5-haiku-latest"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.LLMProviderConfig) (port.ChatCompleter, error) {
		return NewCompleter(cfg), nil
	})
}

// Completer implements port.ChatCompleter using the Anthropic Messages API.
type Completer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewCompleter creates a Claude completer from a provider config. BaseURL, when set,
// replaces the API host.
func NewCompleter(cfg *config.LLMProviderConfig) *Completer {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
	}
	return newCompleter(cfg, endpoint)
}

// NewCompleterWithEndpoint creates a completer pointing at a custom messages endpoint (for testing).
func NewCompleterWithEndpoint(cfg *config.LLMProviderConfig, endpoint string) *Completer {
	return newCompleter(cfg, endpoint)
}

func newCompleter(cfg *config.LLMProviderConfig, endpoint string) *Completer {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Completer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
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
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	bodyBytes, err := json.Marshal(apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.User}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
			return "", parser.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return "", &parser.StatusError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return parseResponse(respBody)
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: unmarshaling response: %v", domain.ErrMalformedReply, err)
	}
	if resp.StopReason == "max_tokens" {
		return "", fmt.Errorf("%w: output truncated (stop_reason: max_tokens)", domain.ErrMalformedReply)
	}
	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude: %w", domain.ErrEmptyCompletion)
}
