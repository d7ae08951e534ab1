package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"orderparse/internal/config"
	"orderparse/internal/domain"
)

// HTTPModel is a token-classification model served over HTTP. The label table is fetched once
// when the model is loaded and is read-only afterwards.
type HTTPModel struct {
	endpoint  string
	model     string
	maxLength int
	client    *http.Client
	labels    []string
}

type modelConfigResponse struct {
	ID2Label map[string]string `json:"id2label"`
}

type classifyRequest struct {
	Model      string `json:"model,omitempty"`
	Text       string `json:"text"`
	Truncation bool   `json:"truncation"`
	MaxLength  int    `json:"max_length"`
}

// LoadHTTPModel waits for the model server to answer and reads its label table. Any failure
// wraps domain.ErrModelUnavailable.
func LoadHTTPModel(ctx context.Context, cfg *config.NERConfig) (*HTTPModel, error) {
	return loadHTTPModel(ctx, cfg, time.Second)
}

func loadHTTPModel(ctx context.Context, cfg *config.NERConfig, delay time.Duration) (*HTTPModel, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.ReadyAttempts
	if attempts <= 0 {
		attempts = 1
	}
	m := &HTTPModel{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		model:     cfg.Model,
		maxLength: cfg.MaxLength,
		client:    &http.Client{Timeout: timeout},
	}

	var labels []string
	err := retry.Do(
		func() error {
			var err error
			labels, err = m.fetchLabels(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, m.endpoint, err)
	}
	m.labels = labels
	return m, nil
}

func (m *HTTPModel) fetchLabels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"/config", nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model config status %d", resp.StatusCode)
	}

	var cfg modelConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding model config: %w", err)
	}
	return labelTable(cfg.ID2Label)
}

// labelTable turns a {"0": "O", "1": "B-PER"} mapping into a dense slice.
func labelTable(id2label map[string]string) ([]string, error) {
	if len(id2label) == 0 {
		return nil, fmt.Errorf("model config has no id2label table")
	}
	ids := make([]int, 0, len(id2label))
	byID := make(map[int]string, len(id2label))
	for k, v := range id2label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid label id %q", k)
		}
		ids = append(ids, id)
		byID[id] = v
	}
	sort.Ints(ids)
	labels := make([]string, len(ids))
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("label ids are not contiguous at %d", i)
		}
		labels[i] = byID[id]
	}
	return labels, nil
}

// Labels returns the model's id-to-label table.
func (m *HTTPModel) Labels() []string {
	return m.labels
}

// Classify runs one forward pass over text.
func (m *HTTPModel) Classify(ctx context.Context, text string) (*domain.TokenLogits, error) {
	body, err := json.Marshal(classifyRequest{
		Model:      m.model,
		Text:       text,
		Truncation: true,
		MaxLength:  m.maxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling classify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out domain.TokenLogits
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding classify response: %w", err)
	}
	return &out, nil
}
