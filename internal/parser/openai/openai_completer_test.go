package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser"
	openai "orderparse/internal/parser/openai"
)

func newTestCompleter(serverURL string) *openai.Completer {
	return openai.NewCompleter(&config.LLMProviderConfig{
		Provider:     "openai",
		APIKey:       "test-openai-key",
		DefaultModel: "gpt-3.5-turbo",
		BaseURL:      serverURL + "/v1",
		TimeoutSecs:  5,
	})
}

func successResponse(content, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": finishReason,
			},
		},
	}
}

func TestOpenAICompleter_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-3.5-turbo", reqBody["model"])
		assert.Equal(t, 0.2, reqBody["temperature"])
		assert.Equal(t, float64(1000), reqBody["max_tokens"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
		assert.Equal(t, "order text", messages[1].(map[string]interface{})["content"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(successResponse(`{"order_id":"PO-1"}`, "stop"))
	}))
	defer server.Close()

	out, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{
		System:      "sys",
		User:        "order text",
		Temperature: 0.2,
		MaxTokens:   1000,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"order_id":"PO-1"}`, out)
}

func TestOpenAICompleter_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{User: "x"})

	require.Error(t, err)
	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	assert.Equal(t, 1, calls)
}

func TestOpenAICompleter_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{User: "x"})

	var statusErr *parser.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.False(t, parser.IsTransient(err))
}

func TestOpenAICompleter_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(successResponse(`{"order_id":`, "length"))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{User: "x"})

	assert.True(t, errors.Is(err, domain.ErrMalformedReply))
}

func TestOpenAICompleter_RegisteredWithFactory(t *testing.T) {
	c, err := parser.NewCompleter(&config.LLMProviderConfig{Provider: "openai", APIKey: "k"})

	require.NoError(t, err)
	assert.IsType(t, &openai.Completer{}, c)
	assert.Equal(t, "gpt-3.5-turbo", c.(*openai.Completer).Model())
}
