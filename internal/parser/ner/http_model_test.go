package ner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser/ner"
)

const modelConfigJSON = `{"id2label": {"0": "O", "2": "I-PER", "1": "B-PER"}}`

func TestLoadHTTPModel_ReadsLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelConfigJSON))
	}))
	defer server.Close()

	m, err := ner.LoadHTTPModel(context.Background(), &config.NERConfig{Endpoint: server.URL + "/", ReadyAttempts: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"O", "B-PER", "I-PER"}, m.Labels())
}

func TestLoadHTTPModel_WaitsForReadiness(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(modelConfigJSON))
	}))
	defer server.Close()

	m, err := ner.LoadHTTPModelWithDelay(context.Background(), &config.NERConfig{Endpoint: server.URL, ReadyAttempts: 5}, time.Millisecond)

	require.NoError(t, err)
	assert.Len(t, m.Labels(), 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLoadHTTPModel_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m, err := ner.LoadHTTPModelWithDelay(context.Background(), &config.NERConfig{Endpoint: server.URL, ReadyAttempts: 2}, time.Millisecond)

	assert.Nil(t, m)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestLoadHTTPModel_SparseLabelIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id2label": {"0": "O", "5": "B-PER"}}`))
	}))
	defer server.Close()

	_, err := ner.LoadHTTPModel(context.Background(), &config.NERConfig{Endpoint: server.URL, ReadyAttempts: 1})

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestHTTPModel_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/config" {
			_, _ = w.Write([]byte(modelConfigJSON))
			return
		}
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "John Smith", body["text"])
		assert.Equal(t, true, body["truncation"])
		assert.Equal(t, float64(512), body["max_length"])

		_, _ = w.Write([]byte(`{"tokens": ["[CLS]", "John", "Smith", "[SEP]"],
			"logits": [[5,0,0],[0,5,0],[0,0,5],[5,0,0]],
			"special_tokens_mask": [true, false, false, true]}`))
	}))
	defer server.Close()

	m, err := ner.LoadHTTPModel(context.Background(), &config.NERConfig{Endpoint: server.URL, MaxLength: 512, ReadyAttempts: 1})
	require.NoError(t, err)

	entities, err := ner.NewExtractor(m).Extract(context.Background(), "John Smith")

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "John Smith", entities[0].Text)
	assert.Equal(t, domain.EntityPerson, entities[0].Type)
}

func TestHTTPModel_ClassifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/config" {
			_, _ = w.Write([]byte(modelConfigJSON))
			return
		}
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	m, err := ner.LoadHTTPModel(context.Background(), &config.NERConfig{Endpoint: server.URL, ReadyAttempts: 1})
	require.NoError(t, err)

	_, err = m.Classify(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model crashed")
}
