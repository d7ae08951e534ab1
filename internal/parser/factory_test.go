package parser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/parser"
	"orderparse/internal/port"
)

// stubCompleter answers with its model name.
type stubCompleter struct {
	model string
}

func (s *stubCompleter) Complete(_ context.Context, _ domain.ChatRequest) (string, error) {
	return s.model, nil
}

func registerStub(name string) {
	parser.RegisterProvider(name, func(cfg *config.LLMProviderConfig) (port.ChatCompleter, error) {
		return &stubCompleter{model: cfg.DefaultModel}, nil
	})
}

func TestFactory_RegisterAndCreate(t *testing.T) {
	registerStub("test-provider")

	c, err := parser.NewCompleter(&config.LLMProviderConfig{
		Provider:     "test-provider",
		APIKey:       "key",
		DefaultModel: "test-model",
	})

	require.NoError(t, err)
	out, err := c.Complete(context.Background(), domain.ChatRequest{})
	assert.NoError(t, err)
	assert.Equal(t, "test-model", out)
	assert.Contains(t, parser.Providers(), "test-provider")
}

func TestFactory_UnknownProvider(t *testing.T) {
	c, err := parser.NewCompleter(&config.LLMProviderConfig{Provider: "nonexistent-provider-xyz", APIKey: "k"})

	assert.Nil(t, c)
	assert.True(t, errors.Is(err, domain.ErrUnknownProvider))
}

func TestFactory_MissingKey(t *testing.T) {
	registerStub("test-provider")

	c, err := parser.NewCompleter(&config.LLMProviderConfig{Provider: "test-provider"})

	assert.Nil(t, c)
	assert.True(t, errors.Is(err, domain.ErrMissingAPIKey))
}

func TestBuildCompleterChain_NoCredentials(t *testing.T) {
	registerStub("test-provider")

	c, err := parser.BuildCompleterChain(&config.LLMConfig{Provider: "test-provider"}, parser.DefaultRetryPolicy(), nil)

	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestBuildCompleterChain_PrimaryAndSecondary(t *testing.T) {
	registerStub("test-primary")
	registerStub("test-secondary")

	c, err := parser.BuildCompleterChain(&config.LLMConfig{
		Provider:   "test-primary",
		APIKey:     "k1",
		Model:      "primary-model",
		MaxRetries: 2,
		Secondary: config.LLMProviderConfig{
			Provider:     "test-secondary",
			APIKey:       "k2",
			DefaultModel: "secondary-model",
		},
	}, parser.DefaultRetryPolicy(), nil)

	require.NoError(t, err)
	require.NotNil(t, c)
	out, err := c.Complete(context.Background(), domain.ChatRequest{})
	assert.NoError(t, err)
	assert.Equal(t, "primary-model", out)

	routed, ok := c.(port.RoutedCompleter)
	require.True(t, ok)
	out, model, err := routed.CompleteWithModel(context.Background(), domain.ChatRequest{})
	assert.NoError(t, err)
	assert.Equal(t, "primary-model", out)
	assert.Equal(t, "primary-model", model)
}

func TestBuildCompleterChain_UnknownProvider(t *testing.T) {
	_, err := parser.BuildCompleterChain(&config.LLMConfig{Provider: "nope-xyz", APIKey: "k"}, parser.DefaultRetryPolicy(), nil)

	assert.True(t, errors.Is(err, domain.ErrUnknownProvider))
}
