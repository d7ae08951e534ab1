package parser

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"orderparse/internal/config"
	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// ProviderFactory creates a ChatCompleter from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.ChatCompleter, error)

// registry of provider factories, populated by init() in each provider package.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a completion provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// Providers lists the registered provider names.
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCompleter creates a ChatCompleter from a provider config using the registered factory.
func NewCompleter(cfg *config.LLMProviderConfig) (port.ChatCompleter, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrMissingAPIKey)
	}
	return factory(cfg)
}

// BuildCompleterChain builds the completer used by the LLM stage: the primary provider and the
// optional secondary, each retried per policy, behind a FallbackCompleter. Providers without a
// credential are left out; when none remain the returned completer is nil.
func BuildCompleterChain(cfg *config.LLMConfig, policy RetryPolicy, logger *slog.Logger) (port.ChatCompleter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	candidates := []*config.LLMProviderConfig{cfg.PrimaryConfig()}
	if sec := cfg.SecondaryConfig(); sec != nil {
		candidates = append(candidates, sec)
	}

	var entries []NamedCompleter
	for _, pc := range candidates {
		if pc.APIKey == "" {
			logger.Warn("llm.provider.no_credential", "provider", pc.Provider)
			continue
		}
		c, err := NewCompleter(pc)
		if err != nil {
			return nil, fmt.Errorf("creating %s completer: %w", pc.Provider, err)
		}
		p := policy
		if pc.MaxRetries > 0 {
			p.MaxAttempts = uint(pc.MaxRetries)
		}
		model := pc.DefaultModel
		if m, ok := c.(port.ModelReporter); ok && m.Model() != "" {
			model = m.Model()
		}
		entries = append(entries, NamedCompleter{
			Name:      pc.Provider,
			Model:     model,
			Completer: NewRetryingCompleter(c, pc.Provider, p, logger),
		})
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return NewFallbackCompleter(entries, logger), nil
}
