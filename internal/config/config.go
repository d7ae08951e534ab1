package config

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the confidence settings, also used when an override is invalid.
const (
	DefaultConfidenceThreshold = 0.6
	DefaultLLMBaseConfidence   = 0.8
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig
	Pipeline PipelineConfig
	NER      NERConfig
	LLM      LLMConfig
	Stats    StatsConfig
	Batch    BatchConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	UseLLMParser        bool    `mapstructure:"use_llm_parser"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// NERConfig holds settings for the token-classification model server.
type NERConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Endpoint      string `mapstructure:"endpoint"`
	Model         string `mapstructure:"model"`
	MaxLength     int    `mapstructure:"max_length"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
	ReadyAttempts int    `mapstructure:"ready_attempts"`
}

// LLMProviderConfig holds settings for a single completion provider.
type LLMProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds the fallback extractor settings. The flat fields describe the
// primary provider; Secondary is optional.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	MaxRetries     int           `mapstructure:"max_retries"`
	TimeoutSecs    int           `mapstructure:"timeout_secs"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	BaseConfidence float64       `mapstructure:"base_confidence"`

	Secondary LLMProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config built from the flat fields.
func (c *LLMConfig) PrimaryConfig() *LLMProviderConfig {
	return &LLMProviderConfig{
		Provider:     c.Provider,
		APIKey:       c.APIKey,
		DefaultModel: c.Model,
		BaseURL:      c.BaseURL,
		MaxRetries:   c.MaxRetries,
		TimeoutSecs:  c.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (c *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if c.Secondary.Provider == "" {
		return nil
	}
	s := c.Secondary
	if s.MaxRetries == 0 {
		s.MaxRetries = c.MaxRetries
	}
	if s.TimeoutSecs == 0 {
		s.TimeoutSecs = c.TimeoutSecs
	}
	return &s
}

// StatsConfig holds usage counter persistence settings.
// Backend is "file" (JSON document at Path) or "sqlite" (database at Path).
type StatsConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	Persist bool   `mapstructure:"persist"`
}

// BatchConfig holds directory batch settings.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Delay       time.Duration `mapstructure:"delay"`
	MaxFileMB   int64         `mapstructure:"max_file_mb"`
}

// Load reads configuration from environment variables. Every key can be set with the
// ORDERPARSE_ prefix; the pipeline and LLM keys also accept their bare names.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORDERPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Pipeline defaults
	v.SetDefault("pipeline.use_llm_parser", false)
	v.SetDefault("pipeline.confidence_threshold", DefaultConfidenceThreshold)

	// NER defaults
	v.SetDefault("ner.enabled", true)
	v.SetDefault("ner.endpoint", "http://localhost:8081")
	v.SetDefault("ner.model", "dslim/bert-base-NER")
	v.SetDefault("ner.max_length", 512)
	v.SetDefault("ner.timeout_secs", 10)
	v.SetDefault("ner.ready_attempts", 5)

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout_secs", 30)
	v.SetDefault("llm.retry_delay", "2s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.base_confidence", DefaultLLMBaseConfidence)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.default_model", "")
	v.SetDefault("llm.secondary.base_url", "")

	// Stats defaults
	v.SetDefault("stats.backend", "file")
	v.SetDefault("stats.path", "parser_stats.json")
	v.SetDefault("stats.persist", true)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.delay", "0s")
	v.SetDefault("batch.max_file_mb", 5)

	// Bind environment variables explicitly; the first name that is set wins.
	envBindings := map[string][]string{
		"log.level":                     {"ORDERPARSE_LOG_LEVEL"},
		"log.format":                    {"ORDERPARSE_LOG_FORMAT"},
		"pipeline.use_llm_parser":       {"ORDERPARSE_USE_LLM_PARSER", "USE_LLM_PARSER"},
		"pipeline.confidence_threshold": {"ORDERPARSE_CONFIDENCE_THRESHOLD", "CONFIDENCE_THRESHOLD"},
		"ner.enabled":                   {"ORDERPARSE_NER_ENABLED", "NER_ENABLED"},
		"ner.endpoint":                  {"ORDERPARSE_NER_ENDPOINT", "NER_ENDPOINT"},
		"ner.model":                     {"ORDERPARSE_NER_MODEL", "NER_MODEL"},
		"ner.max_length":                {"ORDERPARSE_NER_MAX_LENGTH"},
		"ner.timeout_secs":              {"ORDERPARSE_NER_TIMEOUT_SECS"},
		"ner.ready_attempts":            {"ORDERPARSE_NER_READY_ATTEMPTS"},
		"llm.provider":                  {"ORDERPARSE_LLM_PROVIDER", "LLM_PROVIDER"},
		"llm.api_key":                   {"ORDERPARSE_LLM_API_KEY"},
		"llm.model":                     {"ORDERPARSE_LLM_MODEL", "LLM_MODEL"},
		"llm.base_url":                  {"ORDERPARSE_LLM_BASE_URL"},
		"llm.max_retries":               {"ORDERPARSE_LLM_MAX_RETRIES"},
		"llm.timeout_secs":              {"ORDERPARSE_LLM_TIMEOUT_SECS"},
		"llm.retry_delay":               {"ORDERPARSE_LLM_RETRY_DELAY"},
		"llm.temperature":               {"ORDERPARSE_LLM_TEMPERATURE", "LLM_TEMPERATURE"},
		"llm.max_tokens":                {"ORDERPARSE_LLM_MAX_TOKENS", "LLM_MAX_TOKENS"},
		"llm.base_confidence":           {"ORDERPARSE_LLM_BASE_CONFIDENCE", "LLM_BASE_CONFIDENCE"},
		"llm.secondary.provider":        {"ORDERPARSE_LLM_SECONDARY_PROVIDER"},
		"llm.secondary.api_key":         {"ORDERPARSE_LLM_SECONDARY_API_KEY"},
		"llm.secondary.default_model":   {"ORDERPARSE_LLM_SECONDARY_MODEL"},
		"llm.secondary.base_url":        {"ORDERPARSE_LLM_SECONDARY_BASE_URL"},
		"stats.backend":                 {"ORDERPARSE_STATS_BACKEND"},
		"stats.path":                    {"ORDERPARSE_STATS_PATH", "PARSER_STATS_FILE"},
		"stats.persist":                 {"ORDERPARSE_STATS_PERSIST"},
		"batch.concurrency":             {"ORDERPARSE_BATCH_CONCURRENCY"},
		"batch.delay":                   {"ORDERPARSE_BATCH_DELAY"},
		"batch.max_file_mb":             {"ORDERPARSE_BATCH_MAX_FILE_MB"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Pipeline = PipelineConfig{
		UseLLMParser:        v.GetBool("pipeline.use_llm_parser"),
		ConfidenceThreshold: unitInterval(v, "pipeline.confidence_threshold", DefaultConfidenceThreshold),
	}
	cfg.NER = NERConfig{
		Enabled:       v.GetBool("ner.enabled"),
		Endpoint:      v.GetString("ner.endpoint"),
		Model:         v.GetString("ner.model"),
		MaxLength:     v.GetInt("ner.max_length"),
		TimeoutSecs:   v.GetInt("ner.timeout_secs"),
		ReadyAttempts: v.GetInt("ner.ready_attempts"),
	}
	cfg.LLM = LLMConfig{
		Provider:       v.GetString("llm.provider"),
		APIKey:         v.GetString("llm.api_key"),
		Model:          v.GetString("llm.model"),
		BaseURL:        v.GetString("llm.base_url"),
		MaxRetries:     v.GetInt("llm.max_retries"),
		TimeoutSecs:    v.GetInt("llm.timeout_secs"),
		RetryDelay:     v.GetDuration("llm.retry_delay"),
		Temperature:    v.GetFloat64("llm.temperature"),
		MaxTokens:      v.GetInt("llm.max_tokens"),
		BaseConfidence: unitInterval(v, "llm.base_confidence", DefaultLLMBaseConfidence),
		Secondary: LLMProviderConfig{
			Provider:     v.GetString("llm.secondary.provider"),
			APIKey:       v.GetString("llm.secondary.api_key"),
			DefaultModel: v.GetString("llm.secondary.default_model"),
			BaseURL:      v.GetString("llm.secondary.base_url"),
		},
	}
	// Provider-specific key names, used only when no generic key was given.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(v, cfg.LLM.Provider)
	}
	if cfg.LLM.Secondary.Provider != "" && cfg.LLM.Secondary.APIKey == "" {
		cfg.LLM.Secondary.APIKey = providerKey(v, cfg.LLM.Secondary.Provider)
	}

	cfg.Stats = StatsConfig{
		Backend: v.GetString("stats.backend"),
		Path:    v.GetString("stats.path"),
		Persist: v.GetBool("stats.persist"),
	}
	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("batch.concurrency"),
		Delay:       v.GetDuration("batch.delay"),
		MaxFileMB:   v.GetInt64("batch.max_file_mb"),
	}

	return cfg, nil
}

// unitInterval reads key as a number in [0, 1]. Unparseable or out-of-range values fall back
// to def instead of silently becoming 0.
func unitInterval(v *viper.Viper, key string, def float64) float64 {
	raw := strings.TrimSpace(v.GetString(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
		return def
	}
	return f
}

var providerKeyEnvs = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

func providerKey(v *viper.Viper, provider string) string {
	env, ok := providerKeyEnvs[provider]
	if !ok {
		return ""
	}
	key := "keys." + provider
	_ = v.BindEnv(key, env)
	return v.GetString(key)
}
