// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names the generative backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds all configuration for the service.
type Config struct {
	Port   int
	APIKey string

	// Generative provider
	Provider        Provider
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// ParamPrefix, when set, is the SSM path holding secrets missing from the
	// environment.
	ParamPrefix string

	// Conversation lifecycle
	ConversationTTL      time.Duration
	MaxConversationTurns int
	SweepInterval        time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration

	AIExtraction bool
	ArchiveTable string

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("LLM_PROVIDER", string(ProviderGemini))
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("OPENAI_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("OPENAI_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	v.SetDefault("CONVERSATION_TTL", 3600)
	v.SetDefault("MAX_CONVERSATION_TURNS", 15)
	v.SetDefault("SWEEP_INTERVAL", "5m")
	v.SetDefault("RETRY_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", "500ms")
	v.SetDefault("AI_EXTRACTION", false)
	v.SetDefault("RATE_LIMIT_WINDOW", "60s")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := &Config{
		Port:                 v.GetInt("PORT"),
		APIKey:               v.GetString("API_KEY"),
		Provider:             Provider(strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER")))),
		GeminiAPIKey:         v.GetString("GEMINI_API_KEY"),
		GeminiModel:          v.GetString("GEMINI_MODEL"),
		OpenAIAPIKey:         v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:        v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:          v.GetString("OPENAI_MODEL"),
		AnthropicAPIKey:      v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:       v.GetString("ANTHROPIC_MODEL"),
		ParamPrefix:          strings.TrimRight(strings.TrimSpace(v.GetString("PARAM_PREFIX")), "/"),
		ConversationTTL:      time.Duration(v.GetInt("CONVERSATION_TTL")) * time.Second,
		MaxConversationTurns: v.GetInt("MAX_CONVERSATION_TURNS"),
		SweepInterval:        v.GetDuration("SWEEP_INTERVAL"),
		RetryAttempts:        v.GetInt("RETRY_ATTEMPTS"),
		RetryBaseDelay:       v.GetDuration("RETRY_BASE_DELAY"),
		AIExtraction:         v.GetBool("AI_EXTRACTION"),
		ArchiveTable:         strings.TrimSpace(v.GetString("ARCHIVE_TABLE")),
		RateLimitWindow:      v.GetDuration("RATE_LIMIT_WINDOW"),
		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:            strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProviderAPIKey returns the environment-supplied key for the selected
// provider, which may be empty when the key lives in SSM.
func (c *Config) ProviderAPIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		if c.ProviderAPIKey() == "" && c.ParamPrefix == "" {
			errs = append(errs, fmt.Sprintf("%s_API_KEY or PARAM_PREFIX is required for provider %q", strings.ToUpper(string(c.Provider)), c.Provider))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid LLM_PROVIDER %q, must be 'gemini', 'openai' or 'anthropic'", c.Provider))
	}

	if c.APIKey == "" && c.ParamPrefix == "" {
		errs = append(errs, "API_KEY or PARAM_PREFIX is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT %d is out of range", c.Port))
	}
	if c.ConversationTTL <= 0 {
		errs = append(errs, "CONVERSATION_TTL must be positive")
	}
	if c.MaxConversationTurns <= 0 {
		errs = append(errs, "MAX_CONVERSATION_TURNS must be positive")
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, "SWEEP_INTERVAL must be positive")
	}
	if c.RetryAttempts <= 0 {
		errs = append(errs, "RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryBaseDelay < 0 {
		errs = append(errs, "RETRY_BASE_DELAY must not be negative")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMaxRequests <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW and RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid LOG_FORMAT %q, must be 'console' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}
