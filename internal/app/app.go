// Package app assembles the service from configuration. Both entry points
// share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"scam-honeypot/handler"
	"scam-honeypot/internal/config"
	"scam-honeypot/internal/detector"
	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/engage"
	"scam-honeypot/internal/integrations/anthropic"
	"scam-honeypot/internal/integrations/gemini"
	"scam-honeypot/internal/integrations/openai"
	"scam-honeypot/internal/integrations/paramstore"
	"scam-honeypot/internal/intel"
	"scam-honeypot/internal/llm"
	"scam-honeypot/internal/repository"
	"scam-honeypot/internal/retry"
	"scam-honeypot/internal/state"
	"scam-honeypot/internal/usecase"
)

const archiveTimeout = 10 * time.Second

// App is the assembled service.
type App struct {
	Handler *handler.Handler
	Store   *state.Store
}

// Build wires every component described by cfg. AWS clients are created only
// when PARAM_PREFIX or ARCHIVE_TABLE is set.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}

	var (
		params  *paramstore.Client
		archive *repository.Archive
	)
	if cfg.ParamPrefix != "" || cfg.ArchiveTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load aws config: %w", err)
		}
		if cfg.ParamPrefix != "" {
			params, err = paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return nil, fmt.Errorf("app: %w", err)
			}
		}
		if cfg.ArchiveTable != "" {
			archive, err = repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ArchiveTable)
			if err != nil {
				return nil, fmt.Errorf("app: %w", err)
			}
		}
	}

	apiKey, err := secret(ctx, cfg.APIKey, params, cfg.ParamPrefix, "api")
	if err != nil {
		return nil, fmt.Errorf("app: resolve inbound api key: %w", err)
	}

	client, err := newLLM(ctx, cfg, params)
	if err != nil {
		return nil, err
	}
	client = llm.WithRetry(client, string(cfg.Provider), retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	})

	var (
		storeOpts  []state.Option
		engineOpts = []usecase.EngineOption{usecase.WithAIExtraction(cfg.AIExtraction)}
	)
	if archive != nil {
		storeOpts = append(storeOpts, state.WithEvictHook(archiveOnEvict(archive)))
		engineOpts = append(engineOpts, usecase.WithArchive(archive))
	}

	store, err := state.New(cfg.ConversationTTL, cfg.MaxConversationTurns, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	engine, err := usecase.NewEngine(
		store,
		detector.New(client),
		engage.New(client),
		intel.NewExtractor(client),
		engineOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	h, err := handler.NewHandler(engine, apiKey)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	slog.Info("service assembled",
		"provider", cfg.Provider,
		"ai_extraction", cfg.AIExtraction,
		"archive", cfg.ArchiveTable != "",
		"max_turns", cfg.MaxConversationTurns,
		"ttl", cfg.ConversationTTL,
	)
	return &App{Handler: h, Store: store}, nil
}

func newLLM(ctx context.Context, cfg *config.Config, params *paramstore.Client) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithBaseURL(cfg.OpenAIBaseURL)}
		if cfg.OpenAIAPIKey != "" {
			opts = append(opts, openai.WithAPIKey(cfg.OpenAIAPIKey))
		} else if params != nil {
			opts = append(opts, openai.WithParamStore(params, cfg.ParamPrefix))
		}
		c, err := openai.NewClient(cfg.OpenAIModel, opts...)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return c, nil
	case config.ProviderAnthropic:
		key, err := secret(ctx, cfg.AnthropicAPIKey, params, cfg.ParamPrefix, "anthropic")
		if err != nil {
			return nil, fmt.Errorf("app: resolve anthropic key: %w", err)
		}
		c, err := anthropic.NewClient(key, cfg.AnthropicModel)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return c, nil
	case config.ProviderGemini:
		key, err := secret(ctx, cfg.GeminiAPIKey, params, cfg.ParamPrefix, "gemini")
		if err != nil {
			return nil, fmt.Errorf("app: resolve gemini key: %w", err)
		}
		c, err := gemini.NewClient(ctx, key, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("app: unknown provider %q", cfg.Provider)
	}
}

// secret prefers the environment value and falls back to the SSM token
// for service.
func secret(ctx context.Context, env string, getter paramstore.Getter, prefix, service string) (string, error) {
	if env != "" {
		return env, nil
	}
	if getter == nil || prefix == "" {
		return "", fmt.Errorf("no %s key configured", service)
	}
	return paramstore.Token(ctx, getter, paramstore.TokenName(prefix, service))
}

// archiveOnEvict archives conversations that expire while still active.
// Finished conversations were already archived when they were marked done.
func archiveOnEvict(a usecase.Archiver) state.EvictFunc {
	return func(st *domain.ConversationState) {
		if st == nil || !st.Active {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := a.Archive(ctx, st); err != nil {
				slog.Error("failed to archive expired conversation", "conversation_id", st.ID, "err", err)
			}
		}()
	}
}
