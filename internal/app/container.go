package app

import (
	"context"
	"fmt"

	"github.com/yeonho/movie-suggester-go/internal/config"
	"github.com/yeonho/movie-suggester-go/internal/server"
	"github.com/yeonho/movie-suggester-go/internal/service"
	"github.com/yeonho/movie-suggester-go/internal/service/cache"
	"go.uber.org/zap"
)

// Container bundles the assembled suggestion pipeline and its HTTP surface.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Server *server.Server

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Heavy-weight initialization
// (LLM client, cache connection) is performed here so the server stays
// focused on request handling.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	gateway := service.NewLLMGateway(provider, cfg.LLM.RequestTimeout, logger)

	// Metadata cache is optional: without a Redis host every lookup
	// goes straight to the upstream API.
	var cacheSvc *cache.Service
	if cfg.CacheEnabled() {
		cacheSvc, err = cache.NewService(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
	} else {
		logger.Info("Metadata cache disabled, lookups go direct to upstream")
	}

	metadataSvc := service.NewIMDBService(cfg.Metadata.BaseURL, cfg.Metadata.Timeout, cacheSvc, logger)
	enricher := service.NewMetadataEnricher(metadataSvc, logger)
	orchestrator := service.NewSuggestionOrchestrator(gateway, enricher, logger)

	httpServer := server.NewServer(orchestrator, cfg.Server.AllowedOrigins, logger)

	logger.Info("Application services assembled",
		zap.String("llm_provider", provider.Name()),
		zap.Bool("cache_enabled", cacheSvc != nil))

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Server:  httpServer,
		closers: closers,
	}, nil
}

func buildProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.LLMProvider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		provider, err := service.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai provider: %w", err)
		}
		return provider, nil
	default:
		provider, err := service.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini provider: %w", err)
		}
		return provider, nil
	}
}
