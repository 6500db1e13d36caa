// Package app assembles the service from its configuration. Both the HTTP
// server and the standalone function binary start from here.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	appservices "github.com/lakarijeprvovencani/tl-tryon/internal/application/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/config"
	domainrepos "github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
	domainservices "github.com/lakarijeprvovencani/tl-tryon/internal/domain/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/external"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/function"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/repositories"
	infraservices "github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/services"
)

type App struct {
	Config         *config.Config
	ClientPool     domainrepos.GenAIClientPool
	TryOnUseCase   *usecases.TryOnUseCase
	CatalogUseCase *usecases.CatalogUseCase
	InputService   *appservices.ImageInputService
	Function       *function.Handler
}

func New(cfg *config.Config) (*App, error) {
	// Initialize infrastructure layer
	pool := infraservices.NewGenAIClientPool(&cfg.GenAI)
	imageService := external.NewGeminiImageService(pool, cfg.Model)

	templates := domainservices.DefaultPromptTemplates()
	if cfg.PromptTemplatesFile != "" {
		var err error
		templates, err = domainservices.LoadPromptTemplates(cfg.PromptTemplatesFile)
		if err != nil {
			return nil, err
		}
	}
	prompts, err := domainservices.NewPromptBuilder(templates)
	if err != nil {
		return nil, err
	}

	shopify := repositories.NewCachedProductCatalog(
		external.NewShopifyProductCatalog(external.ShopifyOptions{
			Domain:      cfg.ShopifyDomain,
			AccessToken: cfg.ShopifyAccessToken,
			APIVersion:  cfg.ShopifyAPIVersion,
		}),
		cfg.CatalogCacheTTL,
	)

	var catalog domainrepos.ProductCatalog
	switch cfg.CatalogSource {
	case config.CatalogSourceShopify:
		catalog = shopify
	default:
		catalog, err = repositories.LoadMemoryProductCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load product catalog: %w", err)
		}
	}

	// Initialize domain layer
	tryOnDomainService := domainservices.NewTryOnDomainService(imageService, prompts, cfg.RetryPolicy)

	// Initialize application layer
	tryOnUseCase := usecases.NewTryOnUseCase(tryOnDomainService, usecases.TryOnUseCaseOptions{
		MaxConcurrent: cfg.MaxConcurrentGenerations,
		Timeout:       cfg.UpstreamTimeout,
	})
	catalogUseCase := usecases.NewCatalogUseCase(catalog, shopify)
	inputService := appservices.NewImageInputService()

	if cfg.GenAI.Backend == domainrepos.BackendGemini && cfg.GenAI.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; try-on requests will fail until it is configured")
	}

	return &App{
		Config:         cfg,
		ClientPool:     pool,
		TryOnUseCase:   tryOnUseCase,
		CatalogUseCase: catalogUseCase,
		InputService:   inputService,
		Function:       function.NewHandler(tryOnUseCase, inputService, cfg.DefaultGarmentDescription),
	}, nil
}

func (a *App) Close() error {
	return a.ClientPool.Close()
}
