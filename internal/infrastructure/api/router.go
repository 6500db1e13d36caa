package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lakarijeprvovencani/tl-tryon/internal/metrics"
)

type RouterConfig struct {
	TryOn   *TryOnHandler
	Catalog *CatalogHandler
	// Function serves the serverless function route; it answers CORS itself.
	Function http.Handler
	CORS     *CORSMiddleware
	Logger   zerolog.Logger
}

// NewRouter wires every route and wraps the router with logging, panic
// recovery and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", cfg.TryOn.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if cfg.Function != nil {
		r.Handle("/.netlify/functions/tryon", cfg.Function)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	if cfg.CORS != nil {
		apiRouter.Use(cfg.CORS.Handler)
	}
	apiRouter.HandleFunc("/tryon", cfg.TryOn.HandleTryOn).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/generate", cfg.TryOn.HandleGenerate).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/test-ai", cfg.TryOn.HandleTestAI).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/products", cfg.Catalog.HandleProducts).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/shopify-products", cfg.Catalog.HandleShopifyProducts).Methods(http.MethodGet, http.MethodOptions)

	return RequestLogging(cfg.Logger)(Recovery(metrics.InstrumentHandler(r)))
}
