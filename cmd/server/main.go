package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lakarijeprvovencani/tl-tryon/internal/app"
	"github.com/lakarijeprvovencani/tl-tryon/internal/config"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/api"
)

const shutdownTimeout = 30 * time.Second

func main() {
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("invalid logging configuration")
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	// Initialize API layer
	tryOnHandler := api.NewTryOnHandler(
		application.TryOnUseCase,
		application.CatalogUseCase,
		application.InputService,
		api.TryOnHandlerOptions{
			Model:                  cfg.Model,
			TestPersonImage:        cfg.TestPersonImage,
			TestGarmentDescription: cfg.DefaultGarmentDescription,
		},
	)
	catalogHandler := api.NewCatalogHandler(application.CatalogUseCase)

	handler := api.NewRouter(api.RouterConfig{
		TryOn:    tryOnHandler,
		Catalog:  catalogHandler,
		Function: application.Function,
		CORS:     api.NewCORSMiddleware(cfg.CORSAllowedOrigins),
		Logger:   log.Logger,
	})

	// 生成はリトライ込みで時間がかかるため書き込みタイムアウトは上流タイムアウトより長くする
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("backend", string(cfg.GenAI.Backend)).
			Str("model", cfg.Model).
			Str("catalog", cfg.CatalogSource).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
