// Command function runs one serverless try-on invocation: it reads an event
// JSON from stdin and writes the response envelope JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lakarijeprvovencani/tl-tryon/internal/app"
	"github.com/lakarijeprvovencani/tl-tryon/internal/config"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/function"
)

func main() {
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	// stdout は応答専用なのでログは stderr へ
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("invalid logging configuration")
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read event")
	}

	var event function.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Fatal().Err(err).Msg("failed to parse event")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp := application.Function.Handle(ctx, event)

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(resp); err != nil {
		log.Fatal().Err(err).Msg("failed to write response")
	}
}
