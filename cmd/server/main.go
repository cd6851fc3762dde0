package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GleristonCastro/dio-gesinfopro/internal/api"
	"github.com/GleristonCastro/dio-gesinfopro/internal/assistant"
	"github.com/GleristonCastro/dio-gesinfopro/internal/config"
	"github.com/GleristonCastro/dio-gesinfopro/internal/gemini"
	"github.com/GleristonCastro/dio-gesinfopro/internal/logger"
	"github.com/GleristonCastro/dio-gesinfopro/internal/store"
)

func main() {
	var (
		envFile = flag.String("env", "", "path to an optional .env file")
		port    = flag.String("port", "", "HTTP server port (overrides PORT env)")
	)
	flag.Parse()

	cfg, err := config.Load(envPaths(*envFile)...)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open store")
	}
	defer st.Close()

	gen, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenerateTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	asst := assistant.New(st, gen, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(asst, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("model", cfg.GeminiModel).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envPaths(flagValue string) []string {
	if flagValue == "" {
		return nil
	}
	return []string{flagValue}
}
