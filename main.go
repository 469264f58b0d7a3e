package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/config"
	"github/itish2003/pdfrag/controller"
	"github/itish2003/pdfrag/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("FATAL: Failed to load configuration")
	}
	setupLogger(cfg)

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("FATAL: Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini := services.NewGeminiClient(ctx, cfg)

	// A store that cannot be built at startup is reported on every request
	// instead, so the frontend and /health keep working.
	store, closeStore, err := services.NewVectorStore(ctx, cfg)
	if err != nil {
		if cfg.StrictConfig {
			log.Fatal().Err(err).Msg("FATAL: Failed to create vector store")
		}
		log.Warn().Err(err).Str("vector_store", cfg.VectorStore).Msg("Vector store unavailable")
		store = services.UnavailableStore{Err: err}
		closeStore = func() error { return nil }
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("Failed to close vector store")
		}
	}()

	ragService := services.NewRAGService(gemini, gemini, store, cfg.TopK)
	ingestion := services.NewIngestionService(
		services.NewPDFExtractor(cfg.UnidocLicenseKey),
		services.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		gemini,
		store,
		cfg.UpsertConcurrency,
	)
	ragController := controller.NewRAGController(ragService, ingestion, cfg.PDFPath)

	if cfg.WatchPDF {
		go func() {
			if err := ingestion.WatchFile(ctx, cfg.PDFPath); err != nil {
				log.Error().Err(err).Msg("WATCHER: stopped")
			}
		}()
	}

	router := controller.NewRouter(ragController, controller.RouterOptions{
		PublicDir:    cfg.PublicDir,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Msgf("Server starting on http://localhost:%s", cfg.Port)
		log.Info().Msgf("  POST http://localhost:%s/ask", cfg.Port)
		log.Info().Msgf("  POST http://localhost:%s/index", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("FATAL: Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}
