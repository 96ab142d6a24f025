package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appLogger "github.com/FACorreiaa/go-nearby-guide/app/logger"
	"github.com/FACorreiaa/go-nearby-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-nearby-guide/app/tracer"
	"github.com/FACorreiaa/go-nearby-guide/config"
	generativeAI "github.com/FACorreiaa/go-nearby-guide/internal/api/generative_ai"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/narrator"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/places"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/session"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/speech"
	"github.com/FACorreiaa/go-nearby-guide/internal/bot"
	api "github.com/FACorreiaa/go-nearby-guide/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const telegramBaseURL = "https://api.telegram.org"

func main() {
	// --- Initial Loading ---
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := appLogger.Setup(cfg.Mode)
	slog.SetDefault(logger) // Set globally after initialization

	// --- Observability ---
	tracer.InitTracingAndMetrics()
	metrics.InitAppMetrics()

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Upstream Clients ---
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Credentials.GeminiAPIKey, cfg.LLM.Model)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		os.Exit(1)
	}
	suggestClient := places.NewHTTPClient(
		cfg.Suggest.BaseURL,
		cfg.Credentials.SuggestAPIKey,
		cfg.Suggest.SpanDegrees,
		cfg.Suggest.MaxResults,
		cfg.Suggest.Language,
	)
	telegramAPI := bot.NewTelegramAPI(nil, telegramBaseURL, cfg.Credentials.TelegramToken)

	// --- Dependency Injection ---
	placesService := places.NewServiceImpl(suggestClient, cfg.Suggest.RadiusMeters, logger)
	narratorService := narrator.NewServiceImpl(aiClient, float32(cfg.LLM.Temperature), logger)
	sessions := session.NewStore(cfg.Bot.Cooldown, cfg.Bot.ToldPlaceTTL, logger)

	var speechService speech.Service
	if cfg.Bot.VoiceEnabled {
		ttsClient, err := generativeAI.NewAIClient(ctx, cfg.Credentials.GeminiAPIKey, cfg.LLM.SpeechModel)
		if err != nil {
			logger.Error("Failed to initialize TTS client", slog.Any("error", err))
			os.Exit(1)
		}
		speechService = speech.NewServiceImpl(ttsClient, cfg.LLM.Voice, logger)
	}

	dispatcher := bot.NewDispatcher(telegramAPI, speechService, cfg.Bot.VoiceEnabled, logger)
	handler := bot.NewHandler(placesService, narratorService, sessions, telegramAPI, dispatcher, metrics.Get(), logger)
	guideBot := bot.New(telegramAPI, handler, cfg.Bot.PollTimeout, logger)

	// --- Metrics Server Setup ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Mount("/", api.SetupRouter())

	serverAddress := fmt.Sprintf(":%s", cfg.Server.MetricsPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError), // Pipe server errors to slog
	}

	// --- Run ---
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting update loop")
		return guideBot.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		logger.Info("Shutdown signal received, starting graceful shutdown...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server graceful shutdown failed", slog.Any("error", err))
			return err
		}
		logger.Info("Metrics server gracefully stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}
