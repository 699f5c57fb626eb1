package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dtp-backend/internal/config"
	"dtp-backend/internal/generator"
	"dtp-backend/internal/geo"
	"dtp-backend/internal/handlers"
	"dtp-backend/internal/repository"
	"dtp-backend/internal/services"
	"dtp-backend/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the API server and blocks until SIGINT or SIGTERM
func Run() {
	configPath := os.Getenv("DTP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Box archive
	var archive services.BoxArchive
	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		log.Info().Msg("Database connection established")

		boxRepo := repository.NewBoxRepository(db)
		if err := boxRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		archive = boxRepo
	} else {
		log.Warn().Msg("Database disabled, boxes live only in their session")
	}

	// Content generator
	var gen generator.Generator = generator.Disabled{}
	if cfg.Gemini.APIKey != "" {
		gemini, err := generator.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create generator client")
		}
		gen = gemini
	} else {
		log.Warn().Msg("Gemini API key not set, generated content is disabled")
	}

	// Notifications
	wsHub := services.NewWSHub()
	var pusher services.Pusher
	if cfg.APNs.CertFile != "" {
		apns, err := services.NewAPNsPusher(cfg.APNs.CertFile, cfg.APNs.CertPassword, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push client")
		}
		pusher = apns
	}
	dispatcher := services.NewDispatcher(wsHub, pusher)

	// Initialize services
	registry := session.NewRegistry()
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go registry.RunSweeper(sweepCtx, cfg.Server.SessionSweep)
	scheduler := services.NewAcceptanceScheduler(cfg.Chat.AcceptProbability, cfg.Chat.AcceptDelay, nil, dispatcher)

	userService := services.NewUserService(registry, services.UserConfig{
		JWTSecret:   cfg.JWT.Secret,
		TokenTTL:    cfg.JWT.TTL,
		EmailMarker: cfg.Demo.EmailMarker,
		Passcode:    cfg.Demo.Passcode,
		DailyDrops:  cfg.Limits.DailyDrops,
	})
	boxService := services.NewBoxService(
		geo.NewEvaluator(cfg.Geo.ReachThreshold, cfg.Geo.DropRadius),
		gen,
		archive,
		dispatcher,
		services.BoxConfig{
			BoxTTL:         cfg.Limits.BoxTTL,
			FakeBoxCount:   cfg.Limits.FakeBoxCount,
			FakeBoxMinimum: cfg.Limits.FakeBoxMinimum,
			FakeBoxJitter:  cfg.Limits.FakeBoxJitter,
			Fallback:       geo.Point{Lat: cfg.Geo.FallbackLat, Lng: cfg.Geo.FallbackLng},
		},
	)
	chatService := services.NewChatService(gen, scheduler, dispatcher)
	loreService := services.NewLoreService(gen)

	var photoService *services.PhotoService
	if cfg.AWS.S3Bucket != "" {
		photoService, err = services.NewPhotoService(
			ctx,
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create photo service")
		}
	}

	router := handlers.NewRouter(handlers.Services{
		Users:  userService,
		Boxes:  boxService,
		Chats:  chatService,
		Lore:   loreService,
		Photos: photoService,
		Hub:    wsHub,
	})

	// Create HTTP server. Replies wait on the generator, so writes get
	// the generator timeout on top.
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.Gemini.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stopSweep()
	wsHub.Close()
	scheduler.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	registry.Close()

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
